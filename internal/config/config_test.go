package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://patrol:pw@localhost:5432/patrol?sslmode=disable")
	t.Setenv("IROS_ACCOUNT_ID", "testid")
	t.Setenv("IROS_ACCOUNT_PW", "testpw")
}

func TestLoad_RequiredMissing(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("IROS_ACCOUNT_ID", "")
	t.Setenv("IROS_ACCOUNT_PW", "")

	_, err := Load()
	if err == nil {
		t.Fatal("필수 환경변수 누락 시 에러를 반환해야 함")
	}
	for _, key := range []string{"DATABASE_URL", "IROS_ACCOUNT_ID", "IROS_ACCOUNT_PW"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("에러 메시지에 %s가 포함되어야 함: %v", key, err)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.IrosBaseURL != "https://www.iros.go.kr" {
		t.Errorf("IrosBaseURL = %q", cfg.IrosBaseURL)
	}
	if cfg.IrosTimeout != 30*time.Second {
		t.Errorf("IrosTimeout = %v, want 30s", cfg.IrosTimeout)
	}
	if cfg.IrosRetryMax != 2 {
		t.Errorf("IrosRetryMax = %d, want 2", cfg.IrosRetryMax)
	}
	if cfg.SearchResultLimit != 100 {
		t.Errorf("SearchResultLimit = %d, want 100", cfg.SearchResultLimit)
	}
	if cfg.CheckHour != 11 {
		t.Errorf("CheckHour = %d, want 11", cfg.CheckHour)
	}
	if cfg.CheckTimezone != "Asia/Seoul" {
		t.Errorf("CheckTimezone = %q", cfg.CheckTimezone)
	}
	if cfg.RunDeadline != 10*time.Minute {
		t.Errorf("RunDeadline = %v, want 10m", cfg.RunDeadline)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("IROS_PROXY_URL", "http://proxy.internal:3128")
	t.Setenv("IROS_TIMEOUT", "5s")
	t.Setenv("CHECK_HOUR", "3")
	t.Setenv("SEARCH_RESULT_LIMIT", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.IrosProxyURL != "http://proxy.internal:3128" {
		t.Errorf("IrosProxyURL = %q", cfg.IrosProxyURL)
	}
	if cfg.IrosTimeout != 5*time.Second {
		t.Errorf("IrosTimeout = %v, want 5s", cfg.IrosTimeout)
	}
	if cfg.CheckHour != 3 {
		t.Errorf("CheckHour = %d, want 3", cfg.CheckHour)
	}
	if cfg.SearchResultLimit != 50 {
		t.Errorf("SearchResultLimit = %d, want 50", cfg.SearchResultLimit)
	}
}

func TestLoad_InvalidCheckHour(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CHECK_HOUR", "24")

	if _, err := Load(); err == nil {
		t.Error("CHECK_HOUR 범위 밖 값은 에러여야 함")
	}
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("IROS_RETRY_MAX", "많이")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.IrosRetryMax != 2 {
		t.Errorf("파싱 불가 값은 기본값으로 대체되어야 함: %d", cfg.IrosRetryMax)
	}
}
