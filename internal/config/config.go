// Package config 는 환경변수 기반 설정을 제공한다.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 는 애플리케이션 전체 설정을 보관한다.
// 기동 시 환경변수에서 1회 읽어 들이며 이후에는 불변으로 취급한다.
type Config struct {
	// Database
	DatabaseURL string

	// IROS 포털
	IrosBaseURL       string
	IrosAccountID     string
	IrosAccountPW     string
	IrosProxyURL      string // 설정 시 모든 포털 요청이 이 포워드 프록시를 경유한다
	IrosTimeout       time.Duration
	IrosRetryMax      int
	SearchResultLimit int

	// 스케줄러
	CheckHour     int    // 일일 점검 시각 (0-23)
	CheckTimezone string // 점검 시각의 기준 타임존
	RunDeadline   time.Duration

	// SMTP
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	// Rate Limit (req/min)
	RateLimitGeneral int
	RateLimitCrawl   int

	// Server
	ServerPort string
	BaseURL    string

	// CORS
	CORSAllowedOrigin string
}

// Load 는 환경변수에서 Config를 읽어 들인다.
// 필수 환경변수가 비어 있으면 에러를 반환한다.
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.IrosAccountID = os.Getenv("IROS_ACCOUNT_ID")
	if cfg.IrosAccountID == "" {
		missing = append(missing, "IROS_ACCOUNT_ID")
	}

	cfg.IrosAccountPW = os.Getenv("IROS_ACCOUNT_PW")
	if cfg.IrosAccountPW == "" {
		missing = append(missing, "IROS_ACCOUNT_PW")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("필수 환경변수가 설정되지 않았습니다: %s", strings.Join(missing, ", "))
	}

	cfg.IrosBaseURL = getEnvString("IROS_BASE_URL", "https://www.iros.go.kr")
	cfg.IrosProxyURL = getEnvString("IROS_PROXY_URL", "")
	cfg.IrosTimeout = getEnvDuration("IROS_TIMEOUT", 30*time.Second)
	cfg.IrosRetryMax = getEnvInt("IROS_RETRY_MAX", 2)
	cfg.SearchResultLimit = getEnvInt("SEARCH_RESULT_LIMIT", 100)

	cfg.CheckHour = getEnvInt("CHECK_HOUR", 11)
	cfg.CheckTimezone = getEnvString("CHECK_TIMEZONE", "Asia/Seoul")
	cfg.RunDeadline = getEnvDuration("RUN_DEADLINE", 10*time.Minute)

	cfg.SMTPHost = getEnvString("SMTP_HOST", "smtp.gmail.com")
	cfg.SMTPPort = getEnvInt("SMTP_PORT", 587)
	cfg.SMTPUser = getEnvString("SMTP_USER", "")
	cfg.SMTPPass = getEnvString("SMTP_PASS", "")
	cfg.MailFrom = getEnvString("MAIL_FROM", cfg.SMTPUser)

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitCrawl = getEnvInt("RATE_LIMIT_CRAWL", 10)

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:"+cfg.ServerPort)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.CheckHour < 0 || cfg.CheckHour > 23 {
		return nil, fmt.Errorf("CHECK_HOUR는 0-23 범위여야 합니다: %d", cfg.CheckHour)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
