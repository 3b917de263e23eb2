package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

// Setup이 JSON 형식 로그를 출력하는지 검증
func TestSetup_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf)

	log.Info("테스트 메시지", slog.String("key", "value"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("로그가 JSON이 아님: %v", err)
	}
	if entry["msg"] != "테스트 메시지" {
		t.Errorf("msg = %v, want %q", entry["msg"], "테스트 메시지")
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want %q", entry["key"], "value")
	}
}

func TestSetup_InfoLevel(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf)

	log.Debug("디버그 메시지")
	if buf.Len() != 0 {
		t.Errorf("debug 레벨이 출력되면 안 됨: %s", buf.String())
	}

	log.Info("인포 메시지")
	if buf.Len() == 0 {
		t.Error("info 레벨은 출력되어야 함")
	}
}

func TestSetupDefault_ReplacesGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	SetupDefault(&buf)

	slog.Info("전역 로거 확인")
	if buf.Len() == 0 {
		t.Error("전역 로거가 교체되지 않음")
	}
}
