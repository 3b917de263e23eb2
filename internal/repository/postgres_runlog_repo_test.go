package repository

import (
	"testing"
	"time"

	"github.com/joonzero/patrol/internal/model"
)

// PostgresRunLogRepo가 RunLogRepository 인터페이스를 만족하는지 검증
func TestPostgresRunLogRepo_ImplementsInterface(t *testing.T) {
	var _ RunLogRepository = (*PostgresRunLogRepo)(nil)
}

// NewPostgresRunLogRepo가 올바르게 초기화되는지 검증
func TestNewPostgresRunLogRepo_Initializes(t *testing.T) {
	repo := NewPostgresRunLogRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// RunLog 모델이 생성 시점과 종료 시점의 상태 전이를 표현할 수 있는지 검증
func TestPostgresRunLogRepo_RunLogModel_Fields(t *testing.T) {
	start := time.Now()
	log := &model.RunLog{
		ID:        "run-id-1",
		TaskName:  "daily_check",
		Status:    model.RunStatusRunning,
		StartTime: start,
		CreatedAt: start,
	}

	if log.Status != model.RunStatusRunning {
		t.Errorf("log.Status = %q, want running", log.Status)
	}
	if log.EndTime != nil || log.DurationMs != nil {
		t.Error("실행 중 이력은 종료 필드가 비어 있어야 함")
	}

	end := start.Add(90 * time.Second)
	terminal := model.RunLogTerminal{
		Status:         model.RunStatusSuccess,
		EndTime:        end,
		DurationMs:     end.Sub(start).Milliseconds(),
		ProcessedCount: 3,
		SuccessCount:   2,
		FailureCount:   1,
		ChangedCount:   1,
	}

	if terminal.DurationMs != 90000 {
		t.Errorf("terminal.DurationMs = %d, want 90000", terminal.DurationMs)
	}
	if terminal.ProcessedCount != terminal.SuccessCount+terminal.FailureCount {
		t.Error("처리 건수는 성공과 실패의 합이어야 함")
	}
}
