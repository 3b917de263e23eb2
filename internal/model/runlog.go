package model

import "time"

// RunStatus 는 스케줄 실행의 상태를 표현한다.
type RunStatus string

const (
	// RunStatusRunning 은 실행 중 상태. 실행 시작 시 이 상태로 생성된다.
	RunStatusRunning RunStatus = "running"
	// RunStatusSuccess 는 정상 종료 상태. 항목 단위 실패가 있어도 루프가 완주하면 성공이다.
	RunStatusSuccess RunStatus = "success"
	// RunStatusFailed 는 실행 자체가 중단된 상태(로그인 실패 등).
	RunStatusFailed RunStatus = "failed"
)

// RunLog 는 스케줄 실행 1회의 기록이다.
// running 상태로 생성되어 정확히 한 번 종료 상태(success 또는 failed)로 갱신되고,
// 이후에는 수정하지 않는 추가 전용 이력이다.
type RunLog struct {
	ID             string
	TaskName       string
	Status         RunStatus
	StartTime      time.Time
	EndTime        *time.Time
	DurationMs     *int64
	ProcessedCount int
	SuccessCount   int
	FailureCount   int
	ChangedCount   int
	Result         string // 성공 시 실행 요약(JSON 문자열)
	ErrorMessage   string // 실패 시 에러 메시지 원문
	CreatedAt      time.Time
}

// RunLogTerminal 은 실행 종료 시 RunLog에 기록할 필드 묶음이다.
type RunLogTerminal struct {
	Status         RunStatus
	EndTime        time.Time
	DurationMs     int64
	ProcessedCount int
	SuccessCount   int
	FailureCount   int
	ChangedCount   int
	Result         string
	ErrorMessage   string
}

// RunLogStats 는 최근 실행 이력의 집계이다.
type RunLogStats struct {
	DaysWindow    int     `json:"days_window"`
	TotalRuns     int     `json:"total_runs"`
	SuccessRuns   int     `json:"success_runs"`
	FailedRuns    int     `json:"failed_runs"`
	RunningRuns   int     `json:"running_runs"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}
