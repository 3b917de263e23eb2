package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/joonzero/patrol/internal/model"
	"github.com/joonzero/patrol/internal/repository"
	"github.com/joonzero/patrol/internal/worker/check"
)

const (
	defaultLogPageLimit = 20
	maxLogPageLimit     = 100
	defaultStatsDays    = 7
	maxStatsDays        = 90
)

// RunTrigger 는 수동 점검 실행 인터페이스.
type RunTrigger interface {
	// Trigger 는 점검을 백그라운드로 시작한다. 이미 실행 중이면 check.ErrRunInProgress를 반환한다.
	Trigger() error
}

// AdminHandler 는 수동 실행과 실행 이력 조회의 HTTP 핸들러.
type AdminHandler struct {
	runner  RunTrigger
	runLogs repository.RunLogRepository
}

// NewAdminHandler 는 AdminHandler를 생성한다.
func NewAdminHandler(runner RunTrigger, runLogs repository.RunLogRepository) *AdminHandler {
	return &AdminHandler{runner: runner, runLogs: runLogs}
}

// runLogResponse 는 실행 이력 1건의 API 응답.
type runLogResponse struct {
	ID             string     `json:"id"`
	TaskName       string     `json:"task_name"`
	Status         string     `json:"status"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	DurationMs     *int64     `json:"duration_ms,omitempty"`
	ProcessedCount int        `json:"processed_count"`
	SuccessCount   int        `json:"success_count"`
	FailureCount   int        `json:"failure_count"`
	ChangedCount   int        `json:"changed_count"`
	Result         string     `json:"result,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
}

// runLogListResponse 는 실행 이력 페이지 조회의 API 응답.
type runLogListResponse struct {
	Logs  []runLogResponse `json:"logs"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// RunManual 은 점검을 수동으로 1회 실행한다.
// 실행은 백그라운드로 진행되며 결과는 실행 이력에서 확인한다.
// POST /admin/schedule/run-manual
func (h *AdminHandler) RunManual(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.Trigger(); err != nil {
		if errors.Is(err, check.ErrRunInProgress) {
			writeAPIErrorResponse(w, http.StatusConflict, model.NewRunInProgressError())
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "점검 실행을 시작했습니다. 결과는 실행 로그에서 확인해주세요.",
	})
}

// ListLogs 는 실행 이력을 페이지 조회한다.
// GET /admin/scheduler/logs?page=1&limit=20&date=2026-08-15
func (h *AdminHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(r, "limit", defaultLogPageLimit)
	if limit < 1 || limit > maxLogPageLimit {
		limit = defaultLogPageLimit
	}

	var date *time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("date는 YYYY-MM-DD 형식이어야 합니다"))
			return
		}
		date = &parsed
	}

	logs, total, err := h.runLogs.ListPage(r.Context(), page, limit, date)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]runLogResponse, len(logs))
	for i, l := range logs {
		out[i] = runLogResponse{
			ID:             l.ID,
			TaskName:       l.TaskName,
			Status:         string(l.Status),
			StartTime:      l.StartTime,
			EndTime:        l.EndTime,
			DurationMs:     l.DurationMs,
			ProcessedCount: l.ProcessedCount,
			SuccessCount:   l.SuccessCount,
			FailureCount:   l.FailureCount,
			ChangedCount:   l.ChangedCount,
			Result:         l.Result,
			ErrorMessage:   l.ErrorMessage,
		}
	}

	writeJSON(w, http.StatusOK, runLogListResponse{
		Logs:  out,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// Stats 는 최근 실행 집계를 반환한다.
// GET /admin/scheduler/stats?days=7
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", defaultStatsDays)
	if days < 1 || days > maxStatsDays {
		days = defaultStatsDays
	}

	stats, err := h.runLogs.Stats(r.Context(), days)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// queryInt 는 쿼리 파라미터를 정수로 읽는다. 없거나 잘못되면 기본값을 쓴다.
func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
