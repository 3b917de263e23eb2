package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/joonzero/patrol/internal/model"
	"github.com/joonzero/patrol/internal/subscription"
)

// ScheduleServiceInterface 는 일정 핸들러가 필요로 하는 서비스 인터페이스.
type ScheduleServiceInterface interface {
	// Register 는 모니터링 일정을 등록한다.
	Register(ctx context.Context, req subscription.RegisterRequest) (*model.Subscription, error)
	// List 는 전체 일정 목록을 반환한다.
	List(ctx context.Context) ([]*model.Subscription, error)
	// ListByEmail 은 지정 이메일의 일정 목록을 반환한다.
	ListByEmail(ctx context.Context, email string) ([]*model.Subscription, error)
	// Delete 는 지정 ID의 일정을 삭제한다.
	Delete(ctx context.Context, id string) error
}

// ScheduleHandler 는 모니터링 일정 관리의 HTTP 핸들러.
type ScheduleHandler struct {
	service ScheduleServiceInterface
}

// NewScheduleHandler 는 ScheduleHandler를 생성한다.
func NewScheduleHandler(service ScheduleServiceInterface) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// scheduleResponse 는 일정 정보의 API 응답.
// 스냅샷 본문은 내려주지 않고 보유 여부만 알린다.
type scheduleResponse struct {
	ID          string    `json:"id"`
	AddressPin  string    `json:"address_pin"`
	OwnerName   string    `json:"owner_name"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	HasSnapshot bool      `json:"has_snapshot"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toScheduleResponse(sub *model.Subscription) scheduleResponse {
	return scheduleResponse{
		ID:          sub.ID,
		AddressPin:  sub.AddressPin,
		OwnerName:   sub.OwnerName,
		Email:       sub.Email,
		Address:     sub.Address,
		HasSnapshot: sub.LastSnapshot != nil,
		CreatedAt:   sub.CreatedAt,
		UpdatedAt:   sub.UpdatedAt,
	}
}

func toScheduleResponses(subs []*model.Subscription) []scheduleResponse {
	out := make([]scheduleResponse, len(subs))
	for i, sub := range subs {
		out[i] = toScheduleResponse(sub)
	}
	return out
}

// Register 는 모니터링 일정을 등록한다.
// POST /schedule
func (h *ScheduleHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req subscription.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("본문을 해석할 수 없습니다"))
		return
	}

	sub, err := h.service.Register(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toScheduleResponse(sub))
}

// List 는 전체 일정 목록을 반환한다.
// GET /schedule
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toScheduleResponses(subs))
}

// ListByEmail 은 지정 이메일의 일정 목록을 반환한다.
// GET /schedule/email/{email}
func (h *ScheduleHandler) ListByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	subs, err := h.service.ListByEmail(r.Context(), email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toScheduleResponses(subs))
}

// Delete 는 지정 ID의 일정을 삭제한다.
// DELETE /schedule/{id}
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
