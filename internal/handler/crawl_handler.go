// Package handler 는 HTTP API의 핸들러와 라우팅을 제공한다.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joonzero/patrol/internal/crawl"
	"github.com/joonzero/patrol/internal/model"
)

// CrawlServiceInterface 는 대화식 조회 핸들러가 필요로 하는 서비스 인터페이스.
type CrawlServiceInterface interface {
	// FindAddress 는 주소를 검색해 세션 토큰과 후보 목록을 돌려준다.
	FindAddress(ctx context.Context, query string) (*crawl.FindAddressResult, error)
	// FindProcess 는 선택한 후보의 등기 대상 정보를 확정한다.
	FindProcess(ctx context.Context, token, pin, address string) (model.OwnerInfo, error)
	// CheckProcess 는 소유자명 대조로 등기 레코드를 조회한다.
	CheckProcess(ctx context.Context, token, pin, address, ownerName string) (model.RegistrationRecord, error)
}

// CrawlHandler 는 대화식 등기 조회의 HTTP 핸들러.
type CrawlHandler struct {
	service CrawlServiceInterface
}

// NewCrawlHandler 는 CrawlHandler를 생성한다.
func NewCrawlHandler(service CrawlServiceInterface) *CrawlHandler {
	return &CrawlHandler{service: service}
}

// findAddressRequest 는 주소 검색 요청 본문.
type findAddressRequest struct {
	Address string `json:"address"`
}

// findProcessRequest 는 대상 확정 요청 본문.
type findProcessRequest struct {
	Token   string `json:"token"`
	Pin     string `json:"pin"`
	Address string `json:"address"`
}

// checkProcessRequest 는 소유자 대조 조회 요청 본문.
type checkProcessRequest struct {
	Token     string `json:"token"`
	Pin       string `json:"pin"`
	Address   string `json:"address"`
	OwnerName string `json:"owner_name"`
}

// FindAddress 는 주소를 검색한다.
// POST /crawl/find
func (h *CrawlHandler) FindAddress(w http.ResponseWriter, r *http.Request) {
	var req findAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("본문을 해석할 수 없습니다"))
		return
	}

	result, err := h.service.FindAddress(r.Context(), req.Address)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// FindProcess 는 검색 후보의 등기 대상 정보를 확정한다.
// POST /crawl/find-process
func (h *CrawlHandler) FindProcess(w http.ResponseWriter, r *http.Request) {
	var req findProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("본문을 해석할 수 없습니다"))
		return
	}

	info, err := h.service.FindProcess(r.Context(), req.Token, req.Pin, req.Address)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// CheckProcess 는 소유자명 대조로 등기 레코드를 조회한다.
// POST /crawl/check-process
func (h *CrawlHandler) CheckProcess(w http.ResponseWriter, r *http.Request) {
	var req checkProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("본문을 해석할 수 없습니다"))
		return
	}

	record, err := h.service.CheckProcess(r.Context(), req.Token, req.Pin, req.Address, req.OwnerName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// apiErrorResponse 는 통일 에러 응답 본문.
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeJSON 은 JSON 응답을 쓴다.
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse 는 통일 에러 포맷으로 에러 응답을 쓴다.
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError 는 서비스 계층의 에러를 적절한 HTTP 상태 코드로 변환한다.
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError가 아닌 에러는 내부 서버 에러로 취급한다
	slog.Error("내부 서버 오류가 발생했습니다", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "내부 오류가 발생했습니다.",
		Category: "system",
		Action:   "잠시 후 다시 시도해주세요.",
	})
}

// mapAPIErrorToHTTPStatus 는 APIError 코드를 HTTP 상태 코드로 매핑한다.
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeSessionExpired:
		return http.StatusGone
	case model.ErrCodeTooManyResults:
		return http.StatusUnprocessableEntity
	case model.ErrCodeLoginFailed, model.ErrCodePortalError:
		return http.StatusBadGateway
	case model.ErrCodeDuplicateSubscription, model.ErrCodeRunInProgress:
		return http.StatusConflict
	case model.ErrCodeScheduleNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
