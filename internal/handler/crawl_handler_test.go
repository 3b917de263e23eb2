package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joonzero/patrol/internal/crawl"
	"github.com/joonzero/patrol/internal/model"
)

// --- 모의 객체 ---

type mockCrawlService struct {
	findAddressFn  func(ctx context.Context, query string) (*crawl.FindAddressResult, error)
	findProcessFn  func(ctx context.Context, token, pin, address string) (model.OwnerInfo, error)
	checkProcessFn func(ctx context.Context, token, pin, address, ownerName string) (model.RegistrationRecord, error)
}

func (m *mockCrawlService) FindAddress(ctx context.Context, query string) (*crawl.FindAddressResult, error) {
	return m.findAddressFn(ctx, query)
}
func (m *mockCrawlService) FindProcess(ctx context.Context, token, pin, address string) (model.OwnerInfo, error) {
	return m.findProcessFn(ctx, token, pin, address)
}
func (m *mockCrawlService) CheckProcess(ctx context.Context, token, pin, address, ownerName string) (model.RegistrationRecord, error) {
	return m.checkProcessFn(ctx, token, pin, address, ownerName)
}

func TestFindAddress_ReturnsTokenAndCandidates(t *testing.T) {
	h := NewCrawlHandler(&mockCrawlService{
		findAddressFn: func(ctx context.Context, query string) (*crawl.FindAddressResult, error) {
			if query != "남부순환로1990" {
				t.Errorf("query = %q", query)
			}
			return &crawl.FindAddressResult{
				Token: "tok-1",
				Candidates: []model.AddressCandidate{
					{DisplayAddress: "서울특별시 관악구 남부순환로 1990-3", Pin: "1234-0001"},
				},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/crawl/find", strings.NewReader(`{"address":"남부순환로1990"}`))
	w := httptest.NewRecorder()
	h.FindAddress(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body crawl.FindAddressResult
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Token != "tok-1" || len(body.Candidates) != 1 {
		t.Errorf("body = %+v", body)
	}
}

func TestFindAddress_MalformedBody(t *testing.T) {
	h := NewCrawlHandler(&mockCrawlService{})

	req := httptest.NewRequest(http.MethodPost, "/crawl/find", strings.NewReader(`{not json`))
	w := httptest.NewRecorder()
	h.FindAddress(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var body apiErrorResponse
	json.NewDecoder(w.Body).Decode(&body)
	if body.Code != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q", body.Code)
	}
}

func TestFindProcess_SessionExpiredMapsTo410(t *testing.T) {
	h := NewCrawlHandler(&mockCrawlService{
		findProcessFn: func(ctx context.Context, token, pin, address string) (model.OwnerInfo, error) {
			return nil, model.NewSessionExpiredError()
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/crawl/find-process",
		strings.NewReader(`{"token":"stale","pin":"1234-0001","address":"주소"}`))
	w := httptest.NewRecorder()
	h.FindProcess(w, req)

	if w.Code != http.StatusGone {
		t.Fatalf("status = %d, want 410", w.Code)
	}
}

func TestCheckProcess_PortalErrorMapsTo502(t *testing.T) {
	h := NewCrawlHandler(&mockCrawlService{
		checkProcessFn: func(ctx context.Context, token, pin, address, ownerName string) (model.RegistrationRecord, error) {
			return nil, model.NewPortalError("시스템 점검 중")
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/crawl/check-process",
		strings.NewReader(`{"token":"t","pin":"1234-0001","address":"주소","owner_name":"홍길동"}`))
	w := httptest.NewRecorder()
	h.CheckProcess(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
}

func TestCheckProcess_ReturnsRecord(t *testing.T) {
	h := NewCrawlHandler(&mockCrawlService{
		checkProcessFn: func(ctx context.Context, token, pin, address, ownerName string) (model.RegistrationRecord, error) {
			return model.RegistrationRecord{"e008cd_name": "완료"}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/crawl/check-process",
		strings.NewReader(`{"token":"t","pin":"1234-0001","address":"주소","owner_name":"홍길동"}`))
	w := httptest.NewRecorder()
	h.CheckProcess(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var record map[string]any
	json.NewDecoder(w.Body).Decode(&record)
	if record["e008cd_name"] != "완료" {
		t.Errorf("record = %v", record)
	}
}

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{model.ErrCodeInvalidRequest, http.StatusBadRequest},
		{model.ErrCodeSessionExpired, http.StatusGone},
		{model.ErrCodeTooManyResults, http.StatusUnprocessableEntity},
		{model.ErrCodeLoginFailed, http.StatusBadGateway},
		{model.ErrCodePortalError, http.StatusBadGateway},
		{model.ErrCodeDuplicateSubscription, http.StatusConflict},
		{model.ErrCodeRunInProgress, http.StatusConflict},
		{model.ErrCodeScheduleNotFound, http.StatusNotFound},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got := mapAPIErrorToHTTPStatus(&model.APIError{Code: tt.code})
		if got != tt.want {
			t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
