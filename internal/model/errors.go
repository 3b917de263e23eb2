package model

import "fmt"

// APIError 는 통일 에러 포맷을 표현한다.
// UI에 표시할 원인 카테고리와 대처 방법을 포함한다.
type APIError struct {
	Code     string // 에러 코드
	Message  string // 에러 메시지
	Category string // 카테고리: validation, portal, schedule, system
	Action   string // 사용자 대처 방법
}

// Error 는 error 인터페이스를 구현한다.
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 정의된 에러 코드
const (
	ErrCodeDuplicateSubscription = "DUPLICATE_SUBSCRIPTION"
	ErrCodeScheduleNotFound      = "SCHEDULE_NOT_FOUND"
	ErrCodeSessionExpired        = "SESSION_EXPIRED"
	ErrCodeTooManyResults        = "TOO_MANY_RESULTS"
	ErrCodeLoginFailed           = "LOGIN_FAILED"
	ErrCodePortalError           = "PORTAL_ERROR"
	ErrCodeInvalidRequest        = "INVALID_REQUEST"
	ErrCodeRunInProgress         = "RUN_IN_PROGRESS"
)

// NewDuplicateSubscriptionError 는 (주소핀, 이메일) 중복 등록 에러를 생성한다.
func NewDuplicateSubscriptionError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateSubscription,
		Message:  "이미 등록된 주소핀과 이메일 조합입니다.",
		Category: "schedule",
		Action:   "기존 등록 내역을 확인해주세요.",
	}
}

// NewScheduleNotFoundError 는 구독 미존재 에러를 생성한다.
func NewScheduleNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeScheduleNotFound,
		Message:  fmt.Sprintf("스케줄을 찾을 수 없습니다: %s", id),
		Category: "schedule",
		Action:   "스케줄 ID를 확인해주세요.",
	}
}

// NewSessionExpiredError 는 검색 세션 만료 에러를 생성한다.
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "검색 세션이 만료되었습니다.",
		Category: "portal",
		Action:   "주소를 다시 검색해주세요.",
	}
}

// NewTooManyResultsError 는 검색 결과 과다 에러를 생성한다.
func NewTooManyResultsError(total, limit int) *APIError {
	return &APIError{
		Code:     ErrCodeTooManyResults,
		Message:  fmt.Sprintf("검색 결과가 너무 많습니다: %d건 (최대 %d건)", total, limit),
		Category: "portal",
		Action:   "도로명이나 지번을 포함해 더 구체적인 주소로 검색해주세요.",
	}
}

// NewLoginFailedError 는 포털 로그인 실패 에러를 생성한다.
func NewLoginFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeLoginFailed,
		Message:  "등기소 로그인에 실패했습니다.",
		Category: "portal",
		Action:   "잠시 후 다시 시도해주세요. 계속 실패하면 관리자에게 문의해주세요.",
	}
}

// NewPortalError 는 포털 연동 오류 에러를 생성한다.
func NewPortalError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodePortalError,
		Message:  fmt.Sprintf("등기소 조회에 실패했습니다: %s", reason),
		Category: "portal",
		Action:   "잠시 후 다시 시도해주세요.",
	}
}

// NewInvalidRequestError 는 요청 형식 오류 에러를 생성한다.
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("잘못된 요청입니다: %s", reason),
		Category: "validation",
		Action:   "요청 내용을 확인해주세요.",
	}
}

// NewRunInProgressError 는 실행 중복 거부 에러를 생성한다.
func NewRunInProgressError() *APIError {
	return &APIError{
		Code:     ErrCodeRunInProgress,
		Message:  "스케줄 점검이 이미 실행 중입니다.",
		Category: "schedule",
		Action:   "실행이 끝난 뒤 실행 로그를 확인해주세요.",
	}
}
