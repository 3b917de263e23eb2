package iros

import "fmt"

// TransportError 는 네트워크 장애 또는 허용 범위(2xx/3xx) 밖의
// HTTP 상태를 뜻한다. 일시적 장애일 수 있어 전송 계층에서만 재시도한다.
type TransportError struct {
	URL        string
	StatusCode int // 네트워크 단계 실패면 0
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("포털 요청이 HTTP %d 상태를 반환했습니다: %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("포털 요청에 실패했습니다: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// LoginError 는 자격 증명 거부 또는 로그인 응답 계약 변경을 뜻한다.
// 전송 장애("네트워크가 죽었다")와 구분해 "연동이 깨졌다"로 드러내기
// 위한 타입이며, 스케줄 실행 전체를 실패시킨다.
type LoginError struct {
	Reason string
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("등기소 로그인 오류: %s", e.Reason)
}

// TooManyResultsError 는 주소 검색 결과가 설정된 상한을 넘었음을 뜻한다.
// 대화형 검색 흐름에서만 발생한다.
type TooManyResultsError struct {
	Total int
	Limit int
}

func (e *TooManyResultsError) Error() string {
	return fmt.Sprintf("검색 결과가 너무 많습니다: %d건 (최대 %d건)", e.Total, e.Limit)
}

// PortalProtocolError 는 HTTP 200 응답 본문 안의 result 마커가
// 성공이 아님을 뜻한다. 포털은 오류도 200 JSON으로 감싸므로 전송
// 계층 성공이 프로토콜 성공을 보장하지 않는다.
type PortalProtocolError struct {
	Endpoint string
	Result   string
	Message  string
}

func (e *PortalProtocolError) Error() string {
	return fmt.Sprintf("포털 프로토콜 오류 (%s): result=%q msg=%q", e.Endpoint, e.Result, e.Message)
}
