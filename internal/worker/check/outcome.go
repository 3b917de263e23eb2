package check

// ItemOutcome 은 구독 항목 1건 점검의 결과 분류이다.
// 변경 없음/변경 감지는 정상 처리이며, 오류만 실패로 집계된다.
type ItemOutcome int

const (
	// OutcomeUnchanged 는 이전 스냅샷과 실질적으로 동일한 경우.
	OutcomeUnchanged ItemOutcome = iota
	// OutcomeChanged 는 등기 변경이 감지되어 알림 대상이 된 경우.
	OutcomeChanged
	// OutcomeError 는 포털 조회가 실패한 경우.
	OutcomeError
)

// String 은 메트릭 라벨과 로그에 쓰는 소문자 이름을 반환한다.
func (o ItemOutcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeChanged:
		return "changed"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}
