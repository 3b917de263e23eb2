// Package model 은 도메인 모델을 정의한다.
package model

// RegistrationRecord 는 등기소 포털에서 수집한 등기사항 스냅샷을 표현한다.
// 포털이 돌려주는 30여 개 필드(a101recev_date, regt_name, e033rgs_sel_name 등)의
// 평면적인 키/값 모음이며, 비교 목적으로는 순서 없는 맵으로만 취급한다.
// 필드의 의미는 해석하지 않는다.
type RegistrationRecord map[string]any

// Clone 은 스냅샷의 얕은 복사본을 반환한다. nil 입력에는 nil을 반환한다.
func (r RegistrationRecord) Clone() RegistrationRecord {
	if r == nil {
		return nil
	}
	out := make(RegistrationRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// AddressCandidate 는 주소 검색 결과의 한 건을 표현한다.
// 검색 세션 동안만 유지되는 일시적 데이터이며 영속화하지 않는다.
type AddressCandidate struct {
	// DisplayAddress 는 화면 표시용 소재지번(real_indi_cont_detail)이다.
	DisplayAddress string `json:"display_address"`
	// Pin 은 포털 내부의 부동산 고유번호이다.
	Pin string `json:"pin"`
}

// OwnerInfo 는 주소/PIN 검증 단계가 돌려주는 소유자 연계 메타데이터이다.
// RegistrationRecord와 마찬가지로 의미를 해석하지 않는 키/값 모음으로 취급한다.
type OwnerInfo map[string]any
