// Package detector 는 등기 레코드 두 스냅샷의 실질적 변경 여부를 판정한다.
// 포털 응답에는 호출 시각 등 매번 달라지는 장부성 필드가 섞여 있어
// 그대로 비교하면 항상 "변경됨"으로 오탐하므로, 비교 전에 걷어낸다.
package detector

import (
	"github.com/google/go-cmp/cmp"

	"github.com/joonzero/patrol/internal/model"
)

// volatileFields 는 비교에서 제외하는 장부성 필드 목록.
var volatileFields = []string{"id", "timestamp"}

// IsUnchanged 는 이전 스냅샷과 현재 레코드가 실질적으로 동일하면 true를 돌려준다.
// 이전 스냅샷이 없으면(최초 조회) 변경으로 간주하지 않고 false를 돌려주어
// 호출 측이 초기 스냅샷 저장만 수행하도록 한다.
func IsUnchanged(prev, cur model.RegistrationRecord) bool {
	if prev == nil {
		return false
	}
	return cmp.Equal(normalize(prev), normalize(cur))
}

// normalize 는 원본을 건드리지 않고 장부성 필드를 제거한 사본을 만든다.
func normalize(r model.RegistrationRecord) model.RegistrationRecord {
	c := r.Clone()
	for _, k := range volatileFields {
		delete(c, k)
	}
	return c
}
