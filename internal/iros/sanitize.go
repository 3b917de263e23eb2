package iros

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy 는 모든 태그를 제거하는 bluemonday 정책.
// 정책 구축 비용이 있어 패키지 단위로 한 번만 만든다. 스레드 안전.
var strictPolicy = bluemonday.StrictPolicy()

// stripMarkup 은 포털 검색 결과 텍스트에 섞여 오는 마크업
// (강조 태그 등)을 제거하고 순수 텍스트를 반환한다.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	// StrictPolicy는 태그를 벗기고 엔티티를 이스케이프하므로 되돌린다.
	return html.UnescapeString(strictPolicy.Sanitize(s))
}
