package iros

import (
	"fmt"

	"github.com/mazen160/go-random"
)

// uaTemplates 는 그럴듯한 브라우저 User-Agent의 뼈대이다.
// 버전 숫자만 뽑아 넣으므로 특정 브라우저와 정확히 일치할 필요는 없고,
// 클라이언트 인스턴스마다 달라지기만 하면 된다.
var uaTemplates = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:%d.0) Gecko/20100101 Firefox/%d.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:%d.0) Gecko/20100101 Firefox/%d.0",
}

// randomUserAgent 는 무작위 브라우저 User-Agent를 생성한다.
// 난수 생성이 실패하면 고정된 Firefox UA로 대체한다.
func randomUserAgent() string {
	idx, err := random.IntRange(0, len(uaTemplates))
	if err != nil {
		return "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:140.0) Gecko/20100101 Firefox/140.0"
	}
	major, err := random.IntRange(120, 145)
	if err != nil {
		major = 140
	}

	tmpl := uaTemplates[idx]
	if countVerbs(tmpl) == 2 {
		return fmt.Sprintf(tmpl, major, major)
	}
	return fmt.Sprintf(tmpl, major)
}

func countVerbs(tmpl string) int {
	n := 0
	for i := 0; i+1 < len(tmpl); i++ {
		if tmpl[i] == '%' && tmpl[i+1] == 'd' {
			n++
		}
	}
	return n
}
