// Package iros 는 인터넷등기소(www.iros.go.kr) 포털에 대한
// 세션 클라이언트와 스크레이핑 프로토콜 구현을 제공한다.
//
// 포털은 전형적인 REST API가 아니라 websquare 프레임워크 기반의
// 내부 API이다. 로그인으로 얻은 crypted_id와 응답마다 누적되는
// 쿠키가 모든 후속 호출에 필요하며(세션 친화성), HTTP 200 응답
// 본문 안의 result 마커로 성공/실패를 구분한다.
package iros

import (
	"strings"
	"sync"
	"time"
)

// CookieJar 는 쿠키 이름을 키로 하는 순서 보존 쿠키 저장소이다.
// 같은 이름의 쿠키는 나중 값이 이긴다(위치는 최초 삽입 순서 유지).
// 대화식 조회 흐름에서는 같은 토큰의 요청들이 세션을 공유하므로
// 동시 접근에 안전해야 한다.
type CookieJar struct {
	mu     sync.Mutex
	names  []string
	values map[string]string
}

// NewCookieJar 는 빈 CookieJar를 생성한다.
func NewCookieJar() *CookieJar {
	return &CookieJar{values: make(map[string]string)}
}

// Set 은 쿠키를 저장한다. 기존 이름이면 값만 덮어쓴다.
func (j *CookieJar) Set(name, value string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.set(name, value)
}

func (j *CookieJar) set(name, value string) {
	if _, ok := j.values[name]; !ok {
		j.names = append(j.names, name)
	}
	j.values[name] = value
}

// Get 은 쿠키 값을 반환한다.
func (j *CookieJar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	v, ok := j.values[name]
	return v, ok
}

// Len 은 저장된 쿠키 수를 반환한다.
func (j *CookieJar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.names)
}

// Header 는 Cookie 요청 헤더에 넣을 값을 삽입 순서대로 조립한다.
func (j *CookieJar) Header() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	pairs := make([]string, 0, len(j.names))
	for _, name := range j.names {
		pairs = append(pairs, name+"="+j.values[name])
	}
	return strings.Join(pairs, "; ")
}

// Harvest 는 Set-Cookie 응답 헤더 목록에서 이름/값을 추출해 저장한다.
// 속성(Path, Expires 등)은 버리고 첫 번째 name=value 쌍만 취한다.
func (j *CookieJar) Harvest(setCookies []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, raw := range setCookies {
		first := strings.SplitN(raw, ";", 2)[0]
		name, value, ok := strings.Cut(first, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		j.set(name, value)
	}
}

// Session 은 로그인 1회로 만들어지는 포털 세션이다.
// 점검 실행 1회가 단독으로 소유하며, 절대 영속화하거나 실행 간에
// 공유하지 않는다. 대화형 검색에서는 같은 토큰의 요청들이 세션을
// 이어 쓸 수 있으므로 Jar가 동시 접근을 직렬화한다.
type Session struct {
	AccountID string
	CryptedID string
	Jar       *CookieJar
	CreatedAt time.Time
}

// Credentials 는 포털 로그인 계정이다. 계정은 하나이며 설정에서 주입된다.
type Credentials struct {
	ID       string
	Password string
}
