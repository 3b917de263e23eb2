package iros

import (
	"strings"
	"testing"
)

func TestRandomUserAgent_WellFormed(t *testing.T) {
	for i := 0; i < 50; i++ {
		ua := randomUserAgent()
		if ua == "" {
			t.Fatal("빈 User-Agent")
		}
		if strings.Contains(ua, "%d") {
			t.Fatalf("치환되지 않은 서식 문자가 남음: %q", ua)
		}
		if !strings.HasPrefix(ua, "Mozilla/5.0") {
			t.Fatalf("브라우저 User-Agent 형식이 아님: %q", ua)
		}
	}
}

func TestRandomUserAgent_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		seen[randomUserAgent()] = true
	}
	// 버전 범위가 있으므로 충분한 시도 안에 서로 다른 값이 나와야 한다
	if len(seen) < 2 {
		t.Errorf("User-Agent가 전혀 변하지 않음: %v", seen)
	}
}

func TestCountVerbs(t *testing.T) {
	if n := countVerbs("Mozilla/5.0 Firefox/%d.0"); n != 1 {
		t.Errorf("countVerbs = %d, want 1", n)
	}
	if n := countVerbs("Chrome/%d.0.0.0 Safari/%d"); n != 2 {
		t.Errorf("countVerbs = %d, want 2", n)
	}
	if n := countVerbs("no verbs"); n != 0 {
		t.Errorf("countVerbs = %d, want 0", n)
	}
}
