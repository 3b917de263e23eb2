package iros

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestCookieJar_LaterValueWinsKeepsOrder(t *testing.T) {
	jar := NewCookieJar()
	jar.Set("JSESSIONID", "first")
	jar.Set("userId", "testid")
	jar.Set("JSESSIONID", "second")

	if got, _ := jar.Get("JSESSIONID"); got != "second" {
		t.Errorf("JSESSIONID = %q, want second", got)
	}
	header := jar.Header()
	if header != "JSESSIONID=second; userId=testid" {
		t.Errorf("Header() = %q", header)
	}
}

func TestCookieJar_HarvestDropsAttributes(t *testing.T) {
	jar := NewCookieJar()
	jar.Harvest([]string{
		"JSESSIONID=abc123; Path=/; HttpOnly",
		"WMONID=xyz; Expires=Wed, 01 Jan 2031 00:00:00 GMT",
		"; Path=/",
	})

	if jar.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", jar.Len())
	}
	if got, _ := jar.Get("JSESSIONID"); got != "abc123" {
		t.Errorf("JSESSIONID = %q", got)
	}
	if got, _ := jar.Get("WMONID"); got != "xyz" {
		t.Errorf("WMONID = %q", got)
	}
}

func TestCookieJar_ConcurrentAccess(t *testing.T) {
	// 대화식 조회는 같은 토큰의 요청들이 세션 하나를 공유한다
	jar := NewCookieJar()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			jar.Harvest([]string{fmt.Sprintf("cookie%d=v%d; Path=/", n, n)})
		}(i)
		go func() {
			defer wg.Done()
			_ = jar.Header()
		}()
	}
	wg.Wait()

	if jar.Len() != 20 {
		t.Errorf("Len() = %d, want 20", jar.Len())
	}
	for i := 0; i < 20; i++ {
		if !strings.Contains(jar.Header(), fmt.Sprintf("cookie%d=v%d", i, i)) {
			t.Errorf("cookie%d가 헤더에 없음", i)
		}
	}
}
