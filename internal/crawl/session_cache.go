package crawl

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joonzero/patrol/internal/iros"
)

// SessionCache 는 대화식 조회 흐름에서 포털 세션을 서버 측에 보관하는 TTL 캐시.
// 주소 검색 응답으로 발급한 토큰을 키로, 후속 조회 요청이 같은 세션을 이어 쓴다.
type SessionCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	done    chan struct{}
}

type cacheEntry struct {
	session   *iros.Session
	expiresAt time.Time
}

// NewSessionCache 는 SessionCache를 생성하고 만료 청소 고루틴을 시작한다.
func NewSessionCache(ttl time.Duration) *SessionCache {
	c := &SessionCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go c.janitor()
	return c
}

// Put 은 세션을 보관하고 조회 토큰을 발급한다.
func (c *SessionCache) Put(s *iros.Session) string {
	token := uuid.NewString()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[token] = &cacheEntry{session: s, expiresAt: time.Now().Add(c.ttl)}
	return token
}

// Get 은 토큰에 해당하는 세션을 돌려주고 TTL을 연장한다.
// 없거나 만료되었으면 false를 반환한다.
func (c *SessionCache) Get(token string) (*iros.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[token]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, token)
		return nil, false
	}
	e.expiresAt = time.Now().Add(c.ttl)
	return e.session, true
}

// Len 은 보관 중인 세션 수를 반환한다.
func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stop 은 청소 고루틴을 종료한다.
func (c *SessionCache) Stop() {
	close(c.done)
}

func (c *SessionCache) janitor() {
	interval := c.ttl
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for token, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, token)
				}
			}
			c.mu.Unlock()
		}
	}
}
