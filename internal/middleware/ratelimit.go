package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig 는 레이트 제한 설정을 담는다.
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API 전반의 레이트(req/sec). 120/60 = 2 req/sec
	GeneralBurst    int           // API 전반의 버스트 크기
	CrawlRate       rate.Limit    // 포털 조회 계열의 레이트(req/sec). 10/60
	CrawlBurst      int           // 포털 조회 계열의 버스트 크기
	CleanupInterval time.Duration // 만료 엔트리 청소 간격
}

// DefaultRateLimiterConfig 는 기본 레이트 제한 설정을 반환한다.
// API 전반 120 req/min/IP, 포털 조회 계열 10 req/min/IP.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0),
		GeneralBurst:    120,
		CrawlRate:       rate.Limit(10.0 / 60.0),
		CrawlBurst:      10,
		CleanupInterval: 5 * time.Minute,
	}
}

// ipLimiter 는 IP별 리미터와 마지막 접근 시각을 담는다.
type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter 는 클라이언트 IP별 레이트 제한을 관리한다.
// API 전반 제한과, 등기소 포털을 실제로 호출하는 조회 계열 제한의 2종을 제공한다.
type RateLimiter struct {
	config RateLimiterConfig

	generalMu       sync.RWMutex
	generalLimiters map[string]*ipLimiter

	crawlMu       sync.RWMutex
	crawlLimiters map[string]*ipLimiter

	stopCh chan struct{}
}

// NewRateLimiter 는 새 RateLimiter를 생성하고 만료 엔트리 청소를 백그라운드로 시작한다.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:          config,
		generalLimiters: make(map[string]*ipLimiter),
		crawlLimiters:   make(map[string]*ipLimiter),
		stopCh:          make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop 은 청소 고루틴을 정지한다.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware 는 API 전반의 레이트 제한 미들웨어를 반환한다.
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			limiter := rl.getOrCreate(&rl.generalMu, rl.generalLimiters, ip, rl.config.GeneralRate, rl.config.GeneralBurst)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.GeneralRate)
				slog.Warn("요청 한도를 초과했습니다",
					slog.String("remote_addr", ip),
					slog.String("limit_type", "general"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CrawlMiddleware 는 등기소 포털을 호출하는 조회 계열 전용 레이트 제한 미들웨어를 반환한다.
// 포털 측 부하와 계정 차단 위험 때문에 API 전반보다 훨씬 엄격하다.
func (rl *RateLimiter) CrawlMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			limiter := rl.getOrCreate(&rl.crawlMu, rl.crawlLimiters, ip, rl.config.CrawlRate, rl.config.CrawlBurst)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.config.CrawlRate)
				slog.Warn("요청 한도를 초과했습니다",
					slog.String("remote_addr", ip),
					slog.String("limit_type", "crawl"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount 는 관리 중인 API 전반 리미터 엔트리 수를 반환한다. 테스트용.
func (rl *RateLimiter) GeneralLimiterCount() int {
	rl.generalMu.RLock()
	defer rl.generalMu.RUnlock()
	return len(rl.generalLimiters)
}

// CrawlLimiterCount 는 관리 중인 조회 계열 리미터 엔트리 수를 반환한다. 테스트용.
func (rl *RateLimiter) CrawlLimiterCount() int {
	rl.crawlMu.RLock()
	defer rl.crawlMu.RUnlock()
	return len(rl.crawlLimiters)
}

func (rl *RateLimiter) getOrCreate(mu *sync.RWMutex, limiters map[string]*ipLimiter, ip string, r rate.Limit, burst int) *rate.Limiter {
	mu.RLock()
	il, exists := limiters[ip]
	mu.RUnlock()

	if exists {
		mu.Lock()
		il.lastAccess = time.Now()
		mu.Unlock()
		return il.limiter
	}

	mu.Lock()
	defer mu.Unlock()

	// 더블 체크
	if il, exists := limiters[ip]; exists {
		il.lastAccess = time.Now()
		return il.limiter
	}

	limiter := rate.NewLimiter(r, burst)
	limiters[ip] = &ipLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop 는 백그라운드에서 만료 엔트리를 주기적으로 청소한다.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup 은 마지막 접근이 CleanupInterval의 2배를 넘은 엔트리를 제거한다.
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2
	now := time.Now()

	rl.generalMu.Lock()
	for ip, il := range rl.generalLimiters {
		if now.Sub(il.lastAccess) > ttl {
			delete(rl.generalLimiters, ip)
		}
	}
	rl.generalMu.Unlock()

	rl.crawlMu.Lock()
	for ip, il := range rl.crawlLimiters {
		if now.Sub(il.lastAccess) > ttl {
			delete(rl.crawlLimiters, ip)
		}
	}
	rl.crawlMu.Unlock()
}

// clientIP 는 요청의 클라이언트 IP를 구한다.
// 리버스 프록시 뒤에서는 X-Forwarded-For의 첫 항목을 쓴다.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse 는 429 Too Many Requests 응답을 쓴다.
// Retry-After 헤더에 토큰 1개가 채워질 때까지의 추정 초를 담는다.
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]string{
		"code":     "RATE_LIMIT_EXCEEDED",
		"message":  "요청이 너무 많습니다.",
		"category": "system",
		"action":   "잠시 후 다시 시도해주세요.",
	})
}
