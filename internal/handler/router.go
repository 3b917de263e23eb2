package handler

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joonzero/patrol/internal/metrics"
	"github.com/joonzero/patrol/internal/middleware"
	"github.com/joonzero/patrol/internal/repository"
)

// RouterDeps 는 NewRouter에 필요한 의존성 묶음.
type RouterDeps struct {
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 대화식 조회
	CrawlService CrawlServiceInterface

	// 일정 관리
	ScheduleService ScheduleServiceInterface

	// 수동 실행과 실행 이력
	Runner  RunTrigger
	RunLogs repository.RunLogRepository

	// 헬스체크용 DB. nil이면 DB 확인을 건너뛴다.
	DB *sql.DB

	// Prometheus 레지스트리. /metrics에 노출한다.
	Gatherer prometheus.Gatherer
}

// NewRouter 는 전체 API 라우팅과 미들웨어 체인을 구성한 chi.Router를 반환한다.
//
// 미들웨어 실행 순서:
//
//	Recovery → Logging → CORS → RateLimit(General)
//
// 포털을 실제로 호출하는 /crawl/* 계열에는 조회 전용 레이트 제한을 덧댄다.
// /healthz와 /metrics는 레이트 제한 밖에 둔다.
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	crawlHandler := NewCrawlHandler(deps.CrawlService)
	scheduleHandler := NewScheduleHandler(deps.ScheduleService)
	adminHandler := NewAdminHandler(deps.Runner, deps.RunLogs)

	// --- 레이트 제한 밖의 루트 ---

	r.Get("/healthz", healthzHandler(deps.DB))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 레이트 제한 안의 루트 ---

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 대화식 등기 조회. 포털 호출을 수반하므로 조회 전용 제한을 덧댄다.
		r.Route("/crawl", func(r chi.Router) {
			r.Use(deps.RateLimiter.CrawlMiddleware())
			r.Post("/find", crawlHandler.FindAddress)
			r.Post("/find-process", crawlHandler.FindProcess)
			r.Post("/check-process", crawlHandler.CheckProcess)
		})

		// 모니터링 일정 관리
		r.Route("/schedule", func(r chi.Router) {
			r.Post("/", scheduleHandler.Register)
			r.Get("/", scheduleHandler.List)
			r.Get("/email/{email}", scheduleHandler.ListByEmail)
			r.Delete("/{id}", scheduleHandler.Delete)
		})

		// 관리용
		r.Route("/admin", func(r chi.Router) {
			r.Post("/schedule/run-manual", adminHandler.RunManual)
			r.Get("/scheduler/logs", adminHandler.ListLogs)
			r.Get("/scheduler/stats", adminHandler.Stats)
		})
	})

	return r
}

// healthzHandler 는 프로세스와 DB 연결 상태를 확인하는 핸들러를 반환한다.
func healthzHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"reason": "database unreachable",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
