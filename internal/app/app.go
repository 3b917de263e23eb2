package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/joonzero/patrol/internal/config"
	"github.com/joonzero/patrol/internal/crawl"
	"github.com/joonzero/patrol/internal/database"
	"github.com/joonzero/patrol/internal/handler"
	"github.com/joonzero/patrol/internal/iros"
	"github.com/joonzero/patrol/internal/logger"
	"github.com/joonzero/patrol/internal/metrics"
	"github.com/joonzero/patrol/internal/middleware"
	"github.com/joonzero/patrol/internal/notify"
	"github.com/joonzero/patrol/internal/repository"
	"github.com/joonzero/patrol/internal/subscription"
	"github.com/joonzero/patrol/internal/worker/check"
)

// 대화식 조회 세션의 보관 시간. 포털 세션의 실측 유효 시간보다 짧게 잡는다.
const sessionCacheTTL = 30 * time.Minute

// Init 은 애플리케이션 초기화를 수행한다.
// JSON 구조화 로그를 설정한 뒤 환경변수에서 Config를 읽어 들인다.
// writer가 지정되면 로그 출력처로 그 writer를 사용한다.
func Init(w io.Writer) (*config.Config, error) {
	// 설정 읽기 전에도 로그를 쓸 수 있도록 로그를 먼저 초기화한다
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("설정 읽기에 실패했습니다: %w", err)
	}

	return cfg, nil
}

// Run 은 애플리케이션의 메인 엔트리포인트.
// 커맨드라인 인자에서 서브커맨드를 해석해 대응하는 모드로 기동한다.
// args에는 os.Args[1:]을 넘긴다.
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck 는 경량 서브커맨드이므로 전체 초기화를 건너뛴다
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("초기화에 실패했습니다: %w", err)
	}

	slog.Info("애플리케이션을 시작합니다",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase 는 DB 연결을 열고 연결성을 확인한다.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("데이터베이스 열기에 실패했습니다: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("데이터베이스 연결에 실패했습니다: %w", err)
	}

	return db, nil
}

// newPortalClient 는 설정과 메트릭 수집기를 묶은 포털 클라이언트를 생성한다.
func newPortalClient(cfg *config.Config, collector metrics.MetricsCollector) (*iros.Client, error) {
	return iros.NewClient(iros.ClientOptions{
		BaseURL:           cfg.IrosBaseURL,
		ProxyURL:          cfg.IrosProxyURL,
		Timeout:           cfg.IrosTimeout,
		RetryMax:          cfg.IrosRetryMax,
		SearchResultLimit: cfg.SearchResultLimit,
		Logger:            slog.Default(),
		OnResponse: func(statusCode int, latency time.Duration) {
			collector.RecordPortalStatus(statusCode)
			collector.RecordPortalLatency(latency)
		},
	})
}

// runServe 는 API 서버 모드로 기동한다.
// DB 연결을 열고 전체 의존성을 조립한 뒤 HTTP 서버를 시작한다.
// SIGINT 또는 SIGTERM 수신 시 그레이스풀 셧다운을 수행한다.
func runServe(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("데이터베이스 연결을 확인했습니다")

	// 리포지토리
	scheduleRepo := repository.NewPostgresScheduleRepo(db)
	runLogRepo := repository.NewPostgresRunLogRepo(db)

	// 메트릭
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 포털 클라이언트
	portalClient, err := newPortalClient(cfg, collector)
	if err != nil {
		return fmt.Errorf("포털 클라이언트 생성에 실패했습니다: %w", err)
	}
	creds := iros.Credentials{ID: cfg.IrosAccountID, Password: cfg.IrosAccountPW}

	// 도메인 서비스
	sessionCache := crawl.NewSessionCache(sessionCacheTTL)
	defer sessionCache.Stop()

	crawlService := crawl.NewService(portalClient, creds, sessionCache, slog.Default())

	mailer := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	subService := subscription.NewService(scheduleRepo, crawlService, mailer, slog.Default())

	// 수동 실행용 러너
	runner := check.NewRunner(
		scheduleRepo, runLogRepo, portalClient, creds,
		mailer, collector, slog.Default(), cfg.RunDeadline,
	)

	// 레이트 제한. 설정은 req/min 단위이므로 req/sec로 환산한다.
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.CrawlRate = rate.Limit(float64(cfg.RateLimitCrawl) / 60.0)
	rateLimiterCfg.CrawlBurst = cfg.RateLimitCrawl

	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CrawlService:      crawlService,
		ScheduleService:   subService,
		Runner:            runner,
		RunLogs:           runLogRepo,
		DB:                db,
		Gatherer:          registry,
	})

	// 대화식 조회는 포털 호출을 여러 번 연쇄하므로 쓰기 타임아웃을 넉넉히 잡는다
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API 서버를 시작합니다",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("서버 리슨 중 오류가 발생했습니다", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("API 서버를 종료합니다...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("서버 셧다운에 실패했습니다: %w", err)
	}

	slog.Info("API 서버가 정상 종료되었습니다")
	return nil
}

// runWorker 는 일일 점검 워커 모드로 기동한다.
// DB 연결을 열고 점검 스케줄러를 시작한다.
// SIGINT 또는 SIGTERM 수신 시 종료한다.
func runWorker(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("데이터베이스 연결을 확인했습니다 (worker)")

	loc, err := time.LoadLocation(cfg.CheckTimezone)
	if err != nil {
		return fmt.Errorf("타임존 읽기에 실패했습니다: %w", err)
	}

	scheduleRepo := repository.NewPostgresScheduleRepo(db)
	runLogRepo := repository.NewPostgresRunLogRepo(db)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	portalClient, err := newPortalClient(cfg, collector)
	if err != nil {
		return fmt.Errorf("포털 클라이언트 생성에 실패했습니다: %w", err)
	}
	creds := iros.Credentials{ID: cfg.IrosAccountID, Password: cfg.IrosAccountPW}

	mailer := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)

	runner := check.NewRunner(
		scheduleRepo, runLogRepo, portalClient, creds,
		mailer, collector, slog.Default(), cfg.RunDeadline,
	)
	scheduler := check.NewScheduler(runner, cfg.CheckHour, loc, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("워커를 종료합니다...")
		cancel()
	}()

	slog.Info("워커를 시작합니다",
		slog.Int("check_hour", cfg.CheckHour),
		slog.String("timezone", cfg.CheckTimezone),
	)

	// 스케줄러는 메인 고루틴에서 실행한다(블로킹)
	scheduler.Start(ctx)

	slog.Info("워커가 정상 종료되었습니다")
	return nil
}

// runMigrate 는 데이터베이스 마이그레이션을 실행한다.
// 미적용 마이그레이션을 순서대로 모두 적용한다.
func runMigrate(cfg *config.Config) error {
	slog.Info("데이터베이스 마이그레이션을 실행합니다",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("마이그레이션에 실패했습니다: %w", err)
	}

	slog.Info("데이터베이스 마이그레이션을 완료했습니다")
	return nil
}

// runHealthcheck 는 헬스체크를 수행한다.
// distroless 환경에서 Docker 헬스체크용으로 쓰는 서브커맨드.
// /healthz 엔드포인트에 HTTP 요청을 보내고 결과를 반환한다.
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("헬스체크에 실패했습니다: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("헬스체크가 상태 %d를 반환했습니다", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL 은 데이터베이스 URL의 인증 정보를 가린다.
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
