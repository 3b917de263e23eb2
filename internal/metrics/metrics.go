// Package metrics 는 Prometheus 메트릭 수집과 공개를 제공한다.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector 는 메트릭 수집 인터페이스.
// 스케줄 실행기와 서비스 계층에서 사용한다.
type MetricsCollector interface {
	RecordRunCompleted(status string, duration time.Duration)
	RecordItemOutcome(outcome string)
	RecordPortalStatus(statusCode int)
	RecordPortalLatency(duration time.Duration)
	RecordNotificationSent()
	RecordNotificationFailed()
}

// Collector 는 Prometheus 메트릭을 수집하는 구현.
type Collector struct {
	runs              *prometheus.CounterVec
	runDuration       prometheus.Histogram
	itemOutcomes      *prometheus.CounterVec
	portalStatus      *prometheus.CounterVec
	portalLatency     prometheus.Histogram
	notificationsSent prometheus.Counter
	notificationsFail prometheus.Counter
}

// NewCollector 는 새 Collector를 생성해 지정 레지스트리에 메트릭을 등록한다.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patrol_runs_total",
			Help: "스케줄 실행 횟수(종료 상태별)",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "patrol_run_duration_seconds",
			Help:    "스케줄 실행 1회의 소요 시간(초)",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		itemOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patrol_item_outcomes_total",
			Help: "구독 항목 점검 결과(unchanged/changed/error)",
		}, []string{"outcome"}),
		portalStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patrol_portal_status_total",
			Help: "등기소 포털 응답의 HTTP 상태 코드별 횟수",
		}, []string{"status_code"}),
		portalLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "patrol_portal_latency_seconds",
			Help:    "등기소 포털 호출의 레이턴시(초)",
			Buckets: prometheus.DefBuckets,
		}),
		notificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patrol_notifications_sent_total",
			Help: "발송 성공한 알림 메일 수",
		}),
		notificationsFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patrol_notifications_failed_total",
			Help: "발송 실패한 알림 메일 수",
		}),
	}

	reg.MustRegister(
		c.runs,
		c.runDuration,
		c.itemOutcomes,
		c.portalStatus,
		c.portalLatency,
		c.notificationsSent,
		c.notificationsFail,
	)

	return c
}

// RecordRunCompleted 는 스케줄 실행 종료를 기록한다.
func (c *Collector) RecordRunCompleted(status string, duration time.Duration) {
	c.runs.WithLabelValues(status).Inc()
	c.runDuration.Observe(duration.Seconds())
}

// RecordItemOutcome 은 구독 항목 1건의 점검 결과를 기록한다.
func (c *Collector) RecordItemOutcome(outcome string) {
	c.itemOutcomes.WithLabelValues(outcome).Inc()
}

// RecordPortalStatus 는 포털 응답의 HTTP 상태 코드를 기록한다.
func (c *Collector) RecordPortalStatus(statusCode int) {
	c.portalStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordPortalLatency 는 포털 호출의 레이턴시를 기록한다.
func (c *Collector) RecordPortalLatency(duration time.Duration) {
	c.portalLatency.Observe(duration.Seconds())
}

// RecordNotificationSent 는 알림 발송 성공을 기록한다.
func (c *Collector) RecordNotificationSent() {
	c.notificationsSent.Inc()
}

// RecordNotificationFailed 는 알림 발송 실패를 기록한다.
func (c *Collector) RecordNotificationFailed() {
	c.notificationsFail.Inc()
}

// Handler 는 Prometheus 스크레이프용 HTTP 핸들러를 반환한다.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
