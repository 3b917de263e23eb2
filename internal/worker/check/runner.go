// Package check 는 등록된 모니터링 일정의 일일 점검 실행을 제공한다.
// 실행기, 스케줄러, 실행 이력 기록을 포함한다.
package check

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/joonzero/patrol/internal/crawl"
	"github.com/joonzero/patrol/internal/detector"
	"github.com/joonzero/patrol/internal/iros"
	"github.com/joonzero/patrol/internal/metrics"
	"github.com/joonzero/patrol/internal/model"
	"github.com/joonzero/patrol/internal/notify"
	"github.com/joonzero/patrol/internal/repository"
)

// TaskName 은 일일 점검 실행이 run_logs에 기록하는 작업 이름.
const TaskName = "daily_check"

// ErrRunInProgress 는 이미 실행 중일 때 새 실행 요청을 거부하며 반환된다.
// 대기열에 넣지 않고 즉시 거부한다.
var ErrRunInProgress = errors.New("스케줄 점검이 이미 실행 중입니다")

// Runner 는 전체 구독을 순회하며 등기 변경을 점검하는 실행기.
// 동시에 최대 1회만 실행되며, 겹치는 요청은 ErrRunInProgress로 거부한다.
type Runner struct {
	schedules repository.ScheduleRepository
	runLogs   repository.RunLogRepository
	client    crawl.RegistryClient
	creds     iros.Credentials
	mailer    notify.Gateway
	collector metrics.MetricsCollector
	logger    *slog.Logger
	deadline  time.Duration
	sem       *semaphore.Weighted
}

// NewRunner 는 Runner의 새 인스턴스를 생성한다.
// deadline이 0 이하이면 실행 시간 제한을 두지 않는다.
func NewRunner(
	schedules repository.ScheduleRepository,
	runLogs repository.RunLogRepository,
	client crawl.RegistryClient,
	creds iros.Credentials,
	mailer notify.Gateway,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	deadline time.Duration,
) *Runner {
	return &Runner{
		schedules: schedules,
		runLogs:   runLogs,
		client:    client,
		creds:     creds,
		mailer:    mailer,
		collector: collector,
		logger:    logger,
		deadline:  deadline,
		sem:       semaphore.NewWeighted(1),
	}
}

// RunOnce 는 점검 1회를 실행하고 기록된 실행 이력을 반환한다.
// 이미 실행 중이면 ErrRunInProgress를 즉시 반환한다.
func (r *Runner) RunOnce(ctx context.Context) (*model.RunLog, error) {
	if !r.sem.TryAcquire(1) {
		return nil, ErrRunInProgress
	}
	defer r.sem.Release(1)

	return r.runLocked(ctx)
}

// Trigger 는 점검을 백그라운드로 시작하고 즉시 돌아온다.
// 이미 실행 중이면 ErrRunInProgress를 즉시 반환한다. 수동 실행 API에서 쓴다.
func (r *Runner) Trigger() error {
	if !r.sem.TryAcquire(1) {
		return ErrRunInProgress
	}
	go func() {
		defer r.sem.Release(1)
		// 요청 컨텍스트와 분리해 실행한다. 결과는 run_logs에서 확인한다.
		if _, err := r.runLocked(context.Background()); err != nil {
			r.logger.Error("수동 점검 실행에 실패했습니다",
				slog.String("error", err.Error()),
			)
		}
	}()
	return nil
}

// runLocked 는 세마포어를 확보한 상태에서 점검 1회를 수행한다.
func (r *Runner) runLocked(ctx context.Context) (*model.RunLog, error) {
	if r.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.deadline)
		defer cancel()
	}

	start := time.Now()
	runLog := &model.RunLog{
		ID:        uuid.NewString(),
		TaskName:  TaskName,
		Status:    model.RunStatusRunning,
		StartTime: start,
		CreatedAt: start,
	}
	if err := r.runLogs.Create(ctx, runLog); err != nil {
		return nil, fmt.Errorf("실행 이력 생성에 실패했습니다: %w", err)
	}

	r.logger.Info("스케줄 점검을 시작합니다", slog.String("run_id", runLog.ID))

	terminal := r.execute(ctx, runLog)

	if err := r.runLogs.UpdateTerminal(ctx, runLog.ID, terminal); err != nil {
		r.logger.Error("실행 이력 종료 기록에 실패했습니다",
			slog.String("run_id", runLog.ID),
			slog.String("error", err.Error()),
		)
	}
	r.collector.RecordRunCompleted(string(terminal.Status), terminal.EndTime.Sub(start))

	runLog.Status = terminal.Status
	runLog.EndTime = &terminal.EndTime
	runLog.DurationMs = &terminal.DurationMs
	runLog.ProcessedCount = terminal.ProcessedCount
	runLog.SuccessCount = terminal.SuccessCount
	runLog.FailureCount = terminal.FailureCount
	runLog.ChangedCount = terminal.ChangedCount
	runLog.Result = terminal.Result
	runLog.ErrorMessage = terminal.ErrorMessage

	r.logger.Info("스케줄 점검을 마쳤습니다",
		slog.String("run_id", runLog.ID),
		slog.String("status", string(terminal.Status)),
		slog.Int("processed_count", terminal.ProcessedCount),
		slog.Int("failure_count", terminal.FailureCount),
		slog.Int("changed_count", terminal.ChangedCount),
	)
	return runLog, nil
}

// execute 는 실제 점검 루프를 수행하고 종료 기록을 만든다.
// 항목 단위 실패는 루프를 멈추지 않으며, 로그인 실패 등 실행 자체의 장애만 failed가 된다.
func (r *Runner) execute(ctx context.Context, runLog *model.RunLog) model.RunLogTerminal {
	start := runLog.StartTime

	subs, err := r.schedules.ListAll(ctx)
	if err != nil {
		return failedTerminal(start, fmt.Sprintf("일정 목록 조회에 실패했습니다: %v", err))
	}

	if len(subs) == 0 {
		r.logger.Info("점검할 일정이 없습니다")
		return successTerminal(start, 0, 0, 0, 0)
	}

	session, err := r.client.Login(ctx, r.creds)
	if err != nil {
		return failedTerminal(start, fmt.Sprintf("등기소 로그인에 실패했습니다: %v", err))
	}

	var processed, succeeded, failed, changed int
	for _, sub := range subs {
		if ctx.Err() != nil {
			return failedTerminal(start, fmt.Sprintf("실행이 중단되었습니다: %v", ctx.Err()))
		}

		outcome := r.checkItem(ctx, session, sub)
		processed++
		r.collector.RecordItemOutcome(outcome.String())

		switch outcome {
		case OutcomeError:
			failed++
		case OutcomeChanged:
			succeeded++
			changed++
		default:
			succeeded++
		}
	}

	return successTerminal(start, processed, succeeded, failed, changed)
}

// checkItem 은 구독 1건을 점검한다.
// 레코드 조회 성공 시 변경 여부와 무관하게 스냅샷을 최신으로 갱신한다.
func (r *Runner) checkItem(ctx context.Context, session *iros.Session, sub *model.Subscription) ItemOutcome {
	record, err := r.client.FetchRecordByOwnerName(ctx, session, sub.AddressPin, sub.Address, sub.OwnerName)
	if err != nil {
		r.logger.Error("등기 레코드 조회에 실패했습니다",
			slog.String("schedule_id", sub.ID),
			slog.String("address_pin", sub.AddressPin),
			slog.String("error", err.Error()),
		)
		return OutcomeError
	}

	unchanged := detector.IsUnchanged(sub.LastSnapshot, record)

	if err := r.schedules.UpdateSnapshot(ctx, sub.ID, record); err != nil {
		r.logger.Warn("스냅샷 갱신에 실패했습니다",
			slog.String("schedule_id", sub.ID),
			slog.String("error", err.Error()),
		)
	}

	if unchanged {
		return OutcomeUnchanged
	}

	// 최초 점검(이전 스냅샷 없음)도 변경과 동일하게 알림 경로를 탄다
	if sub.LastSnapshot == nil {
		r.logger.Info("최초 점검 스냅샷을 저장하고 알림을 발송합니다",
			slog.String("schedule_id", sub.ID),
			slog.String("address_pin", sub.AddressPin),
		)
	} else {
		r.logger.Info("등기 변경을 감지했습니다",
			slog.String("schedule_id", sub.ID),
			slog.String("address_pin", sub.AddressPin),
		)
	}

	// 알림 실패는 실행을 막지 않는다. 스냅샷은 이미 갱신되어 재알림은 없다.
	if err := r.mailer.SendChangeAlert(sub.Email, sub.Summary(), record); err != nil {
		r.collector.RecordNotificationFailed()
		r.logger.Error("변경 알림 발송에 실패했습니다",
			slog.String("schedule_id", sub.ID),
			slog.String("email", sub.Email),
			slog.String("error", err.Error()),
		)
	} else {
		r.collector.RecordNotificationSent()
	}
	return OutcomeChanged
}

func successTerminal(start time.Time, processed, succeeded, failed, changed int) model.RunLogTerminal {
	end := time.Now()
	summary, _ := json.Marshal(map[string]int{
		"processed": processed,
		"success":   succeeded,
		"failure":   failed,
		"changed":   changed,
	})
	return model.RunLogTerminal{
		Status:         model.RunStatusSuccess,
		EndTime:        end,
		DurationMs:     end.Sub(start).Milliseconds(),
		ProcessedCount: processed,
		SuccessCount:   succeeded,
		FailureCount:   failed,
		ChangedCount:   changed,
		Result:         string(summary),
	}
}

func failedTerminal(start time.Time, message string) model.RunLogTerminal {
	end := time.Now()
	return model.RunLogTerminal{
		Status:       model.RunStatusFailed,
		EndTime:      end,
		DurationMs:   end.Sub(start).Milliseconds(),
		ErrorMessage: message,
	}
}
