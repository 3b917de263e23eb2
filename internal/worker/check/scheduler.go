package check

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joonzero/patrol/internal/model"
)

// RunnerService 는 점검 실행 인터페이스.
type RunnerService interface {
	// RunOnce 는 점검 1회를 실행한다. 이미 실행 중이면 ErrRunInProgress를 반환한다.
	RunOnce(ctx context.Context) (*model.RunLog, error)
}

// Scheduler 는 매일 지정 시각에 점검을 1회 실행한다.
type Scheduler struct {
	runner RunnerService
	hour   int
	loc    *time.Location
	logger *slog.Logger
}

// NewScheduler 는 Scheduler의 새 인스턴스를 생성한다.
// hour는 0~23의 현지 시각, loc는 점검 시각의 기준 시간대이다.
func NewScheduler(runner RunnerService, hour int, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{runner: runner, hour: hour, loc: loc, logger: logger}
}

// Start 는 스케줄러 루프를 시작한다. 컨텍스트가 취소될 때까지 실행을 계속한다.
// 시작 시각이 오늘 점검 시각을 이미 지났으면 다음 날로 넘어간다.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("점검 스케줄러를 시작했습니다",
		slog.Int("check_hour", s.hour),
		slog.String("timezone", s.loc.String()),
	)

	for {
		next := nextRunAt(time.Now().In(s.loc), s.hour)
		s.logger.Info("다음 점검 시각을 예약했습니다",
			slog.Time("next_run_at", next),
		)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("점검 스케줄러를 정지했습니다")
			return
		case <-timer.C:
		}

		if _, err := s.runner.RunOnce(ctx); err != nil {
			if errors.Is(err, ErrRunInProgress) {
				// 수동 실행과 겹친 경우. 오늘 치 점검은 그쪽에 맡긴다.
				s.logger.Warn("점검이 이미 실행 중이라 정기 실행을 건너뜁니다")
				continue
			}
			s.logger.Error("정기 점검 실행에 실패했습니다",
				slog.String("error", err.Error()),
			)
		}
	}
}

// nextRunAt 은 now 이후 가장 가까운 hour시 정각을 반환한다.
func nextRunAt(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
