// Package repository 는 데이터 영속화 인터페이스를 정의한다.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/joonzero/patrol/internal/model"
)

// ErrDuplicateSchedule 는 동일 (부동산 고유번호, 이메일) 조합이 이미 등록된 경우 반환된다.
var ErrDuplicateSchedule = errors.New("이미 등록된 모니터링 일정입니다")

// ScheduleRepository 는 모니터링 일정(구독) 데이터의 영속화 인터페이스.
type ScheduleRepository interface {
	// Create 는 일정을 생성한다. (address_pin, email) 중복 시 ErrDuplicateSchedule을 반환한다.
	Create(ctx context.Context, sub *model.Subscription) error

	// FindByID 는 지정 ID의 일정을 조회한다. 없으면 nil을 반환한다.
	FindByID(ctx context.Context, id string) (*model.Subscription, error)

	// ListAll 은 전체 일정 목록을 등록 순으로 반환한다.
	ListAll(ctx context.Context) ([]*model.Subscription, error)

	// ListByEmail 은 지정 이메일로 등록된 일정 목록을 반환한다.
	ListByEmail(ctx context.Context, email string) ([]*model.Subscription, error)

	// UpdateSnapshot 은 일정의 최신 등기 스냅샷을 갱신한다.
	// 대상이 없으면 에러를 반환한다.
	UpdateSnapshot(ctx context.Context, id string, snapshot model.RegistrationRecord) error

	// Delete 는 지정 ID의 일정을 삭제한다. 대상이 없으면 에러를 반환한다.
	Delete(ctx context.Context, id string) error
}

// RunLogRepository 는 점검 실행 이력의 영속화 인터페이스.
type RunLogRepository interface {
	// Create 는 running 상태의 실행 이력을 생성한다.
	Create(ctx context.Context, log *model.RunLog) error

	// UpdateTerminal 은 실행 종료 시 최종 상태와 집계를 기록한다.
	// 대상이 없으면 에러를 반환한다.
	UpdateTerminal(ctx context.Context, id string, terminal model.RunLogTerminal) error

	// ListPage 는 실행 이력을 start_time 내림차순으로 페이지 조회한다.
	// date가 nil이 아니면 해당 날짜(UTC 기준 day)의 이력만 반환한다.
	ListPage(ctx context.Context, page, limit int, date *time.Time) ([]*model.RunLog, int, error)

	// Stats 는 최근 days일 동안의 실행 집계를 반환한다.
	Stats(ctx context.Context, days int) (*model.RunLogStats, error)
}
