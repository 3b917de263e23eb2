// Package subscription 은 모니터링 일정 등록과 조회의 도메인 로직을 제공한다.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/joonzero/patrol/internal/model"
	"github.com/joonzero/patrol/internal/notify"
	"github.com/joonzero/patrol/internal/repository"
)

// SnapshotFetcher 는 등록 직후 초기 스냅샷을 확보하기 위한 등기 조회 인터페이스.
// 대화식 조회 흐름의 세션 토큰을 그대로 이어 쓴다.
type SnapshotFetcher interface {
	CheckProcess(ctx context.Context, token, pin, address, ownerName string) (model.RegistrationRecord, error)
}

// RegisterRequest 는 일정 등록 요청이다.
// Token은 직전 주소 검색에서 발급된 세션 토큰으로, 있으면 초기 스냅샷을 함께 저장한다.
type RegisterRequest struct {
	AddressPin string `json:"address_pin"`
	OwnerName  string `json:"owner_name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	Token      string `json:"token,omitempty"`
}

// Service 는 일정 관리의 서비스 계층.
type Service struct {
	repo    repository.ScheduleRepository
	fetcher SnapshotFetcher
	mailer  notify.Gateway
	logger  *slog.Logger
}

// NewService 는 Service의 새 인스턴스를 생성한다.
func NewService(repo repository.ScheduleRepository, fetcher SnapshotFetcher, mailer notify.Gateway, logger *slog.Logger) *Service {
	return &Service{repo: repo, fetcher: fetcher, mailer: mailer, logger: logger}
}

// Register 는 모니터링 일정을 등록한다.
// 세션 토큰이 있으면 초기 스냅샷을 함께 저장하고, 등록 확인 메일을 발송한다.
// 스냅샷 확보와 메일 발송의 실패는 등록 자체를 막지 않는다.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*model.Subscription, error) {
	if err := validateRegisterRequest(req); err != nil {
		return nil, err
	}

	now := time.Now()
	sub := &model.Subscription{
		ID:         uuid.NewString(),
		AddressPin: req.AddressPin,
		OwnerName:  req.OwnerName,
		Email:      req.Email,
		Address:    req.Address,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// 초기 스냅샷: 실패해도 nil로 등록하고 첫 정기 점검에서 저장한다
	if req.Token != "" {
		record, err := s.fetcher.CheckProcess(ctx, req.Token, req.AddressPin, req.Address, req.OwnerName)
		if err != nil {
			s.logger.Warn("초기 스냅샷 확보에 실패했습니다",
				slog.String("address_pin", req.AddressPin),
				slog.String("error", err.Error()),
			)
		} else {
			sub.LastSnapshot = record
		}
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicateSchedule) {
			return nil, model.NewDuplicateSubscriptionError()
		}
		return nil, fmt.Errorf("일정 등록에 실패했습니다: %w", err)
	}

	if err := s.mailer.SendRegistrationConfirmation(sub.Email, sub.Summary(), sub.LastSnapshot); err != nil {
		s.logger.Warn("등록 확인 메일 발송에 실패했습니다",
			slog.String("email", sub.Email),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("모니터링 일정을 등록했습니다",
		slog.String("schedule_id", sub.ID),
		slog.String("address_pin", sub.AddressPin),
	)
	return sub, nil
}

// List 는 전체 일정 목록을 반환한다.
func (s *Service) List(ctx context.Context) ([]*model.Subscription, error) {
	subs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("일정 목록 조회에 실패했습니다: %w", err)
	}
	return subs, nil
}

// ListByEmail 은 지정 이메일로 등록된 일정 목록을 반환한다.
func (s *Service) ListByEmail(ctx context.Context, email string) ([]*model.Subscription, error) {
	if email == "" {
		return nil, model.NewInvalidRequestError("이메일이 비어 있습니다")
	}
	subs, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("이메일별 일정 조회에 실패했습니다: %w", err)
	}
	return subs, nil
}

// Delete 는 지정 ID의 일정을 삭제한다. 없으면 SCHEDULE_NOT_FOUND를 반환한다.
func (s *Service) Delete(ctx context.Context, id string) error {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("일정 조회에 실패했습니다: %w", err)
	}
	if sub == nil {
		return model.NewScheduleNotFoundError(id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("일정 삭제에 실패했습니다: %w", err)
	}

	s.logger.Info("모니터링 일정을 삭제했습니다", slog.String("schedule_id", id))
	return nil
}

func validateRegisterRequest(req RegisterRequest) *model.APIError {
	if req.AddressPin == "" {
		return model.NewInvalidRequestError("부동산 고유번호가 비어 있습니다")
	}
	if req.OwnerName == "" {
		return model.NewInvalidRequestError("소유자명이 비어 있습니다")
	}
	if req.Address == "" {
		return model.NewInvalidRequestError("주소가 비어 있습니다")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return model.NewInvalidRequestError("이메일 형식이 올바르지 않습니다")
	}
	return nil
}
