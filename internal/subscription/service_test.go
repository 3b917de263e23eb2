package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/joonzero/patrol/internal/model"
	"github.com/joonzero/patrol/internal/repository"
)

// --- 모의 객체 ---

type mockScheduleRepo struct {
	createFn      func(ctx context.Context, sub *model.Subscription) error
	findByIDFn    func(ctx context.Context, id string) (*model.Subscription, error)
	listAllFn     func(ctx context.Context) ([]*model.Subscription, error)
	listByEmailFn func(ctx context.Context, email string) ([]*model.Subscription, error)
	deleteFn      func(ctx context.Context, id string) error
}

func (m *mockScheduleRepo) Create(ctx context.Context, sub *model.Subscription) error {
	if m.createFn != nil {
		return m.createFn(ctx, sub)
	}
	return nil
}
func (m *mockScheduleRepo) FindByID(ctx context.Context, id string) (*model.Subscription, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockScheduleRepo) ListAll(ctx context.Context) ([]*model.Subscription, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}
func (m *mockScheduleRepo) ListByEmail(ctx context.Context, email string) ([]*model.Subscription, error) {
	if m.listByEmailFn != nil {
		return m.listByEmailFn(ctx, email)
	}
	return nil, nil
}
func (m *mockScheduleRepo) UpdateSnapshot(ctx context.Context, id string, snapshot model.RegistrationRecord) error {
	return nil
}
func (m *mockScheduleRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockFetcher struct {
	checkProcessFn func(ctx context.Context, token, pin, address, ownerName string) (model.RegistrationRecord, error)
}

func (m *mockFetcher) CheckProcess(ctx context.Context, token, pin, address, ownerName string) (model.RegistrationRecord, error) {
	if m.checkProcessFn != nil {
		return m.checkProcessFn(ctx, token, pin, address, ownerName)
	}
	return model.RegistrationRecord{"a101recev_date": "20260815"}, nil
}

type mockMailer struct {
	alertFn        func(to string, sub model.SubscriptionSummary, record model.RegistrationRecord) error
	confirmationFn func(to string, sub model.SubscriptionSummary, record model.RegistrationRecord) error
}

func (m *mockMailer) SendChangeAlert(to string, sub model.SubscriptionSummary, record model.RegistrationRecord) error {
	if m.alertFn != nil {
		return m.alertFn(to, sub, record)
	}
	return nil
}
func (m *mockMailer) SendRegistrationConfirmation(to string, sub model.SubscriptionSummary, record model.RegistrationRecord) error {
	if m.confirmationFn != nil {
		return m.confirmationFn(to, sub, record)
	}
	return nil
}

func newTestService(repo *mockScheduleRepo, fetcher *mockFetcher, mailer *mockMailer) *Service {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewService(repo, fetcher, mailer, logger)
}

func validRequest() RegisterRequest {
	return RegisterRequest{
		AddressPin: "1234-0001",
		OwnerName:  "홍길동",
		Email:      "user@example.com",
		Address:    "서울특별시 관악구 남부순환로 1990-3",
	}
}

func wantAPIError(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("*model.APIError여야 함: %v", err)
	}
	if apiErr.Code != code {
		t.Fatalf("Code = %q, want %q", apiErr.Code, code)
	}
}

func TestRegister_Success(t *testing.T) {
	var created *model.Subscription
	var mailedTo string
	svc := newTestService(
		&mockScheduleRepo{createFn: func(ctx context.Context, sub *model.Subscription) error {
			created = sub
			return nil
		}},
		&mockFetcher{},
		&mockMailer{confirmationFn: func(to string, sub model.SubscriptionSummary, record model.RegistrationRecord) error {
			mailedTo = to
			return nil
		}},
	)

	sub, err := svc.Register(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if sub.ID == "" {
		t.Error("ID가 발급되어야 함")
	}
	if created == nil || created.AddressPin != "1234-0001" {
		t.Errorf("리포지토리에 저장된 값이 올바르지 않음: %+v", created)
	}
	if created.LastSnapshot != nil {
		t.Error("토큰 없는 등록은 초기 스냅샷이 없어야 함")
	}
	if mailedTo != "user@example.com" {
		t.Errorf("확인 메일 수신자 = %q", mailedTo)
	}
}

func TestRegister_WithToken_StoresInitialSnapshot(t *testing.T) {
	var created *model.Subscription
	svc := newTestService(
		&mockScheduleRepo{createFn: func(ctx context.Context, sub *model.Subscription) error {
			created = sub
			return nil
		}},
		&mockFetcher{},
		&mockMailer{},
	)

	req := validRequest()
	req.Token = "session-token"
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if created.LastSnapshot == nil {
		t.Fatal("초기 스냅샷이 저장되어야 함")
	}
	if created.LastSnapshot["a101recev_date"] != "20260815" {
		t.Errorf("스냅샷 내용이 올바르지 않음: %v", created.LastSnapshot)
	}
}

func TestRegister_SnapshotFailureDoesNotBlock(t *testing.T) {
	var created *model.Subscription
	svc := newTestService(
		&mockScheduleRepo{createFn: func(ctx context.Context, sub *model.Subscription) error {
			created = sub
			return nil
		}},
		&mockFetcher{checkProcessFn: func(ctx context.Context, token, pin, address, ownerName string) (model.RegistrationRecord, error) {
			return nil, model.NewSessionExpiredError()
		}},
		&mockMailer{},
	)

	req := validRequest()
	req.Token = "stale-token"
	sub, err := svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("스냅샷 실패가 등록을 막으면 안 됨: %v", err)
	}
	if created.LastSnapshot != nil {
		t.Error("실패한 스냅샷은 저장하지 않아야 함")
	}
	if sub == nil {
		t.Fatal("등록 결과가 있어야 함")
	}
}

func TestRegister_MailFailureDoesNotBlock(t *testing.T) {
	svc := newTestService(
		&mockScheduleRepo{},
		&mockFetcher{},
		&mockMailer{confirmationFn: func(to string, sub model.SubscriptionSummary, record model.RegistrationRecord) error {
			return errors.New("smtp unreachable")
		}},
	)

	if _, err := svc.Register(context.Background(), validRequest()); err != nil {
		t.Fatalf("메일 실패가 등록을 막으면 안 됨: %v", err)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	svc := newTestService(
		&mockScheduleRepo{createFn: func(ctx context.Context, sub *model.Subscription) error {
			return repository.ErrDuplicateSchedule
		}},
		&mockFetcher{},
		&mockMailer{},
	)

	_, err := svc.Register(context.Background(), validRequest())
	wantAPIError(t, err, model.ErrCodeDuplicateSubscription)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(&mockScheduleRepo{}, &mockFetcher{}, &mockMailer{})

	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{"빈 고유번호", func(r *RegisterRequest) { r.AddressPin = "" }},
		{"빈 소유자명", func(r *RegisterRequest) { r.OwnerName = "" }},
		{"빈 주소", func(r *RegisterRequest) { r.Address = "" }},
		{"잘못된 이메일", func(r *RegisterRequest) { r.Email = "not-an-email" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := svc.Register(context.Background(), req)
			wantAPIError(t, err, model.ErrCodeInvalidRequest)
		})
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := newTestService(&mockScheduleRepo{}, &mockFetcher{}, &mockMailer{})

	err := svc.Delete(context.Background(), "no-such-id")
	wantAPIError(t, err, model.ErrCodeScheduleNotFound)
}

func TestDelete_Success(t *testing.T) {
	var deletedID string
	svc := newTestService(
		&mockScheduleRepo{
			findByIDFn: func(ctx context.Context, id string) (*model.Subscription, error) {
				return &model.Subscription{ID: id}, nil
			},
			deleteFn: func(ctx context.Context, id string) error {
				deletedID = id
				return nil
			},
		},
		&mockFetcher{},
		&mockMailer{},
	)

	if err := svc.Delete(context.Background(), "sched-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deletedID != "sched-1" {
		t.Errorf("deletedID = %q", deletedID)
	}
}

func TestListByEmail_EmptyEmail(t *testing.T) {
	svc := newTestService(&mockScheduleRepo{}, &mockFetcher{}, &mockMailer{})

	_, err := svc.ListByEmail(context.Background(), "")
	wantAPIError(t, err, model.ErrCodeInvalidRequest)
}
