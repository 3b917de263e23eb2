package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/joonzero/patrol/internal/model"
)

// uniqueViolation 은 PostgreSQL unique_violation 에러 코드.
const uniqueViolation = "23505"

// PostgresScheduleRepo 는 PostgreSQL을 사용한 모니터링 일정 리포지토리.
type PostgresScheduleRepo struct {
	db *sql.DB
}

// NewPostgresScheduleRepo 는 PostgresScheduleRepo를 생성한다.
func NewPostgresScheduleRepo(db *sql.DB) *PostgresScheduleRepo {
	return &PostgresScheduleRepo{db: db}
}

// Create 는 일정을 생성한다. (address_pin, email) 중복 시 ErrDuplicateSchedule을 반환한다.
func (r *PostgresScheduleRepo) Create(ctx context.Context, sub *model.Subscription) error {
	snapshot, err := marshalSnapshot(sub.LastSnapshot)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO schedules (id, address_pin, owner_name, email, address, last_snapshot, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sub.ID, sub.AddressPin, sub.OwnerName, sub.Email, sub.Address, snapshot, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateSchedule
		}
		return fmt.Errorf("일정 생성에 실패했습니다: %w", err)
	}
	return nil
}

// FindByID 는 지정 ID의 일정을 조회한다. 없으면 nil을 반환한다.
func (r *PostgresScheduleRepo) FindByID(ctx context.Context, id string) (*model.Subscription, error) {
	sub := &model.Subscription{}
	var snapshot []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT id, address_pin, owner_name, email, address, last_snapshot, created_at, updated_at
		 FROM schedules WHERE id = $1`,
		id,
	).Scan(&sub.ID, &sub.AddressPin, &sub.OwnerName, &sub.Email, &sub.Address, &snapshot, &sub.CreatedAt, &sub.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("일정 조회에 실패했습니다: %w", err)
	}

	if sub.LastSnapshot, err = unmarshalSnapshot(snapshot); err != nil {
		return nil, err
	}
	return sub, nil
}

// ListAll 은 전체 일정 목록을 등록 순으로 반환한다.
func (r *PostgresScheduleRepo) ListAll(ctx context.Context) ([]*model.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, address_pin, owner_name, email, address, last_snapshot, created_at, updated_at
		 FROM schedules ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("일정 목록 조회에 실패했습니다: %w", err)
	}
	defer rows.Close()

	return scanSchedules(rows)
}

// ListByEmail 은 지정 이메일로 등록된 일정 목록을 반환한다.
func (r *PostgresScheduleRepo) ListByEmail(ctx context.Context, email string) ([]*model.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, address_pin, owner_name, email, address, last_snapshot, created_at, updated_at
		 FROM schedules WHERE email = $1 ORDER BY created_at ASC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("이메일별 일정 조회에 실패했습니다: %w", err)
	}
	defer rows.Close()

	return scanSchedules(rows)
}

// UpdateSnapshot 은 일정의 최신 등기 스냅샷을 갱신한다.
func (r *PostgresScheduleRepo) UpdateSnapshot(ctx context.Context, id string, snapshot model.RegistrationRecord) error {
	raw, err := marshalSnapshot(snapshot)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE schedules SET last_snapshot = $2, updated_at = NOW() WHERE id = $1`,
		id, raw,
	)
	if err != nil {
		return fmt.Errorf("스냅샷 갱신에 실패했습니다: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("갱신 결과 확인에 실패했습니다: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("일정을 찾을 수 없습니다: %s", id)
	}
	return nil
}

// Delete 는 지정 ID의 일정을 삭제한다.
func (r *PostgresScheduleRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM schedules WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("일정 삭제에 실패했습니다: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("삭제 결과 확인에 실패했습니다: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("일정을 찾을 수 없습니다: %s", id)
	}
	return nil
}

func scanSchedules(rows *sql.Rows) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	for rows.Next() {
		sub := &model.Subscription{}
		var snapshot []byte
		if err := rows.Scan(&sub.ID, &sub.AddressPin, &sub.OwnerName, &sub.Email, &sub.Address, &snapshot, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, fmt.Errorf("일정 행 읽기에 실패했습니다: %w", err)
		}
		var err error
		if sub.LastSnapshot, err = unmarshalSnapshot(snapshot); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("일정 목록 순회에 실패했습니다: %w", err)
	}
	return subs, nil
}

// marshalSnapshot 은 스냅샷을 JSONB 컬럼용 바이트로 변환한다. nil은 SQL NULL로 저장한다.
func marshalSnapshot(r model.RegistrationRecord) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("스냅샷 직렬화에 실패했습니다: %w", err)
	}
	return raw, nil
}

func unmarshalSnapshot(raw []byte) (model.RegistrationRecord, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var r model.RegistrationRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("스냅샷 역직렬화에 실패했습니다: %w", err)
	}
	return r, nil
}

// compile-time interface check
var _ ScheduleRepository = (*PostgresScheduleRepo)(nil)
