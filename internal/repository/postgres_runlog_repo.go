package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/joonzero/patrol/internal/model"
)

// PostgresRunLogRepo 는 PostgreSQL을 사용한 실행 이력 리포지토리.
type PostgresRunLogRepo struct {
	db *sql.DB
}

// NewPostgresRunLogRepo 는 PostgresRunLogRepo를 생성한다.
func NewPostgresRunLogRepo(db *sql.DB) *PostgresRunLogRepo {
	return &PostgresRunLogRepo{db: db}
}

// Create 는 running 상태의 실행 이력을 생성한다.
func (r *PostgresRunLogRepo) Create(ctx context.Context, log *model.RunLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO run_logs (id, task_name, status, start_time, processed_count, success_count, failure_count, changed_count, result, error_message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		log.ID, log.TaskName, log.Status, log.StartTime,
		log.ProcessedCount, log.SuccessCount, log.FailureCount, log.ChangedCount,
		log.Result, log.ErrorMessage, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("실행 이력 생성에 실패했습니다: %w", err)
	}
	return nil
}

// UpdateTerminal 은 실행 종료 시 최종 상태와 집계를 기록한다.
func (r *PostgresRunLogRepo) UpdateTerminal(ctx context.Context, id string, terminal model.RunLogTerminal) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE run_logs
		 SET status = $2, end_time = $3, duration_ms = $4,
		     processed_count = $5, success_count = $6, failure_count = $7, changed_count = $8,
		     result = $9, error_message = $10
		 WHERE id = $1`,
		id, terminal.Status, terminal.EndTime, terminal.DurationMs,
		terminal.ProcessedCount, terminal.SuccessCount, terminal.FailureCount, terminal.ChangedCount,
		terminal.Result, terminal.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("실행 이력 종료 기록에 실패했습니다: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("갱신 결과 확인에 실패했습니다: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("실행 이력을 찾을 수 없습니다: %s", id)
	}
	return nil
}

// ListPage 는 실행 이력을 start_time 내림차순으로 페이지 조회하고 전체 건수를 함께 반환한다.
// date가 nil이 아니면 해당 날짜 하루치만 대상으로 한다.
func (r *PostgresRunLogRepo) ListPage(ctx context.Context, page, limit int, date *time.Time) ([]*model.RunLog, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	where := ""
	args := []any{limit, offset}
	if date != nil {
		dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		where = "WHERE start_time >= $3 AND start_time < $4"
		args = append(args, dayStart, dayStart.Add(24*time.Hour))
	}

	var total int
	countArgs := args[2:]
	countWhere := ""
	if date != nil {
		countWhere = "WHERE start_time >= $1 AND start_time < $2"
	}
	if err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM run_logs %s`, countWhere),
		countArgs...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("실행 이력 건수 조회에 실패했습니다: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(
			`SELECT id, task_name, status, start_time, end_time, duration_ms,
			        processed_count, success_count, failure_count, changed_count,
			        result, error_message, created_at
			 FROM run_logs %s
			 ORDER BY start_time DESC
			 LIMIT $1 OFFSET $2`, where),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("실행 이력 조회에 실패했습니다: %w", err)
	}
	defer rows.Close()

	var logs []*model.RunLog
	for rows.Next() {
		l := &model.RunLog{}
		var endTime sql.NullTime
		var durationMs sql.NullInt64
		var result, errorMessage sql.NullString
		if err := rows.Scan(
			&l.ID, &l.TaskName, &l.Status, &l.StartTime, &endTime, &durationMs,
			&l.ProcessedCount, &l.SuccessCount, &l.FailureCount, &l.ChangedCount,
			&result, &errorMessage, &l.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("실행 이력 행 읽기에 실패했습니다: %w", err)
		}
		if endTime.Valid {
			t := endTime.Time
			l.EndTime = &t
		}
		if durationMs.Valid {
			d := durationMs.Int64
			l.DurationMs = &d
		}
		l.Result = result.String
		l.ErrorMessage = errorMessage.String
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("실행 이력 순회에 실패했습니다: %w", err)
	}
	return logs, total, nil
}

// Stats 는 최근 days일 동안의 실행 집계를 반환한다.
func (r *PostgresRunLogRepo) Stats(ctx context.Context, days int) (*model.RunLogStats, error) {
	stats := &model.RunLogStats{DaysWindow: days}
	since := time.Now().AddDate(0, 0, -days)

	err := r.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'success'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'running'),
			COALESCE(AVG(duration_ms), 0)
		 FROM run_logs WHERE start_time >= $1`,
		since,
	).Scan(&stats.TotalRuns, &stats.SuccessRuns, &stats.FailedRuns, &stats.RunningRuns, &stats.AvgDurationMs)
	if err != nil {
		return nil, fmt.Errorf("실행 통계 조회에 실패했습니다: %w", err)
	}
	return stats, nil
}

// compile-time interface check
var _ RunLogRepository = (*PostgresRunLogRepo)(nil)
