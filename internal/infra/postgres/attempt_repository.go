package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-platform-service/internal/domain"
)

const uniqueViolation = "23505"

// AttemptRepository persists finalized attempts. The unique index on
// (quiz_id, user_id) makes duplicate rejection atomic: two concurrent
// submissions race on the index, not on an application-level check.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func (r *AttemptRepository) CreateAttempt(ctx context.Context, attempt domain.Attempt) error {
	answers, err := json.Marshal(attempt.Answers)
	if err != nil {
		return domain.StorageError("marshal answers", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO attempts (id, quiz_id, user_id, answers, score, total, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		attempt.ID, attempt.QuizID, attempt.UserID, answers, attempt.Score, attempt.Total, attempt.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateAttempt
		}
		return domain.StorageError("insert attempt", err)
	}
	return nil
}

func (r *AttemptRepository) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, quiz_id, user_id, answers, score, total, created_at FROM attempts WHERE id=$1`,
		attemptID)
	attempt, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, domain.StorageError("load attempt", err)
	}
	return attempt, nil
}

func (r *AttemptRepository) ListAttemptsByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, user_id, answers, score, total, created_at
		 FROM attempts WHERE quiz_id=$1 ORDER BY created_at, id`, quizID)
	if err != nil {
		return nil, domain.StorageError("list attempts", err)
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, domain.StorageError("scan attempt", err)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("iterate attempts", err)
	}
	return attempts, nil
}

func (r *AttemptRepository) CountAttemptsByQuiz(ctx context.Context, quizID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM attempts WHERE quiz_id=$1`, quizID).Scan(&count)
	if err != nil {
		return 0, domain.StorageError("count attempts", err)
	}
	return count, nil
}

// DeleteAttemptsByQuiz exists for stores without referential integrity; in
// Postgres the quizzes FK cascade already removes these rows.
func (r *AttemptRepository) DeleteAttemptsByQuiz(ctx context.Context, quizID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM attempts WHERE quiz_id=$1`, quizID); err != nil {
		return domain.StorageError("delete attempts", err)
	}
	return nil
}

func scanAttempt(row pgx.Row) (domain.Attempt, error) {
	var (
		attempt domain.Attempt
		raw     []byte
	)
	if err := row.Scan(&attempt.ID, &attempt.QuizID, &attempt.UserID, &raw, &attempt.Score, &attempt.Total, &attempt.CreatedAt); err != nil {
		return domain.Attempt{}, err
	}
	if err := json.Unmarshal(raw, &attempt.Answers); err != nil {
		return domain.Attempt{}, err
	}
	return attempt, nil
}
