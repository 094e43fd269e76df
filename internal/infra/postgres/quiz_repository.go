package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-platform-service/internal/domain"
)

// QuizRepository persists quiz definitions in Postgres. Questions live in
// their own table, owned by the quiz via ON DELETE CASCADE.
type QuizRepository struct {
	pool *pgxpool.Pool
}

func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

func (r *QuizRepository) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.StorageError("begin create quiz", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO quizzes (id, title, description, created_at) VALUES ($1, $2, $3, $4)`,
		quiz.ID, quiz.Title, quiz.Description, quiz.CreatedAt)
	if err != nil {
		return domain.StorageError("insert quiz", err)
	}
	if err := insertQuestions(ctx, tx, quiz); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.StorageError("commit create quiz", err)
	}
	return nil
}

func (r *QuizRepository) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.StorageError("begin update quiz", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE quizzes SET title=$2, description=$3 WHERE id=$1`,
		quiz.ID, quiz.Title, quiz.Description)
	if err != nil {
		return domain.StorageError("update quiz", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}

	// Full replace of the question set.
	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE quiz_id=$1`, quiz.ID); err != nil {
		return domain.StorageError("clear questions", err)
	}
	if err := insertQuestions(ctx, tx, quiz); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.StorageError("commit update quiz", err)
	}
	return nil
}

func (r *QuizRepository) DeleteQuiz(ctx context.Context, quizID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, quizID)
	if err != nil {
		return domain.StorageError("delete quiz", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, created_at FROM quizzes WHERE id=$1`, quizID).
		Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, domain.StorageError("load quiz", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, text, option_a, option_b, option_c, option_d, correct_option
		 FROM questions WHERE quiz_id=$1 ORDER BY position`, quizID)
	if err != nil {
		return domain.Quiz{}, domain.StorageError("load questions", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			q     domain.Question
			slots [4]sql.NullString
		)
		if err := rows.Scan(&q.ID, &q.Text, &slots[0], &slots[1], &slots[2], &slots[3], &q.CorrectOption); err != nil {
			return domain.Quiz{}, domain.StorageError("scan question", err)
		}
		for i, key := range domain.OptionKeys {
			if slots[i].Valid {
				q.Options = append(q.Options, domain.Option{Key: key, Text: slots[i].String})
			}
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, domain.StorageError("iterate questions", err)
	}
	return quiz, nil
}

// ListQuizzes returns quizzes in creation order. Question sets are not
// hydrated for listings.
func (r *QuizRepository) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, created_at FROM quizzes ORDER BY created_at, id`)
	if err != nil {
		return nil, domain.StorageError("list quizzes", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var quiz domain.Quiz
		if err := rows.Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.CreatedAt); err != nil {
			return nil, domain.StorageError("scan quiz", err)
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("iterate quizzes", err)
	}
	return quizzes, nil
}

func insertQuestions(ctx context.Context, tx pgx.Tx, quiz domain.Quiz) error {
	for pos, q := range quiz.Questions {
		slots := make(map[string]*string, len(q.Options))
		for i := range q.Options {
			slots[q.Options[i].Key] = &q.Options[i].Text
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO questions (id, quiz_id, position, text, option_a, option_b, option_c, option_d, correct_option)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			q.ID, quiz.ID, pos, q.Text,
			slots[domain.OptionA], slots[domain.OptionB], slots[domain.OptionC], slots[domain.OptionD],
			q.CorrectOption)
		if err != nil {
			return domain.StorageError("insert question", err)
		}
	}
	return nil
}
