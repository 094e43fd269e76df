package memory

import (
	"context"
	"sync"

	"quiz-platform-service/internal/domain"
)

// QuizRepository is an in-memory implementation of app.QuizRepository,
// used when no Postgres is configured and as the unit-test substrate.
type QuizRepository struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
	order   []string // creation order for listing
}

func NewQuizRepository() *QuizRepository {
	return &QuizRepository{
		quizzes: make(map[string]domain.Quiz),
	}
}

func (r *QuizRepository) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quizzes[quiz.ID] = copyQuiz(quiz)
	r.order = append(r.order, quiz.ID)
	return nil
}

func (r *QuizRepository) UpdateQuiz(_ context.Context, quiz domain.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quizzes[quiz.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	r.quizzes[quiz.ID] = copyQuiz(quiz)
	return nil
}

func (r *QuizRepository) DeleteQuiz(_ context.Context, quizID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(r.quizzes, quizID)
	for i, id := range r.order {
		if id == quizID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *QuizRepository) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	quiz, ok := r.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return copyQuiz(quiz), nil
}

func (r *QuizRepository) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	quizzes := make([]domain.Quiz, 0, len(r.order))
	for _, id := range r.order {
		quizzes = append(quizzes, copyQuiz(r.quizzes[id]))
	}
	return quizzes, nil
}

// copyQuiz detaches the stored value from caller-held slices.
func copyQuiz(quiz domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		q.Options = append([]domain.Option(nil), q.Options...)
		questions[i] = q
	}
	quiz.Questions = questions
	return quiz
}
