package memory

import (
	"context"
	"sync"

	"quiz-platform-service/internal/domain"
)

// AttemptRepository is an in-memory implementation of app.AttemptRepository.
// A single mutex makes the duplicate check and the insert one atomic step,
// so concurrent resubmissions cannot both pass.
type AttemptRepository struct {
	mu        sync.RWMutex
	attempts  map[string]domain.Attempt
	byQuiz    map[string][]string // quizID -> attempt IDs in submission order
	submitted map[string]struct{} // (quiz, user) pairs already finalized
}

func NewAttemptRepository() *AttemptRepository {
	return &AttemptRepository{
		attempts:  make(map[string]domain.Attempt),
		byQuiz:    make(map[string][]string),
		submitted: make(map[string]struct{}),
	}
}

func (r *AttemptRepository) CreateAttempt(_ context.Context, attempt domain.Attempt) error {
	key := pairKey(attempt.QuizID, attempt.UserID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.submitted[key]; dup {
		return domain.ErrDuplicateAttempt
	}
	r.submitted[key] = struct{}{}
	r.attempts[attempt.ID] = copyAttempt(attempt)
	r.byQuiz[attempt.QuizID] = append(r.byQuiz[attempt.QuizID], attempt.ID)
	return nil
}

func (r *AttemptRepository) GetAttempt(_ context.Context, attemptID string) (domain.Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	attempt, ok := r.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return copyAttempt(attempt), nil
}

func (r *AttemptRepository) ListAttemptsByQuiz(_ context.Context, quizID string) ([]domain.Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byQuiz[quizID]
	attempts := make([]domain.Attempt, 0, len(ids))
	for _, id := range ids {
		attempts = append(attempts, copyAttempt(r.attempts[id]))
	}
	return attempts, nil
}

func (r *AttemptRepository) CountAttemptsByQuiz(_ context.Context, quizID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byQuiz[quizID]), nil
}

func (r *AttemptRepository) DeleteAttemptsByQuiz(_ context.Context, quizID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.byQuiz[quizID] {
		attempt := r.attempts[id]
		delete(r.submitted, pairKey(attempt.QuizID, attempt.UserID))
		delete(r.attempts, id)
	}
	delete(r.byQuiz, quizID)
	return nil
}

func pairKey(quizID, userID string) string {
	return quizID + "\x00" + userID
}

func copyAttempt(attempt domain.Attempt) domain.Attempt {
	answers := make(map[string]string, len(attempt.Answers))
	for q, opt := range attempt.Answers {
		answers[q] = opt
	}
	attempt.Answers = answers
	return attempt
}
