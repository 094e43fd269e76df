package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"quiz-platform-service/internal/domain"
	"quiz-platform-service/internal/grading"
)

// AnswerInput is one (question, selected option) pair of a submission.
type AnswerInput struct {
	QuestionID     string
	SelectedOption string
}

// AttemptService accepts submissions, grades them, and persists exactly
// one finalized attempt per accepted submission.
type AttemptService struct {
	quizzes      QuizRepository
	attempts     AttemptRepository
	leaderboards *LeaderboardService
	now          func() time.Time
	newID        func() string
}

// NewAttemptService wires the write side. leaderboards may be nil.
func NewAttemptService(quizzes QuizRepository, attempts AttemptRepository, leaderboards *LeaderboardService) *AttemptService {
	return &AttemptService{
		quizzes:      quizzes,
		attempts:     attempts,
		leaderboards: leaderboards,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// NewAttemptServiceWithClock is test-only for deterministic timestamps.
func NewAttemptServiceWithClock(quizzes QuizRepository, attempts AttemptRepository, leaderboards *LeaderboardService, now func() time.Time) *AttemptService {
	s := NewAttemptService(quizzes, attempts, leaderboards)
	s.now = now
	return s
}

// SubmitAttempt grades the answers against the quiz and stores the result.
// Resubmission policy: one attempt per (user, quiz); the repository rejects
// duplicates atomically with domain.ErrDuplicateAttempt, so two concurrent
// submissions by the same user cannot both land.
func (s *AttemptService) SubmitAttempt(ctx context.Context, userID, quizID string, answers []AnswerInput) (domain.Attempt, domain.GradeResult, error) {
	answerMap, err := validateAnswers(answers)
	if err != nil {
		return domain.Attempt{}, domain.GradeResult{}, err
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Attempt{}, domain.GradeResult{}, err
	}

	result := grading.Grade(quiz, answerMap)
	attempt := domain.Attempt{
		ID:        s.newID(),
		QuizID:    quizID,
		UserID:    userID,
		Answers:   answerMap,
		Score:     result.Score,
		Total:     result.Total,
		CreatedAt: s.now(),
	}
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return domain.Attempt{}, domain.GradeResult{}, err
	}

	if s.leaderboards != nil {
		s.leaderboards.AttemptAccepted(ctx, quizID)
	}
	return attempt, result, nil
}

func (s *AttemptService) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	return s.attempts.GetAttempt(ctx, attemptID)
}

// ListAttemptsForQuiz returns the quiz's attempts in submission order.
func (s *AttemptService) ListAttemptsForQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return s.attempts.ListAttemptsByQuiz(ctx, quizID)
}

// validateAnswers turns the loose pair list into a question->option map.
// Malformed pairs (missing IDs, option keys outside a..d, duplicated
// questions) are rejected before grading; answers for questions the quiz
// does not own are the grading engine's concern and pass through here.
func validateAnswers(answers []AnswerInput) (map[string]string, error) {
	answerMap := make(map[string]string, len(answers))
	for i, answer := range answers {
		if answer.QuestionID == "" {
			return nil, domain.Validation("answers", "answer %d has no question_id", i+1)
		}
		if answer.SelectedOption == "" {
			return nil, domain.Validation("answers", "answer %d has no selected_option", i+1)
		}
		if !domain.ValidOptionKey(answer.SelectedOption) {
			return nil, domain.Validation("answers", "answer %d selected_option %q is not one of a/b/c/d", i+1, answer.SelectedOption)
		}
		if _, dup := answerMap[answer.QuestionID]; dup {
			return nil, domain.Validation("answers", "question %s answered more than once", answer.QuestionID)
		}
		answerMap[answer.QuestionID] = answer.SelectedOption
	}
	return answerMap, nil
}
