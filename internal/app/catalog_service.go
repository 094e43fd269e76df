package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"quiz-platform-service/internal/domain"
)

// QuizRepository abstracts how quiz definitions are stored (in-memory,
// Postgres behind a Redis cache, etc).
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, quizID string) error
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// AttemptRepository persists finalized attempts. CreateAttempt must enforce
// the one-attempt-per-(user, quiz) rule atomically at the storage boundary
// and return domain.ErrDuplicateAttempt on violation.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt domain.Attempt) error
	GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error)
	ListAttemptsByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error)
	CountAttemptsByQuiz(ctx context.Context, quizID string) (int, error)
	DeleteAttemptsByQuiz(ctx context.Context, quizID string) error
}

// QuestionInput is the authoring shape of a question. Options maps present
// slot keys (a..d) to their text; absent slots are simply omitted.
type QuestionInput struct {
	Text          string
	Options       map[string]string
	CorrectOption string
}

// QuizInput is the authoring shape of a quiz.
type QuizInput struct {
	Title       string
	Description string
	Questions   []QuestionInput
}

// CatalogService owns quiz and question definitions.
type CatalogService struct {
	quizzes  QuizRepository
	attempts AttemptRepository
	now      func() time.Time
	newID    func() string
}

func NewCatalogService(quizzes QuizRepository, attempts AttemptRepository) *CatalogService {
	return &CatalogService{
		quizzes:  quizzes,
		attempts: attempts,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// NewCatalogServiceWithClock is test-only for deterministic timestamps and IDs.
func NewCatalogServiceWithClock(quizzes QuizRepository, attempts AttemptRepository, now func() time.Time, newID func() string) *CatalogService {
	return &CatalogService{quizzes: quizzes, attempts: attempts, now: now, newID: newID}
}

// CreateQuiz validates and stores a new quiz with its full question set.
func (s *CatalogService) CreateQuiz(ctx context.Context, input QuizInput) (domain.Quiz, error) {
	questions, err := buildQuestions(input, s.newID)
	if err != nil {
		return domain.Quiz{}, err
	}

	quiz := domain.Quiz{
		ID:          s.newID(),
		Title:       input.Title,
		Description: input.Description,
		Questions:   questions,
		CreatedAt:   s.now(),
	}
	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// UpdateQuiz replaces the quiz's title, description, and question set.
// A quiz with recorded attempts is locked: editing its answer key would
// silently invalidate historical scores.
func (s *CatalogService) UpdateQuiz(ctx context.Context, quizID string, input QuizInput) (domain.Quiz, error) {
	existing, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}

	count, err := s.attempts.CountAttemptsByQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if count > 0 {
		return domain.Quiz{}, domain.ErrQuizLocked
	}

	questions, err := buildQuestions(input, s.newID)
	if err != nil {
		return domain.Quiz{}, err
	}

	quiz := domain.Quiz{
		ID:          quizID,
		Title:       input.Title,
		Description: input.Description,
		Questions:   questions,
		CreatedAt:   existing.CreatedAt,
	}
	if err := s.quizzes.UpdateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// DeleteQuiz removes the quiz, its questions, and cascades to its attempts.
func (s *CatalogService) DeleteQuiz(ctx context.Context, quizID string) error {
	if err := s.quizzes.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	return s.attempts.DeleteAttemptsByQuiz(ctx, quizID)
}

func (s *CatalogService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// ListQuizzes returns quizzes in creation order, without their questions.
func (s *CatalogService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	quizzes, err := s.quizzes.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.Quiz, len(quizzes))
	for i, quiz := range quizzes {
		quiz.Questions = nil
		summaries[i] = quiz
	}
	return summaries, nil
}

// GetQuestions returns the quiz's questions in stored order. The transport
// layer is responsible for projecting away CorrectOption for non-admins.
func (s *CatalogService) GetQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return quiz.Questions, nil
}

// buildQuestions validates the authored question set and assigns IDs.
// Option text is stored verbatim: case and whitespace are preserved.
func buildQuestions(input QuizInput, newID func() string) ([]domain.Question, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, domain.Validation("title", "must not be empty")
	}
	if len(input.Questions) == 0 {
		return nil, domain.Validation("questions", "quiz needs at least one question")
	}

	questions := make([]domain.Question, 0, len(input.Questions))
	for i, qi := range input.Questions {
		if strings.TrimSpace(qi.Text) == "" {
			return nil, domain.Validation("questions", "question %d has empty text", i+1)
		}
		for key := range qi.Options {
			if !domain.ValidOptionKey(key) {
				return nil, domain.Validation("questions", "question %d has unknown option slot %q", i+1, key)
			}
		}

		// Present slots keep a..d display order regardless of map iteration.
		options := make([]domain.Option, 0, len(qi.Options))
		for _, key := range domain.OptionKeys {
			text, ok := qi.Options[key]
			if !ok {
				continue
			}
			if text == "" {
				return nil, domain.Validation("questions", "question %d option %s has empty text", i+1, key)
			}
			options = append(options, domain.Option{Key: key, Text: text})
		}
		if len(options) == 0 {
			return nil, domain.Validation("questions", "question %d offers no options", i+1)
		}

		if qi.CorrectOption == "" {
			return nil, domain.Validation("questions", "question %d has no correct option selected", i+1)
		}
		if _, ok := qi.Options[qi.CorrectOption]; !ok {
			return nil, domain.Validation("questions", "question %d correct option %q references an absent slot", i+1, qi.CorrectOption)
		}

		questions = append(questions, domain.Question{
			ID:            newID(),
			Text:          qi.Text,
			Options:       options,
			CorrectOption: qi.CorrectOption,
		})
	}
	return questions, nil
}
