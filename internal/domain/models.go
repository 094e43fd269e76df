package domain

import "time"

// Option slot labels follow the classic a/b/c/d scheme. A question offers
// between one and four slots; an absent slot is simply not present.
const (
	OptionA = "a"
	OptionB = "b"
	OptionC = "c"
	OptionD = "d"
)

// OptionKeys lists the slot labels in display order.
var OptionKeys = []string{OptionA, OptionB, OptionC, OptionD}

// ValidOptionKey reports whether key is one of the four slot labels.
func ValidOptionKey(key string) bool {
	switch key {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Option is one offered answer slot of a question.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Question models a single-choice prompt with exactly one correct slot.
// Options holds only the present slots, in a..d order.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []Option `json:"options"`
	CorrectOption string   `json:"correctOption"`
}

// Option returns the option stored under key, if that slot is present.
func (q Question) Option(key string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Key == key {
			return opt, true
		}
	}
	return Option{}, false
}

// Quiz is a titled, described, ordered collection of questions.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Question returns the owned question with the given ID.
func (qz Quiz) Question(id string) (Question, bool) {
	for _, q := range qz.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Attempt is one finalized, scored submission by one user against one quiz.
// Attempts are immutable once stored; there is no draft state.
type Attempt struct {
	ID        string            `json:"id"`
	QuizID    string            `json:"quizId"`
	UserID    string            `json:"userId"`
	Answers   map[string]string `json:"answers"` // questionID -> selected option key
	Score     int               `json:"score"`   // count of correct answers
	Total     int               `json:"total"`   // question count at grading time
	CreatedAt time.Time         `json:"createdAt"`
}

// QuestionResult reports the grading outcome for a single question.
type QuestionResult struct {
	QuestionID string `json:"questionId"`
	Selected   string `json:"selected,omitempty"`
	Correct    bool   `json:"correct"`
}

// GradeResult summarizes grading one answer set against one quiz.
type GradeResult struct {
	Score       int              `json:"score"`
	Total       int              `json:"total"`
	PerQuestion []QuestionResult `json:"perQuestion"`
}

// LeaderboardEntry is the per-user row of a quiz's ranked view. Entries are
// derived from attempts and never stored on their own.
type LeaderboardEntry struct {
	Rank       int       `json:"rank"`
	UserID     string    `json:"userId"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	AchievedAt time.Time `json:"achievedAt"`
}

// Leaderboard captures the ordered scoreboard for a quiz.
type Leaderboard struct {
	QuizID    string             `json:"quizId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Role is the caller's verified role, handed in by the identity layer.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Identity is a pre-verified caller. The service never parses credentials;
// an upstream identity collaborator vouches for these values.
type Identity struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the identity may perform admin operations.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}
