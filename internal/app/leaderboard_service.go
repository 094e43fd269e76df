package app

import (
	"context"
	"sort"
	"time"

	"quiz-platform-service/internal/domain"
)

// LeaderboardCache holds derived leaderboards between reads. Implementations
// may drop entries at any time; Get returning false just forces a recompute.
type LeaderboardCache interface {
	Get(ctx context.Context, quizID string) (domain.Leaderboard, bool)
	Set(ctx context.Context, quizID string, lb domain.Leaderboard)
	Invalidate(ctx context.Context, quizID string)
}

// LeaderboardService derives ranked views from the attempt store.
type LeaderboardService struct {
	quizzes  QuizRepository
	attempts AttemptRepository
	cache    LeaderboardCache
	feed     *LeaderboardFeed
	now      func() time.Time
}

// NewLeaderboardService wires the read side. cache and feed may be nil.
func NewLeaderboardService(quizzes QuizRepository, attempts AttemptRepository, cache LeaderboardCache, feed *LeaderboardFeed) *LeaderboardService {
	return &LeaderboardService{
		quizzes:  quizzes,
		attempts: attempts,
		cache:    cache,
		feed:     feed,
		now:      time.Now,
	}
}

// GetLeaderboard returns the quiz's ranking: score descending, ties broken
// by earliest attempt timestamp (first to achieve the score ranks higher),
// then by user ID. A quiz with no attempts yields empty entries, not an error.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.Leaderboard{}, err
	}

	if s.cache != nil {
		if lb, ok := s.cache.Get(ctx, quizID); ok {
			return lb, nil
		}
	}

	lb, err := s.compute(ctx, quizID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, quizID, lb)
	}
	return lb, nil
}

// AttemptAccepted refreshes the derived view after a committed attempt:
// the stale cache entry is dropped and subscribers get the new ranking.
// The submitting client therefore sees its own attempt on the next read.
func (s *LeaderboardService) AttemptAccepted(ctx context.Context, quizID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, quizID)
	}
	if s.feed == nil || !s.feed.HasSubscribers(quizID) {
		return
	}
	lb, err := s.compute(ctx, quizID)
	if err != nil {
		return
	}
	if s.cache != nil {
		s.cache.Set(ctx, quizID, lb)
	}
	s.feed.Publish(quizID, lb)
}

// QuizDeleted drops derived state for a removed quiz.
func (s *LeaderboardService) QuizDeleted(ctx context.Context, quizID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, quizID)
	}
	if s.feed != nil {
		s.feed.Drop(quizID)
	}
}

// Subscribe returns a channel receiving leaderboard updates for the quiz.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *LeaderboardService) Subscribe(ctx context.Context, quizID string) (<-chan domain.Leaderboard, func(), error) {
	lb, err := s.GetLeaderboard(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.feed.Subscribe(quizID)
	ch <- lb
	return ch, cancel, nil
}

func (s *LeaderboardService) compute(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	attempts, err := s.attempts.ListAttemptsByQuiz(ctx, quizID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{
		QuizID:    quizID,
		Entries:   rankAttempts(attempts),
		UpdatedAt: s.now(),
	}, nil
}

// rankAttempts reduces attempts to one entry per user. Under the
// reject-duplicate policy each user has a single attempt, but the reducer
// keeps best-score semantics so a relaxed policy would not change ranking
// rules: highest score wins, and on equal high scores the earliest attempt
// achieving it counts.
func rankAttempts(attempts []domain.Attempt) []domain.LeaderboardEntry {
	best := make(map[string]domain.Attempt)
	for _, attempt := range attempts {
		prev, ok := best[attempt.UserID]
		if !ok || attempt.Score > prev.Score ||
			(attempt.Score == prev.Score && attempt.CreatedAt.Before(prev.CreatedAt)) {
			best[attempt.UserID] = attempt
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(best))
	for _, attempt := range best {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:     attempt.UserID,
			Score:      attempt.Score,
			Total:      attempt.Total,
			AchievedAt: attempt.CreatedAt,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].AchievedAt.Equal(entries[j].AchievedAt) {
			return entries[i].AchievedAt.Before(entries[j].AchievedAt)
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
