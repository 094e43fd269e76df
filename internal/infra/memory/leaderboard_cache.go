package memory

import (
	"context"
	"sync"
	"time"

	"quiz-platform-service/internal/domain"
)

// LeaderboardCache keeps derived leaderboards with a TTL to bound staleness
// between invalidations.
type LeaderboardCache struct {
	ttl   time.Duration
	clock func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedLeaderboard
}

type cachedLeaderboard struct {
	lb        domain.Leaderboard
	expiresAt time.Time
}

func NewLeaderboardCache(ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		ttl:   ttl,
		clock: time.Now,
		cache: make(map[string]cachedLeaderboard),
	}
}

func (c *LeaderboardCache) Get(_ context.Context, quizID string) (domain.Leaderboard, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[quizID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Leaderboard{}, false
	}
	return entry.lb, true
}

func (c *LeaderboardCache) Set(_ context.Context, quizID string, lb domain.Leaderboard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[quizID] = cachedLeaderboard{lb: lb, expiresAt: c.clock().Add(c.ttl)}
}

func (c *LeaderboardCache) Invalidate(_ context.Context, quizID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, quizID)
}
