package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-platform-service/internal/domain"
)

// LeaderboardCache keeps derived leaderboards in Redis under a short TTL.
// Entries are invalidated on every accepted attempt for the quiz, so a
// submitting client always sees its own attempt on the next read.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

func (c *LeaderboardCache) Get(ctx context.Context, quizID string) (domain.Leaderboard, bool) {
	raw, err := c.client.Get(ctx, c.key(quizID)).Bytes()
	if err != nil {
		return domain.Leaderboard{}, false
	}
	var lb domain.Leaderboard
	if err := json.Unmarshal(raw, &lb); err != nil {
		return domain.Leaderboard{}, false
	}
	return lb, true
}

func (c *LeaderboardCache) Set(ctx context.Context, quizID string, lb domain.Leaderboard) {
	raw, err := json.Marshal(lb)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(quizID), raw, c.ttl).Err()
}

func (c *LeaderboardCache) Invalidate(ctx context.Context, quizID string) {
	_ = c.client.Del(ctx, c.key(quizID)).Err()
}

func (c *LeaderboardCache) key(quizID string) string {
	return "quiz:leaderboard:" + quizID
}
