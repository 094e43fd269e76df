package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/domain"
)

// QuizCache decorates a QuizRepository with a Redis read cache so grading
// does not hit Postgres on every submission. Quizzes are stored as JSON at
// quiz:{quizID} with a jittered TTL; writes pass through and invalidate.
type QuizCache struct {
	client *redis.Client
	inner  app.QuizRepository
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuizCache(client *redis.Client, inner app.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	key := c.key(quizID)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err == nil {
			return quiz, nil
		}
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var quiz domain.Quiz
			if err := json.Unmarshal(raw, &quiz); err == nil {
				return quiz, nil
			}
		}

		quiz, err := c.inner.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if raw, err := json.Marshal(quiz); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	return c.inner.CreateQuiz(ctx, quiz)
}

func (c *QuizCache) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	if err := c.inner.UpdateQuiz(ctx, quiz); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.key(quiz.ID)).Err()
	return nil
}

func (c *QuizCache) DeleteQuiz(ctx context.Context, quizID string) error {
	if err := c.inner.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.key(quizID)).Err()
	return nil
}

// ListQuizzes is not cached; listings must reflect catalog writes promptly.
func (c *QuizCache) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return c.inner.ListQuizzes(ctx)
}

func (c *QuizCache) key(quizID string) string {
	return "quiz:" + quizID
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
