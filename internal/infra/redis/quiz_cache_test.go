package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-platform-service/internal/domain"
	"quiz-platform-service/internal/infra/memory"
)

func TestQuizCacheServesFromRedis(t *testing.T) {
	mr, client := newTestRedis(t)
	defer mr.Close()

	inner := &countingRepo{QuizRepository: seededRepo(t)}
	cache := NewQuizCache(client, inner, time.Minute)
	ctx := context.Background()

	quiz, err := cache.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.ID != "quiz-1" || len(quiz.Questions) != 1 {
		t.Fatalf("unexpected quiz from loader: %+v", quiz)
	}
	if inner.gets != 1 {
		t.Fatalf("expected one inner load, got %d", inner.gets)
	}

	// Second read hits Redis, inner untouched.
	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if inner.gets != 1 {
		t.Fatalf("expected cache hit, inner loads=%d", inner.gets)
	}
}

func TestQuizCacheInvalidatesOnWrite(t *testing.T) {
	mr, client := newTestRedis(t)
	defer mr.Close()

	inner := &countingRepo{QuizRepository: seededRepo(t)}
	cache := NewQuizCache(client, inner, time.Minute)
	ctx := context.Background()

	quiz, err := cache.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if !mr.Exists("quiz:quiz-1") {
		t.Fatal("expected quiz cached in redis")
	}

	quiz.Title = "Edited"
	if err := cache.UpdateQuiz(ctx, quiz); err != nil {
		t.Fatalf("update: %v", err)
	}
	if mr.Exists("quiz:quiz-1") {
		t.Fatal("expected cache entry dropped after update")
	}

	refreshed, err := cache.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if refreshed.Title != "Edited" {
		t.Fatalf("stale quiz served after update: %q", refreshed.Title)
	}

	if err := cache.DeleteQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("quiz:quiz-1") {
		t.Fatal("expected cache entry dropped after delete")
	}
}

type countingRepo struct {
	*memory.QuizRepository
	gets int
}

func (r *countingRepo) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	r.gets++
	return r.QuizRepository.GetQuiz(ctx, quizID)
}

func seededRepo(t *testing.T) *memory.QuizRepository {
	t.Helper()
	repo := memory.NewQuizRepository()
	err := repo.CreateQuiz(context.Background(), domain.Quiz{
		ID:    "quiz-1",
		Title: "Sample",
		Questions: []domain.Question{{
			ID:   "q1",
			Text: "2+2=?",
			Options: []domain.Option{
				{Key: "a", Text: "3"},
				{Key: "b", Text: "4"},
			},
			CorrectOption: "b",
		}},
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return repo
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}
