package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-platform-service/internal/domain"
)

func TestQuizRepositoryLifecycle(t *testing.T) {
	repo := NewQuizRepository()
	ctx := context.Background()

	quiz := sampleQuiz("quiz-1")
	if err := repo.CreateQuiz(ctx, quiz); err != nil {
		t.Fatalf("create: %v", err)
	}

	fetched, err := repo.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Title != quiz.Title || len(fetched.Questions) != 1 {
		t.Fatalf("round trip lost data: %+v", fetched)
	}

	quiz.Title = "Renamed"
	if err := repo.UpdateQuiz(ctx, quiz); err != nil {
		t.Fatalf("update: %v", err)
	}
	fetched, _ = repo.GetQuiz(ctx, "quiz-1")
	if fetched.Title != "Renamed" {
		t.Fatalf("update not applied: %q", fetched.Title)
	}

	if err := repo.DeleteQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetQuiz(ctx, "quiz-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestQuizRepositoryNotFound(t *testing.T) {
	repo := NewQuizRepository()
	ctx := context.Background()

	if _, err := repo.GetQuiz(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("get: expected not found, got %v", err)
	}
	if err := repo.UpdateQuiz(ctx, sampleQuiz("missing")); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("update: expected not found, got %v", err)
	}
	if err := repo.DeleteQuiz(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("delete: expected not found, got %v", err)
	}
}

func TestQuizRepositoryListsInCreationOrder(t *testing.T) {
	repo := NewQuizRepository()
	ctx := context.Background()

	for _, id := range []string{"q-a", "q-b", "q-c"} {
		if err := repo.CreateQuiz(ctx, sampleQuiz(id)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	_ = repo.DeleteQuiz(ctx, "q-b")

	listed, err := repo.ListQuizzes(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "q-a" || listed[1].ID != "q-c" {
		t.Fatalf("unexpected listing: %+v", listed)
	}
}

func TestQuizRepositoryDetachesStoredQuiz(t *testing.T) {
	repo := NewQuizRepository()
	ctx := context.Background()

	quiz := sampleQuiz("quiz-1")
	if err := repo.CreateQuiz(ctx, quiz); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Mutating the caller's slice must not reach the stored copy.
	quiz.Questions[0].Text = "tampered"

	fetched, _ := repo.GetQuiz(ctx, "quiz-1")
	if fetched.Questions[0].Text == "tampered" {
		t.Fatal("stored quiz aliases caller memory")
	}
}

func sampleQuiz(id string) domain.Quiz {
	return domain.Quiz{
		ID:          id,
		Title:       "Sample",
		Description: "sample quiz",
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
	}
}
