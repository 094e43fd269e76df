package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/infra/memory"
)

func TestCreateQuizRequiresIdentityAndRole(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	body := `{"title":"Math","questions":[{"text":"2+2=?","option_a":"3","option_b":"4","correct_option":"b"}]}`

	status, _ := do(t, server, "POST", "/quizzes", body, "", "")
	if status != http.StatusUnauthorized {
		t.Fatalf("no identity: expected 401, got %d", status)
	}

	status, _ = do(t, server, "POST", "/quizzes", body, "u1", "user")
	if status != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", status)
	}

	status, resp := do(t, server, "POST", "/quizzes", body, "admin-1", "admin")
	if status != http.StatusCreated {
		t.Fatalf("admin: expected 201, got %d: %s", status, resp)
	}
}

func TestCreateQuizValidationDetail(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	body := `{"title":"Math","questions":[{"text":"2+2=?","option_a":"3","option_b":"4","correct_option":"d"}]}`
	status, resp := do(t, server, "POST", "/quizzes", body, "admin-1", "admin")
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	var errBody struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	mustDecode(t, resp, &errBody)
	if errBody.Field != "questions" {
		t.Fatalf("expected field-level detail, got %+v", errBody)
	}
}

func TestQuestionsEndpointHidesAnswerKey(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	quizID := createMathQuiz(t, server)

	status, resp := do(t, server, "GET", "/quizzes/"+quizID+"/questions", "", "u1", "user")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var views []map[string]any
	mustDecode(t, resp, &views)
	if len(views) != 1 {
		t.Fatalf("expected 1 question, got %d", len(views))
	}
	if _, leaked := views[0]["correct_option"]; leaked {
		t.Fatalf("answer key leaked to taker: %+v", views[0])
	}
	if views[0]["option_b"] != "4" {
		t.Fatalf("option text mangled: %+v", views[0])
	}

	// Admins see the key.
	_, adminResp := do(t, server, "GET", "/quizzes/"+quizID+"/questions", "", "admin-1", "admin")
	mustDecode(t, adminResp, &views)
	if views[0]["correct_option"] != "b" {
		t.Fatalf("admin view missing answer key: %+v", views[0])
	}
}

func TestSubmitAttemptFlow(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	quizID := createMathQuiz(t, server)
	questionID := firstQuestionID(t, server, quizID)

	body := fmt.Sprintf(`{"answers":[{"question_id":%q,"selected_option":"b"}]}`, questionID)
	status, resp := do(t, server, "POST", "/quizzes/"+quizID+"/attempt", body, "u1", "user")
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, resp)
	}
	var view struct {
		AttemptID string `json:"attempt_id"`
		Score     int    `json:"score"`
		Total     int    `json:"total"`
	}
	mustDecode(t, resp, &view)
	if view.Score != 1 || view.Total != 1 {
		t.Fatalf("expected 1/1, got %d/%d", view.Score, view.Total)
	}

	// Resubmission by the same user conflicts.
	status, _ = do(t, server, "POST", "/quizzes/"+quizID+"/attempt", body, "u1", "user")
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on resubmission, got %d", status)
	}

	// The wrong option scores zero for a different user.
	wrong := fmt.Sprintf(`{"answers":[{"question_id":%q,"selected_option":"a"}]}`, questionID)
	status, resp = do(t, server, "POST", "/quizzes/"+quizID+"/attempt", wrong, "u2", "user")
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	mustDecode(t, resp, &view)
	if view.Score != 0 {
		t.Fatalf("expected 0/1 for wrong answer, got %d/%d", view.Score, view.Total)
	}

	// Owner can read the attempt back; a stranger cannot.
	status, _ = do(t, server, "GET", "/attempts/"+view.AttemptID, "", "u2", "user")
	if status != http.StatusOK {
		t.Fatalf("owner read: expected 200, got %d", status)
	}
	status, _ = do(t, server, "GET", "/attempts/"+view.AttemptID, "", "u3", "user")
	if status != http.StatusNotFound {
		t.Fatalf("stranger read: expected 404, got %d", status)
	}
}

func TestSubmitAttemptUnknownQuiz(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	status, _ := do(t, server, "POST", "/quizzes/missing/attempt", `{"answers":[]}`, "u1", "user")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	quizID := createMathQuiz(t, server)
	questionID := firstQuestionID(t, server, quizID)

	right := fmt.Sprintf(`{"answers":[{"question_id":%q,"selected_option":"b"}]}`, questionID)
	wrong := fmt.Sprintf(`{"answers":[{"question_id":%q,"selected_option":"a"}]}`, questionID)
	do(t, server, "POST", "/quizzes/"+quizID+"/attempt", wrong, "loser", "user")
	do(t, server, "POST", "/quizzes/"+quizID+"/attempt", right, "winner", "user")

	status, resp := do(t, server, "GET", "/quizzes/leaderboard/"+quizID, "", "u1", "user")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var entries []struct {
		Rank   int    `json:"rank"`
		UserID string `json:"user_id"`
		Score  int    `json:"score"`
	}
	mustDecode(t, resp, &entries)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].UserID != "winner" || entries[0].Rank != 1 || entries[0].Score != 1 {
		t.Fatalf("expected winner first, got %+v", entries)
	}

	// A quiz with no attempts yields an empty list, not an error.
	emptyID := createMathQuiz(t, server)
	status, resp = do(t, server, "GET", "/quizzes/leaderboard/"+emptyID, "", "u1", "user")
	if status != http.StatusOK {
		t.Fatalf("empty quiz: expected 200, got %d", status)
	}
	mustDecode(t, resp, &entries)
	if len(entries) != 0 {
		t.Fatalf("expected empty leaderboard, got %+v", entries)
	}

	status, _ = do(t, server, "GET", "/quizzes/leaderboard/missing", "", "u1", "user")
	if status != http.StatusNotFound {
		t.Fatalf("missing quiz: expected 404, got %d", status)
	}
}

func TestListQuizzesOmitsQuestions(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	createMathQuiz(t, server)

	status, resp := do(t, server, "GET", "/quizzes", "", "u1", "user")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var summaries []map[string]any
	mustDecode(t, resp, &summaries)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 quiz, got %d", len(summaries))
	}
	if _, ok := summaries[0]["questions"]; ok {
		t.Fatalf("listing leaked questions: %+v", summaries[0])
	}
}

func TestDeleteQuiz(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	quizID := createMathQuiz(t, server)

	status, _ := do(t, server, "DELETE", "/quizzes/"+quizID, "", "admin-1", "admin")
	if status != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", status)
	}
	status, _ = do(t, server, "DELETE", "/quizzes/"+quizID, "", "admin-1", "admin")
	if status != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", status)
	}
}

func TestUpdateQuizLockedAfterAttempt(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	quizID := createMathQuiz(t, server)
	do(t, server, "POST", "/quizzes/"+quizID+"/attempt", `{"answers":[]}`, "u1", "user")

	body := `{"title":"Edited","questions":[{"text":"2+2=?","option_a":"3","option_b":"4","correct_option":"a"}]}`
	status, _ := do(t, server, "PUT", "/quizzes/"+quizID, body, "admin-1", "admin")
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for locked quiz, got %d", status)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	quizzes := memory.NewQuizRepository()
	attempts := memory.NewAttemptRepository()
	leaderboards := app.NewLeaderboardService(quizzes, attempts, nil, app.NewLeaderboardFeed())
	handler := NewHandler(
		app.NewCatalogService(quizzes, attempts),
		app.NewAttemptService(quizzes, attempts, leaderboards),
		leaderboards,
	)
	mux := http.NewServeMux()
	handler.Register(mux)
	return httptest.NewServer(mux)
}

func do(t *testing.T, server *httptest.Server, method, path, body, userID, role string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
		req.Header.Set("X-User-Role", role)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func mustDecode(t *testing.T, data []byte, into any) {
	t.Helper()
	if err := json.Unmarshal(data, into); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
}

func createMathQuiz(t *testing.T, server *httptest.Server) string {
	t.Helper()
	body := `{"title":"Math","description":"one question","questions":[{"text":"2+2=?","option_a":"3","option_b":"4","option_c":"5","option_d":"6","correct_option":"b"}]}`
	status, resp := do(t, server, "POST", "/quizzes", body, "admin-1", "admin")
	if status != http.StatusCreated {
		t.Fatalf("create quiz: expected 201, got %d: %s", status, resp)
	}
	var view struct {
		ID string `json:"id"`
	}
	mustDecode(t, resp, &view)
	return view.ID
}

func firstQuestionID(t *testing.T, server *httptest.Server, quizID string) string {
	t.Helper()
	_, resp := do(t, server, "GET", "/quizzes/"+quizID+"/questions", "", "u1", "user")
	var views []struct {
		ID string `json:"id"`
	}
	mustDecode(t, resp, &views)
	if len(views) == 0 {
		t.Fatal("quiz has no questions")
	}
	return views[0].ID
}
