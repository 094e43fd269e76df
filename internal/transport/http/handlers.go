package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/domain"
)

// Handler exposes the quiz platform's REST surface.
type Handler struct {
	catalog      *app.CatalogService
	attempts     *app.AttemptService
	leaderboards *app.LeaderboardService
}

func NewHandler(catalog *app.CatalogService, attempts *app.AttemptService, leaderboards *app.LeaderboardService) *Handler {
	return &Handler{catalog: catalog, attempts: attempts, leaderboards: leaderboards}
}

// Register wires all routes onto mux. Every route runs behind WithIdentity.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("POST /quizzes", WithIdentity(http.HandlerFunc(h.createQuiz)))
	mux.Handle("GET /quizzes", WithIdentity(http.HandlerFunc(h.listQuizzes)))
	mux.Handle("GET /quizzes/{id}", WithIdentity(http.HandlerFunc(h.getQuiz)))
	mux.Handle("PUT /quizzes/{id}", WithIdentity(http.HandlerFunc(h.updateQuiz)))
	mux.Handle("DELETE /quizzes/{id}", WithIdentity(http.HandlerFunc(h.deleteQuiz)))
	// /quizzes/{id}/questions, /quizzes/{id}/attempts, and the established
	// /quizzes/leaderboard/{id} shape overlap as ServeMux patterns, so one
	// handler dispatches on the literal segments.
	mux.Handle("GET /quizzes/{a}/{b}", WithIdentity(http.HandlerFunc(h.quizSubresource)))
	mux.Handle("POST /quizzes/{id}/attempt", WithIdentity(http.HandlerFunc(h.submitAttempt)))
	mux.Handle("GET /quizzes/{id}/leaderboard/ws", WithIdentity(http.HandlerFunc(h.leaderboardWS)))
	mux.Handle("GET /attempts/{id}", WithIdentity(http.HandlerFunc(h.getAttempt)))
}

// questionPayload mirrors the established client contract: four nullable
// option slots plus the correct slot key.
type questionPayload struct {
	Text          string  `json:"text"`
	OptionA       *string `json:"option_a,omitempty"`
	OptionB       *string `json:"option_b,omitempty"`
	OptionC       *string `json:"option_c,omitempty"`
	OptionD       *string `json:"option_d,omitempty"`
	CorrectOption string  `json:"correct_option"`
}

type quizPayload struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Questions   []questionPayload `json:"questions"`
}

type quizSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type questionView struct {
	ID            string  `json:"id"`
	Text          string  `json:"text"`
	OptionA       *string `json:"option_a"`
	OptionB       *string `json:"option_b"`
	OptionC       *string `json:"option_c"`
	OptionD       *string `json:"option_d"`
	CorrectOption string  `json:"correct_option,omitempty"`
}

type quizView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Questions   []questionView `json:"questions"`
}

type answerPayload struct {
	QuestionID     string `json:"question_id"`
	SelectedOption string `json:"selected_option"`
}

type attemptPayload struct {
	Answers []answerPayload `json:"answers"`
}

type questionResultView struct {
	QuestionID     string `json:"question_id"`
	SelectedOption string `json:"selected_option,omitempty"`
	Correct        bool   `json:"correct"`
}

type attemptView struct {
	AttemptID string               `json:"attempt_id"`
	QuizID    string               `json:"quiz_id"`
	UserID    string               `json:"user_id"`
	Score     int                  `json:"score"`
	Total     int                  `json:"total"`
	CreatedAt string               `json:"created_at"`
	Results   []questionResultView `json:"results,omitempty"`
}

type leaderboardEntryView struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Score  int    `json:"score"`
	Total  int    `json:"total"`
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var payload quizPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domain.Validation("body", "malformed JSON: %v", err))
		return
	}
	quiz, err := h.catalog.CreateQuiz(r.Context(), toQuizInput(payload))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuizView(quiz, true))
}

func (h *Handler) updateQuiz(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var payload quizPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domain.Validation("body", "malformed JSON: %v", err))
		return
	}
	quiz, err := h.catalog.UpdateQuiz(r.Context(), r.PathValue("id"), toQuizInput(payload))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuizView(quiz, true))
}

func (h *Handler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	quizID := r.PathValue("id")
	if err := h.catalog.DeleteQuiz(r.Context(), quizID); err != nil {
		writeError(w, err)
		return
	}
	h.leaderboards.QuizDeleted(r.Context(), quizID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	quiz, err := h.catalog.GetQuiz(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuizView(quiz, true))
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.catalog.ListQuizzes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	summaries := make([]quizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		summaries = append(summaries, quizSummary{ID: quiz.ID, Title: quiz.Title, Description: quiz.Description})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) quizSubresource(w http.ResponseWriter, r *http.Request) {
	a, b := r.PathValue("a"), r.PathValue("b")
	switch {
	case a == "leaderboard":
		h.getLeaderboard(w, r, b)
	case b == "questions":
		h.getQuestions(w, r, a)
	case b == "attempts":
		h.listAttempts(w, r, a)
	default:
		http.NotFound(w, r)
	}
}

// getQuestions serves the taking view: the answer key is projected away for
// everyone but admins.
func (h *Handler) getQuestions(w http.ResponseWriter, r *http.Request, quizID string) {
	questions, err := h.catalog.GetQuestions(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	includeKey := identityFrom(r).IsAdmin()
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, toQuestionView(q, includeKey))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) listAttempts(w http.ResponseWriter, r *http.Request, quizID string) {
	if !h.requireAdmin(w, r) {
		return
	}
	attempts, err := h.attempts.ListAttemptsForQuiz(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]attemptView, 0, len(attempts))
	for _, attempt := range attempts {
		views = append(views, toAttemptView(attempt, nil))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	var payload attemptPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domain.Validation("body", "malformed JSON: %v", err))
		return
	}
	answers := make([]app.AnswerInput, 0, len(payload.Answers))
	for _, a := range payload.Answers {
		answers = append(answers, app.AnswerInput{QuestionID: a.QuestionID, SelectedOption: a.SelectedOption})
	}

	identity := identityFrom(r)
	attempt, result, err := h.attempts.SubmitAttempt(r.Context(), identity.UserID, r.PathValue("id"), answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttemptView(attempt, result.PerQuestion))
}

// getAttempt serves an attempt to its owner or to an admin; anyone else
// gets a not-found, not a forbidden, to avoid leaking attempt IDs.
func (h *Handler) getAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.attempts.GetAttempt(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	identity := identityFrom(r)
	if attempt.UserID != identity.UserID && !identity.IsAdmin() {
		writeError(w, domain.ErrAttemptNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toAttemptView(attempt, nil))
}

func (h *Handler) getLeaderboard(w http.ResponseWriter, r *http.Request, quizID string) {
	lb, err := h.leaderboards.GetLeaderboard(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaderboardView(lb))
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !identityFrom(r).IsAdmin() {
		writeError(w, domain.ErrForbidden)
		return false
	}
	return true
}

func toQuizInput(payload quizPayload) app.QuizInput {
	questions := make([]app.QuestionInput, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		options := make(map[string]string)
		for key, text := range map[string]*string{
			domain.OptionA: q.OptionA,
			domain.OptionB: q.OptionB,
			domain.OptionC: q.OptionC,
			domain.OptionD: q.OptionD,
		} {
			if text != nil {
				options[key] = *text
			}
		}
		questions = append(questions, app.QuestionInput{
			Text:          q.Text,
			Options:       options,
			CorrectOption: q.CorrectOption,
		})
	}
	return app.QuizInput{
		Title:       payload.Title,
		Description: payload.Description,
		Questions:   questions,
	}
}

func toQuestionView(q domain.Question, includeKey bool) questionView {
	view := questionView{ID: q.ID, Text: q.Text}
	for _, opt := range q.Options {
		text := opt.Text
		switch opt.Key {
		case domain.OptionA:
			view.OptionA = &text
		case domain.OptionB:
			view.OptionB = &text
		case domain.OptionC:
			view.OptionC = &text
		case domain.OptionD:
			view.OptionD = &text
		}
	}
	if includeKey {
		view.CorrectOption = q.CorrectOption
	}
	return view
}

func toQuizView(quiz domain.Quiz, includeKey bool) quizView {
	questions := make([]questionView, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions = append(questions, toQuestionView(q, includeKey))
	}
	return quizView{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		Questions:   questions,
	}
}

func toAttemptView(attempt domain.Attempt, perQuestion []domain.QuestionResult) attemptView {
	view := attemptView{
		AttemptID: attempt.ID,
		QuizID:    attempt.QuizID,
		UserID:    attempt.UserID,
		Score:     attempt.Score,
		Total:     attempt.Total,
		CreatedAt: attempt.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, qr := range perQuestion {
		view.Results = append(view.Results, questionResultView{
			QuestionID:     qr.QuestionID,
			SelectedOption: qr.Selected,
			Correct:        qr.Correct,
		})
	}
	return view
}

func toLeaderboardView(lb domain.Leaderboard) []leaderboardEntryView {
	views := make([]leaderboardEntryView, 0, len(lb.Entries))
	for _, entry := range lb.Entries {
		views = append(views, leaderboardEntryView{
			Rank:   entry.Rank,
			UserID: entry.UserID,
			Score:  entry.Score,
			Total:  entry.Total,
		})
	}
	return views
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Message, Field: ve.Field})
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrAttemptNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrDuplicateAttempt), errors.Is(err, domain.ErrQuizLocked):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
