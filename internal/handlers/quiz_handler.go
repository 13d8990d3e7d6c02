package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"transquiz/internal/models"
	"transquiz/internal/security"
	"transquiz/internal/service"
	"transquiz/internal/utils"
)

const pageTitle = "Translation Quiz"

// QuizHandler handles the quiz pages
type QuizHandler struct {
	store     *service.SessionStore
	csrf      *security.CSRFGenerator
	templates *template.Template
	quizSize  int
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(store *service.SessionStore, csrf *security.CSRFGenerator, templates *template.Template, quizSize int) *QuizHandler {
	return &QuizHandler{
		store:     store,
		csrf:      csrf,
		templates: templates,
		quizSize:  quizSize,
	}
}

// Home shows the input form, or sends the user back to the quiz stage they are in
func (h *QuizHandler) Home(w http.ResponseWriter, r *http.Request) {
	state := models.StateIdle
	h.store.Peek(GetSessionIDFromContext(r.Context()), func(s *service.QuizSession) error {
		state = s.State()
		return nil
	})

	switch state {
	case models.StateInProgress:
		redirect(w, r, "/quiz")
	case models.StateCompleted:
		redirect(w, r, "/quiz/results")
	default:
		h.renderInput(w, r, http.StatusOK, InputViewData{})
	}
}

// StartQuiz samples a quiz from the submitted sentence lists
func (h *QuizHandler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, r, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	promptsText := r.FormValue("prompts")
	referencesText := r.FormValue("references")

	err := h.store.With(GetSessionIDFromContext(r.Context()), func(s *service.QuizSession) error {
		return s.Start(utils.SplitLines(promptsText), utils.SplitLines(referencesText))
	})

	var verr *utils.ValidationError
	switch {
	case err == nil:
		quizStarts.WithLabelValues("success").Inc()
		redirect(w, r, "/quiz")
	case errors.As(err, &verr):
		quizStarts.WithLabelValues("invalid").Inc()
		h.renderInput(w, r, http.StatusUnprocessableEntity, InputViewData{
			Prompts:    promptsText,
			References: referencesText,
			Error:      verr.Message,
		})
	case errors.Is(err, service.ErrInvalidTransition):
		redirect(w, r, "/")
	default:
		quizStarts.WithLabelValues("error").Inc()
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "Error starting quiz", err)
	}
}

// ShowQuiz displays the prompts with an answer field each
func (h *QuizHandler) ShowQuiz(w http.ResponseWriter, r *http.Request) {
	var quiz models.QuizSet
	h.store.Peek(GetSessionIDFromContext(r.Context()), func(s *service.QuizSession) error {
		if s.State() == models.StateInProgress {
			quiz = s.QuizSet()
		}
		return nil
	})

	if quiz == nil {
		redirect(w, r, "/")
		return
	}

	questions := make([]QuestionView, len(quiz))
	for i, pair := range quiz {
		questions[i] = QuestionView{
			Number: i + 1,
			Field:  answerField(i),
			Prompt: pair.Prompt,
		}
	}

	h.render(w, r, http.StatusOK, "test.tmpl", TestViewData{
		Title:     pageTitle,
		CSRFToken: h.csrfToken(r),
		Questions: questions,
	})
}

// SubmitQuiz scores the submitted answers
func (h *QuizHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, r, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	var summary *models.SessionSummary
	found, err := h.store.Peek(GetSessionIDFromContext(r.Context()), func(s *service.QuizSession) error {
		quiz := s.QuizSet()
		answers := make([]string, len(quiz))
		for i := range quiz {
			answers[i] = r.FormValue(answerField(i))
		}
		var err error
		summary, err = s.Submit(answers)
		return err
	})

	switch {
	case !found:
		redirect(w, r, "/")
	case err == nil:
		observeSummary(summary)
		redirect(w, r, "/quiz/results")
	case errors.Is(err, service.ErrInvalidTransition):
		redirect(w, r, "/")
	default:
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "Error submitting quiz", err)
	}
}

// ShowResults displays the overall score and the per-sentence breakdown
func (h *QuizHandler) ShowResults(w http.ResponseWriter, r *http.Request) {
	var summary *models.SessionSummary
	h.store.Peek(GetSessionIDFromContext(r.Context()), func(s *service.QuizSession) error {
		summary, _ = s.Summary()
		return nil
	})

	if summary == nil {
		redirect(w, r, "/")
		return
	}

	results := make([]ResultView, len(summary.Results))
	for i, item := range summary.Results {
		results[i] = ResultView{Number: i + 1, Item: item}
	}

	h.render(w, r, http.StatusOK, "results.tmpl", ResultsViewData{
		Title:          pageTitle,
		CSRFToken:      h.csrfToken(r),
		OverallPercent: summary.OverallPercent,
		Results:        results,
	})
}

// ResetQuiz clears a completed quiz and forgets the browser's session, so the
// next visit starts from a fresh one
func (h *QuizHandler) ResetQuiz(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionIDFromContext(r.Context())
	found, err := h.store.Peek(sessionID, func(s *service.QuizSession) error {
		return s.Reset()
	})

	switch {
	case found && err == nil:
		h.store.Delete(sessionID)
		http.SetCookie(w, security.CreateDeleteCookie(r, security.QuizSessionCookieName))
	case err != nil && !errors.Is(err, service.ErrInvalidTransition):
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "Error resetting quiz", err)
		return
	}
	redirect(w, r, "/")
}

// Health reports that the server is up
func (h *QuizHandler) Health(w http.ResponseWriter, r *http.Request) {
	sessions := h.store.Len()
	ObserveSessions(sessions)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ok sessions=%d\n", sessions)
}

func observeSummary(summary *models.SessionSummary) {
	quizSubmissions.Inc()
	overallScores.Observe(float64(summary.OverallPercent))
	for _, item := range summary.Results {
		sentenceScores.Observe(float64(item.Score.SimilarityPercent))
	}
}

func (h *QuizHandler) renderInput(w http.ResponseWriter, r *http.Request, status int, data InputViewData) {
	data.Title = pageTitle
	data.CSRFToken = h.csrfToken(r)
	data.QuizSize = h.quizSize
	h.render(w, r, status, "input.tmpl", data)
}

// render executes the template into a buffer so a failure can still produce
// a clean error response
func (h *QuizHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "Error rendering "+name, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("Error writing %s: %v", name, err)
	}
}

func (h *QuizHandler) csrfToken(r *http.Request) string {
	token, err := h.csrf.GenerateToken(GetSessionIDFromContext(r.Context()))
	if err != nil {
		log.Printf("Error generating CSRF token: %v", err)
		return ""
	}
	return token
}

func answerField(i int) string {
	return fmt.Sprintf("answer-%d", i)
}
