package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter registers the quiz routes and wraps them with request logging
func NewRouter(quizHandler *QuizHandler, middleware *Middleware, staticPath string) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticPath))))

	mux.HandleFunc("GET /healthz", quizHandler.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Quiz pages
	mux.HandleFunc("GET /{$}", middleware.WithQuizSession(quizHandler.Home))
	mux.HandleFunc("GET /quiz", middleware.WithQuizSession(quizHandler.ShowQuiz))
	mux.HandleFunc("GET /quiz/results", middleware.WithQuizSession(quizHandler.ShowResults))

	// State changes
	mux.HandleFunc("POST /quiz/start", middleware.Protected(quizHandler.StartQuiz))
	mux.HandleFunc("POST /quiz/submit", middleware.Protected(quizHandler.SubmitQuiz))
	mux.HandleFunc("POST /quiz/reset", middleware.Protected(quizHandler.ResetQuiz))

	return Logging(mux)
}
