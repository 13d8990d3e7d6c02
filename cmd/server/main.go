package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transquiz/internal/config"
	"transquiz/internal/handlers"
	"transquiz/internal/security"
	"transquiz/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Load templates
	templates, err := handlers.LoadTemplates(cfg.TemplatesPath)
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	log.Println("Templates loaded successfully")

	if cfg.CSRFSecret == "" {
		log.Println("Warning: CSRF_SECRET not set, using a random secret (forms break across restarts)")
	}
	csrf, err := security.NewCSRFGenerator(cfg.CSRFSecret)
	if err != nil {
		log.Fatalf("Failed to initialize CSRF protection: %v", err)
	}

	// Initialize services
	sampler := service.NewSampler(nil)
	store := service.NewSessionStore(func() *service.QuizSession {
		return service.NewQuizSession(sampler, cfg.QuizSize)
	}, cfg.SessionDuration)
	limiter := security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)

	// Initialize handlers
	quizHandler := handlers.NewQuizHandler(store, csrf, templates, cfg.QuizSize)
	middleware := handlers.NewMiddleware(csrf, limiter, cfg.SessionDuration)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.NewRouter(quizHandler, middleware, cfg.StaticFilesPath),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start background cleanup
	go cleanupExpiredSessions(ctx, store)
	go limiter.RunCleanup(ctx, cfg.RateLimitWindow)

	go func() {
		log.Printf("Server starting on http://localhost%s (quiz size %d)", addr, cfg.QuizSize)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

// cleanupExpiredSessions periodically drops quiz sessions nobody has touched
// within the session duration
func cleanupExpiredSessions(ctx context.Context, store *service.SessionStore) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := store.CleanupExpired(); removed > 0 {
				log.Printf("Removed %d expired quiz sessions", removed)
			}
			handlers.ObserveSessions(store.Len())
		}
	}
}
