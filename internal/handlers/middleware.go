package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"transquiz/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const QuizSessionContextKey ContextKey = "quiz_session"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	csrf            *security.CSRFGenerator
	limiter         *security.RateLimiter
	sessionDuration time.Duration
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(csrf *security.CSRFGenerator, limiter *security.RateLimiter, sessionDuration time.Duration) *Middleware {
	return &Middleware{
		csrf:            csrf,
		limiter:         limiter,
		sessionDuration: sessionDuration,
	}
}

// WithQuizSession makes sure the browser has a quiz session ID and puts it
// in the request context
func (m *Middleware) WithQuizSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sessionID string
		if cookie, err := r.Cookie(security.QuizSessionCookieName); err == nil && security.ValidSessionID(cookie.Value) {
			sessionID = cookie.Value
		} else {
			sessionID = security.GenerateSessionID()
		}

		// Refresh expiry on every request
		http.SetCookie(w, security.CreateSessionCookie(r, security.QuizSessionCookieName, sessionID, time.Now().Add(m.sessionDuration)))

		ctx := context.WithValue(r.Context(), QuizSessionContextKey, sessionID)
		next(w, r.WithContext(ctx))
	}
}

// CSRFProtect rejects form posts without the token bound to the session
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := GetSessionIDFromContext(r.Context())
		if !m.csrf.ValidateToken(sessionID, r.PostFormValue(CSRFFormField)) {
			respondWithError(w, r, http.StatusForbidden, ErrForbidden, "", nil)
			return
		}
		next(w, r)
	}
}

// RateLimit limits requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			log.Printf("Rate limit exceeded for %s on %s", ip, r.URL.Path)
			respondWithError(w, r, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// Protected wraps state-changing handlers: session, rate limit, then CSRF
func (m *Middleware) Protected(next http.HandlerFunc) http.HandlerFunc {
	return m.WithQuizSession(m.RateLimit(m.CSRFProtect(next)))
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// GetSessionIDFromContext retrieves the quiz session ID from the request context
func GetSessionIDFromContext(ctx context.Context) string {
	id, ok := ctx.Value(QuizSessionContextKey).(string)
	if !ok {
		return ""
	}
	return id
}
