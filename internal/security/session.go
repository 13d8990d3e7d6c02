package security

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// QuizSessionCookieName holds the browser's quiz session ID
const QuizSessionCookieName = "quiz_session_id"

// GenerateSessionID creates a new UUID for session identification
func GenerateSessionID() string {
	return uuid.NewString()
}

// ValidSessionID reports whether id looks like an ID we issued
func ValidSessionID(id string) bool {
	return uuid.Validate(id) == nil
}

// IsSecureRequest determines if the request is over HTTPS, directly or
// behind a reverse proxy
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		return true
	}
	return r.URL.Scheme == "https"
}

// CreateSessionCookie creates a session cookie with proper security flags
func CreateSessionCookie(r *http.Request, name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateDeleteCookie creates a cookie that clears name in the browser
func CreateDeleteCookie(r *http.Request, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
	}
}
