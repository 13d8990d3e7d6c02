package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CSRFGenerator derives CSRF tokens from the session ID with HMAC-SHA256,
// so no token state is stored server side.
type CSRFGenerator struct {
	secret []byte
}

// NewCSRFGenerator creates a generator keyed by secret. An empty secret is
// replaced by a random one, which invalidates tokens on every restart.
func NewCSRFGenerator(secret string) (*CSRFGenerator, error) {
	if secret != "" {
		return &CSRFGenerator{secret: []byte(secret)}, nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
	}
	return &CSRFGenerator{secret: key}, nil
}

// GenerateToken returns the CSRF token for the given session ID
func (g *CSRFGenerator) GenerateToken(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session ID is required")
	}
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// ValidateToken reports whether token is the valid CSRF token for sessionID
func (g *CSRFGenerator) ValidateToken(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}
	expected, err := g.GenerateToken(sessionID)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(token))
}
