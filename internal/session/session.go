// Package session implements opaque-token, server-held sessions. The browser
// only ever sees the random token; session fields never leave the process.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// Session holds per-browser server-side state. UserID is zero while the
// session is anonymous.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

// Store defines how sessions are stored and retrieved.
type Store interface {
	// Create allocates an empty session with a fresh token.
	Create(ctx context.Context) (*Session, error)
	// Get returns nil, nil when the token is unknown or expired.
	Get(ctx context.Context, token string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, token string) error
}

// NewToken generates a cryptographically secure session token.
// 32 bytes = 256 bits of entropy.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
