package domain

import "time"

// User represents a registered account. PasswordHash is a bcrypt digest;
// the plaintext password is never persisted.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
