package repository

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// User represents a users row.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// SessionRecord represents a sessions row joined with its owner's email.
type SessionRecord struct {
	ID        string
	UserID    string
	Email     string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}
