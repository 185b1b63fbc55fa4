// Package storage defines persistence contracts for the auth service.
package storage

import (
	"context"
	"time"

	"github.com/teamsplit/teamsplit/internal/platform/errors"
	"github.com/teamsplit/teamsplit/internal/services/auth/user"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New(errors.CodeNotFound, "record not found")

// ErrEmailTaken indicates an email already registered to another account.
var ErrEmailTaken = errors.New(errors.CodeUserEmailTaken, "email is already registered")

// LoginAttempt records one sign-in attempt, successful or not.
type LoginAttempt struct {
	ID         string
	Email      string
	UserID     string
	Successful bool
	CreatedAt  time.Time
}

// UserStore persists account records.
type UserStore interface {
	PutUser(ctx context.Context, u user.User) error
	GetUser(ctx context.Context, userID string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	DeleteUser(ctx context.Context, userID string) error
	CountUsers(ctx context.Context) (int, error)
}

// LoginHistoryStore persists sign-in attempts.
type LoginHistoryStore interface {
	RecordLogin(ctx context.Context, attempt LoginAttempt) error
	ListLogins(ctx context.Context, limit int) ([]LoginAttempt, error)
}

// Store combines every auth persistence contract.
type Store interface {
	UserStore
	LoginHistoryStore
}
