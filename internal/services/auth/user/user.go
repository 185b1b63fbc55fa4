// Package user provides organizer account management.
package user

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/teamsplit/teamsplit/internal/platform/errors"
	"github.com/teamsplit/teamsplit/internal/platform/id"
)

// Role controls what an account can administer.
type Role string

const (
	// RoleAdmin can manage users and every event.
	RoleAdmin Role = "admin"
	// RoleOrganizer can manage players and their own events.
	RoleOrganizer Role = "organizer"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var (
	// ErrEmptyEmail indicates a missing email address.
	ErrEmptyEmail = apperrors.New(apperrors.CodeUserEmptyEmail, "email is required")
	// ErrInvalidEmail indicates an email that does not match the required format.
	ErrInvalidEmail = apperrors.New(apperrors.CodeUserInvalidEmail, "email format is invalid")
	// ErrWeakPassword indicates a password below the minimum length.
	ErrWeakPassword = apperrors.New(apperrors.CodeUserWeakPassword, "password must be at least 8 characters")

	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// User represents an account that can sign in.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CreateUserInput describes the data needed to register an account.
type CreateUserInput struct {
	Email    string
	Password string
	Role     Role
}

// NormalizeEmail lowercases and trims an email, validating its format.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmptyEmail
	}
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// CreateUser creates an account record from untrusted registration input.
// The password is bcrypt-hashed; the plaintext is never stored.
func CreateUser(input CreateUserInput, now func() time.Time, idGenerator func() (string, error)) (User, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return User{}, err
	}
	if len(input.Password) < MinPasswordLength {
		return User{}, ErrWeakPassword
	}
	role := input.Role
	if role != RoleAdmin {
		role = RoleOrganizer
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	userID, err := idGenerator()
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}

	return User{
		ID:           userID,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now().UTC(),
	}, nil
}

// VerifyPassword reports whether the password matches the stored hash.
func VerifyPassword(u User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
