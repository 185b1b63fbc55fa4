// Package token mints and verifies HS256 access tokens.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/teamsplit/teamsplit/internal/platform/errors"
)

// TTL is how long an access token stays valid.
const TTL = 7 * 24 * time.Hour

var (
	// ErrInvalid indicates a token that failed parsing or signature checks.
	ErrInvalid = apperrors.New(apperrors.CodeTokenInvalid, "access token is invalid")
	// ErrExpired indicates a token past its expiry.
	ErrExpired = apperrors.New(apperrors.CodeTokenExpired, "access token is expired")
)

// Signer mints and verifies access tokens with a shared secret.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner builds a Signer. now defaults to time.Now when nil.
func NewSigner(secret string, now func() time.Time) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Signer{secret: []byte(secret), now: now}, nil
}

// Mint issues a signed token whose subject is the user ID.
func (s *Signer) Mint(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	issuedAt := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry, returning the subject user ID.
func (s *Signer) Verify(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalid
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", ErrInvalid
	}
	if claims.Subject == "" {
		return "", ErrInvalid
	}
	return claims.Subject, nil
}
