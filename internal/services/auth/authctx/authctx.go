// Package authctx carries the authenticated user through request contexts.
package authctx

import (
	"context"

	"github.com/teamsplit/teamsplit/internal/services/auth/user"
)

type identityKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, identityKey{}, u)
}

// UserFrom extracts the authenticated user, if any.
func UserFrom(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(identityKey{}).(user.User)
	return u, ok
}
