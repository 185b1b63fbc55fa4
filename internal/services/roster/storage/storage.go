// Package storage defines persistence contracts for the roster service.
package storage

import (
	"context"

	"github.com/teamsplit/teamsplit/internal/platform/errors"
	"github.com/teamsplit/teamsplit/internal/services/roster/player"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New(errors.CodeNotFound, "record not found")

// PlayerStore persists player records.
type PlayerStore interface {
	PutPlayer(ctx context.Context, p player.Player) error
	GetPlayer(ctx context.Context, playerID string) (player.Player, error)
	ListPlayers(ctx context.Context) ([]player.Player, error)
	DeletePlayer(ctx context.Context, playerID string) error
}
