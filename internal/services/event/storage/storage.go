// Package storage defines persistence contracts for the event service.
package storage

import (
	"context"

	"github.com/teamsplit/teamsplit/internal/platform/errors"
	"github.com/teamsplit/teamsplit/internal/services/event/event"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New(errors.CodeNotFound, "record not found")

// EventStore persists event records.
type EventStore interface {
	PutEvent(ctx context.Context, e event.Event) error
	GetEvent(ctx context.Context, eventID string) (event.Event, error)
	GetEventByShareToken(ctx context.Context, token string) (event.Event, error)
	// ListEvents returns events for one organizer, or every event when
	// organizerID is empty.
	ListEvents(ctx context.Context, organizerID string) ([]event.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}
