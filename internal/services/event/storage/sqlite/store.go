// Package sqlite provides a SQLite-backed event storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/teamsplit/teamsplit/internal/platform/storage/sqlitemigrate"
	"github.com/teamsplit/teamsplit/internal/services/event/event"
	"github.com/teamsplit/teamsplit/internal/services/event/storage"
	"github.com/teamsplit/teamsplit/internal/services/event/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists event state in SQLite. Roster, constraints, and generated
// teams are document-shaped and stored as JSON columns.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite event store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutEvent inserts or replaces one event record.
func (s *Store) PutEvent(ctx context.Context, e event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("event id is required")
	}

	roster, err := json.Marshal(e.Roster)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	constraints, err := json.Marshal(e.Constraints)
	if err != nil {
		return fmt.Errorf("encode constraints: %w", err)
	}
	teams := ""
	if e.GeneratedTeams != nil {
		encoded, err := json.Marshal(e.GeneratedTeams)
		if err != nil {
			return fmt.Errorf("encode generated teams: %w", err)
		}
		teams = string(encoded)
	}
	var warning sql.NullString
	if e.Warning != nil {
		warning = sql.NullString{String: *e.Warning, Valid: true}
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO events (
		   id, name, organizer_id, roster, team_count, constraints,
		   generated_teams, warning, share_token, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   roster = excluded.roster,
		   team_count = excluded.team_count,
		   constraints = excluded.constraints,
		   generated_teams = excluded.generated_teams,
		   warning = excluded.warning,
		   updated_at = excluded.updated_at`,
		e.ID,
		e.Name,
		e.OrganizerID,
		string(roster),
		e.TeamCount,
		string(constraints),
		teams,
		warning,
		e.ShareToken,
		toMillis(e.CreatedAt),
		toMillis(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

// GetEvent returns one event by ID.
func (s *Store) GetEvent(ctx context.Context, eventID string) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return event.Event{}, fmt.Errorf("event id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, selectEvent+` WHERE id = ?`, eventID)
	record, err := scanEvent(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, storage.ErrNotFound
		}
		return event.Event{}, fmt.Errorf("get event: %w", err)
	}
	return record, nil
}

// GetEventByShareToken returns one event by its public share token.
func (s *Store) GetEventByShareToken(ctx context.Context, token string) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return event.Event{}, fmt.Errorf("share token is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, selectEvent+` WHERE share_token = ?`, token)
	record, err := scanEvent(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, storage.ErrNotFound
		}
		return event.Event{}, fmt.Errorf("get event by share token: %w", err)
	}
	return record, nil
}

// ListEvents returns events for one organizer, newest first. An empty
// organizerID returns every event.
func (s *Store) ListEvents(ctx context.Context, organizerID string) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var (
		rows *sql.Rows
		err  error
	)
	organizerID = strings.TrimSpace(organizerID)
	if organizerID == "" {
		rows, err = s.sqlDB.QueryContext(ctx, selectEvent+` ORDER BY created_at DESC, id DESC`)
	} else {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			selectEvent+` WHERE organizer_id = ? ORDER BY created_at DESC, id DESC`,
			organizerID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		record, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		events = append(events, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// DeleteEvent removes one event by ID.
func (s *Store) DeleteEvent(ctx context.Context, eventID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return fmt.Errorf("event id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, eventID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

const selectEvent = `SELECT id, name, organizer_id, roster, team_count, constraints,
       generated_teams, warning, share_token, created_at, updated_at
  FROM events`

func scanEvent(scan func(dest ...any) error) (event.Event, error) {
	var record event.Event
	var roster string
	var constraints string
	var teams string
	var warning sql.NullString
	var createdAt int64
	var updatedAt int64
	err := scan(
		&record.ID,
		&record.Name,
		&record.OrganizerID,
		&roster,
		&record.TeamCount,
		&constraints,
		&teams,
		&warning,
		&record.ShareToken,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return event.Event{}, err
	}
	if err := json.Unmarshal([]byte(roster), &record.Roster); err != nil {
		return event.Event{}, fmt.Errorf("decode roster: %w", err)
	}
	if err := json.Unmarshal([]byte(constraints), &record.Constraints); err != nil {
		return event.Event{}, fmt.Errorf("decode constraints: %w", err)
	}
	if teams != "" {
		if err := json.Unmarshal([]byte(teams), &record.GeneratedTeams); err != nil {
			return event.Event{}, fmt.Errorf("decode generated teams: %w", err)
		}
	}
	if warning.Valid {
		record.Warning = &warning.String
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

var _ storage.EventStore = (*Store)(nil)
