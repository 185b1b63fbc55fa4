// Package sqlite provides a SQLite-backed roster storage implementation.
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
	"github.com/teamsplit/teamsplit/internal/services/roster/player"
	"github.com/teamsplit/teamsplit/internal/services/roster/storage"
	"github.com/teamsplit/teamsplit/internal/services/roster/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists player records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite roster store and applies embedded migrations.
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

// PutPlayer inserts or replaces one player record.
func (s *Store) PutPlayer(ctx context.Context, p player.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("player id is required")
	}
	roles, err := json.Marshal(p.Roles)
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO players (
		   id, name,
		   speed, technique, shooting, passing, defense, physical,
		   gk_reflexes, gk_diving, gk_kicking,
		   roles, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   speed = excluded.speed,
		   technique = excluded.technique,
		   shooting = excluded.shooting,
		   passing = excluded.passing,
		   defense = excluded.defense,
		   physical = excluded.physical,
		   gk_reflexes = excluded.gk_reflexes,
		   gk_diving = excluded.gk_diving,
		   gk_kicking = excluded.gk_kicking,
		   roles = excluded.roles,
		   updated_at = excluded.updated_at`,
		p.ID,
		p.Name,
		p.Attributes.Speed,
		p.Attributes.Technique,
		p.Attributes.Shooting,
		p.Attributes.Passing,
		p.Attributes.Defense,
		p.Attributes.Physical,
		p.Goalkeeper.Reflexes,
		p.Goalkeeper.Diving,
		p.Goalkeeper.Kicking,
		string(roles),
		toMillis(p.CreatedAt),
		toMillis(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put player: %w", err)
	}
	return nil
}

// GetPlayer returns one player by ID.
func (s *Store) GetPlayer(ctx context.Context, playerID string) (player.Player, error) {
	if err := ctx.Err(); err != nil {
		return player.Player{}, err
	}
	if s == nil || s.sqlDB == nil {
		return player.Player{}, fmt.Errorf("storage is not configured")
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return player.Player{}, fmt.Errorf("player id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name,
		        speed, technique, shooting, passing, defense, physical,
		        gk_reflexes, gk_diving, gk_kicking,
		        roles, created_at, updated_at
		   FROM players
		  WHERE id = ?`,
		playerID,
	)
	record, err := scanPlayer(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return player.Player{}, storage.ErrNotFound
		}
		return player.Player{}, fmt.Errorf("get player: %w", err)
	}
	return record, nil
}

// ListPlayers returns every player ordered by name, then ID.
func (s *Store) ListPlayers(ctx context.Context) ([]player.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, name,
		        speed, technique, shooting, passing, defense, physical,
		        gk_reflexes, gk_diving, gk_kicking,
		        roles, created_at, updated_at
		   FROM players
		  ORDER BY name ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []player.Player
	for rows.Next() {
		record, err := scanPlayer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list players: %w", err)
		}
		players = append(players, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

// DeletePlayer removes one player by ID.
func (s *Store) DeletePlayer(ctx context.Context, playerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return fmt.Errorf("player id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, playerID)
	if err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanPlayer(scan func(dest ...any) error) (player.Player, error) {
	var record player.Player
	var roles string
	var createdAt int64
	var updatedAt int64
	err := scan(
		&record.ID,
		&record.Name,
		&record.Attributes.Speed,
		&record.Attributes.Technique,
		&record.Attributes.Shooting,
		&record.Attributes.Passing,
		&record.Attributes.Defense,
		&record.Attributes.Physical,
		&record.Goalkeeper.Reflexes,
		&record.Goalkeeper.Diving,
		&record.Goalkeeper.Kicking,
		&roles,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return player.Player{}, err
	}
	if err := json.Unmarshal([]byte(roles), &record.Roles); err != nil {
		return player.Player{}, fmt.Errorf("decode roles: %w", err)
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

var _ storage.PlayerStore = (*Store)(nil)
