// Package sqlite provides a SQLite-backed auth storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/teamsplit/teamsplit/internal/platform/storage/sqlitemigrate"
	"github.com/teamsplit/teamsplit/internal/services/auth/storage"
	"github.com/teamsplit/teamsplit/internal/services/auth/storage/sqlite/migrations"
	"github.com/teamsplit/teamsplit/internal/services/auth/user"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists auth state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite auth store and applies embedded migrations.
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

// PutUser inserts or replaces one account record.
func (s *Store) PutUser(ctx context.Context, u user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO users (id, email, password_hash, role, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   email = excluded.email,
		   password_hash = excluded.password_hash,
		   role = excluded.role`,
		u.ID,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		toMillis(u.CreatedAt),
	)
	if err != nil {
		if isEmailUniqueViolation(err) {
			return storage.ErrEmailTaken
		}
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// GetUser returns one account by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}
	if s == nil || s.sqlDB == nil {
		return user.User{}, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return user.User{}, fmt.Errorf("user id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash, role, created_at FROM users WHERE id = ?`,
		userID,
	)
	return scanUser(row.Scan, "get user")
}

// GetUserByEmail returns one account by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}
	if s == nil || s.sqlDB == nil {
		return user.User{}, fmt.Errorf("storage is not configured")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return user.User{}, fmt.Errorf("email is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash, role, created_at FROM users WHERE email = ?`,
		email,
	)
	return scanUser(row.Scan, "get user by email")
}

// ListUsers returns every account ordered by creation time, then ID.
func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, email, password_hash, role, created_at FROM users ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		record, err := scanUser(rows.Scan, "list users")
		if err != nil {
			return nil, err
		}
		users = append(users, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUser removes one account by ID.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CountUsers returns how many accounts exist.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	var count int
	row := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// RecordLogin appends one sign-in attempt.
func (s *Store) RecordLogin(ctx context.Context, attempt storage.LoginAttempt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(attempt.ID) == "" {
		return fmt.Errorf("attempt id is required")
	}

	successful := 0
	if attempt.Successful {
		successful = 1
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO login_history (id, email, user_id, successful, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		attempt.ID,
		attempt.Email,
		attempt.UserID,
		successful,
		toMillis(attempt.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

// ListLogins returns the newest sign-in attempts, most recent first.
func (s *Store) ListLogins(ctx context.Context, limit int) ([]storage.LoginAttempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, email, user_id, successful, created_at
		   FROM login_history
		  ORDER BY created_at DESC, id DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list logins: %w", err)
	}
	defer rows.Close()

	var attempts []storage.LoginAttempt
	for rows.Next() {
		var attempt storage.LoginAttempt
		var successful int
		var createdAt int64
		if err := rows.Scan(&attempt.ID, &attempt.Email, &attempt.UserID, &successful, &createdAt); err != nil {
			return nil, fmt.Errorf("list logins: %w", err)
		}
		attempt.Successful = successful != 0
		attempt.CreatedAt = fromMillis(createdAt)
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list logins: %w", err)
	}
	return attempts, nil
}

func scanUser(scan func(dest ...any) error, op string) (user.User, error) {
	var record user.User
	var role string
	var createdAt int64
	err := scan(&record.ID, &record.Email, &record.PasswordHash, &role, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, storage.ErrNotFound
		}
		return user.User{}, fmt.Errorf("%s: %w", op, err)
	}
	record.Role = user.Role(role)
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}

func isEmailUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return strings.Contains(strings.ToLower(err.Error()), "users.email")
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "users.email")
}

var _ storage.Store = (*Store)(nil)
