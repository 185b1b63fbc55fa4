package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/teamsplit/teamsplit/internal/services/auth/storage"
	"github.com/teamsplit/teamsplit/internal/services/auth/user"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func sampleUser(id, email string, role user.Role) user.User {
	return user.User{
		ID:           id,
		Email:        email,
		PasswordHash: "$2a$10$fakefakefakefakefakefake",
		Role:         role,
		CreatedAt:    time.Date(2026, time.April, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestPutGetUserRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	want := sampleUser("user-1", "ana@example.com", user.RoleAdmin)
	if err := store.PutUser(context.Background(), want); err != nil {
		t.Fatalf("put user: %v", err)
	}

	got, err := store.GetUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got != want {
		t.Fatalf("user = %+v, want %+v", got, want)
	}

	byEmail, err := store.GetUserByEmail(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("get user by email: %v", err)
	}
	if byEmail.ID != "user-1" {
		t.Fatalf("id = %q, want user-1", byEmail.ID)
	}
}

func TestPutUserRejectsDuplicateEmail(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.PutUser(context.Background(), sampleUser("user-1", "ana@example.com", user.RoleAdmin)); err != nil {
		t.Fatalf("put user: %v", err)
	}
	err := store.PutUser(context.Background(), sampleUser("user-2", "ana@example.com", user.RoleOrganizer))
	if !errors.Is(err, storage.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestGetUserMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.GetUser(context.Background(), "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := store.GetUserByEmail(context.Background(), "nope@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("by email err = %v, want ErrNotFound", err)
	}
}

func TestDeleteUserAndCount(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.PutUser(context.Background(), sampleUser("user-1", "ana@example.com", user.RoleAdmin)); err != nil {
		t.Fatalf("put user: %v", err)
	}
	if err := store.PutUser(context.Background(), sampleUser("user-2", "bruno@example.com", user.RoleOrganizer)); err != nil {
		t.Fatalf("put user: %v", err)
	}

	count, err := store.CountUsers(context.Background())
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	if err := store.DeleteUser(context.Background(), "user-2"); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if err := store.DeleteUser(context.Background(), "user-2"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}

	count, err = store.CountUsers(context.Background())
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestLoginHistoryOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	base := time.Date(2026, time.April, 2, 12, 0, 0, 0, time.UTC)
	attempts := []storage.LoginAttempt{
		{ID: "login-1", Email: "ana@example.com", UserID: "user-1", Successful: true, CreatedAt: base},
		{ID: "login-2", Email: "ana@example.com", Successful: false, CreatedAt: base.Add(time.Minute)},
		{ID: "login-3", Email: "bruno@example.com", UserID: "user-2", Successful: true, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, attempt := range attempts {
		if err := store.RecordLogin(context.Background(), attempt); err != nil {
			t.Fatalf("record login %s: %v", attempt.ID, err)
		}
	}

	got, err := store.ListLogins(context.Background(), 2)
	if err != nil {
		t.Fatalf("list logins: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "login-3" || got[1].ID != "login-2" {
		t.Fatalf("order = [%s %s], want [login-3 login-2]", got[0].ID, got[1].ID)
	}
	if !got[0].Successful || got[1].Successful {
		t.Fatalf("successful flags = [%v %v], want [true false]", got[0].Successful, got[1].Successful)
	}
}
