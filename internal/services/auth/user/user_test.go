package user

import (
	"errors"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2026, time.April, 2, 12, 0, 0, 0, time.UTC)
}

func fixedID() (string, error) {
	return "user-1", nil
}

func TestCreateUserNormalizesEmail(t *testing.T) {
	t.Parallel()

	created, err := CreateUser(CreateUserInput{
		Email:    "  Ana@Example.COM ",
		Password: "correct horse",
	}, fixedNow, fixedID)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.Email != "ana@example.com" {
		t.Fatalf("email = %q, want ana@example.com", created.Email)
	}
	if created.Role != RoleOrganizer {
		t.Fatalf("role = %q, want organizer", created.Role)
	}
	if created.PasswordHash == "" || created.PasswordHash == "correct horse" {
		t.Fatalf("password hash = %q, want bcrypt digest", created.PasswordHash)
	}
	if !created.CreatedAt.Equal(fixedNow()) {
		t.Fatalf("created_at = %v, want %v", created.CreatedAt, fixedNow())
	}
}

func TestCreateUserRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   CreateUserInput
		wantErr error
	}{
		{"empty email", CreateUserInput{Password: "longenough"}, ErrEmptyEmail},
		{"malformed email", CreateUserInput{Email: "not-an-email", Password: "longenough"}, ErrInvalidEmail},
		{"short password", CreateUserInput{Email: "a@b.co", Password: "short"}, ErrWeakPassword},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := CreateUser(tc.input, fixedNow, fixedID); !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestCreateUserKeepsAdminRole(t *testing.T) {
	t.Parallel()

	created, err := CreateUser(CreateUserInput{
		Email:    "root@example.com",
		Password: "longenough",
		Role:     RoleAdmin,
	}, fixedNow, fixedID)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if !created.IsAdmin() {
		t.Fatalf("role = %q, want admin", created.Role)
	}
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	created, err := CreateUser(CreateUserInput{
		Email:    "ana@example.com",
		Password: "correct horse",
	}, fixedNow, fixedID)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if !VerifyPassword(created, "correct horse") {
		t.Fatal("expected matching password to verify")
	}
	if VerifyPassword(created, "wrong horse") {
		t.Fatal("expected mismatched password to fail")
	}
}
