package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/teamsplit/teamsplit/internal/services/auth/storage"
	"github.com/teamsplit/teamsplit/internal/services/auth/token"
	"github.com/teamsplit/teamsplit/internal/services/auth/user"
)

type fakeStore struct {
	users    map[string]user.User
	attempts []storage.LoginAttempt
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]user.User)}
}

func (f *fakeStore) PutUser(_ context.Context, u user.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email && existing.ID != u.ID {
			return storage.ErrEmailTaken
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, userID string) (user.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, storage.ErrNotFound
}

func (f *fakeStore) ListUsers(_ context.Context) ([]user.User, error) {
	var users []user.User
	for _, u := range f.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (f *fakeStore) DeleteUser(_ context.Context, userID string) error {
	if _, ok := f.users[userID]; !ok {
		return storage.ErrNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeStore) CountUsers(_ context.Context) (int, error) {
	return len(f.users), nil
}

func (f *fakeStore) RecordLogin(_ context.Context, attempt storage.LoginAttempt) error {
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeStore) ListLogins(_ context.Context, limit int) ([]storage.LoginAttempt, error) {
	attempts := append([]storage.LoginAttempt(nil), f.attempts...)
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].CreatedAt.After(attempts[j].CreatedAt) })
	if len(attempts) > limit {
		attempts = attempts[:limit]
	}
	return attempts, nil
}

type fixture struct {
	handler http.Handler
	store   *fakeStore
	signer  *token.Signer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	signer, err := token.NewSigner("test-secret", nil)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	store := newFakeStore()
	svc := NewService(store, signer)
	mux := http.NewServeMux()
	RegisterRoutes(mux, svc)
	return fixture{handler: svc.Authenticate(mux), store: store, signer: signer}
}

func (f fixture) do(method, target, body, bearer string) *httptest.ResponseRecorder {
	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, target, nil)
	} else {
		request = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}
	recorder := httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, request)
	return recorder
}

func (f fixture) register(t *testing.T, email, password string) sessionResponse {
	t.Helper()
	body := `{"email": "` + email + `", "password": "` + password + `"}`
	recorder := f.do(http.MethodPost, "/api/auth/register", body, "")
	if recorder.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", recorder.Code, recorder.Body.String())
	}
	var response sessionResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return response
}

func TestFirstRegisteredUserBecomesAdmin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	first := f.register(t, "ana@example.com", "longenough")
	if first.User.Role != string(user.RoleAdmin) {
		t.Fatalf("first role = %q, want admin", first.User.Role)
	}
	second := f.register(t, "bruno@example.com", "longenough")
	if second.User.Role != string(user.RoleOrganizer) {
		t.Fatalf("second role = %q, want organizer", second.User.Role)
	}

	subject, err := f.signer.Verify(first.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if subject != first.User.ID {
		t.Fatalf("token subject = %q, want %q", subject, first.User.ID)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.register(t, "ana@example.com", "longenough")
	recorder := f.do(http.MethodPost, "/api/auth/register", `{"email": "ana@example.com", "password": "longenough"}`, "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
}

func TestLoginRecordsHistory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.register(t, "ana@example.com", "longenough")

	recorder := f.do(http.MethodPost, "/api/auth/login", `{"email": "ANA@example.com", "password": "longenough"}`, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", recorder.Code, recorder.Body.String())
	}
	var session sessionResponse
	if err := json.NewDecoder(recorder.Body).Decode(&session); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected a session token")
	}

	recorder = f.do(http.MethodPost, "/api/auth/login", `{"email": "ana@example.com", "password": "wrong-pass"}`, "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want %d", recorder.Code, http.StatusUnauthorized)
	}

	if len(f.store.attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(f.store.attempts))
	}
	if !f.store.attempts[0].Successful || f.store.attempts[1].Successful {
		t.Fatalf("success flags = [%v %v], want [true false]", f.store.attempts[0].Successful, f.store.attempts[1].Successful)
	}
}

func TestMeResolvesBearerToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	session := f.register(t, "ana@example.com", "longenough")

	recorder := f.do(http.MethodGet, "/api/auth/me", "", session.Token)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", recorder.Code, recorder.Body.String())
	}
	var me userResponse
	if err := json.NewDecoder(recorder.Body).Decode(&me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Email != "ana@example.com" {
		t.Fatalf("email = %q, want ana@example.com", me.Email)
	}

	recorder = f.do(http.MethodGet, "/api/auth/me", "", "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want %d", recorder.Code, http.StatusUnauthorized)
	}

	recorder = f.do(http.MethodGet, "/api/auth/me", "", "garbage-token")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want %d", recorder.Code, http.StatusUnauthorized)
	}
}

func TestUserAdministrationRequiresAdmin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	admin := f.register(t, "ana@example.com", "longenough")
	organizer := f.register(t, "bruno@example.com", "longenough")

	recorder := f.do(http.MethodGet, "/api/users", "", organizer.Token)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("organizer list status = %d, want %d", recorder.Code, http.StatusForbidden)
	}

	recorder = f.do(http.MethodGet, "/api/users", "", admin.Token)
	if recorder.Code != http.StatusOK {
		t.Fatalf("admin list status = %d: %s", recorder.Code, recorder.Body.String())
	}
	var users []userResponse
	if err := json.NewDecoder(recorder.Body).Decode(&users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %d, want 2", len(users))
	}

	recorder = f.do(http.MethodPost, "/api/users", `{"email": "caio@example.com", "password": "longenough", "role": "organizer"}`, admin.Token)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("invite status = %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestDeleteUserGuardsSelf(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	admin := f.register(t, "ana@example.com", "longenough")
	organizer := f.register(t, "bruno@example.com", "longenough")

	recorder := f.do(http.MethodDelete, "/api/users/"+admin.User.ID, "", admin.Token)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("self delete status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}

	recorder = f.do(http.MethodDelete, "/api/users/"+organizer.User.ID, "", admin.Token)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", recorder.Code, http.StatusNoContent)
	}

	recorder = f.do(http.MethodDelete, "/api/users/"+organizer.User.ID, "", admin.Token)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("repeat delete status = %d, want %d", recorder.Code, http.StatusNotFound)
	}
}

func TestListLoginsIsAdminOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	admin := f.register(t, "ana@example.com", "longenough")
	organizer := f.register(t, "bruno@example.com", "longenough")
	f.store.attempts = []storage.LoginAttempt{
		{ID: "login-1", Email: "ana@example.com", UserID: admin.User.ID, Successful: true, CreatedAt: time.Now().UTC()},
	}

	recorder := f.do(http.MethodGet, "/api/logins", "", organizer.Token)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("organizer status = %d, want %d", recorder.Code, http.StatusForbidden)
	}

	recorder = f.do(http.MethodGet, "/api/logins", "", admin.Token)
	if recorder.Code != http.StatusOK {
		t.Fatalf("admin status = %d: %s", recorder.Code, recorder.Body.String())
	}
	var attempts []loginResponse
	if err := json.NewDecoder(recorder.Body).Decode(&attempts); err != nil {
		t.Fatalf("decode attempts: %v", err)
	}
	if len(attempts) != 1 || attempts[0].ID != "login-1" {
		t.Fatalf("attempts = %+v, want the seeded record", attempts)
	}

	recorder = f.do(http.MethodGet, "/api/logins?limit=0", "", admin.Token)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
}
