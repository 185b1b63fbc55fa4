// Package api exposes the auth service over HTTP JSON.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/teamsplit/teamsplit/internal/platform/errors"
	"github.com/teamsplit/teamsplit/internal/platform/httpx"
	"github.com/teamsplit/teamsplit/internal/platform/id"
	"github.com/teamsplit/teamsplit/internal/services/auth/authctx"
	"github.com/teamsplit/teamsplit/internal/services/auth/storage"
	"github.com/teamsplit/teamsplit/internal/services/auth/token"
	"github.com/teamsplit/teamsplit/internal/services/auth/user"
)

const defaultLoginHistoryLimit = 50

// Service handles account and session HTTP requests.
type Service struct {
	store  storage.Store
	signer *token.Signer
	now    func() time.Time
	newID  func() (string, error)
}

// NewService builds an auth API service backed by the given store and signer.
func NewService(store storage.Store, signer *token.Signer) *Service {
	return &Service{store: store, signer: signer}
}

// RegisterRoutes attaches account and session routes to the mux.
func RegisterRoutes(mux *http.ServeMux, svc *Service) {
	if mux == nil || svc == nil {
		return
	}
	mux.HandleFunc(http.MethodPost+" /api/auth/register", svc.handleRegister)
	mux.HandleFunc(http.MethodPost+" /api/auth/login", svc.handleLogin)
	mux.HandleFunc(http.MethodGet+" /api/auth/me", svc.handleMe)
	mux.HandleFunc(http.MethodGet+" /api/users", svc.handleListUsers)
	mux.HandleFunc(http.MethodPost+" /api/users", svc.handleCreateUser)
	mux.HandleFunc(http.MethodDelete+" /api/users/{id}", svc.handleDeleteUser)
	mux.HandleFunc(http.MethodGet+" /api/logins", svc.handleListLogins)
}

// Authenticate resolves a bearer token into the request context. Requests
// without an Authorization header pass through unauthenticated so public
// routes keep working; a header that fails verification is rejected here.
func (s *Service) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			httpx.WriteError(w, token.ErrInvalid)
			return
		}
		userID, err := s.signer.Verify(raw)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		current, err := s.store.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				httpx.WriteError(w, token.ErrInvalid)
				return
			}
			httpx.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(authctx.WithUser(r.Context(), current)))
	})
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createUserPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type loginResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	UserID     string    `json:"user_id,omitempty"`
	Successful bool      `json:"successful"`
	CreatedAt  time.Time `json:"created_at"`
}

func toUserResponse(u user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func currentUser(r *http.Request) (user.User, error) {
	current, ok := authctx.UserFrom(r.Context())
	if !ok {
		return user.User{}, apperrors.New(apperrors.CodeUserUnauthenticated, "authentication required")
	}
	return current, nil
}

func currentAdmin(r *http.Request) (user.User, error) {
	current, err := currentUser(r)
	if err != nil {
		return user.User{}, err
	}
	if !current.IsAdmin() {
		return user.User{}, apperrors.New(apperrors.CodeUserAdminOnly, "admin role required")
	}
	return current, nil
}

// handleRegister creates an account from self-registration. The very first
// account becomes the admin; everyone after that is an organizer.
func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.WriteError(w, err)
		return
	}

	count, err := s.store.CountUsers(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	role := user.RoleOrganizer
	if count == 0 {
		role = user.RoleAdmin
	}

	created, err := user.CreateUser(user.CreateUserInput{
		Email:    payload.Email,
		Password: payload.Password,
		Role:     role,
	}, s.now, s.newID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.store.PutUser(r.Context(), created); err != nil {
		httpx.WriteError(w, err)
		return
	}

	minted, err := s.signer.Mint(created.ID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, sessionResponse{Token: minted, User: toUserResponse(created)})
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.WriteError(w, err)
		return
	}
	email, err := user.NormalizeEmail(payload.Email)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	current, err := s.store.GetUserByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		httpx.WriteError(w, err)
		return
	}
	verified := err == nil && user.VerifyPassword(current, payload.Password)
	s.recordLogin(r, email, current.ID, verified)
	if !verified {
		httpx.WriteError(w, apperrors.New(apperrors.CodeUserBadCredentials, "email or password is incorrect"))
		return
	}

	minted, err := s.signer.Mint(current.ID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{Token: minted, User: toUserResponse(current)})
}

// recordLogin appends an audit row; failures never block the sign-in path.
func (s *Service) recordLogin(r *http.Request, email, userID string, successful bool) {
	newID := s.newID
	if newID == nil {
		newID = id.NewID
	}
	attemptID, err := newID()
	if err != nil {
		return
	}
	_ = s.store.RecordLogin(r.Context(), storage.LoginAttempt{
		ID:         attemptID,
		Email:      email,
		UserID:     userID,
		Successful: successful,
		CreatedAt:  s.nowUTC(),
	})
}

func (s *Service) handleMe(w http.ResponseWriter, r *http.Request) {
	current, err := currentUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(current))
}

func (s *Service) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, err := currentAdmin(r); err != nil {
		httpx.WriteError(w, err)
		return
	}
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	responses := make([]userResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, toUserResponse(u))
	}
	httpx.WriteJSON(w, http.StatusOK, responses)
}

// handleCreateUser lets the admin invite accounts with an explicit role.
func (s *Service) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if _, err := currentAdmin(r); err != nil {
		httpx.WriteError(w, err)
		return
	}
	var payload createUserPayload
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.WriteError(w, err)
		return
	}

	created, err := user.CreateUser(user.CreateUserInput{
		Email:    payload.Email,
		Password: payload.Password,
		Role:     user.Role(payload.Role),
	}, s.now, s.newID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.store.PutUser(r.Context(), created); err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(created))
}

func (s *Service) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	current, err := currentAdmin(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	targetID := r.PathValue("id")
	if targetID == current.ID {
		httpx.WriteError(w, apperrors.New(apperrors.CodeUserSelfDeletion, "admins cannot delete their own account"))
		return
	}
	if err := s.store.DeleteUser(r.Context(), targetID); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleListLogins(w http.ResponseWriter, r *http.Request) {
	if _, err := currentAdmin(r); err != nil {
		httpx.WriteError(w, err)
		return
	}
	limit := defaultLoginHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httpx.WriteError(w, apperrors.New(apperrors.CodeInvalidRequest, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	attempts, err := s.store.ListLogins(r.Context(), limit)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	responses := make([]loginResponse, 0, len(attempts))
	for _, attempt := range attempts {
		responses = append(responses, loginResponse{
			ID:         attempt.ID,
			Email:      attempt.Email,
			UserID:     attempt.UserID,
			Successful: attempt.Successful,
			CreatedAt:  attempt.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, responses)
}

func (s *Service) nowUTC() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}
