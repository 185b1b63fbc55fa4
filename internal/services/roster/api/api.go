// Package api exposes the roster service over HTTP JSON.
package api

import (
	"net/http"
	"time"

	apperrors "github.com/teamsplit/teamsplit/internal/platform/errors"
	"github.com/teamsplit/teamsplit/internal/platform/httpx"
	"github.com/teamsplit/teamsplit/internal/services/auth/authctx"
	"github.com/teamsplit/teamsplit/internal/services/roster/player"
	"github.com/teamsplit/teamsplit/internal/services/roster/storage"
)

// Service handles player HTTP requests.
type Service struct {
	store storage.PlayerStore
	now   func() time.Time
	newID func() (string, error)
}

// NewService builds a roster API service backed by the given store.
func NewService(store storage.PlayerStore) *Service {
	return &Service{store: store}
}

// RegisterRoutes attaches the player routes to the mux.
func RegisterRoutes(mux *http.ServeMux, svc *Service) {
	if mux == nil || svc == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" /api/players", svc.handleList)
	mux.HandleFunc(http.MethodPost+" /api/players", svc.handleCreate)
	mux.HandleFunc(http.MethodPut+" /api/players/{id}", svc.handleUpdate)
	mux.HandleFunc(http.MethodDelete+" /api/players/{id}", svc.handleDelete)
}

type attributesPayload struct {
	Speed     float64 `json:"speed"`
	Technique float64 `json:"technique"`
	Shooting  float64 `json:"shooting"`
	Passing   float64 `json:"passing"`
	Defense   float64 `json:"defense"`
	Physical  float64 `json:"physical"`
}

type goalkeeperPayload struct {
	Reflexes float64 `json:"reflexes"`
	Diving   float64 `json:"diving"`
	Kicking  float64 `json:"kicking"`
}

type playerPayload struct {
	Name       string            `json:"name"`
	Attributes attributesPayload `json:"attributes"`
	Goalkeeper goalkeeperPayload `json:"goalkeeper"`
	Roles      []string          `json:"roles"`
}

type updatePayload struct {
	Name       *string            `json:"name"`
	Attributes *attributesPayload `json:"attributes"`
	Goalkeeper *goalkeeperPayload `json:"goalkeeper"`
	Roles      *[]string          `json:"roles"`
}

type playerResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Attributes attributesPayload `json:"attributes"`
	Goalkeeper goalkeeperPayload `json:"goalkeeper"`
	Roles      []string          `json:"roles"`
	BaseRating float64           `json:"base_rating"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func toAttributes(p attributesPayload) player.Attributes {
	return player.Attributes{
		Speed:     p.Speed,
		Technique: p.Technique,
		Shooting:  p.Shooting,
		Passing:   p.Passing,
		Defense:   p.Defense,
		Physical:  p.Physical,
	}
}

func toGoalkeeper(p goalkeeperPayload) player.GoalkeeperAttributes {
	return player.GoalkeeperAttributes{
		Reflexes: p.Reflexes,
		Diving:   p.Diving,
		Kicking:  p.Kicking,
	}
}

func toResponse(p player.Player) playerResponse {
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	return playerResponse{
		ID:   p.ID,
		Name: p.Name,
		Attributes: attributesPayload{
			Speed:     p.Attributes.Speed,
			Technique: p.Attributes.Technique,
			Shooting:  p.Attributes.Shooting,
			Passing:   p.Attributes.Passing,
			Defense:   p.Attributes.Defense,
			Physical:  p.Attributes.Physical,
		},
		Goalkeeper: goalkeeperPayload{
			Reflexes: p.Goalkeeper.Reflexes,
			Diving:   p.Goalkeeper.Diving,
			Kicking:  p.Goalkeeper.Kicking,
		},
		Roles:      roles,
		BaseRating: player.BaseRating(p, player.DefaultWeights),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func requireUser(r *http.Request) error {
	if _, ok := authctx.UserFrom(r.Context()); !ok {
		return apperrors.New(apperrors.CodeUserUnauthenticated, "authentication required")
	}
	return nil
}

func requireAdmin(r *http.Request) error {
	current, ok := authctx.UserFrom(r.Context())
	if !ok {
		return apperrors.New(apperrors.CodeUserUnauthenticated, "authentication required")
	}
	if !current.IsAdmin() {
		return apperrors.New(apperrors.CodeUserAdminOnly, "admin role required")
	}
	return nil
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	if err := requireUser(r); err != nil {
		httpx.WriteError(w, err)
		return
	}
	players, err := s.store.ListPlayers(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	responses := make([]playerResponse, 0, len(players))
	for _, p := range players {
		responses = append(responses, toResponse(p))
	}
	httpx.WriteJSON(w, http.StatusOK, responses)
}

func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := requireUser(r); err != nil {
		httpx.WriteError(w, err)
		return
	}
	var payload playerPayload
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.WriteError(w, err)
		return
	}

	created, err := player.CreatePlayer(player.CreatePlayerInput{
		Name:       payload.Name,
		Attributes: toAttributes(payload.Attributes),
		Goalkeeper: toGoalkeeper(payload.Goalkeeper),
		Roles:      payload.Roles,
	}, s.now, s.newID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.store.PutPlayer(r.Context(), created); err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toResponse(created))
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := requireUser(r); err != nil {
		httpx.WriteError(w, err)
		return
	}
	var payload updatePayload
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.WriteError(w, err)
		return
	}

	current, err := s.store.GetPlayer(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	input := player.UpdatePlayerInput{Name: payload.Name, Roles: payload.Roles}
	if payload.Attributes != nil {
		attrs := toAttributes(*payload.Attributes)
		input.Attributes = &attrs
	}
	if payload.Goalkeeper != nil {
		gk := toGoalkeeper(*payload.Goalkeeper)
		input.Goalkeeper = &gk
	}

	updated, err := player.ApplyUpdate(current, input, s.now)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.store.PutPlayer(r.Context(), updated); err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(updated))
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.store.DeletePlayer(r.Context(), r.PathValue("id")); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
