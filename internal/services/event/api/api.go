// Package api exposes the event service over HTTP JSON.
package api

import (
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/teamsplit/teamsplit/internal/engine"
	apperrors "github.com/teamsplit/teamsplit/internal/platform/errors"
	"github.com/teamsplit/teamsplit/internal/platform/httpx"
	"github.com/teamsplit/teamsplit/internal/services/auth/authctx"
	"github.com/teamsplit/teamsplit/internal/services/auth/user"
	"github.com/teamsplit/teamsplit/internal/services/event/event"
	"github.com/teamsplit/teamsplit/internal/services/event/storage"
	"github.com/teamsplit/teamsplit/internal/services/roster/player"
	rosterstorage "github.com/teamsplit/teamsplit/internal/services/roster/storage"
)

const tracerName = "teamsplit/event"

// Service handles event HTTP requests. It reads the player pool to resolve
// ratings when generating teams.
type Service struct {
	events  storage.EventStore
	players rosterstorage.PlayerStore
	now     func() time.Time
	newID   func() (string, error)
}

// NewService builds an event API service backed by the given stores.
func NewService(events storage.EventStore, players rosterstorage.PlayerStore) *Service {
	return &Service{events: events, players: players}
}

// RegisterRoutes attaches the event routes to the mux. The share route is the
// only one reachable without authentication.
func RegisterRoutes(mux *http.ServeMux, svc *Service) {
	if mux == nil || svc == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" /api/events", svc.handleList)
	mux.HandleFunc(http.MethodPost+" /api/events", svc.handleCreate)
	mux.HandleFunc(http.MethodGet+" /api/events/{id}", svc.handleGet)
	mux.HandleFunc(http.MethodPut+" /api/events/{id}", svc.handleUpdate)
	mux.HandleFunc(http.MethodDelete+" /api/events/{id}", svc.handleDelete)
	mux.HandleFunc(http.MethodPost+" /api/events/{id}/generate", svc.handleGenerate)
	mux.HandleFunc(http.MethodPost+" /api/events/{id}/teams/move", svc.handleMove)
	mux.HandleFunc(http.MethodGet+" /api/share/{token}", svc.handleShare)
}

type rosterEntryPayload struct {
	PlayerID string   `json:"player_id"`
	Override *float64 `json:"override,omitempty"`
}

type constraintPayload struct {
	Kind    string `json:"kind"`
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
}

type eventPayload struct {
	Name        string               `json:"name"`
	Roster      []rosterEntryPayload `json:"roster"`
	TeamCount   int                  `json:"team_count"`
	Constraints []constraintPayload  `json:"constraints"`
}

type updatePayload struct {
	Name        *string               `json:"name"`
	Roster      *[]rosterEntryPayload `json:"roster"`
	TeamCount   *int                  `json:"team_count"`
	Constraints *[]constraintPayload  `json:"constraints"`
}

type memberView struct {
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	Rating   float64 `json:"rating"`
}

type teamView struct {
	Members       []memberView `json:"members"`
	AverageRating float64      `json:"average_rating"`
}

type eventResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	OrganizerID string               `json:"organizer_id"`
	Roster      []rosterEntryPayload `json:"roster"`
	TeamCount   int                  `json:"team_count"`
	Constraints []constraintPayload  `json:"constraints"`
	Teams       []teamView           `json:"teams"`
	Warning     *string              `json:"warning"`
	ShareToken  string               `json:"share_token"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type shareResponse struct {
	EventName string     `json:"event_name"`
	Teams     []teamView `json:"teams"`
	Warning   *string    `json:"warning"`
}

type movePayload struct {
	PlayerID string `json:"player_id"`
	FromTeam int    `json:"from_team"`
	ToTeam   int    `json:"to_team"`
}

func toRoster(payload []rosterEntryPayload) []event.RosterEntry {
	roster := make([]event.RosterEntry, 0, len(payload))
	for _, entry := range payload {
		roster = append(roster, event.RosterEntry{PlayerID: entry.PlayerID, Override: entry.Override})
	}
	return roster
}

func toConstraints(payload []constraintPayload) []event.Constraint {
	constraints := make([]event.Constraint, 0, len(payload))
	for _, c := range payload {
		constraints = append(constraints, event.Constraint{
			Kind:    event.ConstraintKind(c.Kind),
			PlayerA: c.PlayerA,
			PlayerB: c.PlayerB,
		})
	}
	return constraints
}

func fromRoster(roster []event.RosterEntry) []rosterEntryPayload {
	payload := make([]rosterEntryPayload, 0, len(roster))
	for _, entry := range roster {
		payload = append(payload, rosterEntryPayload{PlayerID: entry.PlayerID, Override: entry.Override})
	}
	return payload
}

func fromConstraints(constraints []event.Constraint) []constraintPayload {
	payload := make([]constraintPayload, 0, len(constraints))
	for _, c := range constraints {
		payload = append(payload, constraintPayload{
			Kind:    string(c.Kind),
			PlayerA: c.PlayerA,
			PlayerB: c.PlayerB,
		})
	}
	return payload
}

func requireUser(r *http.Request) (user.User, error) {
	current, ok := authctx.UserFrom(r.Context())
	if !ok {
		return user.User{}, apperrors.New(apperrors.CodeUserUnauthenticated, "authentication required")
	}
	return current, nil
}

// loadOwnedEvent fetches an event and enforces organizer scoping: admins see
// every event, organizers only their own.
func (s *Service) loadOwnedEvent(r *http.Request, current user.User) (event.Event, error) {
	record, err := s.events.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		return event.Event{}, err
	}
	if !current.IsAdmin() && record.OrganizerID != current.ID {
		return event.Event{}, apperrors.New(apperrors.CodeEventAccessDenied, "event belongs to another organizer")
	}
	return record, nil
}

// effectiveRatings resolves each roster entry to its event rating: the
// override when present, the derived base rating otherwise.
func (s *Service) effectiveRatings(r *http.Request, record event.Event) (map[string]float64, map[string]player.Player, error) {
	ratings := make(map[string]float64, len(record.Roster))
	players := make(map[string]player.Player, len(record.Roster))
	for _, entry := range record.Roster {
		p, err := s.players.GetPlayer(r.Context(), entry.PlayerID)
		if err != nil {
			if errors.Is(err, rosterstorage.ErrNotFound) {
				return nil, nil, apperrors.WithMetadata(
					apperrors.CodeEventUnknownPlayer,
					"roster references an unregistered player",
					map[string]string{"PlayerID": entry.PlayerID},
				)
			}
			return nil, nil, err
		}
		players[entry.PlayerID] = p
		if entry.Override != nil {
			ratings[entry.PlayerID] = *entry.Override
		} else {
			ratings[entry.PlayerID] = player.BaseRating(p, player.DefaultWeights)
		}
	}
	return ratings, players, nil
}

func (s *Service) teamViews(teams [][]string, ratings map[string]float64, players map[string]player.Player) []teamView {
	views := make([]teamView, 0, len(teams))
	for _, members := range teams {
		view := teamView{Members: make([]memberView, 0, len(members))}
		for _, playerID := range members {
			view.Members = append(view.Members, memberView{
				PlayerID: playerID,
				Name:     players[playerID].Name,
				Rating:   ratings[playerID],
			})
		}
		view.AverageRating = engine.TeamAverage(ratingsOf(members, ratings))
		views = append(views, view)
	}
	return views
}

func ratingsOf(members []string, ratings map[string]float64) []float64 {
	values := make([]float64, 0, len(members))
	for _, playerID := range members {
		values = append(values, ratings[playerID])
	}
	return values
}

func (s *Service) toResponse(r *http.Request, record event.Event) (eventResponse, error) {
	response := eventResponse{
		ID:          record.ID,
		Name:        record.Name,
		OrganizerID: record.OrganizerID,
		Roster:      fromRoster(record.Roster),
		TeamCount:   record.TeamCount,
		Constraints: fromConstraints(record.Constraints),
		Teams:       []teamView{},
		Warning:     record.Warning,
		ShareToken:  record.ShareToken,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
	if record.HasGeneratedTeams() {
		ratings, players, err := s.effectiveRatings(r, record)
		if err != nil {
			return eventResponse{}, err
		}
		response.Teams = s.teamViews(record.GeneratedTeams, ratings, players)
	}
	return response, nil
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	current, err := requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	organizerID := current.ID
	if current.IsAdmin() {
		organizerID = ""
	}
	records, err := s.events.ListEvents(r.Context(), organizerID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	responses := make([]eventResponse, 0, len(records))
	for _, record := range records {
		response, err := s.toResponse(r, record)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		responses = append(responses, response)
	}
	httpx.WriteJSON(w, http.StatusOK, responses)
}

func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	current, err := requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var payload eventPayload
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.WriteError(w, err)
		return
	}

	created, err := event.CreateEvent(event.CreateEventInput{
		Name:        payload.Name,
		OrganizerID: current.ID,
		Roster:      toRoster(payload.Roster),
		TeamCount:   payload.TeamCount,
		Constraints: toConstraints(payload.Constraints),
	}, s.now, s.newID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.events.PutEvent(r.Context(), created); err != nil {
		httpx.WriteError(w, err)
		return
	}
	response, err := s.toResponse(r, created)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, response)
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	current, err := requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	record, err := s.loadOwnedEvent(r, current)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	response, err := s.toResponse(r, record)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, response)
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	current, err := requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var payload updatePayload
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.WriteError(w, err)
		return
	}
	record, err := s.loadOwnedEvent(r, current)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	input := event.UpdateEventInput{Name: payload.Name, TeamCount: payload.TeamCount}
	if payload.Roster != nil {
		roster := toRoster(*payload.Roster)
		input.Roster = &roster
	}
	if payload.Constraints != nil {
		constraints := toConstraints(*payload.Constraints)
		input.Constraints = &constraints
	}

	updated, err := event.ApplyUpdate(record, input, s.now)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.events.PutEvent(r.Context(), updated); err != nil {
		httpx.WriteError(w, err)
		return
	}
	response, err := s.toResponse(r, updated)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, response)
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	current, err := requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	record, err := s.loadOwnedEvent(r, current)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.events.DeleteEvent(r.Context(), record.ID); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleGenerate(w http.ResponseWriter, r *http.Request) {
	current, err := requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	record, err := s.loadOwnedEvent(r, current)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_, players, err := s.effectiveRatings(r, record)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	request := engine.Request{
		Roster:    make([]engine.RosterEntry, 0, len(record.Roster)),
		TeamCount: record.TeamCount,
	}
	for _, entry := range record.Roster {
		request.Roster = append(request.Roster, engine.RosterEntry{
			PlayerID:   entry.PlayerID,
			BaseRating: player.BaseRating(players[entry.PlayerID], player.DefaultWeights),
			Override:   entry.Override,
		})
	}
	for _, c := range record.Constraints {
		request.Constraints = append(request.Constraints, engine.Constraint{
			Kind:    engine.ConstraintKind(c.Kind),
			PlayerA: c.PlayerA,
			PlayerB: c.PlayerB,
		})
	}

	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "event.generate_teams",
		trace.WithAttributes(
			attribute.String("event.id", record.ID),
			attribute.Int("event.roster_size", len(record.Roster)),
			attribute.Int("event.team_count", record.TeamCount),
		))
	result, err := engine.Generate(request)
	span.End()
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	record.GeneratedTeams = make([][]string, 0, len(result.Teams))
	for _, team := range result.Teams {
		record.GeneratedTeams = append(record.GeneratedTeams, team.Members)
	}
	record.Warning = nil
	if result.Warning != nil {
		message := result.Warning.Message
		record.Warning = &message
	}
	record.UpdatedAt = s.nowUTC()
	if err := s.events.PutEvent(ctx, record); err != nil {
		httpx.WriteError(w, err)
		return
	}

	response, err := s.toResponse(r, record)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, response)
}

func (s *Service) handleMove(w http.ResponseWriter, r *http.Request) {
	current, err := requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var payload movePayload
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.WriteError(w, err)
		return
	}
	record, err := s.loadOwnedEvent(r, current)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	moved, err := event.MoveMember(record, payload.PlayerID, payload.FromTeam, payload.ToTeam)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	moved.UpdatedAt = s.nowUTC()
	if err := s.events.PutEvent(r.Context(), moved); err != nil {
		httpx.WriteError(w, err)
		return
	}
	response, err := s.toResponse(r, moved)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, response)
}

// handleShare is public: anyone with the token sees the generated line-up.
func (s *Service) handleShare(w http.ResponseWriter, r *http.Request) {
	record, err := s.events.GetEventByShareToken(r.Context(), r.PathValue("token"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if !record.HasGeneratedTeams() {
		httpx.WriteError(w, event.ErrTeamsNotGenerated)
		return
	}
	ratings, players, err := s.effectiveRatings(r, record)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, shareResponse{
		EventName: record.Name,
		Teams:     s.teamViews(record.GeneratedTeams, ratings, players),
		Warning:   record.Warning,
	})
}

func (s *Service) nowUTC() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}
