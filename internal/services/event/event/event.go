// Package event provides match events: a roster drawn from the player pool,
// pairing constraints, and the generated team line-up.
package event

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/teamsplit/teamsplit/internal/platform/errors"
	"github.com/teamsplit/teamsplit/internal/platform/id"
)

// DefaultTeamCount is used when an event does not specify one.
const DefaultTeamCount = 2

// Override bounds match the player attribute scale.
const (
	MinOverride = 1.0
	MaxOverride = 10.0
)

var (
	// ErrEmptyName indicates a missing event name.
	ErrEmptyName = apperrors.New(apperrors.CodeEventEmptyName, "event name is required")
	// ErrEmptyRoster indicates an event without roster entries.
	ErrEmptyRoster = apperrors.New(apperrors.CodeEventEmptyRoster, "event roster is required")
	// ErrInvalidOverride indicates a rating override outside [1,10].
	ErrInvalidOverride = apperrors.New(apperrors.CodeEventInvalidOverride, "rating override must be between 1 and 10")
	// ErrInvalidConstraint indicates a malformed pairing constraint.
	ErrInvalidConstraint = apperrors.New(apperrors.CodeEventInvalidConstraint, "pairing constraint is invalid")
	// ErrTeamsNotGenerated indicates an operation that needs a generated line-up.
	ErrTeamsNotGenerated = apperrors.New(apperrors.CodeEventTeamsNotGenerated, "teams have not been generated")
	// ErrInvalidMove indicates a team move that does not fit the line-up.
	ErrInvalidMove = apperrors.New(apperrors.CodeEventInvalidMove, "team move is invalid")
)

// ConstraintKind distinguishes link from separate constraints.
type ConstraintKind string

const (
	// ConstraintLink keeps two players on the same team.
	ConstraintLink ConstraintKind = "link"
	// ConstraintSeparate keeps two players on different teams.
	ConstraintSeparate ConstraintKind = "separate"
)

// RosterEntry marks one player as present, optionally with a rating override
// for this event only.
type RosterEntry struct {
	PlayerID string   `json:"player_id"`
	Override *float64 `json:"override,omitempty"`
}

// Constraint is a pairing preference between two present players.
type Constraint struct {
	Kind    ConstraintKind `json:"kind"`
	PlayerA string         `json:"player_a"`
	PlayerB string         `json:"player_b"`
}

// Event is one match: who is coming, how they pair, and the line-up.
type Event struct {
	ID             string
	Name           string
	OrganizerID    string
	Roster         []RosterEntry
	TeamCount      int
	Constraints    []Constraint
	GeneratedTeams [][]string
	Warning        *string
	ShareToken     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasGeneratedTeams reports whether a line-up exists for the event.
func (e Event) HasGeneratedTeams() bool {
	return len(e.GeneratedTeams) > 0
}

// CreateEventInput describes the data needed to schedule an event.
type CreateEventInput struct {
	Name        string
	OrganizerID string
	Roster      []RosterEntry
	TeamCount   int
	Constraints []Constraint
}

// CreateEvent builds a new event from untrusted input. The share token is a
// fresh UUID so line-ups can be shared without authentication.
func CreateEvent(input CreateEventInput, now func() time.Time, idGenerator func() (string, error)) (Event, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := normalizeInput(input)
	if err != nil {
		return Event{}, err
	}

	eventID, err := idGenerator()
	if err != nil {
		return Event{}, fmt.Errorf("generate event id: %w", err)
	}

	createdAt := now().UTC()
	return Event{
		ID:          eventID,
		Name:        normalized.Name,
		OrganizerID: normalized.OrganizerID,
		Roster:      normalized.Roster,
		TeamCount:   normalized.TeamCount,
		Constraints: normalized.Constraints,
		ShareToken:  uuid.NewString(),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}

func normalizeInput(input CreateEventInput) (CreateEventInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return CreateEventInput{}, ErrEmptyName
	}
	if len(input.Roster) == 0 {
		return CreateEventInput{}, ErrEmptyRoster
	}
	if input.TeamCount == 0 {
		input.TeamCount = DefaultTeamCount
	}

	present := make(map[string]bool, len(input.Roster))
	for _, entry := range input.Roster {
		if strings.TrimSpace(entry.PlayerID) == "" {
			return CreateEventInput{}, apperrors.New(apperrors.CodeEventInvalidRoster, "roster entry player id is required")
		}
		if present[entry.PlayerID] {
			return CreateEventInput{}, apperrors.WithMetadata(
				apperrors.CodeEventInvalidRoster,
				"roster entry is duplicated",
				map[string]string{"PlayerID": entry.PlayerID},
			)
		}
		present[entry.PlayerID] = true
		if entry.Override != nil && (*entry.Override < MinOverride || *entry.Override > MaxOverride) {
			return CreateEventInput{}, ErrInvalidOverride
		}
	}
	if err := validateConstraints(input.Constraints, present); err != nil {
		return CreateEventInput{}, err
	}
	return input, nil
}

func validateConstraints(constraints []Constraint, present map[string]bool) error {
	for _, c := range constraints {
		if c.Kind != ConstraintLink && c.Kind != ConstraintSeparate {
			return apperrors.WithMetadata(
				apperrors.CodeEventInvalidConstraint,
				"constraint kind is unknown",
				map[string]string{"Kind": string(c.Kind)},
			)
		}
		if c.PlayerA == c.PlayerB {
			return apperrors.New(apperrors.CodeEventInvalidConstraint, "constraint pairs a player with itself")
		}
		for _, playerID := range []string{c.PlayerA, c.PlayerB} {
			if !present[playerID] {
				return apperrors.WithMetadata(
					apperrors.CodeEventInvalidConstraint,
					"constraint references a player outside the roster",
					map[string]string{"PlayerID": playerID},
				)
			}
		}
	}
	return nil
}

// UpdateEventInput carries optional field updates; nil fields stay unchanged.
type UpdateEventInput struct {
	Name        *string
	Roster      *[]RosterEntry
	TeamCount   *int
	Constraints *[]Constraint
}

// ApplyUpdate merges the input into the event. Changing the roster, the team
// count, or the constraints discards any previously generated line-up.
func ApplyUpdate(e Event, input UpdateEventInput, now func() time.Time) (Event, error) {
	if now == nil {
		now = time.Now
	}

	candidate := CreateEventInput{
		Name:        e.Name,
		OrganizerID: e.OrganizerID,
		Roster:      e.Roster,
		TeamCount:   e.TeamCount,
		Constraints: e.Constraints,
	}
	invalidated := false
	if input.Name != nil {
		candidate.Name = *input.Name
	}
	if input.Roster != nil {
		candidate.Roster = *input.Roster
		invalidated = true
	}
	if input.TeamCount != nil {
		candidate.TeamCount = *input.TeamCount
		invalidated = true
	}
	if input.Constraints != nil {
		candidate.Constraints = *input.Constraints
		invalidated = true
	}

	normalized, err := normalizeInput(candidate)
	if err != nil {
		return Event{}, err
	}

	e.Name = normalized.Name
	e.Roster = normalized.Roster
	e.TeamCount = normalized.TeamCount
	e.Constraints = normalized.Constraints
	if invalidated {
		e.GeneratedTeams = nil
		e.Warning = nil
	}
	e.UpdatedAt = now().UTC()
	return e, nil
}

// MoveMember moves one player between two generated teams. Averages are
// recomputed by the caller, which knows the effective ratings.
func MoveMember(e Event, playerID string, fromTeam, toTeam int) (Event, error) {
	if !e.HasGeneratedTeams() {
		return Event{}, ErrTeamsNotGenerated
	}
	if fromTeam == toTeam {
		return Event{}, apperrors.New(apperrors.CodeEventInvalidMove, "source and target teams are the same")
	}
	if fromTeam < 0 || fromTeam >= len(e.GeneratedTeams) || toTeam < 0 || toTeam >= len(e.GeneratedTeams) {
		return Event{}, apperrors.New(apperrors.CodeEventInvalidMove, "team index is out of range")
	}

	source := e.GeneratedTeams[fromTeam]
	position := -1
	for i, member := range source {
		if member == playerID {
			position = i
			break
		}
	}
	if position == -1 {
		return Event{}, apperrors.WithMetadata(
			apperrors.CodeEventInvalidMove,
			"player is not on the source team",
			map[string]string{"PlayerID": playerID},
		)
	}

	teams := make([][]string, len(e.GeneratedTeams))
	for i, team := range e.GeneratedTeams {
		teams[i] = append([]string(nil), team...)
	}
	teams[fromTeam] = append(teams[fromTeam][:position], teams[fromTeam][position+1:]...)
	teams[toTeam] = append(teams[toTeam], playerID)
	e.GeneratedTeams = teams
	return e, nil
}
