package engine

import (
	"fmt"
	"sort"

	apperrors "github.com/teamsplit/teamsplit/internal/platform/errors"
)

// ConstraintKind distinguishes the two affinity constraint types.
type ConstraintKind string

const (
	// Link forces two players onto the same team.
	Link ConstraintKind = "link"
	// Separate forbids two players from sharing a team.
	Separate ConstraintKind = "separate"
)

// Constraint is an unordered pair of present players with an affinity kind.
type Constraint struct {
	Kind    ConstraintKind
	PlayerA string
	PlayerB string
}

// RosterEntry is a present player with a base rating and an optional
// per-event override. The override, when set, replaces the base rating for
// this request only.
type RosterEntry struct {
	PlayerID   string
	BaseRating float64
	Override   *float64
}

// Request describes one partition request.
type Request struct {
	Roster      []RosterEntry
	TeamCount   int
	Constraints []Constraint
}

// Team is one generated team: member player IDs in ascending order and the
// arithmetic mean of their effective ratings rounded to one decimal place.
type Team struct {
	Members       []string
	AverageRating float64
}

// PlayerPair is an unordered player pair, stored with PlayerA < PlayerB.
type PlayerPair struct {
	PlayerA string
	PlayerB string
}

// Warning reports constraints that could not be honored. A nil *Warning on a
// Result means every constraint was satisfied.
type Warning struct {
	// DroppedSeparations are Separate constraints removed during
	// reconciliation because a Link chain forced both players together.
	DroppedSeparations []PlayerPair
	// ViolatedSeparations are Separate constraints that survived
	// reconciliation but whose players still share a team.
	ViolatedSeparations []PlayerPair
	// EmptyTeams counts teams that received no players because fewer
	// groups than teams existed.
	EmptyTeams int
	// Message is a human-readable summary naming the affected players.
	Message string
}

// Result is the outcome of a partition request.
type Result struct {
	Teams   []Team
	Warning *Warning
}

var (
	// ErrInvalidRating indicates a base or override rating outside [1,10].
	ErrInvalidRating = apperrors.New(apperrors.CodeEngineInvalidRating, "rating must be between 1 and 10")
	// ErrInvalidConstraint indicates a constraint referencing an absent,
	// duplicated, or self-paired player.
	ErrInvalidConstraint = apperrors.New(apperrors.CodeEngineInvalidConstraint, "constraint references invalid players")
	// ErrInvalidTeamCount indicates a team count below 2 or above the
	// roster size.
	ErrInvalidTeamCount = apperrors.New(apperrors.CodeEngineInvalidTeamCount, "team count must be between 2 and the number of present players")
)

// Generate partitions the request's roster into TeamCount teams.
//
// Input validation failures (bad ratings, bad constraints, impossible team
// counts) are returned as errors before any partitioning work. Everything
// past validation degrades gracefully: incompatible constraints produce a
// best-effort partition and a Warning, never an error. Identical input
// always yields an identical partition.
func Generate(req Request) (Result, error) {
	if req.TeamCount < 2 || req.TeamCount > len(req.Roster) {
		return Result{}, apperrors.WithMetadata(
			apperrors.CodeEngineInvalidTeamCount,
			fmt.Sprintf("cannot split %d players into %d teams", len(req.Roster), req.TeamCount),
			map[string]string{"players": fmt.Sprint(len(req.Roster)), "teams": fmt.Sprint(req.TeamCount)},
		)
	}

	ratings, order, err := resolveRatings(req.Roster)
	if err != nil {
		return Result{}, err
	}

	rec, err := reconcile(ratings, order, req.Constraints)
	if err != nil {
		return Result{}, err
	}

	asg := assignTeams(rec, req.TeamCount)

	return buildResult(asg, rec, ratings), nil
}

// orderedPair returns the pair with its players in ascending order.
func orderedPair(a, b string) PlayerPair {
	if b < a {
		a, b = b, a
	}
	return PlayerPair{PlayerA: a, PlayerB: b}
}

// sortPairs orders pairs for stable reporting.
func sortPairs(pairs []PlayerPair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].PlayerA != pairs[j].PlayerA {
			return pairs[i].PlayerA < pairs[j].PlayerA
		}
		return pairs[i].PlayerB < pairs[j].PlayerB
	})
}
