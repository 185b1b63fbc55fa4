// Package player provides match-day player records and rating derivation.
package player

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/teamsplit/teamsplit/internal/platform/errors"
	"github.com/teamsplit/teamsplit/internal/platform/id"
)

// Rating bounds for every player attribute and derived rating.
const (
	MinAttribute = 1.0
	MaxAttribute = 10.0
)

// Role tags recognized on a player record.
const (
	RoleGoalkeeper = "goalkeeper"
	RoleDefender   = "defender"
	RoleMidfielder = "midfielder"
	RoleForward    = "forward"
)

var validRoles = map[string]bool{
	RoleGoalkeeper: true,
	RoleDefender:   true,
	RoleMidfielder: true,
	RoleForward:    true,
}

// Attributes are the six outfield skill values, each in [1,10].
type Attributes struct {
	Speed     float64
	Technique float64
	Shooting  float64
	Passing   float64
	Defense   float64
	Physical  float64
}

// GoalkeeperAttributes are the three goalkeeper-only skill values, each in [1,10].
type GoalkeeperAttributes struct {
	Reflexes float64
	Diving   float64
	Kicking  float64
}

// Player is a registered player with skill attributes and role tags.
type Player struct {
	ID         string
	Name       string
	Attributes Attributes
	Goalkeeper GoalkeeperAttributes
	Roles      []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsGoalkeeper reports whether the player carries the goalkeeper role tag.
func (p Player) IsGoalkeeper() bool {
	for _, role := range p.Roles {
		if role == RoleGoalkeeper {
			return true
		}
	}
	return false
}

// Weights configures how sub-attributes aggregate into a base rating.
// Each weight set is normalized by its own sum, so only the relative
// proportions matter. The default weighs every attribute of the active role
// equally; organizers who want e.g. shooting-heavy ratings can supply their
// own proportions.
type Weights struct {
	Outfield   Attributes
	Goalkeeper GoalkeeperAttributes
}

// DefaultWeights aggregates with uniform weights over the role's attribute set.
var DefaultWeights = Weights{
	Outfield:   Attributes{Speed: 1, Technique: 1, Shooting: 1, Passing: 1, Defense: 1, Physical: 1},
	Goalkeeper: GoalkeeperAttributes{Reflexes: 1, Diving: 1, Kicking: 1},
}

// BaseRating derives the player's permanent rating in [1,10]: goalkeepers
// aggregate the goalkeeper attributes, everyone else the six outfield
// attributes. The result is a weighted mean, so it stays inside [1,10] as
// long as the attributes do.
func BaseRating(p Player, w Weights) float64 {
	if p.IsGoalkeeper() {
		total := w.Goalkeeper.Reflexes + w.Goalkeeper.Diving + w.Goalkeeper.Kicking
		if total == 0 {
			return MinAttribute
		}
		sum := p.Goalkeeper.Reflexes*w.Goalkeeper.Reflexes +
			p.Goalkeeper.Diving*w.Goalkeeper.Diving +
			p.Goalkeeper.Kicking*w.Goalkeeper.Kicking
		return sum / total
	}

	total := w.Outfield.Speed + w.Outfield.Technique + w.Outfield.Shooting +
		w.Outfield.Passing + w.Outfield.Defense + w.Outfield.Physical
	if total == 0 {
		return MinAttribute
	}
	sum := p.Attributes.Speed*w.Outfield.Speed +
		p.Attributes.Technique*w.Outfield.Technique +
		p.Attributes.Shooting*w.Outfield.Shooting +
		p.Attributes.Passing*w.Outfield.Passing +
		p.Attributes.Defense*w.Outfield.Defense +
		p.Attributes.Physical*w.Outfield.Physical
	return sum / total
}

// CreatePlayerInput describes the data needed to register a player.
type CreatePlayerInput struct {
	Name       string
	Attributes Attributes
	Goalkeeper GoalkeeperAttributes
	Roles      []string
}

// CreatePlayer validates input and mints a new player record.
func CreatePlayer(input CreatePlayerInput, now func() time.Time, idGenerator func() (string, error)) (Player, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := normalizeInput(input)
	if err != nil {
		return Player{}, err
	}

	playerID, err := idGenerator()
	if err != nil {
		return Player{}, fmt.Errorf("generate player id: %w", err)
	}

	createdAt := now().UTC()
	return Player{
		ID:         playerID,
		Name:       normalized.Name,
		Attributes: normalized.Attributes,
		Goalkeeper: normalized.Goalkeeper,
		Roles:      normalized.Roles,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}, nil
}

func normalizeInput(input CreatePlayerInput) (CreatePlayerInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return CreatePlayerInput{}, apperrors.New(apperrors.CodePlayerEmptyName, "player name is required")
	}

	attrs := map[string]float64{
		"speed":     input.Attributes.Speed,
		"technique": input.Attributes.Technique,
		"shooting":  input.Attributes.Shooting,
		"passing":   input.Attributes.Passing,
		"defense":   input.Attributes.Defense,
		"physical":  input.Attributes.Physical,
		"reflexes":  input.Goalkeeper.Reflexes,
		"diving":    input.Goalkeeper.Diving,
		"kicking":   input.Goalkeeper.Kicking,
	}
	for name, value := range attrs {
		if value < MinAttribute || value > MaxAttribute {
			return CreatePlayerInput{}, apperrors.WithMetadata(
				apperrors.CodePlayerInvalidAttribute,
				fmt.Sprintf("attribute %s must be between %.0f and %.0f", name, MinAttribute, MaxAttribute),
				map[string]string{"attribute": name, "value": fmt.Sprintf("%.2f", value)},
			)
		}
	}

	seen := make(map[string]bool, len(input.Roles))
	roles := make([]string, 0, len(input.Roles))
	for _, role := range input.Roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if !validRoles[role] {
			return CreatePlayerInput{}, apperrors.WithMetadata(
				apperrors.CodePlayerInvalidRole,
				fmt.Sprintf("unknown role %q", role),
				map[string]string{"role": role},
			)
		}
		if !seen[role] {
			seen[role] = true
			roles = append(roles, role)
		}
	}
	input.Roles = roles
	return input, nil
}

// UpdatePlayerInput carries optional updates; nil fields keep current values.
type UpdatePlayerInput struct {
	Name       *string
	Attributes *Attributes
	Goalkeeper *GoalkeeperAttributes
	Roles      *[]string
}

// ApplyUpdate validates and applies an update to an existing player record.
func ApplyUpdate(p Player, input UpdatePlayerInput, now func() time.Time) (Player, error) {
	if now == nil {
		now = time.Now
	}

	next := CreatePlayerInput{
		Name:       p.Name,
		Attributes: p.Attributes,
		Goalkeeper: p.Goalkeeper,
		Roles:      p.Roles,
	}
	if input.Name != nil {
		next.Name = *input.Name
	}
	if input.Attributes != nil {
		next.Attributes = *input.Attributes
	}
	if input.Goalkeeper != nil {
		next.Goalkeeper = *input.Goalkeeper
	}
	if input.Roles != nil {
		next.Roles = *input.Roles
	}

	normalized, err := normalizeInput(next)
	if err != nil {
		return Player{}, err
	}

	p.Name = normalized.Name
	p.Attributes = normalized.Attributes
	p.Goalkeeper = normalized.Goalkeeper
	p.Roles = normalized.Roles
	p.UpdatedAt = now().UTC()
	return p, nil
}
