package player

import (
	"errors"
	"math"
	"testing"
	"time"

	apperrors "github.com/teamsplit/teamsplit/internal/platform/errors"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func fixedID() (string, error) {
	return "player-1", nil
}

func TestCreatePlayerNormalizesRoles(t *testing.T) {
	p, err := CreatePlayer(CreatePlayerInput{
		Name:       "  Ana Costa  ",
		Attributes: Attributes{Speed: 8, Technique: 7, Shooting: 6, Passing: 7, Defense: 5, Physical: 6},
		Goalkeeper: GoalkeeperAttributes{Reflexes: 3, Diving: 3, Kicking: 3},
		Roles:      []string{" Midfielder ", "FORWARD", "forward"},
	}, fixedNow, fixedID)
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if p.Name != "Ana Costa" {
		t.Fatalf("expected trimmed name, got %q", p.Name)
	}
	if len(p.Roles) != 2 || p.Roles[0] != RoleMidfielder || p.Roles[1] != RoleForward {
		t.Fatalf("expected deduplicated lowercase roles, got %v", p.Roles)
	}
	if p.ID != "player-1" {
		t.Fatalf("expected generated id, got %q", p.ID)
	}
	if !p.CreatedAt.Equal(fixedNow()) || !p.UpdatedAt.Equal(fixedNow()) {
		t.Fatalf("expected timestamps from clock, got %v / %v", p.CreatedAt, p.UpdatedAt)
	}
}

func TestCreatePlayerRejectsEmptyName(t *testing.T) {
	_, err := CreatePlayer(CreatePlayerInput{
		Name:       "   ",
		Attributes: Attributes{Speed: 5, Technique: 5, Shooting: 5, Passing: 5, Defense: 5, Physical: 5},
		Goalkeeper: GoalkeeperAttributes{Reflexes: 5, Diving: 5, Kicking: 5},
	}, fixedNow, fixedID)
	if !errors.Is(err, apperrors.New(apperrors.CodePlayerEmptyName, "")) {
		t.Fatalf("expected empty-name error, got %v", err)
	}
}

func TestCreatePlayerRejectsAttributeOutOfRange(t *testing.T) {
	_, err := CreatePlayer(CreatePlayerInput{
		Name:       "Bruno",
		Attributes: Attributes{Speed: 11, Technique: 5, Shooting: 5, Passing: 5, Defense: 5, Physical: 5},
		Goalkeeper: GoalkeeperAttributes{Reflexes: 5, Diving: 5, Kicking: 5},
	}, fixedNow, fixedID)
	if !errors.Is(err, apperrors.New(apperrors.CodePlayerInvalidAttribute, "")) {
		t.Fatalf("expected invalid-attribute error, got %v", err)
	}
}

func TestCreatePlayerRejectsUnknownRole(t *testing.T) {
	_, err := CreatePlayer(CreatePlayerInput{
		Name:       "Bruno",
		Attributes: Attributes{Speed: 5, Technique: 5, Shooting: 5, Passing: 5, Defense: 5, Physical: 5},
		Goalkeeper: GoalkeeperAttributes{Reflexes: 5, Diving: 5, Kicking: 5},
		Roles:      []string{"libero"},
	}, fixedNow, fixedID)
	if !errors.Is(err, apperrors.New(apperrors.CodePlayerInvalidRole, "")) {
		t.Fatalf("expected invalid-role error, got %v", err)
	}
}

func TestBaseRatingOutfieldUsesGeneralAttributes(t *testing.T) {
	p := Player{
		Attributes: Attributes{Speed: 8, Technique: 6, Shooting: 7, Passing: 5, Defense: 4, Physical: 6},
		Goalkeeper: GoalkeeperAttributes{Reflexes: 10, Diving: 10, Kicking: 10},
		Roles:      []string{RoleForward},
	}
	want := (8.0 + 6 + 7 + 5 + 4 + 6) / 6
	if got := BaseRating(p, DefaultWeights); math.Abs(got-want) > 1e-9 {
		t.Fatalf("outfield base rating %.4f, want %.4f", got, want)
	}
}

func TestBaseRatingGoalkeeperUsesGoalkeeperAttributes(t *testing.T) {
	p := Player{
		Attributes: Attributes{Speed: 1, Technique: 1, Shooting: 1, Passing: 1, Defense: 1, Physical: 1},
		Goalkeeper: GoalkeeperAttributes{Reflexes: 9, Diving: 8, Kicking: 7},
		Roles:      []string{RoleGoalkeeper, RoleDefender},
	}
	want := (9.0 + 8 + 7) / 3
	if got := BaseRating(p, DefaultWeights); math.Abs(got-want) > 1e-9 {
		t.Fatalf("goalkeeper base rating %.4f, want %.4f", got, want)
	}
}

func TestBaseRatingCustomWeights(t *testing.T) {
	p := Player{
		Attributes: Attributes{Speed: 10, Technique: 2, Shooting: 2, Passing: 2, Defense: 2, Physical: 2},
		Roles:      []string{RoleForward},
	}
	speedHeavy := Weights{
		Outfield:   Attributes{Speed: 4, Technique: 1, Shooting: 1, Passing: 1, Defense: 1, Physical: 1},
		Goalkeeper: DefaultWeights.Goalkeeper,
	}
	uniform := BaseRating(p, DefaultWeights)
	weighted := BaseRating(p, speedHeavy)
	if weighted <= uniform {
		t.Fatalf("speed-heavy weights should raise a fast player's rating: %.3f <= %.3f", weighted, uniform)
	}
	if weighted > MaxAttribute || weighted < MinAttribute {
		t.Fatalf("weighted rating %.3f escaped [1,10]", weighted)
	}
}

func TestApplyUpdateKeepsUnsetFields(t *testing.T) {
	base, err := CreatePlayer(CreatePlayerInput{
		Name:       "Carla",
		Attributes: Attributes{Speed: 5, Technique: 5, Shooting: 5, Passing: 5, Defense: 5, Physical: 5},
		Goalkeeper: GoalkeeperAttributes{Reflexes: 5, Diving: 5, Kicking: 5},
		Roles:      []string{RoleDefender},
	}, fixedNow, fixedID)
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	later := func() time.Time { return fixedNow().Add(time.Hour) }
	name := "Carla Mendes"
	updated, err := ApplyUpdate(base, UpdatePlayerInput{Name: &name}, later)
	if err != nil {
		t.Fatalf("apply update: %v", err)
	}
	if updated.Name != "Carla Mendes" {
		t.Fatalf("expected updated name, got %q", updated.Name)
	}
	if updated.Attributes != base.Attributes {
		t.Fatalf("attributes should be untouched, got %+v", updated.Attributes)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Fatal("expected UpdatedAt to advance")
	}
}

func TestApplyUpdateValidatesNewValues(t *testing.T) {
	base, err := CreatePlayer(CreatePlayerInput{
		Name:       "Diego",
		Attributes: Attributes{Speed: 5, Technique: 5, Shooting: 5, Passing: 5, Defense: 5, Physical: 5},
		Goalkeeper: GoalkeeperAttributes{Reflexes: 5, Diving: 5, Kicking: 5},
	}, fixedNow, fixedID)
	if err != nil {
		t.Fatalf("create player: %v", err)
	}

	bad := Attributes{Speed: 0, Technique: 5, Shooting: 5, Passing: 5, Defense: 5, Physical: 5}
	if _, err := ApplyUpdate(base, UpdatePlayerInput{Attributes: &bad}, nil); err == nil {
		t.Fatal("expected out-of-range attribute update to fail")
	}
}
