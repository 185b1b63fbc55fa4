package engine

import (
	"errors"
	"testing"
)

func TestGenerateRejectsOverrideOutOfRange(t *testing.T) {
	over := 12.0
	_, err := Generate(Request{
		Roster: []RosterEntry{
			{PlayerID: "ana", BaseRating: 8, Override: &over},
			{PlayerID: "bruno", BaseRating: 7},
		},
		TeamCount: 2,
	})
	if !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating, got %v", err)
	}
}

func TestGenerateOverrideReplacesBaseRating(t *testing.T) {
	override := 2.0
	result, err := Generate(Request{
		Roster: []RosterEntry{
			{PlayerID: "ana", BaseRating: 9, Override: &override},
			{PlayerID: "bruno", BaseRating: 2},
			{PlayerID: "carla", BaseRating: 2},
			{PlayerID: "diego", BaseRating: 2},
		},
		TeamCount: 2,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// With the override every player is rated 2, so both averages match.
	for ti, team := range result.Teams {
		if team.AverageRating != 2 {
			t.Fatalf("team %d average %.1f, want 2.0 when overrides flatten ratings", ti, team.AverageRating)
		}
	}
}

func TestGenerateRejectsBaseRatingOutOfRange(t *testing.T) {
	_, err := Generate(Request{
		Roster: []RosterEntry{
			{PlayerID: "ana", BaseRating: 0.5},
			{PlayerID: "bruno", BaseRating: 7},
		},
		TeamCount: 2,
	})
	if !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating, got %v", err)
	}
}

func TestGenerateRejectsConstraintWithAbsentPlayer(t *testing.T) {
	_, err := Generate(Request{
		Roster: []RosterEntry{
			{PlayerID: "ana", BaseRating: 8},
			{PlayerID: "bruno", BaseRating: 7},
		},
		TeamCount: 2,
		Constraints: []Constraint{
			{Kind: Separate, PlayerA: "ana", PlayerB: "ghost"},
		},
	})
	if !errors.Is(err, ErrInvalidConstraint) {
		t.Fatalf("expected ErrInvalidConstraint, got %v", err)
	}
}

func TestGenerateRejectsSelfPairedConstraint(t *testing.T) {
	_, err := Generate(Request{
		Roster: []RosterEntry{
			{PlayerID: "ana", BaseRating: 8},
			{PlayerID: "bruno", BaseRating: 7},
		},
		TeamCount: 2,
		Constraints: []Constraint{
			{Kind: Link, PlayerA: "ana", PlayerB: "ana"},
		},
	})
	if !errors.Is(err, ErrInvalidConstraint) {
		t.Fatalf("expected ErrInvalidConstraint, got %v", err)
	}
}

func TestGenerateRejectsUnknownConstraintKind(t *testing.T) {
	_, err := Generate(Request{
		Roster: []RosterEntry{
			{PlayerID: "ana", BaseRating: 8},
			{PlayerID: "bruno", BaseRating: 7},
		},
		TeamCount: 2,
		Constraints: []Constraint{
			{Kind: ConstraintKind("friends"), PlayerA: "ana", PlayerB: "bruno"},
		},
	})
	if !errors.Is(err, ErrInvalidConstraint) {
		t.Fatalf("expected ErrInvalidConstraint, got %v", err)
	}
}

func TestGenerateRejectsDuplicateRosterEntry(t *testing.T) {
	_, err := Generate(Request{
		Roster: []RosterEntry{
			{PlayerID: "ana", BaseRating: 8},
			{PlayerID: "ana", BaseRating: 7},
			{PlayerID: "bruno", BaseRating: 6},
		},
		TeamCount: 2,
	})
	if !errors.Is(err, ErrInvalidConstraint) {
		t.Fatalf("expected ErrInvalidConstraint for duplicate roster entry, got %v", err)
	}
}
