package engine

import (
	"fmt"

	apperrors "github.com/teamsplit/teamsplit/internal/platform/errors"
)

// Rating bounds shared by base ratings and per-event overrides.
const (
	MinRating = 1.0
	MaxRating = 10.0
)

// resolveRatings derives each present player's effective rating: the
// override when one is supplied, the base rating otherwise. Both are
// validated defensively even though callers are expected to pre-validate.
// The returned order preserves the request's roster order for deterministic
// downstream iteration.
func resolveRatings(roster []RosterEntry) (map[string]float64, []string, error) {
	ratings := make(map[string]float64, len(roster))
	order := make([]string, 0, len(roster))

	for _, entry := range roster {
		if _, exists := ratings[entry.PlayerID]; exists {
			return nil, nil, apperrors.WithMetadata(
				apperrors.CodeEngineInvalidConstraint,
				fmt.Sprintf("player %s appears twice in the roster", entry.PlayerID),
				map[string]string{"player": entry.PlayerID},
			)
		}

		rating := entry.BaseRating
		if entry.Override != nil {
			rating = *entry.Override
		}
		if rating < MinRating || rating > MaxRating {
			return nil, nil, apperrors.WithMetadata(
				apperrors.CodeEngineInvalidRating,
				fmt.Sprintf("player %s has rating %.2f outside [%.0f,%.0f]", entry.PlayerID, rating, MinRating, MaxRating),
				map[string]string{"player": entry.PlayerID, "rating": fmt.Sprintf("%.2f", rating)},
			)
		}

		ratings[entry.PlayerID] = rating
		order = append(order, entry.PlayerID)
	}

	return ratings, order, nil
}
