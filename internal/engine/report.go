package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
)

// buildResult assembles the final per-team rosters, average ratings, and the
// optional warning summarizing dropped and violated constraints.
func buildResult(asg assignment, rec reconciliation, ratings map[string]float64) Result {
	result := Result{Teams: make([]Team, len(asg.teams))}

	emptyTeams := 0
	for ti, t := range asg.teams {
		var members []string
		for _, g := range t.groups {
			members = append(members, g.members...)
		}
		sort.Strings(members)
		result.Teams[ti] = Team{
			Members:       members,
			AverageRating: teamAverage(members, ratings),
		}
		if len(members) == 0 {
			emptyTeams++
		}
	}

	var violated []PlayerPair
	for edge := range asg.violated {
		violated = append(violated, rec.sepOrigins[edge]...)
	}
	sortPairs(violated)

	if len(rec.dropped) == 0 && len(violated) == 0 && emptyTeams == 0 {
		return result
	}

	result.Warning = &Warning{
		DroppedSeparations:  rec.dropped,
		ViolatedSeparations: violated,
		EmptyTeams:          emptyTeams,
	}
	result.Warning.Message = composeWarning(rec.dropped, violated, emptyTeams)
	return result
}

// teamAverage recomputes the arithmetic mean of the members' effective
// ratings. It is never cached.
func teamAverage(members []string, ratings map[string]float64) float64 {
	values := make([]float64, 0, len(members))
	for _, id := range members {
		values = append(values, ratings[id])
	}
	return TeamAverage(values)
}

// TeamAverage is the display average for a set of effective ratings: the
// arithmetic mean rounded to one decimal place. An empty team averages 0.
func TeamAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, err := stats.Mean(stats.Float64Data(values))
	if err != nil {
		return 0
	}
	rounded, err := stats.Round(mean, 1)
	if err != nil {
		return mean
	}
	return rounded
}

// composeWarning builds a single human-readable message naming every
// affected player so the organizer can adjust the outcome manually.
func composeWarning(dropped, violated []PlayerPair, emptyTeams int) string {
	var parts []string
	for _, pair := range dropped {
		parts = append(parts, fmt.Sprintf(
			"%s and %s are both linked and separated; the separation was dropped",
			pair.PlayerA, pair.PlayerB,
		))
	}
	for _, pair := range violated {
		parts = append(parts, fmt.Sprintf(
			"%s and %s could not be kept on different teams",
			pair.PlayerA, pair.PlayerB,
		))
	}
	if emptyTeams == 1 {
		parts = append(parts, "1 team received no players")
	} else if emptyTeams > 1 {
		parts = append(parts, fmt.Sprintf("%d teams received no players", emptyTeams))
	}
	return strings.Join(parts, "; ")
}
