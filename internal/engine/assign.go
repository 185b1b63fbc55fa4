package engine

import "sort"

// maxImprovementIterations caps Phase B so pathological inputs terminate.
// The cap is internal; callers cannot tune it.
const maxImprovementIterations = 200

// teamState tracks one team while groups are being distributed.
type teamState struct {
	groups []group
	size   int     // player count, not group count
	rating float64 // sum of member effective ratings
}

func (t teamState) average() float64 {
	if t.size == 0 {
		return 0
	}
	return t.rating / float64(t.size)
}

// assignment is the assigner's output: per-team group lists plus the
// separation edges that could not be honored.
type assignment struct {
	teams    []teamState
	violated map[groupPair]struct{}
}

// assignTeams distributes groups across k teams.
//
// Phase A seeds a feasible partition greedily: groups in descending rating
// order each go to the lowest-average team that respects both the size
// ceiling and the separation edges. When no team qualifies the size ceiling
// is relaxed first and the separation requirement last. Phase B then applies
// group swaps that shrink the rating spread without creating new separation
// violations or worsening size balance. Both phases are deterministic.
func assignTeams(rec reconciliation, k int) assignment {
	ordered := make([]group, len(rec.groups))
	copy(ordered, rec.groups)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].rating != ordered[j].rating {
			return ordered[i].rating > ordered[j].rating
		}
		return ordered[i].id < ordered[j].id
	})

	players := 0
	for _, g := range ordered {
		players += g.size
	}
	base := players / k
	extra := players % k

	teams := make([]teamState, k)

	sizeAllowed := func(ti int, g group) bool {
		newSize := teams[ti].size + g.size
		if newSize <= base {
			return true
		}
		if extra == 0 || newSize > base+1 {
			return false
		}
		// Only `extra` teams may end one player above base.
		over := 0
		for tj := range teams {
			if tj != ti && teams[tj].size > base {
				over++
			}
		}
		return over < extra
	}

	separationOK := func(ti int, g group) bool {
		for _, h := range teams[ti].groups {
			if _, bad := rec.separations[orderedGroupPair(g.id, h.id)]; bad {
				return false
			}
		}
		return true
	}

	pick := func(g group, allow func(int, group) bool) int {
		best := -1
		for ti := range teams {
			if !allow(ti, g) {
				continue
			}
			if best == -1 || teams[ti].average() < teams[best].average() {
				best = ti
			}
		}
		return best
	}

	both := func(ti int, g group) bool { return sizeAllowed(ti, g) && separationOK(ti, g) }
	any := func(int, group) bool { return true }

	for _, g := range ordered {
		ti := pick(g, both)
		if ti < 0 {
			ti = pick(g, separationOK) // relax size first
		}
		if ti < 0 {
			ti = pick(g, sizeAllowed) // separation is relaxed last
		}
		if ti < 0 {
			ti = pick(g, any)
		}
		teams[ti].groups = append(teams[ti].groups, g)
		teams[ti].size += g.size
		teams[ti].rating += g.rating
	}

	improve(teams, rec)

	return assignment{teams: teams, violated: violations(teams, rec)}
}

// improve runs Phase B: bounded steepest-descent swaps of group pairs.
func improve(teams []teamState, rec reconciliation) {
	for iter := 0; iter < maxImprovementIterations; iter++ {
		curViolated := violations(teams, rec)
		curSpread := ratingSpread(teams)
		curSizeSpread := sizeSpread(teams)

		bestGain := 1e-9
		bestTI, bestTJ, bestGI, bestGJ := -1, -1, -1, -1

		for ti := 0; ti < len(teams); ti++ {
			for tj := ti + 1; tj < len(teams); tj++ {
				for gi := range teams[ti].groups {
					for gj := range teams[tj].groups {
						swapGroups(teams, ti, tj, gi, gj)
						ok := sizeSpread(teams) <= curSizeSpread &&
							subsetOf(violations(teams, rec), curViolated)
						gain := curSpread - ratingSpread(teams)
						swapGroups(teams, ti, tj, gi, gj) // undo

						if ok && gain > bestGain {
							bestGain = gain
							bestTI, bestTJ, bestGI, bestGJ = ti, tj, gi, gj
						}
					}
				}
			}
		}

		if bestTI < 0 {
			return
		}
		swapGroups(teams, bestTI, bestTJ, bestGI, bestGJ)
	}
}

// swapGroups exchanges teams[ti].groups[gi] and teams[tj].groups[gj] in place.
func swapGroups(teams []teamState, ti, tj, gi, gj int) {
	a := teams[ti].groups[gi]
	b := teams[tj].groups[gj]
	teams[ti].groups[gi], teams[tj].groups[gj] = b, a
	teams[ti].size += b.size - a.size
	teams[tj].size += a.size - b.size
	teams[ti].rating += b.rating - a.rating
	teams[tj].rating += a.rating - b.rating
}

// violations reports every separation edge whose two groups share a team.
func violations(teams []teamState, rec reconciliation) map[groupPair]struct{} {
	out := make(map[groupPair]struct{})
	for _, t := range teams {
		for i := 0; i < len(t.groups); i++ {
			for j := i + 1; j < len(t.groups); j++ {
				edge := orderedGroupPair(t.groups[i].id, t.groups[j].id)
				if _, bad := rec.separations[edge]; bad {
					out[edge] = struct{}{}
				}
			}
		}
	}
	return out
}

func subsetOf(sub, super map[groupPair]struct{}) bool {
	for edge := range sub {
		if _, ok := super[edge]; !ok {
			return false
		}
	}
	return true
}

// ratingSpread is the gap between the highest and lowest non-empty team
// average rating.
func ratingSpread(teams []teamState) float64 {
	first := true
	var lo, hi float64
	for _, t := range teams {
		if t.size == 0 {
			continue
		}
		avg := t.average()
		if first {
			lo, hi = avg, avg
			first = false
			continue
		}
		if avg < lo {
			lo = avg
		}
		if avg > hi {
			hi = avg
		}
	}
	return hi - lo
}

// sizeSpread is the gap between the largest and smallest team head count,
// empty teams included.
func sizeSpread(teams []teamState) int {
	lo, hi := teams[0].size, teams[0].size
	for _, t := range teams[1:] {
		if t.size < lo {
			lo = t.size
		}
		if t.size > hi {
			hi = t.size
		}
	}
	return hi - lo
}
