package engine

import (
	"fmt"
	"sort"

	apperrors "github.com/teamsplit/teamsplit/internal/platform/errors"
)

// group is the atomic assignment unit: the transitive closure of players
// joined by Link constraints. A player without links forms a singleton
// group. The group ID is its lexicographically smallest member, which makes
// grouping independent of constraint order.
type group struct {
	id      string
	members []string // ascending
	rating  float64  // sum of member effective ratings
	size    int
}

// groupPair is an unordered pair of group IDs, stored with a < b.
type groupPair struct {
	a, b string
}

// reconciliation is the output of the constraint reconciler: a partition of
// the roster into groups plus the group-level separation edge set.
type reconciliation struct {
	groups      []group
	groupOf     map[string]string            // player ID -> group ID
	separations map[groupPair]struct{}       // deduplicated group-level edges
	sepOrigins  map[groupPair][]PlayerPair   // originating player pairs per edge
	dropped     []PlayerPair                 // linked-and-separated conflicts
}

// reconcile validates the raw constraint list, merges Link constraints into
// groups via union-find, drops Separate constraints made unsatisfiable by
// linking, and lifts the survivors to deduplicated group-level edges.
func reconcile(ratings map[string]float64, order []string, constraints []Constraint) (reconciliation, error) {
	for _, c := range constraints {
		if err := validateConstraint(ratings, c); err != nil {
			return reconciliation{}, err
		}
	}

	// Disjoint-set forest over player IDs with path compression and union
	// by rank. Merging is idempotent and order-independent, so the final
	// partition is identical for any permutation of the constraint list.
	parent := make(map[string]string, len(order))
	rank := make(map[string]int, len(order))
	for _, id := range order {
		parent[id] = id
		rank[id] = 0
	}

	find := func(u string) string {
		for parent[u] != u {
			parent[u] = parent[parent[u]]
			u = parent[u]
		}
		return u
	}

	union := func(u, v string) {
		rootU := find(u)
		rootV := find(v)
		if rootU == rootV {
			return
		}
		if rank[rootU] < rank[rootV] {
			parent[rootU] = rootV
		} else {
			parent[rootV] = rootU
			if rank[rootU] == rank[rootV] {
				rank[rootU]++
			}
		}
	}

	for _, c := range constraints {
		if c.Kind == Link {
			union(c.PlayerA, c.PlayerB)
		}
	}

	// Collect members per root, then name each group after its smallest
	// member so group identity does not depend on union order.
	membersByRoot := make(map[string][]string)
	for _, id := range order {
		root := find(id)
		membersByRoot[root] = append(membersByRoot[root], id)
	}

	rec := reconciliation{
		groupOf:     make(map[string]string, len(order)),
		separations: make(map[groupPair]struct{}),
		sepOrigins:  make(map[groupPair][]PlayerPair),
	}
	for _, members := range membersByRoot {
		sort.Strings(members)
		g := group{id: members[0], members: members, size: len(members)}
		for _, m := range members {
			g.rating += ratings[m]
			rec.groupOf[m] = g.id
		}
		rec.groups = append(rec.groups, g)
	}
	sort.Slice(rec.groups, func(i, j int) bool { return rec.groups[i].id < rec.groups[j].id })

	// Separate constraints whose endpoints were linked together are
	// unsatisfiable by construction: drop them and record the conflict.
	// Survivors become group-level edges; duplicates collapse to one edge.
	droppedSeen := make(map[PlayerPair]struct{})
	for _, c := range constraints {
		if c.Kind != Separate {
			continue
		}
		ga := rec.groupOf[c.PlayerA]
		gb := rec.groupOf[c.PlayerB]
		pair := orderedPair(c.PlayerA, c.PlayerB)
		if ga == gb {
			if _, seen := droppedSeen[pair]; !seen {
				droppedSeen[pair] = struct{}{}
				rec.dropped = append(rec.dropped, pair)
			}
			continue
		}
		edge := orderedGroupPair(ga, gb)
		rec.separations[edge] = struct{}{}
		if !containsPair(rec.sepOrigins[edge], pair) {
			rec.sepOrigins[edge] = append(rec.sepOrigins[edge], pair)
		}
	}
	sortPairs(rec.dropped)
	for edge := range rec.sepOrigins {
		sortPairs(rec.sepOrigins[edge])
	}

	return rec, nil
}

func validateConstraint(ratings map[string]float64, c Constraint) error {
	if c.Kind != Link && c.Kind != Separate {
		return apperrors.WithMetadata(
			apperrors.CodeEngineInvalidConstraint,
			fmt.Sprintf("unknown constraint kind %q", string(c.Kind)),
			map[string]string{"kind": string(c.Kind)},
		)
	}
	if c.PlayerA == c.PlayerB {
		return apperrors.WithMetadata(
			apperrors.CodeEngineInvalidConstraint,
			fmt.Sprintf("constraint pairs player %s with itself", c.PlayerA),
			map[string]string{"player": c.PlayerA},
		)
	}
	for _, id := range []string{c.PlayerA, c.PlayerB} {
		if _, present := ratings[id]; !present {
			return apperrors.WithMetadata(
				apperrors.CodeEngineInvalidConstraint,
				fmt.Sprintf("constraint references absent player %s", id),
				map[string]string{"player": id},
			)
		}
	}
	return nil
}

func orderedGroupPair(a, b string) groupPair {
	if b < a {
		a, b = b, a
	}
	return groupPair{a: a, b: b}
}

func containsPair(pairs []PlayerPair, pair PlayerPair) bool {
	for _, p := range pairs {
		if p == pair {
			return true
		}
	}
	return false
}
