// Package engine builds evenly matched teams from a match-day roster.
//
// A single call to Generate takes the present players with their effective
// ratings, a team count, and pairwise affinity constraints, and returns a
// partition of the roster into teams. The computation runs in four stages:
// rating resolution, constraint reconciliation (union-find over "link"
// constraints plus a separation edge set), greedy team assignment with
// bounded local improvement, and result reporting. The engine performs no
// I/O and keeps no state between calls; concurrent invocations are
// independent.
//
// Unsatisfiable constraint combinations never fail a request. They degrade
// to a best-effort partition with a warning naming the affected players.
package engine
