// Package pathfinder implements A* route planning over grid and continuous
// spaces per spec §4.7: pluggable cost metrics, Moore/Von-Neumann
// neighborhoods, admissibility-inflated heuristics, and an arena of
// per-agent routes keyed by AgentID (per Design Note "Pathfinder route
// storage ... because agents may be removed mid-step").
package pathfinder

import "sort"

// CostMetric computes both the true edge cost between adjacent grid cells
// (StepCost) and the admissible heuristic estimate for an arbitrary
// displacement (DeltaCost), the "delta_cost" of spec §4.7. Both receive the
// per-axis signed displacement of the move/estimate in question.
type CostMetric interface {
	StepCost(delta []int) float64
	DeltaCost(delta []int) float64
}

func absInts(delta []int) []int {
	out := make([]int, len(delta))
	for i, d := range delta {
		if d < 0 {
			d = -d
		}
		out[i] = d
	}
	return out
}

// diagonalDistance implements the general n-dimensional diagonal-distance
// formula: sort |Δ| ascending a_1<=...<=a_n, a_0=0, and sum
// (a_i - a_{i-1}) * costs[n-i] (costs indexed 0-based, costs[0] is the
// pure-orthogonal single-axis cost, costs[n-1] the all-axes-diagonal cost).
// For d=2 with costs=[10,14] this reproduces the classical "diagonal steps
// cost 14, orthogonal steps cost 10".
func diagonalDistance(delta []int, costs []int) float64 {
	a := absInts(delta)
	sort.Ints(a)
	n := len(a)
	total := 0.0
	prev := 0
	for i := 0; i < n; i++ {
		costIdx := n - 1 - i
		if costIdx >= len(costs) {
			costIdx = len(costs) - 1
		}
		total += float64(a[i]-prev) * float64(costs[costIdx])
		prev = a[i]
	}
	return total
}

// DirectDistance is the default cost metric: direction_costs indexed by how
// many orthogonal steps the displacement comprises (default [10, 14] for
// d=2, "Chebyshev-like" per spec).
type DirectDistance struct {
	Costs []int
}

// DefaultDirectionCosts is the classical 2D diagonal/orthogonal cost pair.
var DefaultDirectionCosts = []int{10, 14}

func (m DirectDistance) StepCost(delta []int) float64  { return m.DeltaCost(delta) }
func (m DirectDistance) DeltaCost(delta []int) float64 { return diagonalDistance(delta, m.Costs) }

// MaxDistance is pure Chebyshev: cost equals the largest per-axis
// displacement.
type MaxDistance struct{}

func (MaxDistance) StepCost(delta []int) float64 { return MaxDistance{}.DeltaCost(delta) }
func (MaxDistance) DeltaCost(delta []int) float64 {
	max := 0
	for _, d := range absInts(delta) {
		if d > max {
			max = d
		}
	}
	return float64(max)
}

// PenaltyMap adds the absolute difference of PMap between an edge's two
// endpoints to Base's step cost; PMap is indexed by the grid's flattened
// cell index (the same indexing Grid uses internally), and is exposed
// mutable-in-place via Grid.PenaltyMapValues(). The heuristic is left to Base
// alone: since penalties are always non-negative, Base's heuristic stays
// admissible (it can only underestimate the penalty-augmented true cost).
type PenaltyMap struct {
	Base CostMetric
	PMap []float64
}

func (p PenaltyMap) StepCost(delta []int) float64  { return p.Base.StepCost(delta) }
func (p PenaltyMap) DeltaCost(delta []int) float64 { return p.Base.DeltaCost(delta) }
