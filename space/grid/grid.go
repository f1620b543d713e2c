// Package grid implements the regular d-dimensional integer lattice space,
// both multi-occupancy (Space) and single-occupancy (SingleSpace) variants,
// per spec §4.2.3 and §4.2.4. Distance offsets for a given radius are
// computed once and cached, then reused and wrapped/clipped per query
// (periodic dimensions wrap modulo extent; bounded dimensions reject
// out-of-range offsets), mirroring the teacher's style of precomputing
// small lookup tables once (e.g. grid_world.Convert precomputes the whole
// state lattice up front rather than deriving cells on the fly).
package grid

import (
	"fmt"
	"math"
	"math/rand"

	"abm/abmerr"
	"abm/identity"
	"abm/space"
)

// Pos is a d-dimensional integer grid coordinate.
type Pos []int

func clonePos(p Pos) Pos {
	out := make(Pos, len(p))
	copy(out, p)
	return out
}

func equalPos(a, b Pos) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Space is the multi-occupancy GridSpace: any number of agents may share a
// cell.
type Space struct {
	dims        []int
	periodic    []bool
	metric      space.Metric
	cells       map[int][]identity.ID
	offsetCache map[int][]Pos
}

// New constructs a grid of the given per-dimension extents. periodic may be
// nil (all dimensions bounded) or must have the same length as dims.
func New(dims []int, periodic []bool, metric space.Metric) (*Space, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: grid must have at least one dimension", abmerr.ErrConfig)
	}
	if periodic == nil {
		periodic = make([]bool, len(dims))
	}
	if len(periodic) != len(dims) {
		return nil, fmt.Errorf("%w: periodic vector length must match dims", abmerr.ErrConfig)
	}
	return &Space{
		dims:        append([]int(nil), dims...),
		periodic:    append([]bool(nil), periodic...),
		metric:      metric,
		cells:       map[int][]identity.ID{},
		offsetCache: map[int][]Pos{},
	}, nil
}

// Dims returns the per-dimension extents.
func (s *Space) Dims() []int { return append([]int(nil), s.dims...) }

func (s *Space) flatten(p Pos) (int, bool) {
	idx := 0
	stride := 1
	for i, v := range p {
		w, ok := space.WrapIndex(v, s.dims[i], s.periodic[i])
		if !ok {
			return 0, false
		}
		idx += w * stride
		stride *= s.dims[i]
	}
	return idx, true
}

// normalize wraps/validates a position, returning the canonical (wrapped)
// position and whether it lies within the grid.
func (s *Space) normalize(p Pos) (Pos, bool) {
	out := make(Pos, len(p))
	for i, v := range p {
		w, ok := space.WrapIndex(v, s.dims[i], s.periodic[i])
		if !ok {
			return nil, false
		}
		out[i] = w
	}
	return out, true
}

// AddToSpace registers id at pos.
func (s *Space) AddToSpace(id identity.ID, pos Pos) error {
	np, ok := s.normalize(pos)
	if !ok {
		return fmt.Errorf("%w: position %v out of bounds", abmerr.ErrOutOfBounds, pos)
	}
	key, _ := s.flatten(np)
	s.cells[key] = append(s.cells[key], id)
	return nil
}

// RemoveFromSpace deregisters id from pos.
func (s *Space) RemoveFromSpace(id identity.ID, pos Pos) {
	np, ok := s.normalize(pos)
	if !ok {
		return
	}
	key, _ := s.flatten(np)
	ids := s.cells[key]
	for i, existing := range ids {
		if existing == id {
			s.cells[key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// MoveAgent atomically re-indexes id from oldPos to newPos. On failure the
// space is left unchanged.
func (s *Space) MoveAgent(id identity.ID, oldPos, newPos Pos) error {
	np, ok := s.normalize(newPos)
	if !ok {
		return fmt.Errorf("%w: position %v out of bounds", abmerr.ErrOutOfBounds, newPos)
	}
	s.RemoveFromSpace(id, oldPos)
	key, _ := s.flatten(np)
	s.cells[key] = append(s.cells[key], id)
	return nil
}

// IDsInPosition returns the ids occupying pos.
func (s *Space) IDsInPosition(pos Pos) []identity.ID {
	np, ok := s.normalize(pos)
	if !ok {
		return nil
	}
	key, _ := s.flatten(np)
	return append([]identity.ID(nil), s.cells[key]...)
}

// Positions enumerates every cell in the grid.
func (s *Space) Positions() []Pos {
	total := 1
	for _, d := range s.dims {
		total *= d
	}
	out := make([]Pos, 0, total)
	cur := make(Pos, len(s.dims))
	var rec func(axis int)
	rec = func(axis int) {
		if axis == len(s.dims) {
			out = append(out, clonePos(cur))
			return
		}
		for v := 0; v < s.dims[axis]; v++ {
			cur[axis] = v
			rec(axis + 1)
		}
	}
	rec(0)
	return out
}

// RandomPosition draws a uniformly random cell.
func (s *Space) RandomPosition(rng *rand.Rand) Pos {
	p := make(Pos, len(s.dims))
	for i, d := range s.dims {
		p[i] = rng.Intn(d)
	}
	return p
}

// EmptyPosition samples until it finds an empty cell, falling back to a
// full scan of Positions() after retryBudget attempts, per spec's
// "random_empty samples until an empty cell is found, with a tunable retry
// budget before falling back to building the set of empties."
const retryBudget = 100

func (s *Space) EmptyPosition(rng *rand.Rand) (Pos, error) {
	for i := 0; i < retryBudget; i++ {
		p := s.RandomPosition(rng)
		if len(s.IDsInPosition(p)) == 0 {
			return p, nil
		}
	}
	empties := s.EmptyPositions()
	if len(empties) == 0 {
		return nil, fmt.Errorf("%w", abmerr.ErrNoEmptyPosition)
	}
	return empties[rng.Intn(len(empties))], nil
}

// EmptyPositions returns every cell with zero occupants.
func (s *Space) EmptyPositions() []Pos {
	var out []Pos
	for _, p := range s.Positions() {
		if len(s.IDsInPosition(p)) == 0 {
			out = append(out, p)
		}
	}
	return out
}

// offsetsWithin returns cached integer offsets from the origin whose
// metric-distance is <= r, growing the cache on demand (keyed by r).
func (s *Space) offsetsWithin(r int) []Pos {
	if cached, ok := s.offsetCache[r]; ok {
		return cached
	}
	d := len(s.dims)
	var out []Pos
	cur := make(Pos, d)
	var rec func(axis int)
	rec = func(axis int) {
		if axis == d {
			if !(isZero(cur)) && s.withinRadius(cur, r) {
				out = append(out, clonePos(cur))
			}
			return
		}
		for v := -r; v <= r; v++ {
			cur[axis] = v
			rec(axis + 1)
		}
	}
	rec(0)
	s.offsetCache[r] = out
	return out
}

func isZero(p Pos) bool {
	for _, v := range p {
		if v != 0 {
			return false
		}
	}
	return true
}

func (s *Space) withinRadius(offset Pos, r int) bool {
	switch s.metric {
	case space.Manhattan:
		sum := 0
		for _, v := range offset {
			if v < 0 {
				v = -v
			}
			sum += v
		}
		return sum <= r
	case space.Euclidean:
		sum := 0.0
		for _, v := range offset {
			sum += float64(v * v)
		}
		return sum <= float64(r*r)
	default: // Chebyshev
		maxAbs := 0
		for _, v := range offset {
			if v < 0 {
				v = -v
			}
			if v > maxAbs {
				maxAbs = v
			}
		}
		return maxAbs <= r
	}
}

// nearWall reports whether pos is within r of a non-periodic wall in
// any dimension, in which case the inner loop cannot skip bounds checks.
func (s *Space) nearWall(pos Pos, r int) bool {
	for i, v := range pos {
		if s.periodic[i] {
			continue
		}
		if v < r || v >= s.dims[i]-r {
			return true
		}
	}
	return false
}

// NearbyPositions returns the distinct grid cells within radius r of pos
// (pos itself is never included, so r==0 yields no cells).
func (s *Space) NearbyPositions(pos Pos, r int) []Pos {
	offsets := s.offsetsWithin(r)
	fastPath := !s.nearWall(pos, r)
	out := make([]Pos, 0, len(offsets))
	for _, off := range offsets {
		cand := make(Pos, len(pos))
		ok := true
		for i := range pos {
			v := pos[i] + off[i]
			if fastPath && !s.periodic[i] {
				cand[i] = v
				continue
			}
			w, inBounds := space.WrapIndex(v, s.dims[i], s.periodic[i])
			if !inBounds {
				ok = false
				break
			}
			cand[i] = w
		}
		if ok {
			out = append(out, cand)
		}
	}
	return out
}

// NearbyIDs returns every agent id within radius r of pos, across every
// matching cell.
func (s *Space) NearbyIDs(pos Pos, r int) []identity.ID {
	var out []identity.ID
	for _, p := range s.NearbyPositions(pos, r) {
		out = append(out, s.IDsInPosition(p)...)
	}
	return out
}

// NearbyIDsExcluding behaves like NearbyIDs but omits self, matching the
// "excludes self when queried from an agent" contract (scenario S2).
func (s *Space) NearbyIDsExcluding(pos Pos, r int, self identity.ID) []identity.ID {
	ids := s.NearbyIDs(pos, r)
	out := ids[:0]
	for _, id := range ids {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}

// EuclideanDistance matches the general euclidean_distance operation,
// respecting periodicity via minimum-image convention.
func (s *Space) EuclideanDistance(a, b Pos) float64 {
	sum := 0.0
	for i := range a {
		d := float64(a[i] - b[i])
		if s.periodic[i] {
			extent := float64(s.dims[i])
			if d > extent/2 {
				d -= extent
			} else if d < -extent/2 {
				d += extent
			}
		}
		sum += d * d
	}
	return math.Sqrt(sum)
}

// ManhattanDistance sums per-axis absolute displacement, respecting
// periodicity.
func (s *Space) ManhattanDistance(a, b Pos) int {
	sum := 0
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if s.periodic[i] {
			extent := s.dims[i]
			if wrapped := extent - d; wrapped < d {
				d = wrapped
			}
		}
		sum += d
	}
	return sum
}

// Periodic reports whether dimension i wraps.
func (s *Space) Periodic(i int) bool { return s.periodic[i] }

// Metric returns the fixed distance metric.
func (s *Space) Metric() space.Metric { return s.metric }
