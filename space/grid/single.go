package grid

import (
	"fmt"
	"math/rand"

	"abm/abmerr"
	"abm/identity"
	"abm/space"
)

// SingleSpace is the single-occupancy GridSpace: each cell holds at most
// one id, 0 meaning empty (identity.Empty), stored as a flat integer array
// rather than per-cell lists (spec §4.2.4).
type SingleSpace struct {
	dims        []int
	periodic    []bool
	metric      space.Metric
	cells       []identity.ID
	offsetCache map[int][]Pos
}

// NewSingle constructs a single-occupancy grid of the given extents.
func NewSingle(dims []int, periodic []bool, metric space.Metric) (*SingleSpace, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: grid must have at least one dimension", abmerr.ErrConfig)
	}
	if periodic == nil {
		periodic = make([]bool, len(dims))
	}
	if len(periodic) != len(dims) {
		return nil, fmt.Errorf("%w: periodic vector length must match dims", abmerr.ErrConfig)
	}
	total := 1
	for _, d := range dims {
		total *= d
	}
	return &SingleSpace{
		dims:        append([]int(nil), dims...),
		periodic:    append([]bool(nil), periodic...),
		metric:      metric,
		cells:       make([]identity.ID, total),
		offsetCache: map[int][]Pos{},
	}, nil
}

func (s *SingleSpace) Dims() []int { return append([]int(nil), s.dims...) }

func (s *SingleSpace) flatten(p Pos) (int, bool) {
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

// IDAt returns the occupant of pos, or identity.Empty.
func (s *SingleSpace) IDAt(pos Pos) (identity.ID, error) {
	idx, ok := s.flatten(pos)
	if !ok {
		return identity.Empty, fmt.Errorf("%w: position %v out of bounds", abmerr.ErrOutOfBounds, pos)
	}
	return s.cells[idx], nil
}

// AddAgentSingle occupies pos with id, failing with CellOccupied if pos is
// already taken.
func (s *SingleSpace) AddAgentSingle(id identity.ID, pos Pos) error {
	idx, ok := s.flatten(pos)
	if !ok {
		return fmt.Errorf("%w: position %v out of bounds", abmerr.ErrOutOfBounds, pos)
	}
	if s.cells[idx] != identity.Empty {
		return fmt.Errorf("%w: position %v already occupied by %d", abmerr.ErrCellOccupied, pos, s.cells[idx])
	}
	s.cells[idx] = id
	return nil
}

// RemoveFromSpace clears pos if it is occupied by id.
func (s *SingleSpace) RemoveFromSpace(id identity.ID, pos Pos) {
	idx, ok := s.flatten(pos)
	if !ok {
		return
	}
	if s.cells[idx] == id {
		s.cells[idx] = identity.Empty
	}
}

// MoveAgentSingle verifies newPos is empty, then atomically relocates id.
// The space is unchanged if newPos is occupied.
func (s *SingleSpace) MoveAgentSingle(id identity.ID, oldPos, newPos Pos) error {
	newIdx, ok := s.flatten(newPos)
	if !ok {
		return fmt.Errorf("%w: position %v out of bounds", abmerr.ErrOutOfBounds, newPos)
	}
	if s.cells[newIdx] != identity.Empty {
		return fmt.Errorf("%w: position %v already occupied by %d", abmerr.ErrCellOccupied, newPos, s.cells[newIdx])
	}
	s.RemoveFromSpace(id, oldPos)
	s.cells[newIdx] = id
	return nil
}

// IDsInPosition returns at most one id, matching the common discrete
// contract used by the generic space helpers.
func (s *SingleSpace) IDsInPosition(pos Pos) []identity.ID {
	id, err := s.IDAt(pos)
	if err != nil || id == identity.Empty {
		return nil
	}
	return []identity.ID{id}
}

// Positions enumerates every cell.
func (s *SingleSpace) Positions() []Pos {
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

func (s *SingleSpace) RandomPosition(rng *rand.Rand) Pos {
	p := make(Pos, len(s.dims))
	for i, d := range s.dims {
		p[i] = rng.Intn(d)
	}
	return p
}

func (s *SingleSpace) EmptyPosition(rng *rand.Rand) (Pos, error) {
	for i := 0; i < retryBudget; i++ {
		p := s.RandomPosition(rng)
		if id, _ := s.IDAt(p); id == identity.Empty {
			return p, nil
		}
	}
	empties := s.EmptyPositions()
	if len(empties) == 0 {
		return nil, fmt.Errorf("%w", abmerr.ErrNoEmptyPosition)
	}
	return empties[rng.Intn(len(empties))], nil
}

func (s *SingleSpace) EmptyPositions() []Pos {
	var out []Pos
	for _, p := range s.Positions() {
		if id, _ := s.IDAt(p); id == identity.Empty {
			out = append(out, p)
		}
	}
	return out
}

func (s *SingleSpace) offsetsWithin(r int) []Pos {
	if cached, ok := s.offsetCache[r]; ok {
		return cached
	}
	d := len(s.dims)
	var out []Pos
	cur := make(Pos, d)
	var rec func(axis int)
	rec = func(axis int) {
		if axis == d {
			if !isZero(cur) && s.withinRadius(cur, r) {
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

func (s *SingleSpace) withinRadius(offset Pos, r int) bool {
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
	default:
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

func (s *SingleSpace) NearbyPositions(pos Pos, r int) []Pos {
	offsets := s.offsetsWithin(r)
	out := make([]Pos, 0, len(offsets))
	for _, off := range offsets {
		cand := make(Pos, len(pos))
		ok := true
		for i := range pos {
			v := pos[i] + off[i]
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

func (s *SingleSpace) NearbyIDs(pos Pos, r int) []identity.ID {
	var out []identity.ID
	for _, p := range s.NearbyPositions(pos, r) {
		out = append(out, s.IDsInPosition(p)...)
	}
	return out
}

func (s *SingleSpace) Periodic(i int) bool { return s.periodic[i] }
func (s *SingleSpace) Metric() space.Metric { return s.metric }
