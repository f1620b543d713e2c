// Package continuous implements d-dimensional real space with optional
// per-dimension periodicity (spec §4.2.5). Internally it overlays a
// bucket grid of side `spacing` (each bucket holding any number of ids) over the continuous
// coordinates, the same dual-layer trick the design notes call for:
// floor-divide each coordinate by spacing to get a bucket, then do ordinary
// grid-style neighbor search over buckets before refining by true distance.
package continuous

import (
	"fmt"
	"math"
	"math/rand"

	"abm/abmerr"
	"abm/agent"
	"abm/identity"
)

// Pos is a d-dimensional real coordinate (also used as the velocity
// representation for Kinetic agents in this space).
type Pos []float64

func clonePos(p Pos) Pos {
	out := make(Pos, len(p))
	copy(out, p)
	return out
}

// Space is the continuous-space bucket index.
type Space struct {
	extent   []float64
	periodic []bool
	spacing  float64
	bdims    []int
	buckets  map[int][]identity.ID
}

// New constructs a continuous space of the given extents and uniform
// bucket spacing.
func New(extent []float64, spacing float64, periodic []bool) (*Space, error) {
	if len(extent) == 0 {
		return nil, fmt.Errorf("%w: continuous space must have at least one dimension", abmerr.ErrConfig)
	}
	if spacing <= 0 {
		return nil, fmt.Errorf("%w: spacing must be positive", abmerr.ErrConfig)
	}
	if periodic == nil {
		periodic = make([]bool, len(extent))
	}
	bdims := make([]int, len(extent))
	for i, e := range extent {
		bdims[i] = int(math.Ceil(e/spacing)) + 1
	}
	return &Space{
		extent:   append([]float64(nil), extent...),
		periodic: append([]bool(nil), periodic...),
		spacing:  spacing,
		bdims:    bdims,
		buckets:  map[int][]identity.ID{},
	}, nil
}

func (s *Space) bucketIndex(p Pos) int {
	idx := 0
	stride := 1
	for i, v := range p {
		b := int(math.Floor(v / s.spacing))
		if b < 0 {
			b = 0
		}
		if b >= s.bdims[i] {
			b = s.bdims[i] - 1
		}
		idx += b * stride
		stride *= s.bdims[i]
	}
	return idx
}

// Normalize wraps periodic dimensions modulo extent and rejects
// out-of-range moves on non-periodic dimensions (invariant 6).
func (s *Space) Normalize(p Pos) (Pos, error) {
	out := make(Pos, len(p))
	for i, v := range p {
		if s.periodic[i] {
			v = math.Mod(v, s.extent[i])
			if v < 0 {
				v += s.extent[i]
			}
		} else if v < 0 || v >= s.extent[i] {
			return nil, fmt.Errorf("%w: coordinate %g out of [0,%g)", abmerr.ErrOutOfBounds, v, s.extent[i])
		}
		out[i] = v
	}
	return out, nil
}

// AddToSpace registers id at pos (assumed already normalized).
func (s *Space) AddToSpace(id identity.ID, pos Pos) {
	b := s.bucketIndex(pos)
	s.buckets[b] = append(s.buckets[b], id)
}

// RemoveFromSpace deregisters id from pos's bucket.
func (s *Space) RemoveFromSpace(id identity.ID, pos Pos) {
	b := s.bucketIndex(pos)
	ids := s.buckets[b]
	for i, existing := range ids {
		if existing == id {
			s.buckets[b] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

// Reindex moves id's bucket membership from oldPos to newPos.
func (s *Space) Reindex(id identity.ID, oldPos, newPos Pos) {
	s.RemoveFromSpace(id, oldPos)
	s.AddToSpace(id, newPos)
}

// RandomPosition draws a uniformly random point in the space.
func (s *Space) RandomPosition(rng *rand.Rand) Pos {
	p := make(Pos, len(s.extent))
	for i, e := range s.extent {
		p[i] = rng.Float64() * e
	}
	return p
}

// radiusInBuckets returns how many buckets to scan on each side for a
// query radius r: ceil(r/spacing) plus one bucket of slack so agents near a
// bucket boundary are never missed (the "adjustment" spec calls for).
func (s *Space) radiusInBuckets(r float64) int {
	return int(math.Ceil(r/s.spacing)) + 1
}

// NearbyIDsInexact enumerates every agent id in buckets overlapping the
// ball of radius r around pos: a superset guarantee (spec testable
// property 5), cheap because it never computes true distance.
func (s *Space) NearbyIDsInexact(pos Pos, r float64) []identity.ID {
	br := s.radiusInBuckets(r)
	d := len(s.extent)
	centerBucket := make([]int, d)
	for i, v := range pos {
		b := int(math.Floor(v / s.spacing))
		centerBucket[i] = b
	}

	var out []identity.ID
	cur := make([]int, d)
	var rec func(axis int)
	rec = func(axis int) {
		if axis == d {
			idx := 0
			stride := 1
			for i, b := range cur {
				w := b
				if s.periodic[i] {
					w = ((w % s.bdims[i]) + s.bdims[i]) % s.bdims[i]
				} else if w < 0 || w >= s.bdims[i] {
					return
				}
				idx += w * stride
				stride *= s.bdims[i]
			}
			out = append(out, s.buckets[idx]...)
			return
		}
		for off := -br; off <= br; off++ {
			cur[axis] = centerBucket[axis] + off
			rec(axis + 1)
		}
	}
	rec(0)
	return out
}

// Distance computes Euclidean distance between a and b, applying
// periodic minimum-image convention on periodic dimensions.
func (s *Space) Distance(a, b Pos) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		if s.periodic[i] {
			half := s.extent[i] / 2
			if d > half {
				d -= s.extent[i]
			} else if d < -half {
				d += s.extent[i]
			}
		}
		sum += d * d
	}
	return math.Sqrt(sum)
}

// NearbyIDsExact filters NearbyIDsInexact by true Euclidean distance,
// using lookup to resolve an id's current position.
func NearbyIDsExact[A agent.Spatial[Pos]](s *Space, pos Pos, r float64, lookup func(identity.ID) (A, bool)) []identity.ID {
	candidates := s.NearbyIDsInexact(pos, r)
	out := candidates[:0]
	for _, id := range candidates {
		a, ok := lookup(id)
		if !ok {
			continue
		}
		if s.Distance(pos, a.Pos()) <= r {
			out = append(out, id)
		}
	}
	return out
}

// MoveAgent sets a's position to pos + vel*dt (wrapped, or rejected with an
// error, per Normalize) and reindexes the space.
func MoveAgent[A agent.Kinetic[Pos]](s *Space, a A, dt float64) error {
	vel := a.Vel()
	delta := make(Pos, len(vel))
	for i, v := range vel {
		delta[i] = v * dt
	}
	return Walk(s, a, delta)
}

// Walk displaces a by delta and reindexes the space. The new position goes
// through Normalize, so an out-of-range move on a non-periodic dimension
// returns an error and leaves a where it was.
func Walk[A agent.Kinetic[Pos]](s *Space, a A, delta Pos) error {
	old := a.Pos()
	raw := make(Pos, len(old))
	for i := range old {
		raw[i] = old[i] + delta[i]
	}
	newPos, err := s.Normalize(raw)
	if err != nil {
		return err
	}
	s.Reindex(a.AgentID(), old, newPos)
	a.SetPos(newPos)
	return nil
}

// PairMethod selects the interacting_pairs enumeration strategy.
type PairMethod int

const (
	PairAll PairMethod = iota
	PairNearest
	PairScheduler
	PairTypes
)

// Pair is an unordered agent id pair within the interaction radius.
type Pair struct {
	A, B identity.ID
}

// InteractingPairs enumerates agent pairs within radius r according to
// method. schedulerOrder is only consulted for PairScheduler.
// differentVariant(a,b) is only consulted for PairTypes.
func InteractingPairs[A agent.Spatial[Pos]](
	s *Space,
	agents []A,
	r float64,
	method PairMethod,
	schedulerOrder []identity.ID,
	differentVariant func(a, b A) bool,
) []Pair {
	byID := make(map[identity.ID]A, len(agents))
	for _, a := range agents {
		byID[a.AgentID()] = a
	}
	lookup := func(id identity.ID) (A, bool) {
		a, ok := byID[id]
		return a, ok
	}

	switch method {
	case PairNearest:
		var pairs []Pair
		paired := map[identity.ID]bool{}
		for _, a := range agents {
			if paired[a.AgentID()] {
				continue
			}
			var best identity.ID
			bestDist := math.Inf(1)
			found := false
			for _, id := range NearbyIDsExact[A](s, a.Pos(), r, lookup) {
				if id == a.AgentID() || paired[id] {
					continue
				}
				d := s.Distance(a.Pos(), byID[id].Pos())
				if d < bestDist || (d == bestDist && id < best) {
					bestDist = d
					best = id
					found = true
				}
			}
			if found {
				pairs = append(pairs, Pair{A: a.AgentID(), B: best})
				paired[a.AgentID()] = true
				paired[best] = true
			}
		}
		return pairs
	case PairScheduler:
		var pairs []Pair
		paired := map[identity.ID]bool{}
		for _, id := range schedulerOrder {
			if paired[id] {
				continue
			}
			a, ok := byID[id]
			if !ok {
				continue
			}
			for _, cand := range NearbyIDsExact[A](s, a.Pos(), r, lookup) {
				if cand == id || paired[cand] {
					continue
				}
				pairs = append(pairs, Pair{A: id, B: cand})
				paired[id] = true
				paired[cand] = true
				break
			}
		}
		return pairs
	default: // PairAll, PairTypes
		seen := map[[2]identity.ID]bool{}
		var pairs []Pair
		for _, a := range agents {
			for _, id := range NearbyIDsExact[A](s, a.Pos(), r, lookup) {
				if id == a.AgentID() {
					continue
				}
				b := byID[id]
				if method == PairTypes && !differentVariant(a, b) {
					continue
				}
				key := [2]identity.ID{a.AgentID(), id}
				if key[0] > key[1] {
					key[0], key[1] = key[1], key[0]
				}
				if seen[key] {
					continue
				}
				seen[key] = true
				pairs = append(pairs, Pair{A: key[0], B: key[1]})
			}
		}
		return pairs
	}
}

// ElasticCollision implements classical 1D-along-centerline elastic
// collision between a and b. Infinite mass (massA or massB == +Inf) makes
// that body a no-op wall. Returns false (no mutation) if the bodies are
// already separating along the centerline.
func ElasticCollision[A agent.Kinetic[Pos]](a, b A, massA, massB float64) bool {
	d := len(a.Pos())
	diff := make([]float64, d)
	dist2 := 0.0
	for i := 0; i < d; i++ {
		diff[i] = b.Pos()[i] - a.Pos()[i]
		dist2 += diff[i] * diff[i]
	}
	if dist2 == 0 {
		return false
	}

	relVel := 0.0
	for i := 0; i < d; i++ {
		relVel += (a.Vel()[i] - b.Vel()[i]) * diff[i]
	}
	if relVel <= 0 {
		// Separating or parallel: no collision response.
		return false
	}

	infA := math.IsInf(massA, 1)
	infB := math.IsInf(massB, 1)
	if infA && infB {
		return false
	}

	var coefA, coefB float64
	switch {
	case infA:
		coefB = 2 * relVel / dist2
	case infB:
		coefA = 2 * relVel / dist2
	default:
		total := massA + massB
		coefA = (2 * massB / total) * relVel / dist2
		coefB = (2 * massA / total) * relVel / dist2
	}

	newVelA := append([]float64(nil), a.Vel()...)
	newVelB := append([]float64(nil), b.Vel()...)
	if !infA {
		for i := 0; i < d; i++ {
			newVelA[i] -= coefA * diff[i]
		}
	}
	if !infB {
		for i := 0; i < d; i++ {
			newVelB[i] += coefB * diff[i]
		}
	}
	a.SetVel(newVelA)
	b.SetVel(newVelB)
	return true
}

// RandomWalk samples a new velocity direction on the unit hypersphere
// (d>=2) via polar/azimuthal (nil means uniform), scales it to magnitude r,
// and advances the agent by one unit of time along the new velocity.
func RandomWalk[A agent.Kinetic[Pos]](s *Space, rng *rand.Rand, a A, r float64, polar, azimuthal func(*rand.Rand) float64) error {
	d := len(a.Pos())
	dir := make([]float64, d)
	switch d {
	case 2:
		theta := 2 * math.Pi * rng.Float64()
		if azimuthal != nil {
			theta = azimuthal(rng)
		}
		dir[0] = math.Cos(theta)
		dir[1] = math.Sin(theta)
	case 3:
		theta := math.Acos(1 - 2*rng.Float64())
		if polar != nil {
			theta = polar(rng)
		}
		phi := 2 * math.Pi * rng.Float64()
		if azimuthal != nil {
			phi = azimuthal(rng)
		}
		dir[0] = math.Sin(theta) * math.Cos(phi)
		dir[1] = math.Sin(theta) * math.Sin(phi)
		dir[2] = math.Cos(theta)
	default:
		// Higher dimensions: normalize a Gaussian vector (uniform on S^{d-1}).
		norm := 0.0
		for i := 0; i < d; i++ {
			dir[i] = rng.NormFloat64()
			norm += dir[i] * dir[i]
		}
		norm = math.Sqrt(norm)
		for i := 0; i < d; i++ {
			dir[i] /= norm
		}
	}

	vel := make(Pos, d)
	for i := range dir {
		vel[i] = dir[i] * r
	}
	a.SetVel(vel)
	return MoveAgent(s, a, 1)
}
