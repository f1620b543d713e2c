package pathfinder

import (
	"container/heap"
	"fmt"
	"math/rand"

	"abm/abmerr"
	"abm/identity"
	"abm/space"
	"abm/space/grid"
)

// Neighborhood selects which adjacent cells A* expands into.
type Neighborhood int

const (
	Moore Neighborhood = iota
	VonNeumann
)

// offsets enumerates the unit-step neighbor displacements for d dimensions.
func offsets(d int, nh Neighborhood) []grid.Pos {
	if nh == VonNeumann {
		var out []grid.Pos
		for axis := 0; axis < d; axis++ {
			for _, sign := range []int{-1, 1} {
				off := make(grid.Pos, d)
				off[axis] = sign
				out = append(out, off)
			}
		}
		return out
	}
	var out []grid.Pos
	cur := make(grid.Pos, d)
	var rec func(axis int)
	rec = func(axis int) {
		if axis == d {
			zero := true
			for _, v := range cur {
				if v != 0 {
					zero = false
					break
				}
			}
			if !zero {
				out = append(out, append(grid.Pos(nil), cur...))
			}
			return
		}
		for v := -1; v <= 1; v++ {
			cur[axis] = v
			rec(axis + 1)
		}
	}
	rec(0)
	return out
}

// Route is an agent's pending path: a reversed stack of grid cells (pop
// from the tail) plus its total planned cost.
type Route struct {
	remaining []grid.Pos
	cost      float64
}

// Grid is an A* planner over a GridSpace-shaped walkmap: dims/periodic
// mirror the underlying space (Design Note "periodicity inherited from the
// underlying space"), walkable gates which cells are traversable, and
// heightmap is an optional per-cell scalar exposed for domain use (terrain
// height, etc.) independent of any PenaltyMap cost metric in use.
type Grid struct {
	dims         []int
	periodic     []bool
	metric       CostMetric
	neighborhood Neighborhood
	epsilon      float64

	walkable  []bool
	heightmap []float64

	routes map[identity.ID]*Route
}

// NewGrid constructs a pathfinder grid of the given shape, all cells
// walkable by default.
func NewGrid(dims []int, periodic []bool, metric CostMetric, nh Neighborhood, epsilon float64) (*Grid, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: pathfinder grid must have at least one dimension", abmerr.ErrConfig)
	}
	if epsilon < 0 {
		return nil, fmt.Errorf("%w: admissibility epsilon must be >= 0", abmerr.ErrConfig)
	}
	if periodic == nil {
		periodic = make([]bool, len(dims))
	}
	total := 1
	for _, d := range dims {
		total *= d
	}
	walkable := make([]bool, total)
	for i := range walkable {
		walkable[i] = true
	}
	if metric == nil {
		metric = DirectDistance{Costs: DefaultDirectionCosts}
	}
	return &Grid{
		dims: append([]int(nil), dims...), periodic: append([]bool(nil), periodic...),
		metric: metric, neighborhood: nh, epsilon: epsilon,
		walkable: walkable, heightmap: make([]float64, total),
		routes: map[identity.ID]*Route{},
	}, nil
}

func (g *Grid) flatten(p grid.Pos) (int, bool) {
	idx, stride := 0, 1
	for i, v := range p {
		w, ok := space.WrapIndex(v, g.dims[i], g.periodic[i])
		if !ok {
			return 0, false
		}
		idx += w * stride
		stride *= g.dims[i]
	}
	return idx, true
}

func (g *Grid) wrap(p grid.Pos) (grid.Pos, bool) {
	out := make(grid.Pos, len(p))
	for i, v := range p {
		w, ok := space.WrapIndex(v, g.dims[i], g.periodic[i])
		if !ok {
			return nil, false
		}
		out[i] = w
	}
	return out, true
}

// SetWalkable marks pos traversable or not.
func (g *Grid) SetWalkable(pos grid.Pos, walkable bool) {
	if idx, ok := g.flatten(pos); ok {
		g.walkable[idx] = walkable
	}
}

// IsWalkable reports whether pos can be entered.
func (g *Grid) IsWalkable(pos grid.Pos) bool {
	idx, ok := g.flatten(pos)
	return ok && g.walkable[idx]
}

// Heightmap returns the mutable-in-place per-cell height slice, indexed by
// Grid's own flattened cell order.
func (g *Grid) Heightmap() []float64 { return g.heightmap }

// PenaltyMapValues returns the PMap of the active PenaltyMap cost metric, or nil
// if the grid wasn't constructed with one.
func (g *Grid) PenaltyMapValues() []float64 {
	if pm, ok := g.metric.(PenaltyMap); ok {
		return pm.PMap
	}
	return nil
}

func deltaOf(a, b grid.Pos, periodic []bool, dims []int) []int {
	out := make([]int, len(a))
	for i := range a {
		d := b[i] - a[i]
		if periodic[i] {
			extent := dims[i]
			if d > extent/2 {
				d -= extent
			} else if d < -extent/2 {
				d += extent
			}
		}
		out[i] = d
	}
	return out
}

func (g *Grid) stepCost(from, to grid.Pos, fromIdx, toIdx int) float64 {
	delta := deltaOf(from, to, g.periodic, g.dims)
	if pm, ok := g.metric.(PenaltyMap); ok {
		base := pm.Base.StepCost(delta)
		diff := pm.PMap[toIdx] - pm.PMap[fromIdx]
		if diff < 0 {
			diff = -diff
		}
		return base + diff
	}
	return g.metric.StepCost(delta)
}

func (g *Grid) heuristic(from, to grid.Pos) float64 {
	delta := deltaOf(from, to, g.periodic, g.dims)
	h := g.metric.DeltaCost(delta)
	return h * (1 + g.epsilon)
}

// openItem is one A* frontier entry.
type openItem struct {
	idx   int
	pos   grid.Pos
	g, f  float64
	index int
}

type openQueue []*openItem

func (q openQueue) Len() int { return len(q) }
func (q openQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].g > q[j].g // tie-break: prefer larger g (closer to goal).
}
func (q openQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}
func (q *openQueue) Push(x interface{}) {
	item := x.(*openItem)
	item.index = len(*q)
	*q = append(*q, item)
}
func (q *openQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// search runs A* from start to dest, returning the path start..dest
// inclusive (in forward order) and its total cost, or an UnreachableTarget
// error.
func (g *Grid) search(start, dest grid.Pos) ([]grid.Pos, float64, error) {
	startIdx, ok := g.flatten(start)
	if !ok || !g.walkable[startIdx] {
		return nil, 0, fmt.Errorf("%w: start position not walkable", abmerr.ErrUnreachableTarget)
	}
	destIdx, ok := g.flatten(dest)
	if !ok || !g.walkable[destIdx] {
		return nil, 0, fmt.Errorf("%w: destination not walkable", abmerr.ErrUnreachableTarget)
	}

	d := len(g.dims)
	offs := offsets(d, g.neighborhood)

	gScore := map[int]float64{startIdx: 0}
	cameFrom := map[int]int{}
	posOf := map[int]grid.Pos{startIdx: start}

	open := &openQueue{{idx: startIdx, pos: start, g: 0, f: g.heuristic(start, dest)}}
	heap.Init(open)
	closed := map[int]bool{}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*openItem)
		if closed[cur.idx] {
			continue
		}
		closed[cur.idx] = true
		if cur.idx == destIdx {
			break
		}
		for _, off := range offs {
			candRaw := make(grid.Pos, d)
			for i := range cur.pos {
				candRaw[i] = cur.pos[i] + off[i]
			}
			cand, ok := g.wrap(candRaw)
			if !ok {
				continue
			}
			candIdx, _ := g.flatten(cand)
			if !g.walkable[candIdx] || closed[candIdx] {
				continue
			}
			tentative := cur.g + g.stepCost(cur.pos, cand, cur.idx, candIdx)
			if best, seen := gScore[candIdx]; seen && tentative >= best {
				continue
			}
			gScore[candIdx] = tentative
			cameFrom[candIdx] = cur.idx
			posOf[candIdx] = cand
			heap.Push(open, &openItem{idx: candIdx, pos: cand, g: tentative, f: tentative + g.heuristic(cand, dest)})
		}
	}

	finalG, ok := gScore[destIdx]
	if !ok {
		return nil, 0, fmt.Errorf("%w: no path from %v to %v", abmerr.ErrUnreachableTarget, start, dest)
	}

	var path []grid.Pos
	for idx := destIdx; ; {
		path = append([]grid.Pos{posOf[idx]}, path...)
		if idx == startIdx {
			break
		}
		idx = cameFrom[idx]
	}
	return path, finalG, nil
}

// PlanRoute computes the A* path from start to dest and stores it for id,
// overwriting any existing route (state machine: Idle/Routing -> Routing).
func (g *Grid) PlanRoute(id identity.ID, start, dest grid.Pos) error {
	path, cost, err := g.search(start, dest)
	if err != nil {
		return err
	}
	reversed := make([]grid.Pos, len(path)-1) // exclude start: already there.
	for i, p := range path[1:] {
		reversed[len(reversed)-1-i] = p
	}
	g.routes[id] = &Route{remaining: reversed, cost: cost}
	return nil
}

// PlanBestRoute plans to each of dests and keeps the one selected by
// condition ("shortest" or "longest" total cost).
func (g *Grid) PlanBestRoute(id identity.ID, start grid.Pos, dests []grid.Pos, longest bool) error {
	var best *Route
	var bestDest grid.Pos
	found := false
	for _, dest := range dests {
		path, cost, err := g.search(start, dest)
		if err != nil {
			continue
		}
		if !found || (longest && cost > best.cost) || (!longest && cost < best.cost) {
			reversed := make([]grid.Pos, len(path)-1)
			for i, p := range path[1:] {
				reversed[len(reversed)-1-i] = p
			}
			best = &Route{remaining: reversed, cost: cost}
			bestDest = dest
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: no reachable destination among %d candidates", abmerr.ErrUnreachableTarget, len(dests))
	}
	_ = bestDest
	g.routes[id] = best
	return nil
}

// PlanRandomRoute samples up to limit reachable cells and plans a route to
// the first one that succeeds.
func (g *Grid) PlanRandomRoute(rng *rand.Rand, id identity.ID, start grid.Pos, limit int) error {
	for i := 0; i < limit; i++ {
		dest := g.randomPos(rng)
		if err := g.PlanRoute(id, start, dest); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: no reachable destination found in %d samples", abmerr.ErrUnreachableTarget, limit)
}

func (g *Grid) randomPos(rng *rand.Rand) grid.Pos {
	p := make(grid.Pos, len(g.dims))
	for i, d := range g.dims {
		p[i] = rng.Intn(d)
	}
	return p
}

// IsStationary reports whether id has no route in progress.
func (g *Grid) IsStationary(id identity.ID) bool {
	r, ok := g.routes[id]
	return !ok || len(r.remaining) == 0
}

// MoveAlongRoute pops up to speed cells from id's route, returning the new
// position; a no-op (returns pos unchanged) if stationary.
func (g *Grid) MoveAlongRoute(id identity.ID, pos grid.Pos, speed int) grid.Pos {
	r, ok := g.routes[id]
	if !ok || len(r.remaining) == 0 {
		return pos
	}
	cur := pos
	for i := 0; i < speed && len(r.remaining) > 0; i++ {
		cur = r.remaining[len(r.remaining)-1]
		r.remaining = r.remaining[:len(r.remaining)-1]
	}
	return cur
}

// CancelRoute empties id's route (the spec's "cancellation: setting route
// to empty").
func (g *Grid) CancelRoute(id identity.ID) { delete(g.routes, id) }

// RemoveRoute drops id's route entirely, e.g. when the agent is removed
// from the model.
func (g *Grid) RemoveRoute(id identity.ID) { delete(g.routes, id) }

// NearbyWalkable returns the neighbors of pos (within the active
// neighborhood's immediate offsets) restricted to walkable cells.
func (g *Grid) NearbyWalkable(pos grid.Pos) []grid.Pos {
	d := len(g.dims)
	var out []grid.Pos
	for _, off := range offsets(d, g.neighborhood) {
		cand := make(grid.Pos, d)
		for i := range pos {
			cand[i] = pos[i] + off[i]
		}
		wrapped, ok := g.wrap(cand)
		if !ok {
			continue
		}
		if g.IsWalkable(wrapped) {
			out = append(out, wrapped)
		}
	}
	return out
}

// RandomWalkable rejection-samples a walkable position, optionally
// restricted to radius r of pos (r<0 means unrestricted).
func (g *Grid) RandomWalkable(rng *rand.Rand, pos grid.Pos, r int) (grid.Pos, error) {
	const budget = 200
	for i := 0; i < budget; i++ {
		var cand grid.Pos
		if r < 0 {
			cand = g.randomPos(rng)
		} else {
			d := len(g.dims)
			cand = make(grid.Pos, d)
			for axis := range pos {
				cand[axis] = pos[axis] + rng.Intn(2*r+1) - r
			}
			var ok bool
			cand, ok = g.wrap(cand)
			if !ok {
				continue
			}
		}
		if g.IsWalkable(cand) {
			return cand, nil
		}
	}
	return nil, fmt.Errorf("%w: no walkable cell found in %d samples", abmerr.ErrNoEmptyPosition, budget)
}
