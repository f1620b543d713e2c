// Package osm implements OpenStreetMapSpace: agents live on a road network
// as an edge + scalar offset (spec §4.2.6). The underlying map is a
// weighted directed graph (weight = travel time); routing is plain
// Dijkstra since no graph library appears anywhere in the retrieved pack
// (see DESIGN.md) and the spec's original_source pull kept no files to
// ground a more specialized router on.
package osm

import (
	"container/heap"
	"fmt"
	"math"
	"math/rand"

	"abm/abmerr"
	"abm/identity"
)

// LonLat is a geographic coordinate.
type LonLat struct{ Lon, Lat float64 }

// Pos is an agent's location on the network: the directed edge it is
// travelling along and its offset in [0, length] from From.
type Pos struct {
	From, To int
	Offset   float64
}

type edge struct {
	to       int
	length   float64 // meters
	travelTime float64 // seconds, the routing weight
}

// Space is a road network.
type Space struct {
	nodes []LonLat
	adj   [][]edge
	// occupants indexed by directed edge key "from,to" -> ids on that edge.
	occupants map[[2]int][]identity.ID
	// routes keyed by agent id: reversed vertex path (pop from the tail) and
	// the edge currently being traversed, per spec "stored as a vector of
	// vertex IDs plus a current edge, reversed for efficient pop".
	routes map[identity.ID]*route
}

type route struct {
	remaining []int // reversed: remaining[len-1] is next to pop
	returning bool
}

// New constructs an empty road network.
func New() *Space {
	return &Space{occupants: map[[2]int][]identity.ID{}, routes: map[identity.ID]*route{}}
}

// AddNode appends a node at the given coordinate and returns its index.
func (s *Space) AddNode(ll LonLat) int {
	s.nodes = append(s.nodes, ll)
	s.adj = append(s.adj, nil)
	return len(s.nodes) - 1
}

// haversineMeters is used to derive edge length when the caller doesn't
// supply one explicitly.
func haversineMeters(a, b LonLat) float64 {
	const R = 6371000.0
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * R * math.Asin(math.Sqrt(h))
}

// AddEdge adds a directed road segment u->v with the given travel time
// (the routing weight); length defaults to the great-circle distance
// between the endpoints when lengthMeters <= 0.
func (s *Space) AddEdge(u, v int, travelTimeSeconds, lengthMeters float64) error {
	if u < 0 || u >= len(s.nodes) || v < 0 || v >= len(s.nodes) {
		return fmt.Errorf("%w: edge endpoint out of range", abmerr.ErrOutOfBounds)
	}
	if lengthMeters <= 0 {
		lengthMeters = haversineMeters(s.nodes[u], s.nodes[v])
	}
	s.adj[u] = append(s.adj[u], edge{to: v, length: lengthMeters, travelTime: travelTimeSeconds})
	return nil
}

// NearestNode returns the node index closest to ll.
func (s *Space) NearestNode(ll LonLat) (int, error) {
	if len(s.nodes) == 0 {
		return 0, fmt.Errorf("%w: empty map", abmerr.ErrConfig)
	}
	best, bestDist := 0, math.Inf(1)
	for i, n := range s.nodes {
		if d := haversineMeters(ll, n); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}

// NearestRoad returns the edge (as endpoints) closest to ll, approximated
// by the nearer of each edge's two endpoints (no perpendicular-projection
// geometry, per the module's line-segment-free edge model).
func (s *Space) NearestRoad(ll LonLat) (Pos, error) {
	bestDist := math.Inf(1)
	var best Pos
	found := false
	for u, edges := range s.adj {
		for _, e := range edges {
			d := math.Min(haversineMeters(ll, s.nodes[u]), haversineMeters(ll, s.nodes[e.to]))
			if d < bestDist {
				bestDist = d
				best = Pos{From: u, To: e.to, Offset: 0}
				found = true
			}
		}
	}
	if !found {
		return Pos{}, fmt.Errorf("%w: empty map", abmerr.ErrConfig)
	}
	return best, nil
}

// RandomRoadPosition samples an edge weighted by edge length, then a
// uniform offset along it.
func (s *Space) RandomRoadPosition(rng *rand.Rand) (Pos, error) {
	type candidate struct {
		u, v int
		length float64
	}
	var all []candidate
	total := 0.0
	for u, edges := range s.adj {
		for _, e := range edges {
			all = append(all, candidate{u: u, v: e.to, length: e.length})
			total += e.length
		}
	}
	if len(all) == 0 {
		return Pos{}, fmt.Errorf("%w: empty map", abmerr.ErrConfig)
	}
	target := rng.Float64() * total
	acc := 0.0
	for _, c := range all {
		acc += c.length
		if acc >= target {
			return Pos{From: c.u, To: c.v, Offset: rng.Float64() * c.length}, nil
		}
	}
	last := all[len(all)-1]
	return Pos{From: last.u, To: last.v, Offset: rng.Float64() * last.length}, nil
}

// AddToSpace registers id on the directed edge pos.From->pos.To.
func (s *Space) AddToSpace(id identity.ID, pos Pos) {
	key := [2]int{pos.From, pos.To}
	s.occupants[key] = append(s.occupants[key], id)
}

// RemoveFromSpace deregisters id and cancels its route.
func (s *Space) RemoveFromSpace(id identity.ID, pos Pos) {
	key := [2]int{pos.From, pos.To}
	ids := s.occupants[key]
	for i, x := range ids {
		if x == id {
			s.occupants[key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	delete(s.routes, id)
}

// dijkstraItem/priority queue for Dijkstra shortest path by travel time.
type pqItem struct {
	node int
	dist float64
}
type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// shortestPath returns the vertex path from src to dst (inclusive) ordered
// src-first, or an error if unreachable.
func (s *Space) shortestPath(src, dst int) ([]int, error) {
	dist := make([]float64, len(s.nodes))
	prev := make([]int, len(s.nodes))
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[src] = 0
	pq := &priorityQueue{{node: src, dist: 0}}
	visited := make([]bool, len(s.nodes))

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true
		if cur.node == dst {
			break
		}
		for _, e := range s.adj[cur.node] {
			nd := dist[cur.node] + e.travelTime
			if nd < dist[e.to] {
				dist[e.to] = nd
				prev[e.to] = cur.node
				heap.Push(pq, pqItem{node: e.to, dist: nd})
			}
		}
	}

	if math.IsInf(dist[dst], 1) {
		return nil, fmt.Errorf("%w: no route from %d to %d", abmerr.ErrUnreachableTarget, src, dst)
	}
	path := []int{dst}
	for v := dst; prev[v] != -1; v = prev[v] {
		path = append([]int{prev[v]}, path...)
	}
	return path, nil
}

// PlanRoute computes a shortest-time path from agent's current edge
// destination node to the destination node, storing it reversed for
// efficient pop. Fails with UnreachableTarget if no route exists.
func (s *Space) PlanRoute(id identity.ID, from Pos, dest int) error {
	path, err := s.shortestPath(from.To, dest)
	if err != nil {
		return err
	}
	// path[0] is from.To itself — the vertex the agent is already
	// travelling toward on its current edge, not a hop still to come.
	// Excluding it keeps MoveAlongRoute's first pop targeting the next
	// real vertex instead of a degenerate From==To self-edge.
	hops := path[1:]
	reversed := make([]int, len(hops))
	for i, v := range hops {
		reversed[len(hops)-1-i] = v
	}
	s.routes[id] = &route{remaining: reversed}
	return nil
}

// IsStationary reports whether id has no route in progress.
func (s *Space) IsStationary(id identity.ID) bool {
	r, ok := s.routes[id]
	return !ok || len(r.remaining) == 0
}

// MoveAlongRoute advances id along its route by distance meters, popping
// vertices as it crosses them, updating pos accordingly.
func (s *Space) MoveAlongRoute(id identity.ID, pos Pos, distance float64) (Pos, error) {
	r, ok := s.routes[id]
	if !ok || len(r.remaining) == 0 {
		return pos, nil
	}

	cur := pos
	for distance > 0 {
		edgeLen := s.edgeLength(cur.From, cur.To)
		room := edgeLen - cur.Offset
		if distance < room {
			cur.Offset += distance
			return cur, nil
		}
		distance -= room
		// Crossed into cur.To; pop the next hop.
		if len(r.remaining) == 0 {
			cur.Offset = edgeLen
			return cur, nil
		}
		next := r.remaining[len(r.remaining)-1]
		r.remaining = r.remaining[:len(r.remaining)-1]
		cur = Pos{From: cur.To, To: next, Offset: 0}
	}
	return cur, nil
}

func (s *Space) edgeLength(u, v int) float64 {
	for _, e := range s.adj[u] {
		if e.to == v {
			return e.length
		}
	}
	return 0
}
