// Package graphspace implements GraphSpace: agents occupy vertices of a
// runtime-mutable graph (spec §4.2.2). Vertex removal renumbers the last
// vertex into the removed slot (swap-remove), matching "removing a vertex
// renumbers the last vertex into the removed slot... the space's per-vertex
// lists move with them".
package graphspace

import (
	"fmt"

	"abm/abmerr"
	"abm/identity"
	"abm/space"
)

// Pos is a graph vertex index.
type Pos = int

// Space is a directed or undirected graph of vertices, each holding a list
// of occupant ids.
type Space struct {
	directed bool
	out      [][]int // adjacency: out[v] = neighbors reachable from v
	in       [][]int // reverse adjacency, maintained only if directed
	occupants [][]identity.ID
}

// New constructs a graph with n vertices and no edges.
func New(n int, directed bool) *Space {
	s := &Space{
		directed:  directed,
		out:       make([][]int, n),
		occupants: make([][]identity.ID, n),
	}
	if directed {
		s.in = make([][]int, n)
	}
	return s
}

// NumVertices reports the current vertex count.
func (s *Space) NumVertices() int { return len(s.out) }

func (s *Space) checkVertex(v int) error {
	if v < 0 || v >= len(s.out) {
		return fmt.Errorf("%w: vertex %d out of range", abmerr.ErrOutOfBounds, v)
	}
	return nil
}

// AddVertex appends a new, edgeless vertex and returns its index.
func (s *Space) AddVertex() int {
	s.out = append(s.out, nil)
	s.occupants = append(s.occupants, nil)
	if s.directed {
		s.in = append(s.in, nil)
	}
	return len(s.out) - 1
}

// RemoveVertex deletes v, renumbering the last vertex into v's slot (its
// occupant list, in/out edges, and all edges referencing it move too).
func (s *Space) RemoveVertex(v int) error {
	if err := s.checkVertex(v); err != nil {
		return err
	}
	drop := func(list []int) []int {
		kept := list[:0]
		for _, n := range list {
			if n != v {
				kept = append(kept, n)
			}
		}
		return kept
	}
	for u := range s.out {
		s.out[u] = drop(s.out[u])
		if s.directed {
			s.in[u] = drop(s.in[u])
		}
	}
	last := len(s.out) - 1
	if v != last {
		s.renameVertex(last, v)
	}
	s.out = s.out[:last]
	s.occupants = s.occupants[:last]
	if s.directed {
		s.in = s.in[:last]
	}
	return nil
}

// renameVertex moves everything addressed as `from` to be addressed as
// `to`, rewriting edge lists that reference `from`.
func (s *Space) renameVertex(from, to int) {
	s.out[to] = s.out[from]
	s.occupants[to] = s.occupants[from]
	if s.directed {
		s.in[to] = s.in[from]
	}
	relabel := func(list [][]int) {
		for _, neighbors := range list {
			for i, n := range neighbors {
				if n == from {
					neighbors[i] = to
				}
			}
		}
	}
	relabel(s.out)
	if s.directed {
		relabel(s.in)
	}
}

// AddEdge connects u->v (and v->u too, if undirected).
func (s *Space) AddEdge(u, v int) error {
	if err := s.checkVertex(u); err != nil {
		return err
	}
	if err := s.checkVertex(v); err != nil {
		return err
	}
	s.out[u] = append(s.out[u], v)
	if s.directed {
		s.in[v] = append(s.in[v], u)
	} else {
		s.out[v] = append(s.out[v], u)
	}
	return nil
}

func removeValue(list []int, v int) []int {
	for i, n := range list {
		if n == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// RemoveEdge disconnects u and v.
func (s *Space) RemoveEdge(u, v int) error {
	if err := s.checkVertex(u); err != nil {
		return err
	}
	if err := s.checkVertex(v); err != nil {
		return err
	}
	s.out[u] = removeValue(s.out[u], v)
	if s.directed {
		s.in[v] = removeValue(s.in[v], u)
	} else {
		s.out[v] = removeValue(s.out[v], u)
	}
	return nil
}

// AddToSpace registers id at vertex v.
func (s *Space) AddToSpace(id identity.ID, v int) error {
	if err := s.checkVertex(v); err != nil {
		return err
	}
	s.occupants[v] = append(s.occupants[v], id)
	return nil
}

// RemoveFromSpace deregisters id from vertex v.
func (s *Space) RemoveFromSpace(id identity.ID, v int) {
	if v < 0 || v >= len(s.occupants) {
		return
	}
	s.occupants[v] = removeID(s.occupants[v], id)
}

func removeID(list []identity.ID, id identity.ID) []identity.ID {
	for i, x := range list {
		if x == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// MoveAgent re-indexes id from vertex oldV to vertex newV.
func (s *Space) MoveAgent(id identity.ID, oldV, newV int) error {
	if err := s.checkVertex(newV); err != nil {
		return err
	}
	s.RemoveFromSpace(id, oldV)
	s.occupants[newV] = append(s.occupants[newV], id)
	return nil
}

// IDsInPosition returns occupants of vertex v.
func (s *Space) IDsInPosition(v int) []identity.ID {
	if v < 0 || v >= len(s.occupants) {
		return nil
	}
	return append([]identity.ID(nil), s.occupants[v]...)
}

func (s *Space) neighborsOf(v int, nt space.NeighborType) []int {
	switch nt {
	case space.In:
		if s.directed {
			return s.in[v]
		}
		return s.out[v]
	case space.Out:
		return s.out[v]
	case space.All:
		if !s.directed {
			return s.out[v]
		}
		all := append([]int(nil), s.out[v]...)
		return append(all, s.in[v]...)
	default: // Default
		return s.out[v]
	}
}

// NearbyPositions performs a BFS from v out to hop distance r, respecting
// the requested neighbor type for directed graphs.
func (s *Space) NearbyPositions(v int, r int, nt space.NeighborType) []int {
	visited := map[int]int{v: 0}
	queue := []int{v}
	var out []int
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		depth := visited[cur]
		if depth == r {
			continue
		}
		for _, n := range s.neighborsOf(cur, nt) {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = depth + 1
			out = append(out, n)
			queue = append(queue, n)
		}
	}
	return out
}

// NearbyIDs returns every occupant within r hops of v (vertex form
// includes occupants of v itself).
func (s *Space) NearbyIDs(v int, r int, nt space.NeighborType) []identity.ID {
	ids := append([]identity.ID(nil), s.IDsInPosition(v)...)
	for _, p := range s.NearbyPositions(v, r, nt) {
		ids = append(ids, s.IDsInPosition(p)...)
	}
	return ids
}

// NearbyIDsExcludingSelf behaves like NearbyIDs but omits self, matching
// the "agent queries exclude themselves" contract (scenario S2).
func (s *Space) NearbyIDsExcludingSelf(v int, r int, nt space.NeighborType, self identity.ID) []identity.ID {
	ids := s.NearbyIDs(v, r, nt)
	out := ids[:0]
	for _, id := range ids {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}
