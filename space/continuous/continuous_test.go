package continuous

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"abm/agent"
	"abm/identity"
)

type particle struct {
	agent.Base
	P   Pos
	V   Pos
	Tag string
}

func (p *particle) Pos() Pos     { return p.P }
func (p *particle) SetPos(q Pos) { p.P = q }
func (p *particle) Vel() Pos     { return p.V }
func (p *particle) SetVel(v Pos) { p.V = v }

func TestInteractingPairsNearMirrorBoundary(t *testing.T) {
	Convey("Given agents straddling a periodic wrap boundary", t, func() {
		s, err := New([]float64{1, 1}, 0.1, []bool{true, true})
		So(err, ShouldBeNil)

		// a sits in the first bucket, 0.02 from the wrap edge; b sits 0.03
		// inside the opposite edge, so the true (periodic) separation is
		// small even though the raw coordinate difference is large. This is
		// the "near-miss mirror pair" case inexact bucket scanning must not
		// silently miss, and exact filtering must not silently double count.
		a := &particle{Base: agent.Base{ID: 1}, P: Pos{0.02, 0.5}}
		b := &particle{Base: agent.Base{ID: 2}, P: Pos{0.97, 0.5}}
		c := &particle{Base: agent.Base{ID: 3}, P: Pos{0.5, 0.5}}
		for _, p := range []*particle{a, b, c} {
			s.AddToSpace(p.AgentID(), p.P)
		}
		agents := []*particle{a, b, c}

		Convey("r=0.1 pairs a with its periodic mirror neighbor b, excluding the far c", func() {
			pairs := InteractingPairs[*particle](s, agents, 0.1, PairAll, nil, nil)
			So(len(pairs), ShouldEqual, 1)
			So(pairs[0], ShouldResemble, Pair{A: identity.ID(1), B: identity.ID(2)})
		})

		Convey("each unordered pair is reported exactly once, not mirrored twice", func() {
			pairs := InteractingPairs[*particle](s, agents, 0.1, PairAll, nil, nil)
			seen := map[[2]identity.ID]int{}
			for _, p := range pairs {
				key := [2]identity.ID{p.A, p.B}
				if key[0] > key[1] {
					key[0], key[1] = key[1], key[0]
				}
				seen[key]++
			}
			for _, count := range seen {
				So(count, ShouldEqual, 1)
			}
		})
	})
}

func TestElasticCollisionConservesMomentum(t *testing.T) {
	Convey("Given two finite-mass agents approaching each other", t, func() {
		a := &particle{Base: agent.Base{ID: 1}, P: Pos{0, 0}, V: Pos{1, 0}}
		b := &particle{Base: agent.Base{ID: 2}, P: Pos{1, 0}, V: Pos{-1, 0}}
		massA, massB := 2.0, 3.0

		pBefore := massA*a.V[0] + massB*b.V[0]
		collided := ElasticCollision[*particle](a, b, massA, massB)
		So(collided, ShouldBeTrue)
		pAfter := massA*a.V[0] + massB*b.V[0]

		Convey("Linear momentum is conserved up to fp tolerance", func() {
			So(pAfter, ShouldAlmostEqual, pBefore, 1e-9)
		})
	})

	Convey("Separating bodies are left unchanged", t, func() {
		a := &particle{Base: agent.Base{ID: 1}, P: Pos{0, 0}, V: Pos{-1, 0}}
		b := &particle{Base: agent.Base{ID: 2}, P: Pos{1, 0}, V: Pos{1, 0}}
		collided := ElasticCollision[*particle](a, b, 1, 1)
		So(collided, ShouldBeFalse)
	})

	Convey("Infinite mass body is a no-op wall", t, func() {
		a := &particle{Base: agent.Base{ID: 1}, P: Pos{0, 0}, V: Pos{1, 0}}
		wall := &particle{Base: agent.Base{ID: 2}, P: Pos{1, 0}, V: Pos{0, 0}}
		collided := ElasticCollision[*particle](a, wall, 1, math.Inf(1))
		So(collided, ShouldBeTrue)
		So(wall.V, ShouldResemble, Pos{0, 0})
		So(a.V[0], ShouldBeLessThan, 0)
	})
}

func TestMoveAgentPeriodicRoundTrip(t *testing.T) {
	Convey("Given periodic continuous move_agent followed by its inverse (property 9)", t, func() {
		s, err := New([]float64{10, 10}, 1, []bool{true, true})
		So(err, ShouldBeNil)
		p := &particle{Base: agent.Base{ID: 1}, P: Pos{5, 5}, V: Pos{3, -2}}
		s.AddToSpace(p.AgentID(), p.P)

		So(MoveAgent[*particle](s, p, 1), ShouldBeNil)
		p.SetVel(Pos{-3, 2})
		So(MoveAgent[*particle](s, p, 1), ShouldBeNil)

		So(p.Pos()[0], ShouldAlmostEqual, 5, 1e-9)
		So(p.Pos()[1], ShouldAlmostEqual, 5, 1e-9)
	})
}

func TestNearbyIDsExactIsSubsetOfInexact(t *testing.T) {
	Convey("Exact results are always a subset of inexact results (property 5)", t, func() {
		s, err := New([]float64{5, 5}, 0.5, []bool{false, false})
		So(err, ShouldBeNil)
		agents := []*particle{
			{Base: agent.Base{ID: 1}, P: Pos{2, 2}},
			{Base: agent.Base{ID: 2}, P: Pos{2.1, 2}},
			{Base: agent.Base{ID: 3}, P: Pos{4, 4}},
		}
		for _, a := range agents {
			s.AddToSpace(a.AgentID(), a.P)
		}
		byID := map[identity.ID]*particle{}
		for _, a := range agents {
			byID[a.AgentID()] = a
		}
		lookup := func(id identity.ID) (*particle, bool) { a, ok := byID[id]; return a, ok }

		exact := NearbyIDsExact[*particle](s, Pos{2, 2}, 0.5, lookup)
		inexact := s.NearbyIDsInexact(Pos{2, 2}, 0.5)
		inexactSet := map[identity.ID]bool{}
		for _, id := range inexact {
			inexactSet[id] = true
		}
		for _, id := range exact {
			So(inexactSet[id], ShouldBeTrue)
		}
	})
}
