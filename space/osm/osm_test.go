package osm

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"abm/identity"
)

func buildLinearRoad(s *Space, n int) []int {
	nodes := make([]int, n)
	for i := 0; i < n; i++ {
		nodes[i] = s.AddNode(LonLat{Lon: float64(i), Lat: 0})
	}
	for i := 0; i < n-1; i++ {
		_ = s.AddEdge(nodes[i], nodes[i+1], 10, 100)
		_ = s.AddEdge(nodes[i+1], nodes[i], 10, 100)
	}
	return nodes
}

func TestPlanRouteAndMoveAlongRoute(t *testing.T) {
	Convey("Given a 4-node linear road", t, func() {
		s := New()
		nodes := buildLinearRoad(s, 4)
		id := identity.ID(1)
		start := Pos{From: nodes[0], To: nodes[1], Offset: 0}
		s.AddToSpace(id, start)

		Convey("PlanRoute succeeds to a reachable destination", func() {
			err := s.PlanRoute(id, start, nodes[3])
			So(err, ShouldBeNil)
			So(s.IsStationary(id), ShouldBeFalse)
		})

		Convey("MoveAlongRoute advances across edges until it reaches the destination exactly", func() {
			So(s.PlanRoute(id, start, nodes[3]), ShouldBeNil)
			pos := start
			var err error
			// Total remaining distance: 100 (rest of first edge) + 100 + 100.
			for i := 0; i < 10; i++ {
				pos, err = s.MoveAlongRoute(id, pos, 50)
				So(err, ShouldBeNil)
			}
			So(pos.To, ShouldEqual, nodes[3])
		})

		Convey("A single step of exactly one edge's length crosses into the next vertex, not a degenerate self-edge", func() {
			So(s.PlanRoute(id, start, nodes[3]), ShouldBeNil)
			pos, err := s.MoveAlongRoute(id, start, 100)
			So(err, ShouldBeNil)
			So(pos.From, ShouldEqual, nodes[1])
			So(pos.To, ShouldEqual, nodes[2])
			So(pos.From, ShouldNotEqual, pos.To)
		})

		Convey("PlanRoute fails for an unreachable destination", func() {
			isolated := s.AddNode(LonLat{Lon: 99, Lat: 99})
			err := s.PlanRoute(id, start, isolated)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRandomRoadPosition(t *testing.T) {
	Convey("Given a road network", t, func() {
		s := New()
		buildLinearRoad(s, 3)
		rng := rand.New(rand.NewSource(1))

		Convey("RandomRoadPosition returns a position on some edge", func() {
			pos, err := s.RandomRoadPosition(rng)
			So(err, ShouldBeNil)
			So(pos.Offset, ShouldBeGreaterThanOrEqualTo, 0.0)
		})
	})
}

func TestNearestNode(t *testing.T) {
	Convey("Given three nodes on a line", t, func() {
		s := New()
		nodes := buildLinearRoad(s, 3)

		Convey("NearestNode finds the closest one", func() {
			n, err := s.NearestNode(LonLat{Lon: 1.1, Lat: 0})
			So(err, ShouldBeNil)
			So(n, ShouldEqual, nodes[1])
		})
	})
}
