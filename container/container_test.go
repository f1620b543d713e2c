package container

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"abm/agent"
	"abm/identity"
)

type testAgent struct {
	agent.Base
	Tag string
}

func TestContainers(t *testing.T) {
	for _, kind := range []Kind{Dict, DenseVector} {
		kind := kind
		Convey("Given a "+string(kind)+" container", t, func() {
			c := New(kind)
			a1 := &testAgent{Base: agent.Base{ID: 1}, Tag: "x"}
			a2 := &testAgent{Base: agent.Base{ID: 2}, Tag: "y"}

			Convey("Add/Lookup/Contains/Count round-trip", func() {
				So(c.Add(a1), ShouldBeNil)
				So(c.Add(a2), ShouldBeNil)
				So(c.Count(), ShouldEqual, 2)
				So(c.Contains(identity.ID(1)), ShouldBeTrue)

				got, ok := c.Lookup(identity.ID(2))
				So(ok, ShouldBeTrue)
				So(got.(*testAgent).Tag, ShouldEqual, "y")
			})

			Convey("Duplicate insertion fails", func() {
				So(c.Add(a1), ShouldBeNil)
				So(c.Add(a1), ShouldNotBeNil)
			})

			Convey("Remove deletes and future Contains is false", func() {
				So(c.Add(a1), ShouldBeNil)
				removed, ok := c.Remove(identity.ID(1))
				So(ok, ShouldBeTrue)
				So(removed, ShouldEqual, a1)
				So(c.Contains(identity.ID(1)), ShouldBeFalse)
				So(c.Count(), ShouldEqual, 0)
			})

			Convey("IterateAll sees every live agent exactly once", func() {
				So(c.Add(a1), ShouldBeNil)
				So(c.Add(a2), ShouldBeNil)
				all := c.IterateAll()
				So(len(all), ShouldEqual, 2)
			})

			Convey("RandomAgent with a predicate only returns matches", func() {
				So(c.Add(a1), ShouldBeNil)
				So(c.Add(a2), ShouldBeNil)
				rng := rand.New(rand.NewSource(1))
				for i := 0; i < 20; i++ {
					got, ok := c.RandomAgent(rng, func(a agent.Agent) bool {
						return a.(*testAgent).Tag == "y"
					})
					So(ok, ShouldBeTrue)
					So(got.(*testAgent).Tag, ShouldEqual, "y")
				}
			})

			Convey("RandomAgent returns not-found when nothing matches", func() {
				So(c.Add(a1), ShouldBeNil)
				rng := rand.New(rand.NewSource(1))
				_, ok := c.RandomAgent(rng, func(a agent.Agent) bool { return false })
				So(ok, ShouldBeFalse)
			})
		})
	}
}
