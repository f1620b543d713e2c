package scheduler

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"abm/agent"
	"abm/identity"
)

type typeA struct{ agent.Base }
type typeB struct{ agent.Base }

type fakeModel struct {
	agents   []agent.Agent
	rng      *rand.Rand
	registry *agent.Registry
}

func (f *fakeModel) Agents() []agent.Agent      { return f.agents }
func (f *fakeModel) RNG() *rand.Rand            { return f.rng }
func (f *fakeModel) Registry() *agent.Registry  { return f.registry }

func newFakeModel(t *testing.T, agents []agent.Agent) *fakeModel {
	t.Helper()
	reg, err := agent.NewRegistry(typeA{}, typeB{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return &fakeModel{agents: agents, rng: rand.New(rand.NewSource(1)), registry: reg}
}

func TestByIDOrdersAscending(t *testing.T) {
	Convey("Given agents inserted out of id order", t, func() {
		m := newFakeModel(t, []agent.Agent{
			typeA{Base: agent.Base{ID: 3}},
			typeA{Base: agent.Base{ID: 1}},
			typeA{Base: agent.Base{ID: 2}},
		})

		Convey("ByID yields ascending ids", func() {
			order := ByID.Schedule(m)
			So(order, ShouldResemble, []identity.ID{1, 2, 3})
		})

		Convey("the stateful NewByID form produces the same ordering", func() {
			order := NewByID().Schedule(m)
			So(order, ShouldResemble, []identity.ID{1, 2, 3})
		})
	})
}

func TestPartiallyReturnsExpectedFraction(t *testing.T) {
	Convey("Given 10 agents", t, func() {
		agents := make([]agent.Agent, 10)
		for i := range agents {
			agents[i] = typeA{Base: agent.Base{ID: identity.ID(i + 1)}}
		}
		m := newFakeModel(t, agents)

		Convey("Partially(0.3) schedules exactly 3 agents", func() {
			order := Partially(0.3).Schedule(m)
			So(len(order), ShouldEqual, 3)
		})
	})
}

func TestByTypeGroupsInDeclarationOrder(t *testing.T) {
	Convey("Given a mix of typeA and typeB agents inserted interleaved", t, func() {
		m := newFakeModel(t, []agent.Agent{
			typeA{Base: agent.Base{ID: 1}},
			typeB{Base: agent.Base{ID: 2}},
			typeA{Base: agent.Base{ID: 3}},
			typeB{Base: agent.Base{ID: 4}},
		})

		Convey("by_type(false,false) yields all A ids then all B ids, insertion order preserved", func() {
			order := ByType(false, false).Schedule(m)
			So(order, ShouldResemble, []identity.ID{1, 3, 2, 4})
		})
	})
}

func TestBufferedSchedulerProducesFreshOrderingEachStep(t *testing.T) {
	Convey("Given a stateful NewByID scheduler invoked across two steps", t, func() {
		sched := NewByID()
		m1 := newFakeModel(t, []agent.Agent{typeA{Base: agent.Base{ID: 2}}, typeA{Base: agent.Base{ID: 1}}})
		// The buffered scheduler reuses its backing array across Schedule
		// calls (per the package doc: "the returned ordering must not
		// outlive the step"), so the first result must be consumed/copied
		// before the next Schedule call overwrites it.
		first := append([]identity.ID(nil), sched.Schedule(m1)...)

		m2 := newFakeModel(t, []agent.Agent{typeA{Base: agent.Base{ID: 5}}, typeA{Base: agent.Base{ID: 4}}})
		second := sched.Schedule(m2)

		Convey("each step's ordering reflects that step's own agent set", func() {
			So(first, ShouldResemble, []identity.ID{1, 2})
			So(second, ShouldResemble, []identity.ID{4, 5})
		})
	})
}
