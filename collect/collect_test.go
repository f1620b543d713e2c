package collect

import (
	"bytes"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"abm/agent"
	"abm/identity"
)

type wealthAgent struct {
	agent.Base
	wealth float64
}

func TestPerAgentCollection(t *testing.T) {
	Convey("Given a per-agent wealth collector over two agents", t, func() {
		spec := AdataSpec{Accessor: Accessor{Name: "wealth", Get: func(a agent.Agent) (interface{}, bool) {
			return a.(*wealthAgent).wealth, true
		}}}
		c, err := NewAgentCollector([]AdataSpec{spec})
		So(err, ShouldBeNil)

		agents := []agent.Agent{
			&wealthAgent{Base: agent.Base{ID: 1}, wealth: 10},
			&wealthAgent{Base: agent.Base{ID: 2}, wealth: 20},
		}
		f := NewFrame(c.Columns(false))

		Convey("Collect appends one row per agent with the time column set", func() {
			err := c.Collect(f, 7, agents, nil, false)
			So(err, ShouldBeNil)
			So(f.NumRows(), ShouldEqual, 2)
			So(f.Column("time")[0], ShouldEqual, 7)
			So(f.Column("wealth"), ShouldResemble, []interface{}{10.0, 20.0})
		})
	})
}

func TestAggregateCollectionFailsOnNull(t *testing.T) {
	Convey("Given an aggregate spec where one agent lacks the field", t, func() {
		spec := AdataSpec{
			Accessor: Accessor{Name: "wealth", Get: func(a agent.Agent) (interface{}, bool) {
				w := a.(*wealthAgent)
				if w.AgentID() == 2 {
					return nil, false
				}
				return w.wealth, true
			}},
			Aggregator: &Sum,
		}
		c, err := NewAgentCollector([]AdataSpec{spec})
		So(err, ShouldBeNil)
		agents := []agent.Agent{
			&wealthAgent{Base: agent.Base{ID: 1}, wealth: 10},
			&wealthAgent{Base: agent.Base{ID: 2}, wealth: 20},
		}
		f := NewFrame(c.Columns(false))

		Convey("Collect fails with AggregationError", func() {
			err := c.Collect(f, 1, agents, nil, false)
			So(err, ShouldNotBeNil)
		})

		Convey("A filter excluding the null agent lets aggregation succeed", func() {
			filtered := AdataSpec{
				Accessor:   spec.Accessor,
				Aggregator: &Sum,
				Filter:     func(a agent.Agent) bool { return a.AgentID() != identity.ID(2) },
				FilterName: "has_wealth",
			}
			fc, err := NewAgentCollector([]AdataSpec{filtered})
			So(err, ShouldBeNil)
			ff := NewFrame(fc.Columns(false))
			So(fc.Collect(ff, 1, agents, nil, false), ShouldBeNil)
			So(ff.Column("sum_wealth_has_wealth")[0], ShouldEqual, 10.0)
		})
	})
}

func TestAggregateFilterOnOneSpecDoesNotCorruptAnother(t *testing.T) {
	Convey("Given two aggregate specs over the same agents, the first filtered", t, func() {
		wealthAccessor := Accessor{Name: "wealth", Get: func(a agent.Agent) (interface{}, bool) {
			return a.(*wealthAgent).wealth, true
		}}
		filtered := AdataSpec{
			Accessor:   wealthAccessor,
			Aggregator: &Sum,
			Filter:     func(a agent.Agent) bool { return a.AgentID() != identity.ID(2) },
			FilterName: "has_wealth",
		}
		unfiltered := AdataSpec{Accessor: wealthAccessor, Aggregator: &Sum}
		c, err := NewAgentCollector([]AdataSpec{filtered, unfiltered})
		So(err, ShouldBeNil)

		agents := []agent.Agent{
			&wealthAgent{Base: agent.Base{ID: 1}, wealth: 10},
			&wealthAgent{Base: agent.Base{ID: 2}, wealth: 20},
			&wealthAgent{Base: agent.Base{ID: 3}, wealth: 30},
		}
		f := NewFrame(c.Columns(false))

		Convey("The unfiltered spec still sees every agent, unaffected by the filtered spec's subset", func() {
			So(c.Collect(f, 1, agents, nil, false), ShouldBeNil)
			So(f.Column("sum_wealth_has_wealth")[0], ShouldEqual, 40.0)
			So(f.Column("sum_wealth")[0], ShouldEqual, 60.0)
		})
	})
}

func TestMixingAggregatedAndBareSpecsRejected(t *testing.T) {
	Convey("Given one bare and one aggregated spec", t, func() {
		bare := AdataSpec{Accessor: Accessor{Name: "wealth", Get: func(a agent.Agent) (interface{}, bool) { return 1.0, true }}}
		agg := AdataSpec{Accessor: bare.Accessor, Aggregator: &Mean}

		Convey("NewAgentCollector rejects the mix", func() {
			_, err := NewAgentCollector([]AdataSpec{bare, agg})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestOfflineWriterFlushesEveryInterval(t *testing.T) {
	Convey("Given an offline CSV writer with writing_interval 2", t, func() {
		var buf bytes.Buffer
		backend := NewCSVBackend(&buf)
		ow, err := NewOfflineWriter(backend, []string{"time", "wealth"}, 2, 0)
		So(err, ShouldBeNil)

		Convey("Rows accumulate and the header is written once", func() {
			So(ow.WriteRow(map[string]interface{}{"time": 1, "wealth": 10.0}), ShouldBeNil)
			So(ow.WriteRow(map[string]interface{}{"time": 2, "wealth": 20.0}), ShouldBeNil)
			So(ow.Close(), ShouldBeNil)

			out := buf.String()
			So(strings.Count(out, "time,wealth"), ShouldEqual, 1)
			So(strings.Contains(out, "20"), ShouldBeTrue)
		})
	})
}
