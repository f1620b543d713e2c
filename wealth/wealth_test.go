package wealth

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewModelRejectsNonPositivePopulation(t *testing.T) {
	Convey("Given a request for zero agents", t, func() {
		_, err := NewModel(0, 10, 1)

		Convey("NewModel fails with a configuration error", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNewModelSeedsEveryAgentWithStartingWealth(t *testing.T) {
	Convey("Given a 20-agent model seeded with 10 each", t, func() {
		m, err := NewModel(20, 10, 1)
		So(err, ShouldBeNil)

		Convey("every agent starts with exactly the configured wealth", func() {
			So(m.Count(), ShouldEqual, 20)
			for _, a := range m.Agents() {
				v, ok := WealthAccessor.Get(a)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 10.0)
			}
		})

		Convey("total wealth starts at population*startingWealth", func() {
			So(TotalWealth(m), ShouldEqual, 200.0)
		})
	})
}

func TestStepConservesTotalWealthAcrossManySteps(t *testing.T) {
	Convey("Given a 50-agent model run for 200 steps", t, func() {
		m, err := NewModel(50, 5, 42)
		So(err, ShouldBeNil)
		before := TotalWealth(m)

		for i := 0; i < 200; i++ {
			m.Step()
		}

		Convey("total wealth after the run equals total wealth before it", func() {
			So(TotalWealth(m), ShouldEqual, before)
		})

		Convey("the model clock advanced by exactly the number of steps run", func() {
			So(m.Time(), ShouldEqual, 200)
		})

		Convey("no agent holds negative wealth", func() {
			for _, a := range m.Agents() {
				v, _ := WealthAccessor.Get(a)
				So(v.(float64), ShouldBeGreaterThanOrEqualTo, 0.0)
			}
		})
	})
}

func TestStepSkipsGiversWithZeroWealth(t *testing.T) {
	Convey("Given a single agent with zero wealth and no one else to take from", t, func() {
		m, err := NewModel(1, 0, 1)
		So(err, ShouldBeNil)

		m.Step()

		Convey("its wealth remains zero", func() {
			a := m.Agents()[0]
			v, _ := WealthAccessor.Get(a)
			So(v, ShouldEqual, 0.0)
		})
	})
}
