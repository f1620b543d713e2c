package ensemble

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"abm/collect"
)

func TestCartesianProductVariesLastRangeFastest(t *testing.T) {
	Convey("Given two parameter ranges", t, func() {
		ranges := []ParamRange{
			{Name: "a", Values: []interface{}{1, 2}},
			{Name: "b", Values: []interface{}{"x", "y"}},
		}

		Convey("the product has 4 combinations with b varying fastest", func() {
			combos := CartesianProduct(ranges)
			So(len(combos), ShouldEqual, 4)
			So(combos[0], ShouldResemble, Combination{"a": 1, "b": "x"})
			So(combos[1], ShouldResemble, Combination{"a": 1, "b": "y"})
			So(combos[2], ShouldResemble, Combination{"a": 2, "b": "x"})
			So(combos[3], ShouldResemble, Combination{"a": 2, "b": "y"})
		})
	})
}

func TestParamScanRunsEveryCombination(t *testing.T) {
	Convey("Given a factory keyed off one swept parameter", t, func() {
		ranges := []ParamRange{{Name: "n", Values: []interface{}{1, 2, 3}}}
		factory := func(combo Combination) RunOne {
			return func(ctx context.Context, i int) (*collect.Frame, *collect.Frame, error) {
				f := collect.NewFrame([]string{"time", "n"})
				f.AppendRow(map[string]interface{}{"time": 0, "n": combo["n"]})
				return f, nil, nil
			}
		}

		Convey("every combination runs exactly once", func() {
			results, combos, err := ParamScan(context.Background(), ranges, factory, false, 0)
			So(err, ShouldBeNil)
			So(len(results), ShouldEqual, 3)
			So(len(combos), ShouldEqual, 3)
			for i, r := range results {
				So(r.AgentDF.Column("n")[0], ShouldEqual, combos[i]["n"])
			}
		})
	})
}

func TestUnionFramesPrefixesEnsembleColumn(t *testing.T) {
	Convey("Given two single-row result frames", t, func() {
		results := []Result{
			{Index: 0, AgentDF: frameOf(0, 10)},
			{Index: 1, AgentDF: frameOf(0, 20)},
		}

		Convey("UnionFrames concatenates them with a leading ensemble index column", func() {
			out, err := UnionFrames(results, func(r Result) *collect.Frame { return r.AgentDF }, nil)
			So(err, ShouldBeNil)
			So(out.NumRows(), ShouldEqual, 2)
			So(out.Columns[0], ShouldEqual, "ensemble")
			So(out.Column("ensemble"), ShouldResemble, []interface{}{0, 1})
			So(out.Column("value"), ShouldResemble, []interface{}{10.0, 20.0})
		})
	})
}
