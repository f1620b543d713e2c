package ensemble

import (
	"context"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"abm/collect"
)

func frameOf(tick int, val float64) *collect.Frame {
	f := collect.NewFrame([]string{"time", "value"})
	f.AppendRow(map[string]interface{}{"time": tick, "value": val})
	return f
}

func TestRunSequential(t *testing.T) {
	Convey("Given a RunOne that returns one frame per index", t, func() {
		runOne := func(ctx context.Context, i int) (*collect.Frame, *collect.Frame, error) {
			return frameOf(0, float64(i)), nil, nil
		}

		Convey("Run executes every index in order", func() {
			results, err := Run(context.Background(), 5, runOne, false, 0)
			So(err, ShouldBeNil)
			So(len(results), ShouldEqual, 5)
			for i, r := range results {
				So(r.Index, ShouldEqual, i)
				So(r.AgentDF.Column("value")[0], ShouldEqual, float64(i))
			}
		})
	})
}

func TestRunParallelPropagatesErrors(t *testing.T) {
	Convey("Given a RunOne that fails for one member", t, func() {
		runOne := func(ctx context.Context, i int) (*collect.Frame, *collect.Frame, error) {
			if i == 2 {
				return nil, nil, fmt.Errorf("boom")
			}
			return frameOf(0, float64(i)), nil, nil
		}

		Convey("Run in parallel mode surfaces the error", func() {
			_, err := Run(context.Background(), 4, runOne, true, 2)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestStreamReportsEveryMember(t *testing.T) {
	Convey("Given 4 ensemble members run in parallel", t, func() {
		runOne := func(ctx context.Context, i int) (*collect.Frame, *collect.Frame, error) {
			return frameOf(0, float64(i)), nil, nil
		}
		progress, collectResults := Stream(context.Background(), 4, runOne, 2)

		seen := map[int]bool{}
		for p := range progress {
			So(p.Err, ShouldBeNil)
			seen[p.Index] = true
		}

		Convey("every member reports exactly once and results collect cleanly", func() {
			So(len(seen), ShouldEqual, 4)
			results, err := collectResults()
			So(err, ShouldBeNil)
			So(len(results), ShouldEqual, 4)
		})
	})
}

func TestRunAccumulatingSumsConcurrently(t *testing.T) {
	Convey("Given 50 members each contributing their index as a value", t, func() {
		n := 50
		runOne := func(ctx context.Context, i int) (*collect.Frame, *collect.Frame, error) {
			return frameOf(0, float64(i)), nil, nil
		}
		extract := func(agentDF, modelDF *collect.Frame) float64 {
			return agentDF.Column("value")[0].(float64)
		}

		Convey("the shared accumulator totals exactly sum(0..n-1) with no lost updates", func() {
			results, acc, err := RunAccumulating(context.Background(), n, runOne, extract, 8)
			So(err, ShouldBeNil)
			So(len(results), ShouldEqual, n)
			want := float64(n * (n - 1) / 2)
			So(acc.Total(), ShouldEqual, want)
		})
	})
}
