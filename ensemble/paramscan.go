package ensemble

import (
	"context"
	"fmt"

	"abm/collect"
)

// ParamRange names one swept parameter and its candidate values.
type ParamRange struct {
	Name   string
	Values []interface{}
}

// Combination is one point in the Cartesian product of a set of
// ParamRanges. It holds only the swept parameters; there is no separate
// option for constant parameters.
type Combination map[string]interface{}

// CartesianProduct expands ranges into every combination, in the same
// nested order Agents.jl's paramscan documents (last range varies
// fastest).
func CartesianProduct(ranges []ParamRange) []Combination {
	if len(ranges) == 0 {
		return []Combination{{}}
	}
	rest := CartesianProduct(ranges[1:])
	var out []Combination
	for _, v := range ranges[0].Values {
		for _, r := range rest {
			combo := make(Combination, len(r)+1)
			combo[ranges[0].Name] = v
			for k, val := range r {
				combo[k] = val
			}
			out = append(out, combo)
		}
	}
	return out
}

// Factory constructs one model run's driver from a parameter combination.
type Factory func(combo Combination) RunOne

// ParamScan runs the factory over every combination of ranges (§4.6),
// sequentially or in parallel per Run's contract. It returns one Result per
// combination together with the combinations in the same order; the frames
// are not unioned here (UnionFrames does that, with annotate supplying the
// parameter columns).
func ParamScan(ctx context.Context, ranges []ParamRange, factory Factory, parallel bool, maxWorkers int) ([]Result, []Combination, error) {
	combos := CartesianProduct(ranges)
	n := len(combos)
	runOne := func(ctx context.Context, i int) (*collect.Frame, *collect.Frame, error) {
		return factory(combos[i])(ctx, i)
	}
	results, err := Run(ctx, n, runOne, parallel, maxWorkers)
	if err != nil {
		return nil, nil, err
	}
	return results, combos, nil
}

// UnionFrames concatenates one frame per ensemble/paramscan member into a
// single frame, prefixing an "ensemble" index column (and, for paramscan,
// one column per swept parameter taken from annotate(i)) ahead of the
// member frame's own columns.
func UnionFrames(results []Result, pick func(Result) *collect.Frame, annotate func(i int) map[string]interface{}) (*collect.Frame, error) {
	if len(results) == 0 {
		return collect.NewFrame(nil), nil
	}
	first := pick(results[0])
	extra := []string{"ensemble"}
	if annotate != nil {
		for k := range annotate(0) {
			extra = append(extra, k)
		}
	}
	columns := append(append([]string(nil), extra...), first.Columns...)
	out := collect.NewFrame(columns)

	for _, r := range results {
		f := pick(r)
		if f == nil {
			return nil, fmt.Errorf("ensemble member %d produced a nil frame", r.Index)
		}
		extraVals := map[string]interface{}{"ensemble": r.Index}
		if annotate != nil {
			for k, v := range annotate(r.Index) {
				extraVals[k] = v
			}
		}
		for row := 0; row < f.NumRows(); row++ {
			merged := make(map[string]interface{}, len(columns))
			for k, v := range extraVals {
				merged[k] = v
			}
			for _, c := range f.Columns {
				merged[c] = f.Column(c)[row]
			}
			out.AppendRow(merged)
		}
	}
	return out, nil
}
