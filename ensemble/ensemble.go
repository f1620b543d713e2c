// Package ensemble implements spec §4.6: ensemblerun! over a fixed set of
// models and paramscan over a Cartesian product of parameter ranges. Each
// model is an independent closed universe — workers never share a
// container, space, or RNG — so parallel mode is a straightforward
// bounded-concurrency fan-out with golang.org/x/sync/errgroup joining
// errors, the same library the teacher's go.mod already carries for
// propagating worker failures without a bespoke done-channel (see
// DESIGN.md for why this replaces the teacher's own channel-merge pattern
// for the error-joining case, while channerics still drives the streaming
// cases elsewhere).
package ensemble

import (
	"context"
	"fmt"

	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"

	"abm/collect"
	"abm/internal/atomicfloat"
)

// SharedAccumulator lets parallel ensemble workers fold a per-member
// scalar (total wealth collected, a fitness score, anything derived from
// that member's frames) into one running total without a mutex, using the
// lock-free CAS-retry Float64 from internal/atomicfloat.
type SharedAccumulator struct {
	total *atomicfloat.Float64
}

// NewSharedAccumulator returns an accumulator starting at zero.
func NewSharedAccumulator() *SharedAccumulator {
	return &SharedAccumulator{total: atomicfloat.New(0)}
}

// Add folds delta into the running total; safe for concurrent callers.
func (s *SharedAccumulator) Add(delta float64) {
	for _, ok := s.total.Add(delta); !ok; _, ok = s.total.Add(delta) {
	}
}

// Total reads the current running total.
func (s *SharedAccumulator) Total() float64 { return s.total.Load() }

// RunOne executes a single model to completion and returns its collected
// frames. The caller supplies this as the per-model driver since the
// concrete Model[S] type and step functions vary by space variant and
// can't be expressed generically here without also importing every space
// package.
type RunOne func(ctx context.Context, modelIndex int) (agentDF, modelDF *collect.Frame, err error)

// Result pairs one ensemble member's frames with its index, so callers can
// annotate the unioned frame with an "ensemble" column in that order.
type Result struct {
	Index    int
	AgentDF  *collect.Frame
	ModelDF  *collect.Frame
}

// Run executes n models via runOne, sequentially or in parallel (bounded by
// maxWorkers when parallel), and returns one Result per model, in index
// order. The frames are returned as runOne produced them; UnionFrames adds
// the "ensemble" index column.
func Run(ctx context.Context, n int, runOne RunOne, parallel bool, maxWorkers int) ([]Result, error) {
	if !parallel {
		results := make([]Result, n)
		for i := 0; i < n; i++ {
			a, m, err := runOne(ctx, i)
			if err != nil {
				return nil, fmt.Errorf("ensemble member %d: %w", i, err)
			}
			results[i] = Result{Index: i, AgentDF: a, ModelDF: m}
		}
		return results, nil
	}
	return runParallel(ctx, n, runOne, maxWorkers)
}

func runParallel(ctx context.Context, n int, runOne RunOne, maxWorkers int) ([]Result, error) {
	if maxWorkers <= 0 {
		maxWorkers = n
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	results := make([]Result, n)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			a, m, err := runOne(gctx, i)
			if err != nil {
				return fmt.Errorf("ensemble member %d: %w", i, err)
			}
			results[i] = Result{Index: i, AgentDF: a, ModelDF: m}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunAccumulating runs n models in parallel like Run, additionally folding
// extract(agentDF, modelDF) for every completed member into a
// SharedAccumulator concurrently, without a mutex — useful for a live
// running total (cumulative wealth, best fitness seen) a caller wants
// without waiting for every worker to finish.
func RunAccumulating(ctx context.Context, n int, runOne RunOne, extract func(agentDF, modelDF *collect.Frame) float64, maxWorkers int) ([]Result, *SharedAccumulator, error) {
	if maxWorkers <= 0 {
		maxWorkers = n
	}
	acc := NewSharedAccumulator()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	results := make([]Result, n)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			a, m, err := runOne(gctx, i)
			if err != nil {
				return fmt.Errorf("ensemble member %d: %w", i, err)
			}
			results[i] = Result{Index: i, AgentDF: a, ModelDF: m}
			acc.Add(extract(a, m))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return results, acc, nil
}

// Progress reports one completed ensemble member; Stream fans completion
// notices from independent workers into a single ordered-by-arrival
// channel, for a live progress display during a long parallel scan.
type Progress struct {
	Index int
	Err   error
}

// Stream runs n models in parallel like Run, but additionally emits a
// Progress event on the returned channel as each worker finishes,
// multiplexed with channerics.Merge the way the teacher merges per-episode
// result channels in reinforcement.learning. The channel is closed once
// every worker has reported (or ctx is done); a member's error travels only
// in its own Progress.Err, and the returned function reports the first
// member error by index, or every Result if none failed.
func Stream(ctx context.Context, n int, runOne RunOne, maxWorkers int) (<-chan Progress, func() ([]Result, error)) {
	if maxWorkers <= 0 {
		maxWorkers = n
	}
	workers := make([]<-chan Progress, n)
	results := make([]Result, n)
	errs := make([]error, n)

	sem := make(chan struct{}, maxWorkers)
	for i := 0; i < n; i++ {
		i := i
		ch := make(chan Progress, 1)
		workers[i] = ch
		go func() {
			sem <- struct{}{}
			defer func() { <-sem }()
			a, m, err := runOne(ctx, i)
			if err != nil {
				errs[i] = err
			} else {
				results[i] = Result{Index: i, AgentDF: a, ModelDF: m}
			}
			ch <- Progress{Index: i, Err: err}
			close(ch)
		}()
	}

	merged := channerics.Merge(ctx.Done(), workers...)
	out := make(chan Progress)
	go func() {
		defer close(out)
		for p := range merged {
			out <- p
		}
	}()

	collectResults := func() ([]Result, error) {
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
		return results, nil
	}
	return out, collectResults
}
