// Package container implements the agent collection described in spec
// §4.1: O(1) lookup/removal, documented iteration order, and predicate-aware
// random sampling. Two backends are provided, selected by the model's
// `container` option (§6.3): a map-backed Dict (hash iteration order) and a
// dense-vector-with-tombstones backend (insertion order), matching "the
// container is either a random-access mapping or a dense-vector with
// tombstones (implementer's choice, but observable iteration order must be
// documented)".
package container

import (
	"math/rand"

	"abm/abmerr"
	"abm/agent"
	"abm/identity"
	"fmt"
)

// Container is the agent collection contract.
type Container interface {
	// Add inserts a, failing with ErrDuplicateID if its id is already present.
	Add(a agent.Agent) error
	// Remove deletes and returns the agent stored at id.
	Remove(id identity.ID) (agent.Agent, bool)
	// Lookup returns the agent stored at id.
	Lookup(id identity.ID) (agent.Agent, bool)
	// Contains reports whether id is present.
	Contains(id identity.ID) bool
	// Count returns the number of live agents.
	Count() int
	// IterateAll returns a snapshot of all live agents in the backend's
	// documented order. The slice is the caller's to keep; mutating the
	// container afterward does not retroactively change it.
	IterateAll() []agent.Agent
	// RandomAgent draws uniformly among agents satisfying pred (or all
	// agents, if pred is nil). ok is false if no agent matches within the
	// sampling budget.
	RandomAgent(rng *rand.Rand, pred func(agent.Agent) bool) (a agent.Agent, ok bool)
}

// Kind selects a Container backend, per the model `container` option.
type Kind string

const (
	// Dict backs the container with a map; iteration order is Go's
	// randomized hash order, re-randomized per process run.
	Dict Kind = "dict"
	// DenseVector backs the container with a slice plus tombstones;
	// iteration order is insertion order, skipping removed slots.
	DenseVector Kind = "dense_vector"
)

// New constructs a Container of the requested kind.
func New(kind Kind) Container {
	switch kind {
	case DenseVector:
		return newDense()
	default:
		return newDict()
	}
}

// rejectionBudgetFactor bounds expected rejection-sampling attempts to
// 3 * N / N_matching per spec §4.1; since N_matching is unknown up front we
// use 3*N as the worst-case (N_matching==1) budget before falling back to a
// full filtered scan.
const rejectionBudgetFactor = 3

func randomWithPredicate(rng *rand.Rand, n int, at func(int) agent.Agent, pred func(agent.Agent) bool) (agent.Agent, bool) {
	if n == 0 {
		return nil, false
	}
	if pred == nil {
		return at(rng.Intn(n)), true
	}

	budget := rejectionBudgetFactor * n
	for i := 0; i < budget; i++ {
		a := at(rng.Intn(n))
		if a != nil && pred(a) {
			return a, true
		}
	}

	// Fall back to a full scan: collect every match and choose uniformly.
	var matches []agent.Agent
	for i := 0; i < n; i++ {
		if a := at(i); a != nil && pred(a) {
			matches = append(matches, a)
		}
	}
	if len(matches) == 0 {
		return nil, false
	}
	return matches[rng.Intn(len(matches))], true
}

// dict is the map-backed Container.
type dict struct {
	agents map[identity.ID]agent.Agent
}

func newDict() *dict {
	return &dict{agents: map[identity.ID]agent.Agent{}}
}

func (d *dict) Add(a agent.Agent) error {
	id := a.AgentID()
	if _, exists := d.agents[id]; exists {
		return fmt.Errorf("%w: id %d already present", abmerr.ErrDuplicateID, id)
	}
	d.agents[id] = a
	return nil
}

func (d *dict) Remove(id identity.ID) (agent.Agent, bool) {
	a, ok := d.agents[id]
	if !ok {
		return nil, false
	}
	delete(d.agents, id)
	return a, true
}

func (d *dict) Lookup(id identity.ID) (agent.Agent, bool) {
	a, ok := d.agents[id]
	return a, ok
}

func (d *dict) Contains(id identity.ID) bool {
	_, ok := d.agents[id]
	return ok
}

func (d *dict) Count() int { return len(d.agents) }

func (d *dict) IterateAll() []agent.Agent {
	out := make([]agent.Agent, 0, len(d.agents))
	for _, a := range d.agents {
		out = append(out, a)
	}
	return out
}

func (d *dict) RandomAgent(rng *rand.Rand, pred func(agent.Agent) bool) (agent.Agent, bool) {
	all := d.IterateAll()
	return randomWithPredicate(rng, len(all), func(i int) agent.Agent { return all[i] }, pred)
}

// dense is the slice-with-tombstones Container; iteration order is
// insertion order, skipping removed (nil) slots.
type dense struct {
	slots []agent.Agent
	index map[identity.ID]int
	live  int
}

func newDense() *dense {
	return &dense{index: map[identity.ID]int{}}
}

func (ds *dense) Add(a agent.Agent) error {
	id := a.AgentID()
	if _, exists := ds.index[id]; exists {
		return fmt.Errorf("%w: id %d already present", abmerr.ErrDuplicateID, id)
	}
	ds.index[id] = len(ds.slots)
	ds.slots = append(ds.slots, a)
	ds.live++
	return nil
}

func (ds *dense) Remove(id identity.ID) (agent.Agent, bool) {
	i, ok := ds.index[id]
	if !ok {
		return nil, false
	}
	a := ds.slots[i]
	ds.slots[i] = nil
	delete(ds.index, id)
	ds.live--
	return a, true
}

func (ds *dense) Lookup(id identity.ID) (agent.Agent, bool) {
	i, ok := ds.index[id]
	if !ok {
		return nil, false
	}
	return ds.slots[i], true
}

func (ds *dense) Contains(id identity.ID) bool {
	_, ok := ds.index[id]
	return ok
}

func (ds *dense) Count() int { return ds.live }

func (ds *dense) IterateAll() []agent.Agent {
	out := make([]agent.Agent, 0, ds.live)
	for _, a := range ds.slots {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

func (ds *dense) RandomAgent(rng *rand.Rand, pred func(agent.Agent) bool) (agent.Agent, bool) {
	if pred == nil {
		// Rejection-sample directly over slots (which may contain
		// tombstones) to avoid building a snapshot for the common case.
		if len(ds.slots) == 0 {
			return nil, false
		}
		budget := rejectionBudgetFactor * len(ds.slots)
		for i := 0; i < budget; i++ {
			if a := ds.slots[rng.Intn(len(ds.slots))]; a != nil {
				return a, true
			}
		}
	}
	all := ds.IterateAll()
	return randomWithPredicate(rng, len(all), func(i int) agent.Agent { return all[i] }, pred)
}
