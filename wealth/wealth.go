// Package wealth implements the wealth-exchange demo of spec §8 scenario
// S6: a fixed population of agents with no spatial structure, each holding
// a scalar wealth that a random pairwise transfer rule redistributes every
// step while conserving the total. It exists to exercise model, scheduler,
// stepping, and collect end to end over the nospace variant, the way the
// teacher's grid_world package gives reinforcement.learning something
// concrete to train against.
package wealth

import (
	"math/rand"

	"abm/abmerr"
	"abm/agent"
	"abm/collect"
	"abm/identity"
	"abm/model"
	"abm/scheduler"
	"abm/space/nospace"
)

// Agent holds one participant's wealth. Wealth is mutated in place by
// Step, so Agent is always handled through a pointer — the registry and
// container both key off the pointee's concrete type, not the pointer
// type, per agent.Registry's VariantOf.
type Agent struct {
	agent.Base
	Wealth float64
}

// NewAgent constructs a participant with the given starting wealth.
func NewAgent(id identity.ID, startingWealth float64) *Agent {
	return &Agent{Base: agent.Base{ID: id}, Wealth: startingWealth}
}

// WealthAccessor reads Wealth off an Agent for collect.AdataSpec, reporting
// ok=false for any agent variant that isn't *Agent (there is only one
// variant in this model, but the accessor still honors the mixed-variant
// contract of spec §4.5).
var WealthAccessor = collect.Accessor{
	Name: "wealth",
	Get: func(a agent.Agent) (interface{}, bool) {
		w, ok := a.(*Agent)
		if !ok {
			return nil, false
		}
		return w.Wealth, true
	},
}

// NewModel builds a Model[*nospace.Space] populated with numAgents
// participants, each starting with startingWealth, scheduled in uniform
// random order (the classic wealth-exchange rule depends on a fresh random
// pairing every step, not just a random giver order, but randomizing the
// schedule in addition to the draw inside Step matches the way the
// teacher's own grid_world episodes randomize move order alongside the
// environment's own randomness).
func NewModel(numAgents int, startingWealth float64, seed int64) (*model.Model[*nospace.Space], error) {
	if numAgents <= 0 {
		return nil, abmerr.ErrConfig
	}
	m, err := model.New(nospace.New(), []agent.Agent{&Agent{}}, model.Options{
		Scheduler: scheduler.Randomly,
		RNG:       rand.New(rand.NewSource(seed)),
		AgentStep: Step,
	})
	if err != nil {
		return nil, err
	}
	for i := 0; i < numAgents; i++ {
		if _, err := model.AddAgentNoSpace(m, identity.Empty, func(id identity.ID) *Agent {
			return NewAgent(id, startingWealth)
		}); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Step is the model's AgentStepFunc: a giver with positive wealth picks a
// uniformly random other live agent and transfers one unit to it. Givers
// with zero wealth sit out their turn, per the standard wealth-exchange
// model's boundary rule (nobody goes into debt). Conservation follows
// directly: every transfer removes one unit from exactly one agent and
// adds it to exactly one other.
func Step(a agent.Agent, m model.ModelControl) {
	giver, ok := a.(*Agent)
	if !ok || giver.Wealth <= 0 {
		return
	}
	recipient, ok := m.RandomAgent(func(other agent.Agent) bool {
		return other.AgentID() != giver.AgentID()
	})
	if !ok {
		return
	}
	taker, ok := recipient.(*Agent)
	if !ok {
		return
	}
	giver.Wealth--
	taker.Wealth++
}

// TotalWealth sums every agent's wealth, the invariant a caller checks
// before/after a run to confirm the exchange rule conserved money exactly
// (spec §8 testable property: "total wealth is invariant across any number
// of steps").
func TotalWealth(m *model.Model[*nospace.Space]) float64 {
	total := 0.0
	for _, a := range m.Agents() {
		if v, ok := WealthAccessor.Get(a); ok {
			total += v.(float64)
		}
	}
	return total
}
