// Package stepping implements the model evolution loop of spec §4.4:
// step!(model, n|predicate) and run!(model, n; adata, mdata, when,
// when_model, obtainer). Mid-step mutation semantics are the crux: an
// agent removed during the step is skipped if not yet visited, and an
// agent added during the step is inserted into the live container
// immediately (visible to spatial queries) but excluded from *this* step's
// schedule, since the schedule is a snapshot taken once at step start. This
// mirrors the teacher's habit of draining a pending-work channel once per
// outer loop iteration (reinforcement.learning's episode loop) rather than
// mutating the thing being iterated in place.
package stepping

import (
	"abm/agent"
	"abm/identity"
	"abm/scheduler"
)

// Host is the minimal surface step!/run! need from a model: the
// scheduler.ModelView it needs to compute an order, plus the lookup and
// time bookkeeping needed to execute it. model.Model[S] satisfies this for
// any concrete space S.
type Host interface {
	scheduler.ModelView
	Lookup(id identity.ID) (agent.Agent, bool)
	AdvanceTime()
	Time() int
}

// AgentStepFunc runs once per scheduled, still-live agent.
type AgentStepFunc func(a agent.Agent)

// ModelStepFunc runs once per step, after every scheduled agent has
// stepped.
type ModelStepFunc func()

// Step advances the model by exactly one step: snapshot the schedule,
// visit each still-live id in order (ids removed after the snapshot was
// taken but before their turn are silently skipped), call agentStep on
// each, then call modelStep once, then advance time.
//
// Agents added mid-step by agentStep/modelStep go through the model's own
// add_agent and are immediately visible to spatial/container queries
// (invariant: "a newly added agent is visible to other agents' queries
// within the same step") but are never visited by *this* step's schedule,
// since the schedule was already snapshotted.
func Step(h Host, sched scheduler.Scheduler, agentStep AgentStepFunc, modelStep ModelStepFunc) {
	order := sched.Schedule(h)
	for _, id := range order {
		a, ok := h.Lookup(id)
		if !ok {
			continue // removed before its turn: skip, per §4.4 edge case.
		}
		if agentStep != nil {
			agentStep(a)
		}
	}
	if modelStep != nil {
		modelStep()
	}
	h.AdvanceTime()
}

// Predicate decides whether to continue stepping, given the model and the
// number of steps already completed in this Run call.
type Predicate func(h Host, stepsSoFar int) bool

// UntilStep returns a Predicate that runs for exactly n steps.
func UntilStep(n int) Predicate {
	return func(_ Host, stepsSoFar int) bool { return stepsSoFar < n }
}

// Run drives Step repeatedly while pred holds, invoking onStep after every
// completed step (the hook run!'s data-collection machinery installs to
// sample adata/mdata at the configured cadence).
func Run(h Host, sched scheduler.Scheduler, agentStep AgentStepFunc, modelStep ModelStepFunc, pred Predicate, onStep func(h Host, step int)) {
	steps := 0
	for pred(h, steps) {
		Step(h, sched, agentStep, modelStep)
		steps++
		if onStep != nil {
			onStep(h, steps)
		}
	}
}
