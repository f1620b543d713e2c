// Package model implements the Model container of spec §3/§6: the single
// object owning the agent collection, the space, the scheduler, a private
// RNG, arbitrary model-level properties, and the running step count. It is
// generic over the concrete space type (S), mirroring the teacher's
// preference for a small number of concrete, explicit types over one
// do-everything interface — see package space's doc for why a single
// polymorphic Space interface was rejected.
//
// Space-specific operations (add_agent, move_agent, nearby_ids, ...) live
// beside their space package (model/grid.go, model/continuous.go, ...) as
// generic free functions rather than methods, since each needs a different
// position type and a different agent constraint.
package model

import (
	"math/rand"

	"abm/abmerr"
	"abm/agent"
	"abm/container"
	"abm/identity"
	"abm/scheduler"
	"abm/stepping"
)

// AgentStepFunc is invoked once per scheduled agent per step.
type AgentStepFunc func(a agent.Agent, m ModelControl)

// ModelStepFunc is invoked once per step, after every scheduled agent has
// stepped.
type ModelStepFunc func(m ModelControl)

// ModelControl is the surface agent/model step functions see: enough to
// read and mutate model-level state without coupling step functions to a
// concrete space type. Space-specific mutation is reached through the
// space-typed Model value its owner closes over instead.
type ModelControl interface {
	scheduler.ModelView
	Time() int
	Properties() map[string]interface{}
	SetProperty(key string, val interface{})
	Lookup(id identity.ID) (agent.Agent, bool)
	RandomAgent(pred func(agent.Agent) bool) (agent.Agent, bool)
}

// Model is the ABM container, generic over its concrete space type S (one
// of *nospace.Space, *grid.Space, *grid.SingleSpace, *continuous.Space,
// *graphspace.Space, *osm.Space).
type Model[S any] struct {
	Space S

	agents   container.Container
	alloc    *identity.Allocator
	registry *agent.Registry
	rng      *rand.Rand
	props    map[string]interface{}
	time     int

	scheduler   scheduler.Scheduler
	agentStep   AgentStepFunc
	modelStep   ModelStepFunc
	warn        bool
}

// Options configures model_new per spec §6.3.
type Options struct {
	Scheduler  scheduler.Scheduler
	Properties map[string]interface{}
	RNG        *rand.Rand
	Warn       bool
	Container  container.Kind
	AgentStep  AgentStepFunc
	ModelStep  ModelStepFunc
}

// New constructs a Model over an already-built space, registering the given
// agent variant samples (by declaration order) and applying opts.
// model_new fails with ConfigError if no agent variants are given.
func New[S any](space S, variants []agent.Agent, opts Options) (*Model[S], error) {
	reg, err := agent.NewRegistry(variants...)
	if err != nil {
		return nil, err
	}

	sched := opts.Scheduler
	if sched == nil {
		sched = scheduler.Fastest
	}
	rng := opts.RNG
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	props := opts.Properties
	if props == nil {
		props = map[string]interface{}{}
	}
	kind := opts.Container
	if kind == "" {
		kind = container.Dict
	}

	return &Model[S]{
		Space:     space,
		agents:    container.New(kind),
		alloc:     identity.NewAllocator(identity.Empty),
		registry:  reg,
		rng:       rng,
		props:     props,
		scheduler: sched,
		agentStep: opts.AgentStep,
		modelStep: opts.ModelStep,
		warn:      opts.Warn,
	}, nil
}

// Agents returns a snapshot of every live agent, satisfying
// scheduler.ModelView.
func (m *Model[S]) Agents() []agent.Agent { return m.agents.IterateAll() }

// RNG returns the model's private random source, satisfying
// scheduler.ModelView.
func (m *Model[S]) RNG() *rand.Rand { return m.rng }

// Registry returns the model's closed agent-variant set, satisfying
// scheduler.ModelView.
func (m *Model[S]) Registry() *agent.Registry { return m.registry }

// Time returns the number of steps executed so far.
func (m *Model[S]) Time() int { return m.time }

// AdvanceTime increments the step counter; called by the stepping package
// once per completed step.
func (m *Model[S]) AdvanceTime() { m.time++ }

// Properties returns the live model-property map (mutate directly or via
// SetProperty).
func (m *Model[S]) Properties() map[string]interface{} { return m.props }

// SetProperty assigns a model-level property.
func (m *Model[S]) SetProperty(key string, val interface{}) { m.props[key] = val }

// Count returns the number of live agents.
func (m *Model[S]) Count() int { return m.agents.Count() }

// Lookup returns the agent stored at id.
func (m *Model[S]) Lookup(id identity.ID) (agent.Agent, bool) { return m.agents.Lookup(id) }

// Contains reports whether id is present.
func (m *Model[S]) Contains(id identity.ID) bool { return m.agents.Contains(id) }

// Scheduler returns the configured step ordering strategy.
func (m *Model[S]) Scheduler() scheduler.Scheduler { return m.scheduler }

// SetScheduler replaces the step ordering strategy (e.g. after a checkpoint
// load re-binds it by name).
func (m *Model[S]) SetScheduler(s scheduler.Scheduler) { m.scheduler = s }

// AgentStep returns the configured per-agent step function, or nil.
func (m *Model[S]) AgentStep() AgentStepFunc { return m.agentStep }

// ModelStep returns the configured per-step model function, or nil.
func (m *Model[S]) ModelStep() ModelStepFunc { return m.modelStep }

// SetAgentStep/SetModelStep re-bind step functions, e.g. after a checkpoint
// load restores function pointers by name (spec §6.2).
func (m *Model[S]) SetAgentStep(f AgentStepFunc) { m.agentStep = f }
func (m *Model[S]) SetModelStep(f ModelStepFunc) { m.modelStep = f }

// Warn reports the Warn option the model was constructed with.
func (m *Model[S]) Warn() bool { return m.warn }

// MaxID reports the highest AgentID allocated or observed so far, for a
// checkpoint writer to persist alongside the agent set.
func (m *Model[S]) MaxID() identity.ID { return m.alloc.MaxID() }

// ObserveID folds an externally supplied id into the allocator, e.g. when a
// checkpoint load reinserts agents with their original ids.
func (m *Model[S]) ObserveID(id identity.ID) { m.alloc.Observe(id) }

// SetTime forcibly sets the model clock, e.g. when resuming from a
// checkpoint.
func (m *Model[S]) SetTime(t int) { m.time = t }

// nextID allocates the next id when requested is identity.Empty; otherwise
// it observes the user-supplied id, failing with ErrDuplicateID if it is
// already present, matching "add_agent accepts a user-supplied
// id equal to max_id+1 or any unused id" (§4.1 invariant 1).
func (m *Model[S]) nextID(requested identity.ID) (identity.ID, error) {
	if requested == identity.Empty {
		return m.alloc.Next(), nil
	}
	if m.agents.Contains(requested) {
		return 0, abmerr.ErrDuplicateID
	}
	m.alloc.Observe(requested)
	return requested, nil
}

// insert adds a to the agent container, failing with ErrInvalidAgent if its
// concrete type was never registered as a variant.
func (m *Model[S]) insert(a agent.Agent) error {
	if _, _, ok := m.registry.VariantOf(a); !ok {
		return abmerr.ErrInvalidAgent
	}
	return m.agents.Add(a)
}

// Restore inserts a with its own already-set AgentID, bypassing allocation,
// and folds that id into the allocator so later AddAgent calls never
// collide with it. Space indexing is the caller's responsibility — a
// checkpoint loader restores positions via the space-specific AddAgent
// helpers or by indexing the space directly, depending on variant.
func (m *Model[S]) Restore(a agent.Agent) error {
	if err := m.insert(a); err != nil {
		return err
	}
	m.ObserveID(a.AgentID())
	return nil
}

// takeAgent removes and returns the agent stored at id, for use by the
// space-specific RemoveAgent implementations.
func (m *Model[S]) takeAgent(id identity.ID) (agent.Agent, bool) {
	return m.agents.Remove(id)
}

// RemoveAll empties the agent container and delegates space cleanup to fn,
// called once per removed agent before it is dropped (per_space removal
// bookkeeping such as bucket/cell membership).
func (m *Model[S]) RemoveAll(fn func(a agent.Agent)) {
	for _, a := range m.agents.IterateAll() {
		fn(a)
		m.agents.Remove(a.AgentID())
	}
}

// RandomAgent draws uniformly from agents satisfying pred (nil means all).
func (m *Model[S]) RandomAgent(pred func(agent.Agent) bool) (agent.Agent, bool) {
	return m.agents.RandomAgent(m.rng, pred)
}

// Step advances the model by exactly one step via stepping.Step, adapting
// the model's own bound agentStep/modelStep (AgentStepFunc's signature
// carries a ModelControl; stepping.Step's does not) by closing over m
// itself. This is the usual entry point a caller reaches for instead of
// calling stepping.Step directly, since it always drives the step/model
// functions the Model was configured with (or later rebound via
// SetAgentStep/SetModelStep, e.g. after a checkpoint load).
func (m *Model[S]) Step() {
	var agentStep stepping.AgentStepFunc
	if m.agentStep != nil {
		agentStep = func(a agent.Agent) { m.agentStep(a, m) }
	}
	var modelStep stepping.ModelStepFunc
	if m.modelStep != nil {
		modelStep = func() { m.modelStep(m) }
	}
	stepping.Step(m, m.scheduler, agentStep, modelStep)
}
