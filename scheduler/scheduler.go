// Package scheduler implements the ordering strategies of spec §4.3. A
// Scheduler is a function model -> iterator of AgentID, invoked once per
// step; the returned ordering must not outlive the step. Both callable
// (fresh-allocation) and stateful-object (reused-buffer) forms exist and
// are semantically identical, mirroring the teacher's habit of offering a
// plain closure form alongside a builder/object form (e.g.
// fastview.ViewBuilder vs a one-off closure).
package scheduler

import (
	"math/rand"
	"sort"

	"abm/agent"
	"abm/identity"
)

// ModelView is the minimal surface a Scheduler needs from a model.
type ModelView interface {
	Agents() []agent.Agent
	RNG() *rand.Rand
	Registry() *agent.Registry
}

// Scheduler yields an agent visit order for one step.
type Scheduler interface {
	Schedule(m ModelView) []identity.ID
}

// Func adapts a plain function to the Scheduler interface.
type Func func(m ModelView) []identity.ID

func (f Func) Schedule(m ModelView) []identity.ID { return f(m) }

func ids(agents []agent.Agent) []identity.ID {
	out := make([]identity.ID, len(agents))
	for i, a := range agents {
		out[i] = a.AgentID()
	}
	return out
}

// Fastest yields ids in the container's own iteration order (undefined but
// deterministic for a given seed/container kind).
var Fastest Scheduler = Func(func(m ModelView) []identity.ID {
	return ids(m.Agents())
})

// ByID yields ids in ascending order.
var ByID Scheduler = Func(func(m ModelView) []identity.ID {
	out := ids(m.Agents())
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
})

// Randomly yields a fresh uniform shuffle every step.
var Randomly Scheduler = Func(func(m ModelView) []identity.ID {
	out := ids(m.Agents())
	m.RNG().Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
})

// Partially returns a scheduler yielding a random subset of size
// floor(p*N) each step.
func Partially(p float64) Scheduler {
	return Func(func(m ModelView) []identity.ID {
		out := ids(m.Agents())
		m.RNG().Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		n := int(p * float64(len(out)))
		return out[:n]
	})
}

// ByProperty returns a scheduler ordering ascending by the named field,
// read via getField (agent -> comparable key, e.g. a float64 or int).
func ByProperty(getField func(agent.Agent) float64) Scheduler {
	return Func(func(m ModelView) []identity.ID {
		agents := m.Agents()
		sort.Slice(agents, func(i, j int) bool {
			return getField(agents[i]) < getField(agents[j])
		})
		return ids(agents)
	})
}

// buffered wraps a Scheduler, reusing its own backing array across Schedule
// calls instead of allocating fresh each step. The stateful object forms
// below (NewRandomly, NewByID, ...) are semantically identical to their
// callable-form counterparts; prefer them in hot loops.
type buffered struct {
	buf  []identity.ID
	fill func(m ModelView, buf []identity.ID) []identity.ID
}

func (b *buffered) Schedule(m ModelView) []identity.ID {
	b.buf = b.fill(m, b.buf[:0])
	return b.buf
}

// NewByID returns a stateful ByID scheduler reusing one backing array.
func NewByID() Scheduler {
	return &buffered{fill: func(m ModelView, buf []identity.ID) []identity.ID {
		for _, a := range m.Agents() {
			buf = append(buf, a.AgentID())
		}
		sort.Slice(buf, func(i, j int) bool { return buf[i] < buf[j] })
		return buf
	}}
}

// NewRandomly returns a stateful Randomly scheduler reusing one backing array.
func NewRandomly() Scheduler {
	return &buffered{fill: func(m ModelView, buf []identity.ID) []identity.ID {
		for _, a := range m.Agents() {
			buf = append(buf, a.AgentID())
		}
		m.RNG().Shuffle(len(buf), func(i, j int) { buf[i], buf[j] = buf[j], buf[i] })
		return buf
	}}
}

// NewPartially returns a stateful Partially(p) scheduler reusing one
// backing array.
func NewPartially(p float64) Scheduler {
	return &buffered{fill: func(m ModelView, buf []identity.ID) []identity.ID {
		for _, a := range m.Agents() {
			buf = append(buf, a.AgentID())
		}
		m.RNG().Shuffle(len(buf), func(i, j int) { buf[i], buf[j] = buf[j], buf[i] })
		n := int(p * float64(len(buf)))
		return buf[:n]
	}}
}

// NewByProperty returns a stateful ByProperty scheduler reusing one
// backing slice of agents for sorting.
func NewByProperty(getField func(agent.Agent) float64) Scheduler {
	var agentBuf []agent.Agent
	return Func(func(m ModelView) []identity.ID {
		agentBuf = append(agentBuf[:0], m.Agents()...)
		sort.Slice(agentBuf, func(i, j int) bool { return getField(agentBuf[i]) < getField(agentBuf[j]) })
		return ids(agentBuf)
	})
}

// ByType groups ids by concrete variant (declaration order from the
// model's Registry), optionally shuffling the type ordering and/or the
// per-type agent ordering (spec §4.3).
func ByType(shuffleTypes, shuffleAgents bool) Scheduler {
	return Func(func(m ModelView) []identity.ID {
		reg := m.Registry()
		buckets := make([][]agent.Agent, reg.NumVariants())
		for _, a := range m.Agents() {
			idx, _, ok := reg.VariantOf(a)
			if !ok {
				continue
			}
			buckets[idx] = append(buckets[idx], a)
		}

		typeOrder := make([]int, reg.NumVariants())
		for i := range typeOrder {
			typeOrder[i] = i
		}
		if shuffleTypes {
			m.RNG().Shuffle(len(typeOrder), func(i, j int) {
				typeOrder[i], typeOrder[j] = typeOrder[j], typeOrder[i]
			})
		}

		var out []identity.ID
		for _, t := range typeOrder {
			bucket := buckets[t]
			if shuffleAgents {
				m.RNG().Shuffle(len(bucket), func(i, j int) { bucket[i], bucket[j] = bucket[j], bucket[i] })
			}
			out = append(out, ids(bucket)...)
		}
		return out
	})
}
