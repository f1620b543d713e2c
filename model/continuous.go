package model

import (
	"abm/agent"
	"abm/identity"
	"abm/space/continuous"
)

// AddAgentContinuous constructs an agent at pos (normalized per the space's
// periodicity) and registers it, per spec §4.2.5.
func AddAgentContinuous[A agent.Spatial[continuous.Pos]](m *Model[*continuous.Space], requested identity.ID, pos continuous.Pos, construct func(identity.ID) A) (A, error) {
	var zero A
	norm, err := m.Space.Normalize(pos)
	if err != nil {
		return zero, err
	}
	id, err := m.nextID(requested)
	if err != nil {
		return zero, err
	}
	a := construct(id)
	a.SetPos(norm)
	if err := m.insert(a); err != nil {
		return zero, err
	}
	m.Space.AddToSpace(id, norm)
	return a, nil
}

// RemoveAgentContinuous deregisters id from both the container and the
// bucket index.
func RemoveAgentContinuous(m *Model[*continuous.Space], id identity.ID, pos continuous.Pos) (agent.Agent, bool) {
	a, ok := m.takeAgent(id)
	if ok {
		m.Space.RemoveFromSpace(id, pos)
	}
	return a, ok
}

// MoveAgentContinuous displaces a by vel*dt and reindexes it.
func MoveAgentContinuous[A agent.Kinetic[continuous.Pos]](m *Model[*continuous.Space], a A, dt float64) error {
	return continuous.MoveAgent(m.Space, a, dt)
}

// WalkContinuous displaces a by an explicit delta (rather than vel*dt) and
// reindexes it.
func WalkContinuous[A agent.Kinetic[continuous.Pos]](m *Model[*continuous.Space], a A, delta continuous.Pos) error {
	return continuous.Walk(m.Space, a, delta)
}

// NearbyAgentsContinuous resolves the exact (true-distance-filtered)
// neighborhood of pos within r into agent values, excluding self.
func NearbyAgentsContinuous[A agent.Spatial[continuous.Pos]](m *Model[*continuous.Space], self identity.ID, pos continuous.Pos, r float64, lookup func(identity.ID) (A, bool)) []agent.Agent {
	var out []agent.Agent
	for _, id := range continuous.NearbyIDsExact[A](m.Space, pos, r, lookup) {
		if id == self {
			continue
		}
		if a, ok := m.Lookup(id); ok {
			out = append(out, a)
		}
	}
	return out
}

// RandomPositionContinuous delegates to the space, seeded by the model's RNG.
func RandomPositionContinuous(m *Model[*continuous.Space]) continuous.Pos {
	return m.Space.RandomPosition(m.rng)
}
