package model

import (
	"abm/agent"
	"abm/identity"
	"abm/space/grid"
)

// AddAgent constructs an agent at pos via construct and registers it with
// both the container and the grid, per spec §4.2.3.
func AddAgent[A agent.Spatial[grid.Pos]](m *Model[*grid.Space], requested identity.ID, pos grid.Pos, construct func(identity.ID) A) (A, error) {
	var zero A
	id, err := m.nextID(requested)
	if err != nil {
		return zero, err
	}
	a := construct(id)
	a.SetPos(pos)
	if err := m.insert(a); err != nil {
		return zero, err
	}
	if err := m.Space.AddToSpace(id, pos); err != nil {
		m.takeAgent(id)
		return zero, err
	}
	return a, nil
}

// RandomEmpty constructs an agent at a uniformly sampled empty cell.
func RandomEmpty[A agent.Spatial[grid.Pos]](m *Model[*grid.Space], construct func(identity.ID) A) (A, error) {
	var zero A
	pos, err := m.Space.EmptyPosition(m.rng)
	if err != nil {
		return zero, err
	}
	return AddAgent[A](m, identity.Empty, pos, construct)
}

// RemoveAgent deregisters id from both the container and the grid.
func RemoveAgent(m *Model[*grid.Space], id identity.ID, pos grid.Pos) (agent.Agent, bool) {
	a, ok := m.takeAgent(id)
	if ok {
		m.Space.RemoveFromSpace(id, pos)
	}
	return a, ok
}

// MoveAgent relocates a to newPos, updating both the agent and the grid.
func MoveAgent[A agent.Spatial[grid.Pos]](m *Model[*grid.Space], a A, newPos grid.Pos) error {
	if err := m.Space.MoveAgent(a.AgentID(), a.Pos(), newPos); err != nil {
		return err
	}
	a.SetPos(newPos)
	return nil
}

// NearbyAgents resolves NearbyIDs around pos into agent values, excluding
// self, per the "spatial queries exclude the asking agent" contract.
func NearbyAgents(m *Model[*grid.Space], self identity.ID, pos grid.Pos, r int) []agent.Agent {
	var out []agent.Agent
	for _, id := range m.Space.NearbyIDsExcluding(pos, r, self) {
		if a, ok := m.Lookup(id); ok {
			out = append(out, a)
		}
	}
	return out
}

// RandomPosition delegates to the grid, seeded by the model's own RNG.
func RandomPosition(m *Model[*grid.Space]) grid.Pos { return m.Space.RandomPosition(m.rng) }

// EmptyPosition delegates to the grid, seeded by the model's own RNG.
func EmptyPosition(m *Model[*grid.Space]) (grid.Pos, error) { return m.Space.EmptyPosition(m.rng) }
