package model

import (
	"abm/agent"
	"abm/identity"
	"abm/space/grid"
)

// AddAgentSingle constructs an agent at pos via construct, failing with
// CellOccupied if pos is already taken (spec §4.2.4).
func AddAgentSingle[A agent.Spatial[grid.Pos]](m *Model[*grid.SingleSpace], requested identity.ID, pos grid.Pos, construct func(identity.ID) A) (A, error) {
	var zero A
	id, err := m.nextID(requested)
	if err != nil {
		return zero, err
	}
	if err := m.Space.AddAgentSingle(id, pos); err != nil {
		return zero, err
	}
	a := construct(id)
	a.SetPos(pos)
	if err := m.insert(a); err != nil {
		m.Space.RemoveFromSpace(id, pos)
		return zero, err
	}
	return a, nil
}

// RandomEmptySingle constructs an agent at a uniformly sampled empty cell.
func RandomEmptySingle[A agent.Spatial[grid.Pos]](m *Model[*grid.SingleSpace], construct func(identity.ID) A) (A, error) {
	var zero A
	pos, err := m.Space.EmptyPosition(m.rng)
	if err != nil {
		return zero, err
	}
	return AddAgentSingle[A](m, identity.Empty, pos, construct)
}

// RemoveAgentSingle deregisters id from both the container and the grid.
func RemoveAgentSingle(m *Model[*grid.SingleSpace], id identity.ID, pos grid.Pos) (agent.Agent, bool) {
	a, ok := m.takeAgent(id)
	if ok {
		m.Space.RemoveFromSpace(id, pos)
	}
	return a, ok
}

// MoveAgentSingle relocates a to newPos, failing with CellOccupied and
// leaving the agent in place if newPos is already taken.
func MoveAgentSingle[A agent.Spatial[grid.Pos]](m *Model[*grid.SingleSpace], a A, newPos grid.Pos) error {
	if err := m.Space.MoveAgentSingle(a.AgentID(), a.Pos(), newPos); err != nil {
		return err
	}
	a.SetPos(newPos)
	return nil
}

// NearbyAgentsSingle resolves NearbyIDs around pos into agent values.
func NearbyAgentsSingle(m *Model[*grid.SingleSpace], pos grid.Pos, r int) []agent.Agent {
	var out []agent.Agent
	for _, id := range m.Space.NearbyIDs(pos, r) {
		if a, ok := m.Lookup(id); ok {
			out = append(out, a)
		}
	}
	return out
}
