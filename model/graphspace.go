package model

import (
	"abm/agent"
	"abm/identity"
	"abm/space"
	"abm/space/graphspace"
)

// AddAgentGraph constructs an agent at vertex v via construct and registers
// it, per spec §4.2.2.
func AddAgentGraph[A agent.Spatial[graphspace.Pos]](m *Model[*graphspace.Space], requested identity.ID, v graphspace.Pos, construct func(identity.ID) A) (A, error) {
	var zero A
	id, err := m.nextID(requested)
	if err != nil {
		return zero, err
	}
	a := construct(id)
	a.SetPos(v)
	if err := m.insert(a); err != nil {
		return zero, err
	}
	if err := m.Space.AddToSpace(id, v); err != nil {
		m.takeAgent(id)
		return zero, err
	}
	return a, nil
}

// RemoveAgentGraph deregisters id from both the container and the graph.
func RemoveAgentGraph(m *Model[*graphspace.Space], id identity.ID, v graphspace.Pos) (agent.Agent, bool) {
	a, ok := m.takeAgent(id)
	if ok {
		m.Space.RemoveFromSpace(id, v)
	}
	return a, ok
}

// MoveAgentGraph relocates a to vertex newV.
func MoveAgentGraph[A agent.Spatial[graphspace.Pos]](m *Model[*graphspace.Space], a A, newV graphspace.Pos) error {
	if err := m.Space.MoveAgent(a.AgentID(), a.Pos(), newV); err != nil {
		return err
	}
	a.SetPos(newV)
	return nil
}

// NearbyAgentsGraph resolves the occupants within r hops of v into agent
// values, excluding self.
func NearbyAgentsGraph(m *Model[*graphspace.Space], self identity.ID, v graphspace.Pos, r int, nt space.NeighborType) []agent.Agent {
	var out []agent.Agent
	for _, id := range m.Space.NearbyIDsExcludingSelf(v, r, nt, self) {
		if a, ok := m.Lookup(id); ok {
			out = append(out, a)
		}
	}
	return out
}
