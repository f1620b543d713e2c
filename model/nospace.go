package model

import (
	"abm/agent"
	"abm/identity"
	"abm/space/nospace"
)

// AddAgentNoSpace constructs an agent with the given or next id via
// construct and registers it with no positional index, per spec §4.2.1.
func AddAgentNoSpace[A agent.Agent](m *Model[*nospace.Space], requested identity.ID, construct func(identity.ID) A) (A, error) {
	var zero A
	id, err := m.nextID(requested)
	if err != nil {
		return zero, err
	}
	a := construct(id)
	if err := m.insert(a); err != nil {
		return zero, err
	}
	m.Space.AddToSpace(id)
	return a, nil
}

// RemoveAgentNoSpace deregisters id.
func RemoveAgentNoSpace(m *Model[*nospace.Space], id identity.ID) (agent.Agent, bool) {
	a, ok := m.takeAgent(id)
	if ok {
		m.Space.RemoveFromSpace(id)
	}
	return a, ok
}
