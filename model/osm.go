package model

import (
	"abm/agent"
	"abm/identity"
	"abm/space/osm"
)

// AddAgentOSM constructs an agent on the road network at pos via construct
// and registers it, per spec §4.2.6.
func AddAgentOSM[A agent.Spatial[osm.Pos]](m *Model[*osm.Space], requested identity.ID, pos osm.Pos, construct func(identity.ID) A) (A, error) {
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
	m.Space.AddToSpace(id, pos)
	return a, nil
}

// RandomAgentOnRoad constructs an agent at a uniformly (by road length)
// sampled point on the network.
func RandomAgentOnRoad[A agent.Spatial[osm.Pos]](m *Model[*osm.Space], construct func(identity.ID) A) (A, error) {
	var zero A
	pos, err := m.Space.RandomRoadPosition(m.rng)
	if err != nil {
		return zero, err
	}
	return AddAgentOSM[A](m, identity.Empty, pos, construct)
}

// RemoveAgentOSM deregisters id from both the container and the network,
// cancelling any route in progress.
func RemoveAgentOSM(m *Model[*osm.Space], id identity.ID, pos osm.Pos) (agent.Agent, bool) {
	a, ok := m.takeAgent(id)
	if ok {
		m.Space.RemoveFromSpace(id, pos)
	}
	return a, ok
}

// PlanRoute computes and stores a shortest-time route to dest for id.
func PlanRoute(m *Model[*osm.Space], id identity.ID, from osm.Pos, dest int) error {
	return m.Space.PlanRoute(id, from, dest)
}

// MoveAlongRoute advances a along its planned route by distance, updating
// its position.
func MoveAlongRoute[A agent.Spatial[osm.Pos]](m *Model[*osm.Space], a A, distance float64) error {
	newPos, err := m.Space.MoveAlongRoute(a.AgentID(), a.Pos(), distance)
	if err != nil {
		return err
	}
	a.SetPos(newPos)
	return nil
}

// IsStationary reports whether id has no route in progress.
func IsStationary(m *Model[*osm.Space], id identity.ID) bool {
	return m.Space.IsStationary(id)
}
