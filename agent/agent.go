// Package agent defines the Agent contract and the closed variant registry
// used to specialize scheduling, data collection, and space storage over a
// tagged union of concrete agent types, per the "mixed agent variants"
// design note: a sum-type realized as a registry of concrete Go types
// recorded in declaration order, rather than runtime reflection magic.
package agent

import (
	"fmt"
	"reflect"

	"abm/abmerr"
	"abm/identity"
)

// Agent is the minimum contract every agent satisfies: a stable identity.
type Agent interface {
	AgentID() identity.ID
}

// Base embeds into concrete agent structs to satisfy Agent. Mirrors the
// teacher's grid_world.State, which always carries identity alongside
// domain fields.
type Base struct {
	ID identity.ID
}

// AgentID implements Agent.
func (b Base) AgentID() identity.ID { return b.ID }

// Spatial is satisfied by agents that live in a space whose positions have
// type P (an integer vector for grids/graphs, a real vector for continuous
// space, an edge+offset pair for OSM space).
type Spatial[P any] interface {
	Agent
	Pos() P
	SetPos(P)
}

// Kinetic additionally carries a velocity of the same representation as its
// position, as continuous-space agents do.
type Kinetic[P any] interface {
	Spatial[P]
	Vel() P
	SetVel(P)
}

// Registry is the closed set of concrete agent variants a model was
// constructed with. Variant membership is observable via VariantOf and
// drives by_type scheduling and mixed-variant data-collection column
// ordering, both of which must honor declaration order (Design Note 3).
type Registry struct {
	types []reflect.Type
	index map[reflect.Type]int
}

// NewRegistry records the concrete type of each sample in declaration
// order. Registering zero variants is a ConfigError: a model with no agent
// types can never be populated.
func NewRegistry(samples ...Agent) (*Registry, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: model must register at least one agent variant", abmerr.ErrConfig)
	}
	r := &Registry{index: map[reflect.Type]int{}}
	for _, s := range samples {
		t := concreteType(s)
		if _, ok := r.index[t]; ok {
			continue
		}
		r.index[t] = len(r.types)
		r.types = append(r.types, t)
	}
	return r, nil
}

func concreteType(a Agent) reflect.Type {
	t := reflect.TypeOf(a)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// VariantOf returns the declaration-order index and type name of a's
// concrete variant, or ok=false if a's type was never registered.
func (r *Registry) VariantOf(a Agent) (idx int, name string, ok bool) {
	t := concreteType(a)
	idx, ok = r.index[t]
	if !ok {
		return 0, "", false
	}
	return idx, t.Name(), true
}

// NumVariants returns the size of the closed variant set.
func (r *Registry) NumVariants() int { return len(r.types) }

// VariantName returns the declared name of the i'th variant.
func (r *Registry) VariantName(i int) string { return r.types[i].Name() }
