// Package nospace implements the degenerate space variant: agents have no
// position, and neighborhood queries are undefined. Only add/remove/iterate
// apply (spec §4.2.1).
package nospace

import "abm/identity"

// Space is the degenerate space variant. Its zero value is ready to use.
type Space struct {
	ids map[identity.ID]struct{}
}

// New returns an empty NoSpace.
func New() *Space {
	return &Space{ids: map[identity.ID]struct{}{}}
}

// AddToSpace registers id. NoSpace tracks membership only so Count/iterate
// style queries elsewhere stay consistent; it carries no positional index.
func (s *Space) AddToSpace(id identity.ID) {
	if s.ids == nil {
		s.ids = map[identity.ID]struct{}{}
	}
	s.ids[id] = struct{}{}
}

// RemoveFromSpace deregisters id.
func (s *Space) RemoveFromSpace(id identity.ID) {
	delete(s.ids, id)
}

// Count reports how many agents are registered.
func (s *Space) Count() int { return len(s.ids) }
