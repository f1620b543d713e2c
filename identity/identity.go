// Package identity allocates AgentIDs. IDs are monotonically increasing
// within a model's lifetime and are never reused, mirroring the teacher's
// AtomicFloat64 philosophy of a small, single-purpose, race-free primitive.
package identity

import "sync/atomic"

// ID is a nonzero integer identifier, unique within a model for the
// lifetime of that model. Zero is reserved as the "empty cell" sentinel for
// single-occupancy grid storage.
type ID uint64

// Empty is the single-occupancy grid's empty-cell sentinel.
const Empty ID = 0

// Allocator hands out monotonically increasing IDs starting at 1. It is
// safe for concurrent use so ensemble workers sharing a model-construction
// helper don't need an external lock.
type Allocator struct {
	maxID uint64
}

// NewAllocator returns an Allocator whose first Next() call yields start+1.
// Pass 0 to start fresh.
func NewAllocator(start ID) *Allocator {
	return &Allocator{maxID: uint64(start)}
}

// Next allocates and returns the next unused ID.
func (a *Allocator) Next() ID {
	return ID(atomic.AddUint64(&a.maxID, 1))
}

// Observe records an externally supplied ID so later Next() calls never
// collide with it. It is the allocator-side half of "add_agent accepts a
// user-supplied id equal to max_id+1 or any unused id".
func (a *Allocator) Observe(id ID) {
	for {
		cur := atomic.LoadUint64(&a.maxID)
		if uint64(id) <= cur {
			return
		}
		if atomic.CompareAndSwapUint64(&a.maxID, cur, uint64(id)) {
			return
		}
	}
}

// MaxID returns the highest ID allocated or observed so far.
func (a *Allocator) MaxID() ID {
	return ID(atomic.LoadUint64(&a.maxID))
}
