package persist

import (
	"encoding/gob"
	"fmt"
	"io"

	"abm/abmerr"
	"abm/agent"
)

// Snapshot is a whole-model checkpoint per spec §6.2: the agent set,
// model-level properties, and the clock/id-allocator state needed to
// resume. Space index and pathfinder routes are deliberately NOT stored
// here — grid/continuous/graph/OSM Space types carry unexported indexing
// fields gob cannot reach, and those indexes are fully determined by agent
// positions anyway. A loader restores them by re-adding each decoded agent
// through the usual space-specific AddAgent/model.Restore helpers, which
// rebuild the index as a side effect — reconstruction by replay, not
// byte-for-byte restore. RNG state has the same caveat: math/rand.Rand
// exposes no portable snapshot, so a resumed model continues from a fresh
// *rand.Rand reseeded by the caller, not bit-identical to the checkpointed
// stream.
type Snapshot struct {
	Time       int
	MaxID      uint64
	Properties map[string]interface{}
	Agents     []agent.Agent
}

// RegisterVariant must be called once per concrete agent type before the
// first Save/Load involving that type, so gob can encode/decode it inside
// the Agents interface slice. Mirrors agent.Registry's own closed-set
// bookkeeping, but gob's registry is process-global and keyed by type, not
// per-model.
func RegisterVariant(sample agent.Agent) {
	gob.Register(sample)
}

// Save writes snap to w.
func Save(w io.Writer, snap Snapshot) error {
	if err := gob.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("%w: encoding checkpoint: %v", abmerr.ErrIO, err)
	}
	return nil
}

// Load reads a Snapshot previously written by Save.
func Load(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decoding checkpoint: %v", abmerr.ErrIO, err)
	}
	return snap, nil
}
