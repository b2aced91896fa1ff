package knowledge

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/wiredbrain/axiom/internal/port"
)

// Snapshot pairs a loaded store with the index built over it. Both are
// immutable; concurrent readers need no locking.
type Snapshot struct {
	Store *Store
	Index *Index
}

// Base is the shared knowledge base. Reload builds a complete new snapshot
// and swaps it in atomically, so in-flight reads always see a consistent
// store/index pair.
type Base struct {
	paths CorpusPaths
	ai    port.AIProvider
	cur   atomic.Pointer[Snapshot]
}

// NewBase loads the corpora, builds the initial index, and returns the
// ready-to-serve knowledge base.
func NewBase(ctx context.Context, paths CorpusPaths, ai port.AIProvider) (*Base, error) {
	b := &Base{paths: paths, ai: ai}
	if err := b.Reload(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// Current returns the active snapshot.
func (b *Base) Current() *Snapshot {
	return b.cur.Load()
}

// Reload rebuilds store and index from disk and swaps them in. On failure
// the previous snapshot stays active.
func (b *Base) Reload(ctx context.Context) error {
	store, err := Load(b.paths)
	if err != nil {
		return fmt.Errorf("reload knowledge: %w", err)
	}
	index, err := BuildIndex(ctx, store, b.ai)
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	b.cur.Store(&Snapshot{Store: store, Index: index})
	return nil
}
