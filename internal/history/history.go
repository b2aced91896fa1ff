// Package history keeps the bounded per-session conversation context used
// to ground generation prompts. Each session owns exactly one History;
// cross-session isolation is mandatory.
package history

import (
	"fmt"
	"strings"
	"sync"

	"github.com/wiredbrain/axiom/internal/domain"
)

// DefaultMaxSize is the conversation window used when none is configured.
const DefaultMaxSize = 5

// History is a fixed-capacity FIFO of recent interactions. Appending
// beyond capacity evicts the oldest entry; insertion order defines
// eviction order. Safe for concurrent use; appends within a session
// serialize on the internal mutex so arrival order is preserved.
type History struct {
	mu      sync.Mutex
	entries []domain.Interaction // ring buffer
	head    int                  // index of oldest entry
	size    int
}

// New creates a history bounded at maxSize interactions.
func New(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &History{entries: make([]domain.Interaction, maxSize)}
}

// Append records an interaction, evicting the oldest when full. O(1).
func (h *History) Append(in domain.Interaction) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tail := (h.head + h.size) % len(h.entries)
	h.entries[tail] = in
	if h.size < len(h.entries) {
		h.size++
	} else {
		h.head = (h.head + 1) % len(h.entries)
	}
}

// Len returns the number of stored interactions.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

// Recent returns up to n interactions, most-recent-last. Asking for more
// than is stored returns what exists.
func (h *History) Recent(n int) []domain.Interaction {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > h.size {
		n = h.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]domain.Interaction, n)
	start := h.size - n
	for i := 0; i < n; i++ {
		out[i] = h.entries[(h.head+start+i)%len(h.entries)]
	}
	return out
}

// FormatContext renders the last n interactions as natural-language prose
// for prompt injection. Empty string when the session has no history yet.
func (h *History) FormatContext(n int) string {
	recent := h.Recent(n)
	if len(recent) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("RECENT CONVERSATION CONTEXT:\n")
	for i, in := range recent {
		fmt.Fprintf(&b, "%d. User: %s\n   Assistant: %s\n", i+1, in.Query, in.Response)
	}
	return strings.TrimRight(b.String(), "\n")
}

// LastIntent returns the intent of the most recent interaction, or "" when
// the history is empty.
func (h *History) LastIntent() string {
	recent := h.Recent(1)
	if len(recent) == 0 {
		return ""
	}
	return recent[0].Intent
}
