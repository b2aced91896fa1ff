package history

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiredbrain/axiom/internal/domain"
)

func interaction(n int) domain.Interaction {
	return domain.Interaction{
		Query:    fmt.Sprintf("question %d", n),
		Response: fmt.Sprintf("answer %d", n),
		Intent:   fmt.Sprintf("intent-%d", n),
	}
}

func TestHistoryFIFOEviction(t *testing.T) {
	h := New(5)

	for i := 1; i <= 6; i++ {
		h.Append(interaction(i))
	}

	require.Equal(t, 5, h.Len())
	recent := h.Recent(5)
	require.Len(t, recent, 5)
	for i, in := range recent {
		assert.Equal(t, fmt.Sprintf("question %d", i+2), in.Query, "oldest entry must be evicted first")
	}
}

func TestHistoryRecent(t *testing.T) {
	h := New(5)
	for i := 1; i <= 3; i++ {
		h.Append(interaction(i))
	}

	t.Run("most recent last", func(t *testing.T) {
		recent := h.Recent(2)
		require.Len(t, recent, 2)
		assert.Equal(t, "question 2", recent[0].Query)
		assert.Equal(t, "question 3", recent[1].Query)
	})

	t.Run("asking beyond size returns what exists", func(t *testing.T) {
		assert.Len(t, h.Recent(10), 3)
	})

	t.Run("empty history", func(t *testing.T) {
		assert.Empty(t, New(5).Recent(3))
	})
}

func TestHistoryBoundNeverExceeded(t *testing.T) {
	h := New(3)
	for i := 0; i < 50; i++ {
		h.Append(interaction(i))
		require.LessOrEqual(t, h.Len(), 3)
	}
}

func TestFormatContext(t *testing.T) {
	h := New(5)

	assert.Empty(t, h.FormatContext(3), "empty history renders no context")

	h.Append(domain.Interaction{Query: "where is the lab", Response: "Room A-214."})
	h.Append(domain.Interaction{Query: "when is it open", Response: "9 AM to 6 PM."})

	got := h.FormatContext(2)
	want := "RECENT CONVERSATION CONTEXT:\n" +
		"1. User: where is the lab\n   Assistant: Room A-214.\n" +
		"2. User: when is it open\n   Assistant: 9 AM to 6 PM."
	assert.Equal(t, want, got)
}

func TestLastIntent(t *testing.T) {
	h := New(5)
	assert.Empty(t, h.LastIntent())

	h.Append(domain.Interaction{Intent: "greeting"})
	h.Append(domain.Interaction{Intent: "equipment_query"})
	assert.Equal(t, "equipment_query", h.LastIntent())
}

func TestHistoryConcurrentAppends(t *testing.T) {
	h := New(5)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			h.Append(interaction(n))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 5, h.Len())
}

func TestManagerSessionIsolation(t *testing.T) {
	m := NewManager(5)

	a := m.Create()
	b := m.Create()
	require.NotEqual(t, a, b)

	m.Get(a).Append(interaction(1))
	m.Get(b).Append(interaction(2))
	m.Get(b).Append(interaction(3))

	assert.Equal(t, 1, m.Get(a).Len())
	assert.Equal(t, 2, m.Get(b).Len())
}

func TestManagerGetCreatesOnFirstUse(t *testing.T) {
	m := NewManager(5)

	h := m.Get("conn-42")
	require.NotNil(t, h)
	assert.Same(t, h, m.Get("conn-42"))
	assert.Equal(t, 1, m.Active())
}

func TestManagerEnd(t *testing.T) {
	m := NewManager(5)
	id := m.Create()

	assert.True(t, m.End(id))
	assert.False(t, m.End(id), "ending twice reports missing")

	_, ok := m.Lookup(id)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Active())
}
