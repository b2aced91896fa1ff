package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiredbrain/axiom/internal/domain"
)

type reloadCounter struct {
	count atomic.Int32
}

func (r *reloadCounter) Reload(context.Context) error {
	r.count.Add(1)
	return nil
}

func TestWatchCorporaTriggersReloadOnWrite(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "facts.json")
	require.NoError(t, os.WriteFile(corpus, []byte(`[]`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := &reloadCounter{}
	w, err := WatchCorpora(ctx, counter, CorpusPaths{domain.CategoryFact: corpus})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(corpus, []byte(`[{"id":"f1","text":"x"}]`), 0o644))

	assert.Eventually(t, func() bool {
		return counter.count.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond, "write to a watched corpus must trigger a reload")
}

func TestWatchCorporaIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "facts.json")
	require.NoError(t, os.WriteFile(corpus, []byte(`[]`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := &reloadCounter{}
	w, err := WatchCorpora(ctx, counter, CorpusPaths{domain.CategoryFact: corpus})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("noise"), 0o644))

	time.Sleep(time.Second)
	assert.Zero(t, counter.count.Load(), "unrelated files in the same directory are ignored")
}

func TestWatchCorporaDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "facts.json")
	require.NoError(t, os.WriteFile(corpus, []byte(`[]`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := &reloadCounter{}
	w, err := WatchCorpora(ctx, counter, CorpusPaths{domain.CategoryFact: corpus})
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(corpus, []byte(`[]`), 0o644))
		time.Sleep(20 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return counter.count.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)
	assert.LessOrEqual(t, counter.count.Load(), int32(2), "a burst of writes collapses into few reloads")
}
