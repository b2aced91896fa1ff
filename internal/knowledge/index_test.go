package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiredbrain/axiom/internal/domain"
	"github.com/wiredbrain/axiom/internal/port"
)

// fakeAI returns canned embeddings keyed by text so similarity ordering
// is fully controlled by the test.
type fakeAI struct {
	vectors  map[string][]float32
	fallback []float32
	embedErr error
}

func (f *fakeAI) ModelName() string { return "fake" }

func (f *fakeAI) Embed(_ context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return f.fallback, nil
}

func (f *fakeAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeAI) Chat(context.Context, string, string, []string) (string, error) {
	return "generated", nil
}

func (f *fakeAI) ChatStream(context.Context, string, string, []string) (<-chan string, error) {
	ch := make(chan string, 1)
	ch <- "generated"
	close(ch)
	return ch, nil
}

func newTestAI() *fakeAI {
	return &fakeAI{
		vectors: map[string][]float32{
			"Unitree Go2 is a quadruped robot":            {1, 0, 0},
			"The Jetson Orin Nano is an edge AI computer": {0, 1, 0},
			"Quadruped Patrol teaches the Go2 scheduled inspection routes": {0.9, 0.1, 0},
			"The lab is on the second floor":                               {0, 0, 1},
			"The Drobotics Lab is in room A-214":                           {0.1, 0, 0.9},
		},
		fallback: []float32{0.5, 0.5, 0.5},
	}
}

func buildTestIndex(t *testing.T) (*Index, *fakeAI) {
	t.Helper()
	ai := newTestAI()
	ix, err := BuildIndex(context.Background(), loadTestStore(t), ai)
	require.NoError(t, err)
	return ix, ai
}

func TestBuildIndexSkipsTemplates(t *testing.T) {
	ix, _ := buildTestIndex(t)

	assert.NotEmpty(t, ix.entries[domain.CategoryEquipment])
	assert.NotEmpty(t, ix.entries[domain.CategoryFact])
	assert.Empty(t, ix.entries[domain.CategoryTemplate])
}

func TestQueryIdenticalEmbeddingRanksFirst(t *testing.T) {
	ix, ai := buildTestIndex(t)
	// Query embeds to exactly the e1 vector.
	ai.vectors["the robot dog"] = []float32{1, 0, 0}

	results, err := ix.Query(context.Background(), ai, "the robot dog",
		[]domain.Category{domain.CategoryEquipment, domain.CategoryProject}, 3, 0.2)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "e1", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
}

func TestQuerySimilarityFloor(t *testing.T) {
	ix, ai := buildTestIndex(t)
	ai.vectors["orthogonal"] = []float32{0, 0, 1}

	results, err := ix.Query(context.Background(), ai, "orthogonal",
		[]domain.Category{domain.CategoryEquipment}, 3, 0.2)
	require.NoError(t, err)
	assert.Empty(t, results, "items below the floor are dropped, not an error")
}

func TestQueryTopKTruncation(t *testing.T) {
	ix, ai := buildTestIndex(t)
	ai.vectors["broad"] = []float32{1, 1, 1}

	results, err := ix.Query(context.Background(), ai, "broad",
		[]domain.Category{domain.CategoryEquipment, domain.CategoryProject, domain.CategoryFact}, 2, 0.0)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.GreaterOrEqual(t, results[0].Similarity, results[1].Similarity)
}

func TestQueryNilIndex(t *testing.T) {
	var ix *Index
	_, err := ix.Query(context.Background(), newTestAI(), "anything", nil, 3, 0.2)
	assert.ErrorIs(t, err, port.ErrIndexNotReady)
}

func TestQueryEmbedFailure(t *testing.T) {
	ix, ai := buildTestIndex(t)
	ai.embedErr = errors.New("backend down")

	_, err := ix.Query(context.Background(), ai, "anything",
		[]domain.Category{domain.CategoryEquipment}, 3, 0.2)
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"zero vector guarded", []float32{0, 0}, []float32{1, 1}, 0.0},
		{"dimension mismatch guarded", []float32{1, 0}, []float32{1, 0, 0}, 0.0},
		{"both empty", nil, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestBaseReloadKeepsPreviousSnapshotOnFailure(t *testing.T) {
	ai := newTestAI()

	base, err := NewBase(context.Background(), testPaths(), ai)
	require.NoError(t, err)
	first := base.Current()
	require.NotNil(t, first)

	// Break the paths; reload must fail and keep serving the old snapshot.
	base.paths[domain.CategoryFact] = "testdata/empty.json"
	err = base.Reload(context.Background())
	require.Error(t, err)
	assert.Same(t, first, base.Current())
}
