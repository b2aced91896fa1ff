package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/wiredbrain/axiom/internal/domain"
	"github.com/wiredbrain/axiom/internal/port"
)

// embeddedCategories are the corpora that get a semantic index. Templates
// are resolved by deterministic lookup only and are never embedded.
var embeddedCategories = []domain.Category{
	domain.CategoryEquipment,
	domain.CategoryProject,
	domain.CategoryFact,
}

type indexEntry struct {
	item   domain.KnowledgeItem
	vector []float32
}

// Index maps knowledge items to their embedding vectors for cosine
// similarity search. One entry per item per corpus; vectors are computed
// at build time and never mutated. Rebuilds produce a whole new Index.
type Index struct {
	entries map[domain.Category][]indexEntry
}

// BuildIndex embeds every item of the embedded categories through the
// AI provider. Corpus sizes are in the low thousands, so the index is a
// plain in-process slice scanned brute-force at query time.
func BuildIndex(ctx context.Context, store *Store, ai port.AIProvider) (*Index, error) {
	ix := &Index{entries: make(map[domain.Category][]indexEntry)}

	for _, cat := range embeddedCategories {
		items := store.All(cat)
		texts := make([]string, len(items))
		for i, item := range items {
			texts[i] = item.Text
		}

		vectors, err := ai.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed corpus %s: %w", cat, err)
		}
		if len(vectors) != len(items) {
			return nil, fmt.Errorf("embed corpus %s: got %d vectors for %d items", cat, len(vectors), len(items))
		}

		entries := make([]indexEntry, len(items))
		for i := range items {
			entries[i] = indexEntry{item: items[i], vector: vectors[i]}
		}
		ix.entries[cat] = entries
		slog.Info("semantic index built", "category", cat, "vectors", len(entries))
	}

	return ix, nil
}

// Query embeds the query text once and scans the requested categories,
// returning up to topK items whose cosine similarity clears minSimilarity,
// highest first. An empty result is a valid retrieval miss, not an error.
func (ix *Index) Query(ctx context.Context, ai port.AIProvider, text string, cats []domain.Category, topK int, minSimilarity float64) ([]domain.ScoredItem, error) {
	if ix == nil {
		return nil, port.ErrIndexNotReady
	}

	queryVec, err := ai.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var scored []domain.ScoredItem
	for _, cat := range cats {
		for _, e := range ix.entries[cat] {
			scored = append(scored, domain.ScoredItem{
				KnowledgeItem: e.item,
				Similarity:    cosineSimilarity(queryVec, e.vector),
			})
		}
	}

	// Stable sort keeps corpus order for exactly-equal scores, so results
	// are deterministic.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	results := make([]domain.ScoredItem, 0, topK)
	for _, s := range scored {
		if len(results) == topK {
			break
		}
		if s.Similarity < minSimilarity {
			break
		}
		results = append(results, s)
	}
	return results, nil
}

// cosineSimilarity returns dot(a,b) / (|a|·|b|), or 0 for zero vectors or
// mismatched dimensions.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
