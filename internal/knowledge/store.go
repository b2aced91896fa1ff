// Package knowledge loads the static JSON corpora and serves exact and
// semantic lookups over them. The store is built once at startup and is
// read-only afterwards; reloads build a whole new store.
package knowledge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/wiredbrain/axiom/internal/domain"
	"github.com/wiredbrain/axiom/internal/port"
)

// CorpusPaths maps each category to its corpus file.
type CorpusPaths map[domain.Category]string

// record is the on-disk shape of one corpus entry. Only ID and Text are
// required; the rest becomes item metadata.
type record struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Name     string   `json:"name,omitempty"`
	Intent   string   `json:"intent,omitempty"`
	Question string   `json:"question,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Model    string   `json:"model,omitempty"`
	Card     string   `json:"card,omitempty"`
}

// Store holds all loaded knowledge items grouped by category.
type Store struct {
	items map[domain.Category][]domain.KnowledgeItem
}

// Load reads every corpus file and builds a store. Malformed records are
// skipped with a warning; a category that ends up empty is fatal because
// the assistant could not answer that category at all.
func Load(paths CorpusPaths) (*Store, error) {
	s := &Store{items: make(map[domain.Category][]domain.KnowledgeItem)}

	for _, cat := range domain.Categories {
		path, ok := paths[cat]
		if !ok {
			return nil, fmt.Errorf("load corpus %s: no path configured: %w", cat, port.ErrEmptyCorpus)
		}

		items, err := loadCorpus(cat, path)
		if err != nil {
			return nil, fmt.Errorf("load corpus %s: %w", cat, err)
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("load corpus %s from %s: %w", cat, path, port.ErrEmptyCorpus)
		}

		s.items[cat] = items
		slog.Info("corpus loaded", "category", cat, "items", len(items), "path", path)
	}

	return s, nil
}

func loadCorpus(cat domain.Category, path string) ([]domain.KnowledgeItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse corpus array: %w", err)
	}

	items := make([]domain.KnowledgeItem, 0, len(records))
	for i, raw := range records {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil {
			slog.Warn("skipping malformed corpus record", "category", cat, "index", i, "error", err)
			continue
		}
		if r.ID == "" || r.Text == "" {
			slog.Warn("skipping corpus record missing required fields", "category", cat, "index", i)
			continue
		}
		items = append(items, domain.KnowledgeItem{
			ID:       r.ID,
			Text:     r.Text,
			Category: cat,
			Metadata: r.metadata(),
		})
	}
	return items, nil
}

func (r record) metadata() map[string]string {
	m := make(map[string]string)
	if r.Name != "" {
		m["name"] = r.Name
	}
	if r.Intent != "" {
		m["intent"] = r.Intent
	}
	if r.Question != "" {
		m["question"] = r.Question
	}
	if len(r.Keywords) > 0 {
		m["keywords"] = strings.Join(r.Keywords, ",")
	}
	if r.Model != "" {
		m["model"] = r.Model
	}
	if r.Card != "" {
		m["card"] = r.Card
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// All returns every item in a category, in corpus order.
func (s *Store) All(cat domain.Category) []domain.KnowledgeItem {
	return s.items[cat]
}

// Count returns the number of items in a category.
func (s *Store) Count(cat domain.Category) int {
	return len(s.items[cat])
}

// LookupExact finds the item whose name or trigger keyword occurs as a
// whole-word phrase inside the normalized query. Exact lookup is preferred
// over semantic similarity where specification accuracy matters (equipment
// specs, institutional facts): the longest matching trigger wins, ties
// resolve in corpus order.
func (s *Store) LookupExact(cat domain.Category, query string) (domain.KnowledgeItem, bool) {
	q := normalize(query)
	if q == "" {
		return domain.KnowledgeItem{}, false
	}

	var (
		best    domain.KnowledgeItem
		bestLen = 0
	)
	for _, item := range s.items[cat] {
		for _, trigger := range itemTriggers(item) {
			if len(trigger) > bestLen && containsPhrase(q, trigger) {
				best = item
				bestLen = len(trigger)
			}
		}
	}
	return best, bestLen > 0
}

// TemplatesFor returns the template items labeled with the given intent,
// in corpus order.
func (s *Store) TemplatesFor(intent string) []domain.KnowledgeItem {
	var out []domain.KnowledgeItem
	for _, item := range s.items[domain.CategoryTemplate] {
		if item.Metadata["intent"] == intent {
			out = append(out, item)
		}
	}
	return out
}

func itemTriggers(item domain.KnowledgeItem) []string {
	var triggers []string
	if name := item.Metadata["name"]; name != "" {
		triggers = append(triggers, normalize(name))
	}
	if kws := item.Metadata["keywords"]; kws != "" {
		for _, kw := range strings.Split(kws, ",") {
			if kw = normalize(kw); kw != "" {
				triggers = append(triggers, kw)
			}
		}
	}
	return triggers
}

// containsPhrase reports whether phrase occurs in text on word boundaries.
func containsPhrase(text, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		leftOK := start == 0 || text[start-1] == ' '
		rightOK := end == len(text) || text[end] == ' '
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
	}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
