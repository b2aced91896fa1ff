// Package respond implements the response strategies the dispatcher
// chooses between: deterministic templates, retrieval-grounded
// generation, and plain generation.
package respond

import (
	"context"
	"fmt"
	"strings"

	"github.com/wiredbrain/axiom/internal/domain"
	"github.com/wiredbrain/axiom/internal/knowledge"
	"github.com/wiredbrain/axiom/internal/port"
)

// TemplateStrategy answers high-confidence intents from the template
// corpus without any generative call. Selection is deterministic: the
// template whose question and keywords overlap the query most wins,
// ties resolve in corpus order.
type TemplateStrategy struct {
	base *knowledge.Base
}

func NewTemplateStrategy(base *knowledge.Base) *TemplateStrategy {
	return &TemplateStrategy{base: base}
}

func (s *TemplateStrategy) Name() domain.RouteStrategy { return domain.RouteTemplate }

func (s *TemplateStrategy) Respond(ctx context.Context, req port.RespondRequest) (*port.RespondResult, error) {
	candidates := s.base.Current().Store.TemplatesFor(req.Intent)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no template for intent %q: %w", req.Intent, port.ErrStrategyNotFound)
	}

	best := candidates[0]
	bestScore := -1
	queryWords := wordSet(req.Query)
	for _, c := range candidates {
		if score := overlap(queryWords, c); score > bestScore {
			best = c
			bestScore = score
		}
	}

	return &port.RespondResult{Text: best.Text}, nil
}

// overlap counts the query words that also appear in the template's
// question or keywords.
func overlap(queryWords map[string]struct{}, item domain.KnowledgeItem) int {
	templateWords := wordSet(item.Metadata["question"] + " " + strings.ReplaceAll(item.Metadata["keywords"], ",", " "))
	n := 0
	for w := range queryWords {
		if _, ok := templateWords[w]; ok {
			n++
		}
	}
	return n
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[strings.Trim(w, ".,!?'\"")] = struct{}{}
	}
	return set
}
