package port

import (
	"context"

	"github.com/wiredbrain/axiom/internal/domain"
)

// ResponseStrategy defines one pluggable way of producing a reply
// (Strategy Pattern). Exactly one strategy executes per request.
type ResponseStrategy interface {
	// Name returns the routing name of this strategy
	// (e.g. "template", "rag_generation").
	Name() domain.RouteStrategy

	// Respond produces the reply text for the given request.
	Respond(ctx context.Context, req RespondRequest) (*RespondResult, error)
}

// RespondRequest contains everything a strategy needs to produce a reply.
type RespondRequest struct {
	Query      string
	Intent     string
	Confidence float64
	// History is the formatted conversation context for prompt injection;
	// empty at the start of a session.
	History string
}

// RespondResult holds the output of a response strategy.
type RespondResult struct {
	Text string
	// Sources lists the knowledge items a retrieval-backed strategy
	// grounded the reply on; nil for deterministic strategies.
	Sources []domain.ScoredItem
}

// StreamingStrategy is implemented by strategies that can emit their
// reply incrementally. Deterministic strategies do not implement it.
type StreamingStrategy interface {
	// RespondStream returns a token channel plus any grounding sources.
	// The channel closes when generation finishes or fails.
	RespondStream(ctx context.Context, req RespondRequest) (<-chan string, []domain.ScoredItem, error)
}

// Retriever runs a semantic search without generating. Implemented by
// the retrieval-backed strategy so callers can reuse its corpus
// selection and thresholds.
type Retriever interface {
	Retrieve(ctx context.Context, query, intent string) ([]domain.ScoredItem, error)
}

// ResponseEngine routes a strategy name to its implementation.
type ResponseEngine struct {
	strategies map[domain.RouteStrategy]ResponseStrategy
}

// NewResponseEngine creates an engine with the given strategies.
func NewResponseEngine(strategies ...ResponseStrategy) *ResponseEngine {
	m := make(map[domain.RouteStrategy]ResponseStrategy, len(strategies))
	for _, s := range strategies {
		m[s.Name()] = s
	}
	return &ResponseEngine{strategies: m}
}

// Run executes the named strategy.
func (e *ResponseEngine) Run(ctx context.Context, name domain.RouteStrategy, req RespondRequest) (*RespondResult, error) {
	s, ok := e.strategies[name]
	if !ok {
		return nil, ErrStrategyNotFound
	}
	return s.Respond(ctx, req)
}

// RunStream executes the named strategy incrementally. Strategies that
// cannot stream run to completion and their full text arrives as a
// single channel element.
func (e *ResponseEngine) RunStream(ctx context.Context, name domain.RouteStrategy, req RespondRequest) (<-chan string, []domain.ScoredItem, error) {
	s, ok := e.strategies[name]
	if !ok {
		return nil, nil, ErrStrategyNotFound
	}
	if ss, ok := s.(StreamingStrategy); ok {
		return ss.RespondStream(ctx, req)
	}
	result, err := s.Respond(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan string, 1)
	ch <- result.Text
	close(ch)
	return ch, result.Sources, nil
}

// Available returns the names of all registered strategies.
func (e *ResponseEngine) Available() []domain.RouteStrategy {
	names := make([]domain.RouteStrategy, 0, len(e.strategies))
	for name := range e.strategies {
		names = append(names, name)
	}
	return names
}
