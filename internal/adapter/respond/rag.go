package respond

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wiredbrain/axiom/internal/domain"
	"github.com/wiredbrain/axiom/internal/knowledge"
	"github.com/wiredbrain/axiom/internal/port"
)

const assistantSystemPrompt = `You are AXIOM, the voice assistant of the Drobotics Lab at JUIT. Answer in short, clear sentences suitable for speech synthesis. Use only the provided knowledge when it is relevant; if you do not know something, say so briefly. Never invent equipment specifications.`

// intentCategories maps a classified intent to the corpora worth
// searching for it. Unknown intents search everything.
var intentCategories = map[string][]domain.Category{
	"equipment_query": {domain.CategoryEquipment},
	"project_query":   {domain.CategoryProject},
	"fact_query":      {domain.CategoryFact},
	"lab_info":        {domain.CategoryFact, domain.CategoryProject},
}

var allSearchable = []domain.Category{
	domain.CategoryEquipment,
	domain.CategoryProject,
	domain.CategoryFact,
}

// RAGStrategy retrieves the closest knowledge items and feeds them as
// grounding context to the chat model. An empty retrieval is not an
// error; generation proceeds ungrounded.
type RAGStrategy struct {
	base          *knowledge.Base
	ai            port.AIProvider
	topK          int
	minSimilarity float64
}

func NewRAGStrategy(base *knowledge.Base, ai port.AIProvider, topK int, minSimilarity float64) *RAGStrategy {
	return &RAGStrategy{base: base, ai: ai, topK: topK, minSimilarity: minSimilarity}
}

func (s *RAGStrategy) Name() domain.RouteStrategy { return domain.RouteRAGGeneration }

func (s *RAGStrategy) Respond(ctx context.Context, req port.RespondRequest) (*port.RespondResult, error) {
	results, err := s.Retrieve(ctx, req.Query, req.Intent)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		slog.Debug("retrieval miss", "query", req.Query, "intent", req.Intent)
	}

	chunks := make([]string, len(results))
	for i, r := range results {
		chunks[i] = r.Text
	}

	text, err := s.ai.Chat(ctx, systemPromptWith(req.History), req.Query, chunks)
	if err != nil {
		return nil, fmt.Errorf("grounded generation: %w: %w", port.ErrGenerationFailed, err)
	}

	return &port.RespondResult{Text: text, Sources: results}, nil
}

// RespondStream is the incremental variant of Respond for the streaming
// endpoint.
func (s *RAGStrategy) RespondStream(ctx context.Context, req port.RespondRequest) (<-chan string, []domain.ScoredItem, error) {
	results, err := s.Retrieve(ctx, req.Query, req.Intent)
	if err != nil {
		return nil, nil, err
	}

	chunks := make([]string, len(results))
	for i, r := range results {
		chunks[i] = r.Text
	}

	ch, err := s.ai.ChatStream(ctx, systemPromptWith(req.History), req.Query, chunks)
	if err != nil {
		return nil, nil, fmt.Errorf("grounded generation stream: %w: %w", port.ErrGenerationFailed, err)
	}
	return ch, results, nil
}

// Retrieve runs the semantic search without generating, for callers
// that only need the matching items.
func (s *RAGStrategy) Retrieve(ctx context.Context, query, intent string) ([]domain.ScoredItem, error) {
	cats, ok := intentCategories[intent]
	if !ok {
		cats = allSearchable
	}
	snap := s.base.Current()
	results, err := snap.Index.Query(ctx, s.ai, query, cats, s.topK, s.minSimilarity)
	if err != nil {
		return nil, fmt.Errorf("semantic retrieval: %w", err)
	}
	return results, nil
}

func systemPromptWith(history string) string {
	if history == "" {
		return assistantSystemPrompt
	}
	return assistantSystemPrompt + "\n\n" + history
}
