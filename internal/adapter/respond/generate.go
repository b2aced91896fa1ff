package respond

import (
	"context"
	"fmt"

	"github.com/wiredbrain/axiom/internal/domain"
	"github.com/wiredbrain/axiom/internal/port"
)

// GenerateStrategy answers from the chat model alone, with only the
// conversation context as grounding. Used for low-confidence and
// unknown intents where retrieval has nothing to offer.
type GenerateStrategy struct {
	ai port.AIProvider
}

func NewGenerateStrategy(ai port.AIProvider) *GenerateStrategy {
	return &GenerateStrategy{ai: ai}
}

func (s *GenerateStrategy) Name() domain.RouteStrategy { return domain.RouteGenerationOnly }

func (s *GenerateStrategy) Respond(ctx context.Context, req port.RespondRequest) (*port.RespondResult, error) {
	text, err := s.ai.Chat(ctx, systemPromptWith(req.History), req.Query, nil)
	if err != nil {
		return nil, fmt.Errorf("generation: %w: %w", port.ErrGenerationFailed, err)
	}
	return &port.RespondResult{Text: text}, nil
}

// RespondStream is the incremental variant of Respond for the streaming
// endpoint.
func (s *GenerateStrategy) RespondStream(ctx context.Context, req port.RespondRequest) (<-chan string, []domain.ScoredItem, error) {
	ch, err := s.ai.ChatStream(ctx, systemPromptWith(req.History), req.Query, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("generation stream: %w: %w", port.ErrGenerationFailed, err)
	}
	return ch, nil, nil
}
