package port

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiredbrain/axiom/internal/domain"
)

type staticStrategy struct {
	name domain.RouteStrategy
	text string
}

func (s *staticStrategy) Name() domain.RouteStrategy { return s.name }

func (s *staticStrategy) Respond(context.Context, RespondRequest) (*RespondResult, error) {
	return &RespondResult{Text: s.text}, nil
}

func TestResponseEngineRun(t *testing.T) {
	engine := NewResponseEngine(
		&staticStrategy{name: domain.RouteTemplate, text: "templated"},
		&staticStrategy{name: domain.RouteGenerationOnly, text: "generated"},
	)

	result, err := engine.Run(context.Background(), domain.RouteTemplate, RespondRequest{Query: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "templated", result.Text)
}

func TestResponseEngineUnknownStrategy(t *testing.T) {
	engine := NewResponseEngine()

	_, err := engine.Run(context.Background(), domain.RouteTemplate, RespondRequest{})
	assert.ErrorIs(t, err, ErrStrategyNotFound)

	_, _, err = engine.RunStream(context.Background(), domain.RouteTemplate, RespondRequest{})
	assert.ErrorIs(t, err, ErrStrategyNotFound)
}

func TestResponseEngineRunStreamWrapsNonStreaming(t *testing.T) {
	engine := NewResponseEngine(&staticStrategy{name: domain.RouteTemplate, text: "whole reply"})

	ch, sources, err := engine.RunStream(context.Background(), domain.RouteTemplate, RespondRequest{})
	require.NoError(t, err)
	assert.Nil(t, sources)

	var got []string
	for tok := range ch {
		got = append(got, tok)
	}
	assert.Equal(t, []string{"whole reply"}, got)
}

func TestResponseEngineAvailable(t *testing.T) {
	engine := NewResponseEngine(
		&staticStrategy{name: domain.RouteTemplate},
		&staticStrategy{name: domain.RouteRAGGeneration},
	)

	names := engine.Available()
	assert.ElementsMatch(t, []domain.RouteStrategy{domain.RouteTemplate, domain.RouteRAGGeneration}, names)
}
