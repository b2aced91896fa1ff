package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiredbrain/axiom/internal/adapter/respond"
	"github.com/wiredbrain/axiom/internal/corrector"
	"github.com/wiredbrain/axiom/internal/domain"
	"github.com/wiredbrain/axiom/internal/history"
	"github.com/wiredbrain/axiom/internal/knowledge"
	"github.com/wiredbrain/axiom/internal/port"
)

// fakeAI serves canned embeddings and records every chat call so tests
// can assert what grounding the generation step received.
type fakeAI struct {
	mu        sync.Mutex
	vectors   map[string][]float32
	fallback  []float32
	chatText  string
	chatErr   error
	chatCalls []chatCall
}

type chatCall struct {
	system string
	user   string
	chunks []string
}

func (f *fakeAI) ModelName() string { return "fake" }

func (f *fakeAI) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return f.fallback, nil
}

func (f *fakeAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = f.Embed(ctx, t)
	}
	return out, nil
}

func (f *fakeAI) Chat(_ context.Context, system, user string, chunks []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls = append(f.chatCalls, chatCall{system: system, user: user, chunks: chunks})
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.chatText, nil
}

func (f *fakeAI) ChatStream(ctx context.Context, system, user string, chunks []string) (<-chan string, error) {
	text, err := f.Chat(ctx, system, user, chunks)
	if err != nil {
		return nil, err
	}
	ch := make(chan string, 1)
	ch <- text
	close(ch)
	return ch, nil
}

func (f *fakeAI) calls() []chatCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chatCall(nil), f.chatCalls...)
}

type fakeClassifier struct {
	result port.IntentResult
	err    error
	called bool
}

func (f *fakeClassifier) Classify(context.Context, string) (port.IntentResult, error) {
	f.called = true
	if f.err != nil {
		return port.UnknownIntent, f.err
	}
	return f.result, nil
}

func newTestAI() *fakeAI {
	return &fakeAI{
		vectors: map[string][]float32{
			"Unitree Go2 is a quadruped robot":            {1, 0, 0},
			"The Jetson Orin Nano is an edge AI computer": {0, 1, 0},
			"Quadruped Patrol teaches the Go2 scheduled inspection routes": {0.9, 0.1, 0},
			"The lab is on the second floor":                               {0, 0, 1},
			"The Drobotics Lab is in room A-214":                           {0.1, 0, 0.9},
			"tell me about the robot dog":                                  {1, 0, 0},
		},
		fallback: []float32{0.2, 0.2, 0.2},
		chatText: "Here is what I know about that.",
	}
}

func newTestDispatcher(t *testing.T, ai *fakeAI, cls port.IntentClassifier) (*DispatchService, *history.Manager) {
	t.Helper()

	paths := knowledge.CorpusPaths{
		domain.CategoryEquipment: "testdata/equipment.json",
		domain.CategoryProject:   "testdata/projects.json",
		domain.CategoryFact:      "testdata/facts.json",
		domain.CategoryTemplate:  "testdata/templates.json",
	}
	base, err := knowledge.NewBase(context.Background(), paths, ai)
	require.NoError(t, err)

	engine := port.NewResponseEngine(
		respond.NewTemplateStrategy(base),
		respond.NewRAGStrategy(base, ai, 3, 0.2),
		respond.NewGenerateStrategy(ai),
	)
	histories := history.NewManager(5)
	pipeline := corrector.NewPipeline(knowledge.VocabularyVariants(base.Current().Store))

	return NewDispatchService(engine, cls, base, histories, pipeline, nil, DispatchConfig{
		TemplateThreshold: 0.88,
		HistoryTurns:      4,
		GenerationTimeout: 2 * time.Second,
	}), histories
}

func TestConverseTemplateBypass(t *testing.T) {
	ai := newTestAI()
	cls := &fakeClassifier{result: port.IntentResult{Intent: "greeting", Confidence: 0.95}}
	svc, _ := newTestDispatcher(t, ai, cls)

	reply, err := svc.Converse(context.Background(), "s1", "hello there assistant")
	require.NoError(t, err)

	assert.Equal(t, domain.RouteTemplate, reply.Route)
	assert.Equal(t, "Hello! Ask me about the lab.", reply.Text)
	assert.Empty(t, ai.calls(), "template path must not touch the generative backend")
}

func TestConverseThresholdBoundary(t *testing.T) {
	t.Run("exactly at threshold templates", func(t *testing.T) {
		ai := newTestAI()
		cls := &fakeClassifier{result: port.IntentResult{Intent: "equipment_list", Confidence: 0.88}}
		svc, _ := newTestDispatcher(t, ai, cls)

		reply, err := svc.Converse(context.Background(), "s1", "what equipment do you have here")
		require.NoError(t, err)
		assert.Equal(t, domain.RouteTemplate, reply.Route)
		assert.Empty(t, ai.calls())
	})

	t.Run("below threshold generates", func(t *testing.T) {
		ai := newTestAI()
		cls := &fakeClassifier{result: port.IntentResult{Intent: "equipment_list", Confidence: 0.8799}}
		svc, _ := newTestDispatcher(t, ai, cls)

		reply, err := svc.Converse(context.Background(), "s1", "what equipment do you have here")
		require.NoError(t, err)
		assert.Equal(t, domain.RouteRAGGeneration, reply.Route)
		assert.NotEmpty(t, ai.calls())
	})
}

func TestConverseTemplateKeywordRefinement(t *testing.T) {
	ai := newTestAI()
	cls := &fakeClassifier{result: port.IntentResult{Intent: "equipment_list", Confidence: 0.95}}
	svc, _ := newTestDispatcher(t, ai, cls)

	reply, err := svc.Converse(context.Background(), "s1", "which robots are available today")
	require.NoError(t, err)

	assert.Equal(t, domain.RouteTemplate, reply.Route)
	assert.Equal(t, "The Go2 and one Jetson kit are free today.", reply.Text)
}

func TestConverseHardcodedIntercept(t *testing.T) {
	ai := newTestAI()
	cls := &fakeClassifier{result: port.IntentResult{Intent: "fact_query", Confidence: 0.3}}
	svc, _ := newTestDispatcher(t, ai, cls)

	reply, err := svc.Converse(context.Background(), "s1", "where is the drobotics lab located")
	require.NoError(t, err)

	assert.Equal(t, domain.RouteHardcoded, reply.Route)
	assert.Equal(t, "The Drobotics Lab is in room A-214.", reply.Text)
	assert.Empty(t, ai.calls(), "intercepted facts bypass generation entirely")
}

func TestConverseRetrievalGroundsGeneration(t *testing.T) {
	ai := newTestAI()
	cls := &fakeClassifier{result: port.IntentResult{Intent: "equipment_query", Confidence: 0.67}}
	svc, _ := newTestDispatcher(t, ai, cls)

	reply, err := svc.Converse(context.Background(), "s1", "tell me about the robot dog")
	require.NoError(t, err)

	assert.Equal(t, domain.RouteRAGGeneration, reply.Route)

	require.NotEmpty(t, reply.Sources)
	assert.Equal(t, "e1", reply.Sources[0].ID)

	calls := ai.calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].chunks, "Unitree Go2 is a quadruped robot",
		"the matching item must be passed as grounding context")

	require.NotNil(t, reply.TriggerMetadata)
	assert.Equal(t, "e1", reply.TriggerMetadata["equipment_id"])
	assert.Equal(t, "unitree-go2", reply.TriggerMetadata["card"])
}

func TestConverseGenerationFailureFallsBack(t *testing.T) {
	ai := newTestAI()
	ai.chatErr = errors.New("ollama unreachable")
	cls := &fakeClassifier{result: port.IntentResult{Intent: "project_query", Confidence: 0.5}}
	svc, _ := newTestDispatcher(t, ai, cls)

	reply, err := svc.Converse(context.Background(), "s1", "what projects are running right now")
	require.NoError(t, err, "backend failures never surface to the caller")

	assert.Equal(t, domain.RouteFallback, reply.Route)
	assert.NotEmpty(t, reply.Text)
	assert.Equal(t, FallbackText, reply.Text)
}

func TestConverseClassifierFailureDegrades(t *testing.T) {
	ai := newTestAI()
	cls := &fakeClassifier{err: errors.New("classifier down")}
	svc, _ := newTestDispatcher(t, ai, cls)

	reply, err := svc.Converse(context.Background(), "s1", "describe the patrol project")
	require.NoError(t, err)

	assert.Equal(t, "unknown", reply.Intent)
	assert.Zero(t, reply.Confidence)
	assert.NotEqual(t, domain.RouteTemplate, reply.Route, "unknown intent never routes to a template")
}

func TestConverseHallucinationRejected(t *testing.T) {
	ai := newTestAI()
	cls := &fakeClassifier{result: port.IntentResult{Intent: "greeting", Confidence: 0.99}}
	svc, histories := newTestDispatcher(t, ai, cls)

	reply, err := svc.Converse(context.Background(), "s1", "thanks for watching")
	require.NoError(t, err)

	assert.Equal(t, domain.RouteFallback, reply.Route)
	assert.Equal(t, "unclear_input", reply.Intent)
	assert.NotEmpty(t, reply.Text)
	assert.False(t, cls.called, "noise is rejected before classification")
	assert.Equal(t, 0, histories.Get("s1").Len(), "noise never enters history")
}

func TestConverseAppendsHistoryInOrder(t *testing.T) {
	ai := newTestAI()
	cls := &fakeClassifier{result: port.IntentResult{Intent: "project_query", Confidence: 0.5}}
	svc, histories := newTestDispatcher(t, ai, cls)

	queries := []string{
		"what is quadruped patrol about",
		"which hardware does it use",
		"who can join the trials",
	}
	for _, q := range queries {
		_, err := svc.Converse(context.Background(), "s1", q)
		require.NoError(t, err)
	}

	recent := histories.Get("s1").Recent(3)
	require.Len(t, recent, 3)
	for i, in := range recent {
		assert.Equal(t, queries[i], in.Query)
	}
}

func TestConverseFeedsHistoryContext(t *testing.T) {
	ai := newTestAI()
	cls := &fakeClassifier{result: port.IntentResult{Intent: "project_query", Confidence: 0.5}}
	svc, _ := newTestDispatcher(t, ai, cls)

	_, err := svc.Converse(context.Background(), "s1", "what is quadruped patrol about")
	require.NoError(t, err)
	_, err = svc.Converse(context.Background(), "s1", "which hardware does it use")
	require.NoError(t, err)

	calls := ai.calls()
	require.Len(t, calls, 2)
	assert.NotContains(t, calls[0].system, "RECENT CONVERSATION CONTEXT")
	assert.Contains(t, calls[1].system, "what is quadruped patrol about",
		"the second turn must see the first in its prompt context")
}

func TestConverseMultiQueryDetection(t *testing.T) {
	ai := newTestAI()
	cls := &fakeClassifier{result: port.IntentResult{Intent: "project_query", Confidence: 0.5}}
	svc, _ := newTestDispatcher(t, ai, cls)

	reply, err := svc.Converse(context.Background(), "s1", "what is quadruped patrol and also who can join")
	require.NoError(t, err)

	require.NotNil(t, reply.TriggerMetadata)
	assert.Equal(t, "who can join", reply.TriggerMetadata["queued_queries"])

	calls := ai.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "what is quadruped patrol", calls[0].user, "only the first question is answered now")
}

func TestConverseSessionIsolation(t *testing.T) {
	ai := newTestAI()
	cls := &fakeClassifier{result: port.IntentResult{Intent: "project_query", Confidence: 0.5}}
	svc, histories := newTestDispatcher(t, ai, cls)

	_, err := svc.Converse(context.Background(), "alice", "what is quadruped patrol about")
	require.NoError(t, err)
	_, err = svc.Converse(context.Background(), "bob", "which robots do you have in the lab")
	require.NoError(t, err)

	assert.Equal(t, 1, histories.Get("alice").Len())
	assert.Equal(t, 1, histories.Get("bob").Len())
	assert.NotEqual(t,
		histories.Get("alice").Recent(1)[0].Query,
		histories.Get("bob").Recent(1)[0].Query)
}

func TestConverseStreamDeterministicRoute(t *testing.T) {
	ai := newTestAI()
	cls := &fakeClassifier{result: port.IntentResult{Intent: "greeting", Confidence: 0.95}}
	svc, _ := newTestDispatcher(t, ai, cls)

	tokens, reply, err := svc.ConverseStream(context.Background(), "s1", "hello there assistant")
	require.NoError(t, err)
	assert.Equal(t, domain.RouteTemplate, reply.Route)

	var b strings.Builder
	for tok := range tokens {
		b.WriteString(tok)
	}
	assert.Equal(t, "Hello! Ask me about the lab.", b.String())
}

func TestConverseStreamGeneration(t *testing.T) {
	ai := newTestAI()
	cls := &fakeClassifier{result: port.IntentResult{Intent: "equipment_query", Confidence: 0.67}}
	svc, histories := newTestDispatcher(t, ai, cls)

	tokens, reply, err := svc.ConverseStream(context.Background(), "s1", "tell me about the robot dog")
	require.NoError(t, err)
	assert.Equal(t, domain.RouteRAGGeneration, reply.Route)
	require.NotEmpty(t, reply.Sources)

	var b strings.Builder
	for tok := range tokens {
		b.WriteString(tok)
	}
	assert.Equal(t, "Here is what I know about that.", b.String())

	// The finalized interaction lands in history once the stream drains.
	assert.Eventually(t, func() bool {
		return histories.Get("s1").Len() == 1
	}, time.Second, 10*time.Millisecond)
}
