// Package service holds the response dispatcher, the decision core of
// the assistant.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/wiredbrain/axiom/internal/corrector"
	"github.com/wiredbrain/axiom/internal/domain"
	"github.com/wiredbrain/axiom/internal/history"
	"github.com/wiredbrain/axiom/internal/knowledge"
	"github.com/wiredbrain/axiom/internal/port"
)

// FallbackText is returned whenever generation fails or times out. The
// caller always gets speakable text, never a raw backend error.
const FallbackText = "I'm sorry, I can't answer that right now. Please try again in a moment."

const unclearText = "I didn't quite catch that. Could you say it again?"

// DispatchConfig carries the routing tunables.
type DispatchConfig struct {
	TemplateThreshold float64
	HistoryTurns      int
	GenerationTimeout time.Duration
}

// DispatchService orchestrates one conversational turn: utterance
// hygiene, intent classification, strategy routing, correction, and
// best-effort persistence.
type DispatchService struct {
	engine     *port.ResponseEngine
	classifier port.IntentClassifier
	base       *knowledge.Base
	histories  *history.Manager
	pipeline   *corrector.Pipeline
	sink       port.InteractionSink // nil when persistence is disabled
	cfg        DispatchConfig
}

// NewDispatchService wires the dispatcher. sink may be nil.
func NewDispatchService(
	engine *port.ResponseEngine,
	classifier port.IntentClassifier,
	base *knowledge.Base,
	histories *history.Manager,
	pipeline *corrector.Pipeline,
	sink port.InteractionSink,
	cfg DispatchConfig,
) *DispatchService {
	return &DispatchService{
		engine:     engine,
		classifier: classifier,
		base:       base,
		histories:  histories,
		pipeline:   pipeline,
		sink:       sink,
		cfg:        cfg,
	}
}

// Converse handles one utterance for a session and returns the final
// reply. It always returns a reply; per-request failures degrade to
// fallback text.
func (s *DispatchService) Converse(ctx context.Context, sessionID, utterance string) (*domain.Reply, error) {
	turn := s.prepare(ctx, sessionID, utterance)
	if turn.reply != nil {
		return turn.reply, nil
	}

	text, sources := s.execute(ctx, turn)

	reply := s.finalize(turn, text, sources)
	return reply, nil
}

// ConverseStream handles one utterance and streams the reply tokens.
// The returned reply carries routing metadata; its Text field fills the
// history once the stream drains. Deterministic routes emit their whole
// text as a single element.
func (s *DispatchService) ConverseStream(ctx context.Context, sessionID, utterance string) (<-chan string, *domain.Reply, error) {
	turn := s.prepare(ctx, sessionID, utterance)
	if turn.reply != nil {
		ch := make(chan string, 1)
		ch <- turn.reply.Text
		close(ch)
		return ch, turn.reply, nil
	}

	if turn.decision.Strategy == domain.RouteHardcoded {
		text := s.pipeline.Correct(turn.intercept.Text)
		reply := s.finalize(turn, text, nil)
		ch := make(chan string, 1)
		ch <- text
		close(ch)
		return ch, reply, nil
	}

	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.GenerationTimeout)
	tokens, sources, err := s.engine.RunStream(genCtx, turn.decision.Strategy, turn.request())
	if err != nil {
		cancel()
		slog.Error("streaming strategy failed", "strategy", turn.decision.Strategy, "error", err)
		turn.decision.Strategy = domain.RouteFallback
		reply := s.finalize(turn, FallbackText, nil)
		ch := make(chan string, 1)
		ch <- FallbackText
		close(ch)
		return ch, reply, nil
	}

	reply := &domain.Reply{
		Intent:          turn.intent.Intent,
		Confidence:      turn.intent.Confidence,
		Route:           turn.decision.Strategy,
		TriggerMetadata: turn.triggerMetadata(),
		Sources:         sources,
	}

	out := make(chan string)
	go func() {
		defer cancel()
		defer close(out)
		var b strings.Builder
		for tok := range tokens {
			b.WriteString(tok)
			out <- tok
		}
		// Correction cannot run mid-stream; the corrected text still
		// lands in history and the sink.
		s.finalize(turn, s.pipeline.Correct(b.String()), sources)
	}()
	return out, reply, nil
}

// turnState carries one request through the dispatch stages. When reply
// is non-nil the turn short-circuited before routing.
type turnState struct {
	sessionID string
	query     string
	queued    []string
	intent    port.IntentResult
	history   *history.History
	histCtx   string
	intercept domain.KnowledgeItem
	decision  domain.RoutingDecision
	reply     *domain.Reply
	equipment domain.KnowledgeItem
	equipHit  bool
}

func (t *turnState) request() port.RespondRequest {
	return port.RespondRequest{
		Query:      t.query,
		Intent:     t.intent.Intent,
		Confidence: t.intent.Confidence,
		History:    t.histCtx,
	}
}

func (t *turnState) triggerMetadata() map[string]string {
	if !t.equipHit {
		if len(t.queued) == 0 {
			return nil
		}
		return map[string]string{"queued_queries": strings.Join(t.queued, " | ")}
	}
	md := map[string]string{"equipment_id": t.equipment.ID}
	if name := t.equipment.Metadata["name"]; name != "" {
		md["equipment_name"] = name
	}
	if model := t.equipment.Metadata["model"]; model != "" {
		md["model"] = model
	}
	if card := t.equipment.Metadata["card"]; card != "" {
		md["card"] = card
	}
	if len(t.queued) > 0 {
		md["queued_queries"] = strings.Join(t.queued, " | ")
	}
	return md
}

// prepare runs utterance hygiene, classification, and routing. It never
// calls a generative backend.
func (s *DispatchService) prepare(ctx context.Context, sessionID, utterance string) *turnState {
	t := &turnState{sessionID: sessionID, history: s.histories.Get(sessionID)}

	normalized := corrector.NormalizeUtterance(utterance)
	if corrector.IsHallucination(normalized) {
		slog.Debug("utterance rejected as transcription noise", "session", sessionID, "utterance", utterance)
		t.reply = &domain.Reply{
			Text:   unclearText,
			Intent: "unclear_input",
			Route:  domain.RouteFallback,
		}
		return t
	}

	t.query, t.queued = SplitQueries(normalized)
	if len(t.queued) > 0 {
		slog.Info("multiple questions detected", "session", sessionID, "answering", t.query, "queued", len(t.queued))
	}

	result, err := s.classifier.Classify(ctx, t.query)
	if err != nil {
		// Degrade, never fail the turn on the classifier.
		slog.Warn("intent classification failed", "error", err)
		result = port.UnknownIntent
	}
	t.intent = result
	t.histCtx = t.history.FormatContext(s.cfg.HistoryTurns)

	snap := s.base.Current()
	t.intercept, _ = snap.Store.LookupExact(domain.CategoryFact, t.query)
	interceptHit := t.intercept.ID != ""
	templateExists := len(snap.Store.TemplatesFor(t.intent.Intent)) > 0
	t.equipment, t.equipHit = snap.Store.LookupExact(domain.CategoryEquipment, t.query)

	t.decision = Decide(t.intent.Confidence, t.intent.Intent, templateExists, interceptHit, s.cfg.TemplateThreshold)
	slog.Info("routed utterance",
		"session", sessionID,
		"intent", t.intent.Intent,
		"confidence", t.intent.Confidence,
		"strategy", t.decision.Strategy,
	)
	return t
}

// execute runs the selected strategy, degrading to the static fallback
// on any generation failure or timeout.
func (s *DispatchService) execute(ctx context.Context, t *turnState) (string, []domain.ScoredItem) {
	if t.decision.Strategy == domain.RouteHardcoded {
		return t.intercept.Text, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	result, err := s.engine.Run(genCtx, t.decision.Strategy, t.request())
	if err != nil {
		slog.Error("strategy failed, serving fallback", "strategy", t.decision.Strategy, "error", err)
		t.decision.Strategy = domain.RouteFallback
		return FallbackText, nil
	}
	return result.Text, result.Sources
}

// finalize corrects the text, appends the interaction to the session
// history, and mirrors it to the sink best-effort.
func (s *DispatchService) finalize(t *turnState, text string, sources []domain.ScoredItem) *domain.Reply {
	corrected := s.pipeline.Correct(text)

	reply := &domain.Reply{
		Text:            corrected,
		Intent:          t.intent.Intent,
		Confidence:      t.intent.Confidence,
		Route:           t.decision.Strategy,
		TriggerMetadata: t.triggerMetadata(),
		Sources:         sources,
	}

	interaction := domain.Interaction{
		Query:      t.query,
		Intent:     t.intent.Intent,
		Confidence: t.intent.Confidence,
		Response:   corrected,
		Route:      t.decision.Strategy,
		Timestamp:  time.Now().UTC(),
		Metadata:   reply.TriggerMetadata,
	}
	t.history.Append(interaction)

	if s.sink != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.sink.WriteInteraction(ctx, t.sessionID, interaction); err != nil {
				slog.Warn("interaction persistence failed", "session", t.sessionID, "error", err)
			}
		}()
	}
	return reply
}

// Strategies lists the registered response strategies.
func (s *DispatchService) Strategies() []domain.RouteStrategy {
	return s.engine.Available()
}
