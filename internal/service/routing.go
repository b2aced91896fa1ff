package service

import (
	"strings"

	"github.com/wiredbrain/axiom/internal/domain"
)

// IntentUnknown is the degraded classifier result label. It never
// routes to a template.
const IntentUnknown = "unknown"

// conversationalIntents answer from the chat model alone; retrieval has
// nothing useful for them when no template fires.
var conversationalIntents = map[string]bool{
	"greeting":       true,
	"goodbye":        true,
	"acknowledgment": true,
	"small_talk":     true,
	"chitchat":       true,
}

// Decide selects the response strategy. It is a pure function of its
// inputs so every routing combination can be tested exhaustively.
// Ordered, first match wins:
//
//  1. a hardcoded-fact hit answers verbatim, bypassing everything
//  2. confidence at or above the threshold with a template for the
//     intent takes the deterministic template path
//  3. conversational intents generate without retrieval
//  4. everything else retrieves and generates grounded
func Decide(confidence float64, intent string, templateExists, interceptHit bool, templateThreshold float64) domain.RoutingDecision {
	switch {
	case interceptHit:
		return domain.RoutingDecision{Strategy: domain.RouteHardcoded, ThresholdUsed: templateThreshold}
	case intent != IntentUnknown && confidence >= templateThreshold && templateExists:
		return domain.RoutingDecision{Strategy: domain.RouteTemplate, ThresholdUsed: templateThreshold}
	case conversationalIntents[intent]:
		return domain.RoutingDecision{Strategy: domain.RouteGenerationOnly, ThresholdUsed: templateThreshold}
	default:
		return domain.RoutingDecision{Strategy: domain.RouteRAGGeneration, ThresholdUsed: templateThreshold}
	}
}

// SplitQueries detects an utterance carrying more than one question and
// returns the first plus the queued remainder. The first question is
// answered now; the rest is reported back so the caller can re-ask.
func SplitQueries(text string) (first string, rest []string) {
	parts := []string{text}
	for _, sep := range []string{" and also ", " and then ", "; "} {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}

	var cleaned []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return text, nil
	}
	return cleaned[0], cleaned[1:]
}
