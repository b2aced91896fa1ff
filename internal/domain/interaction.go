package domain

import "time"

// RouteStrategy names the response path the dispatcher selected.
type RouteStrategy string

const (
	RouteHardcoded      RouteStrategy = "hardcoded"
	RouteTemplate       RouteStrategy = "template"
	RouteRAGGeneration  RouteStrategy = "rag_generation"
	RouteGenerationOnly RouteStrategy = "generation_only"
	RouteFallback       RouteStrategy = "fallback"
)

// RoutingDecision is the ephemeral routing record produced for a single
// request. It is returned to the caller as metadata and never shared
// across requests.
type RoutingDecision struct {
	Strategy      RouteStrategy `json:"strategy"`
	ThresholdUsed float64       `json:"threshold_used"`
}

// Interaction is one finalized conversational turn. Interactions are
// immutable once created and owned by the session's conversation history.
type Interaction struct {
	Query      string            `json:"query"`
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Response   string            `json:"response"`
	Route      RouteStrategy     `json:"route"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Reply is the caller-facing response object handed onward to speech
// synthesis and the UI.
type Reply struct {
	Text            string            `json:"text"`
	Intent          string            `json:"intent"`
	Confidence      float64           `json:"confidence"`
	Route           RouteStrategy     `json:"route"`
	TriggerMetadata map[string]string `json:"trigger_metadata,omitempty"`
	Sources         []ScoredItem      `json:"sources,omitempty"`
}

// SessionStats summarizes the persisted interactions of one session.
type SessionStats struct {
	SessionID     string         `json:"session_id"`
	Interactions  int            `json:"interactions"`
	AvgConfidence float64        `json:"avg_confidence"`
	RouteCounts   map[string]int `json:"route_counts"`
}
