package port

import "context"

// IntentResult is the label and confidence produced by the intent classifier.
type IntentResult struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// UnknownIntent is returned whenever classification is unavailable. It
// routes to generation, never to a template.
var UnknownIntent = IntentResult{Intent: "unknown", Confidence: 0.0}

// IntentClassifier abstracts the intent classification backend. The model
// itself (SetFit or otherwise) is an external collaborator; the core only
// consumes label + confidence.
type IntentClassifier interface {
	// Classify returns the intent label and a confidence in [0,1].
	// Implementations must degrade to UnknownIntent instead of failing the
	// request when the backend is unreachable.
	Classify(ctx context.Context, text string) (IntentResult, error)
}
