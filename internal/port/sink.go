package port

import (
	"context"

	"github.com/wiredbrain/axiom/internal/domain"
)

// InteractionSink persists finalized interactions for offline analysis and
// retraining. Writes are best-effort: a sink failure is logged and must
// never block or fail the response path.
type InteractionSink interface {
	// WriteInteraction appends one interaction record for a session.
	WriteInteraction(ctx context.Context, sessionID string, in domain.Interaction) error

	// SessionStats aggregates persisted interactions for one session.
	SessionStats(ctx context.Context, sessionID string) (*domain.SessionStats, error)

	// TrainingData exports (query, intent) pairs above a confidence floor.
	TrainingData(ctx context.Context, minConfidence float64, limit int) ([]domain.Interaction, error)

	Close() error
}
