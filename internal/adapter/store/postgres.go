package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wiredbrain/axiom/internal/domain"
)

// PostgresSink persists interactions and request audit logs for offline
// analysis and retraining. It sits off the response path: callers write
// best-effort and log failures instead of propagating them.
type PostgresSink struct {
	db *sql.DB
}

// NewPostgresSink opens a connection, verifies it, and ensures the schema.
func NewPostgresSink(databaseURL string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresSink{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}

func (s *PostgresSink) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS interactions (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			query TEXT NOT NULL,
			intent TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			response TEXT NOT NULL,
			route TEXT NOT NULL,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_session ON interactions(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_intent ON interactions(intent)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
			session_id TEXT,
			action TEXT NOT NULL,
			resource TEXT NOT NULL,
			details JSONB,
			ip TEXT,
			user_agent TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// WriteInteraction appends one interaction record for a session.
func (s *PostgresSink) WriteInteraction(ctx context.Context, sessionID string, in domain.Interaction) error {
	metadataJSON, err := json.Marshal(in.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `INSERT INTO interactions (session_id, query, intent, confidence, response, route, metadata, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = s.db.ExecContext(ctx, query,
		sessionID, in.Query, in.Intent, in.Confidence, in.Response, string(in.Route), metadataJSON, in.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("write interaction: %w", err)
	}
	return nil
}

// SessionStats aggregates persisted interactions for one session.
func (s *PostgresSink) SessionStats(ctx context.Context, sessionID string) (*domain.SessionStats, error) {
	stats := &domain.SessionStats{
		SessionID:   sessionID,
		RouteCounts: make(map[string]int),
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(confidence), 0) FROM interactions WHERE session_id = $1`, sessionID)
	if err := row.Scan(&stats.Interactions, &stats.AvgConfidence); err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT route, COUNT(*) FROM interactions WHERE session_id = $1 GROUP BY route`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("route counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var route string
		var count int
		if err := rows.Scan(&route, &count); err != nil {
			return nil, fmt.Errorf("scan route count: %w", err)
		}
		stats.RouteCounts[route] = count
	}
	return stats, rows.Err()
}

// TrainingData exports recent (query, intent) pairs above a confidence
// floor, newest first, for offline classifier retraining.
func (s *PostgresSink) TrainingData(ctx context.Context, minConfidence float64, limit int) ([]domain.Interaction, error) {
	if limit <= 0 {
		limit = 1000
	}

	query := `SELECT query, intent, confidence, response, route, created_at
	          FROM interactions
	          WHERE confidence >= $1
	          ORDER BY created_at DESC
	          LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, minConfidence, limit)
	if err != nil {
		return nil, fmt.Errorf("training data: %w", err)
	}
	defer rows.Close()

	var out []domain.Interaction
	for rows.Next() {
		var in domain.Interaction
		var route string
		if err := rows.Scan(&in.Query, &in.Intent, &in.Confidence, &in.Response, &route, &in.Timestamp); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		in.Route = domain.RouteStrategy(route)
		out = append(out, in)
	}
	return out, rows.Err()
}

// WriteAudit records one request for the audit middleware.
func (s *PostgresSink) WriteAudit(sessionID, action, resource, details, ip, userAgent string) error {
	query := `INSERT INTO audit_logs (session_id, action, resource, details, ip, user_agent)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.Exec(query, sessionID, action, resource, details, ip, userAgent)
	if err != nil {
		return fmt.Errorf("write audit: %w", err)
	}
	return nil
}

// ListAuditLogs returns the most recent audit entries.
func (s *PostgresSink) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, COALESCE(session_id, ''), action, resource, COALESCE(details::text, ''), COALESCE(ip, ''), COALESCE(user_agent, ''), created_at
	          FROM audit_logs ORDER BY created_at DESC LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(&l.ID, &l.SessionID, &l.Action, &l.Resource, &l.Details, &l.IP, &l.UserAgent, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
