package domain

import "time"

// AuditLog records every significant request handled by the service.
type AuditLog struct {
	ID        string    `json:"id"         db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Action    string    `json:"action"     db:"action"`
	Resource  string    `json:"resource"   db:"resource"`
	Details   string    `json:"details"    db:"details"` // JSON blob
	IP        string    `json:"ip"         db:"ip"`
	UserAgent string    `json:"user_agent" db:"user_agent"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Audit action constants.
const (
	AuditActionConverse = "converse"
	AuditActionReload   = "knowledge_reload"
	AuditActionSession  = "session_op"
)
