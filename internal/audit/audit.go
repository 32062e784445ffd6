// Package audit defines the durable record of every ask attempt.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record captures one request attempt: the question, both SQL forms, the
// generator's confidence, timing, actor identity, and the outcome. Records
// are append-only; nothing in this service updates or deletes them.
// RewrittenSQL is empty when the guard rejected the candidate, and Error is
// nil on success.
type Record struct {
	ID           uuid.UUID `json:"id"`
	Question     string    `json:"question"`
	GeneratedSQL string    `json:"generated_sql"`
	RewrittenSQL string    `json:"rewritten_sql"`
	Confidence   float64   `json:"confidence"`
	ElapsedMs    int64     `json:"elapsed_ms"`
	UserID       *string   `json:"user_id"`
	UserEmail    *string   `json:"user_email"`
	Notes        []string  `json:"notes"`
	Error        *string   `json:"error"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists records. Append assigns the ID and CreatedAt; ListRecent
// returns up to limit records, newest first.
type Store interface {
	Append(ctx context.Context, record Record) (Record, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
	HealthCheck(ctx context.Context) error
}
