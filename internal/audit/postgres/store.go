// Package postgres persists audit records in the ask_audit table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/askdata/askdata/internal/audit"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping audit db: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, record audit.Record) (audit.Record, error) {
	notes := record.Notes
	if notes == nil {
		notes = []string{}
	}
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return audit.Record{}, fmt.Errorf("marshal audit notes: %w", err)
	}

	record.ID = uuid.New()
	record.Notes = notes

	query := `
INSERT INTO ask_audit (audit_id, question, generated_sql, rewritten_sql, confidence, elapsed_ms, user_id, user_email, notes, error)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10)
RETURNING created_at`
	if err := s.db.QueryRowContext(ctx, query,
		record.ID,
		record.Question,
		record.GeneratedSQL,
		record.RewrittenSQL,
		record.Confidence,
		record.ElapsedMs,
		record.UserID,
		record.UserEmail,
		string(notesJSON),
		record.Error,
	).Scan(&record.CreatedAt); err != nil {
		return audit.Record{}, fmt.Errorf("append audit record: %w", err)
	}
	return record, nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Record, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
SELECT audit_id, question, generated_sql, rewritten_sql, confidence, elapsed_ms, user_id, user_email, notes, error, created_at
FROM ask_audit
ORDER BY created_at DESC
LIMIT $1`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]audit.Record, 0, limit)
	for rows.Next() {
		var record audit.Record
		var userID, userEmail, errorText sql.NullString
		var notesJSON []byte
		if err := rows.Scan(
			&record.ID,
			&record.Question,
			&record.GeneratedSQL,
			&record.RewrittenSQL,
			&record.Confidence,
			&record.ElapsedMs,
			&userID,
			&userEmail,
			&notesJSON,
			&errorText,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		if userID.Valid {
			record.UserID = &userID.String
		}
		if userEmail.Valid {
			record.UserEmail = &userEmail.String
		}
		if errorText.Valid {
			record.Error = &errorText.String
		}
		record.Notes = []string{}
		if len(notesJSON) > 0 {
			if err := json.Unmarshal(notesJSON, &record.Notes); err != nil {
				return nil, fmt.Errorf("decode audit notes: %w", err)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit rows: %w", err)
	}
	return records, nil
}
