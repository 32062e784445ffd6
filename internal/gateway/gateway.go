// Package gateway sequences one ask request: question in, guarded rows out,
// with an audit record for every attempt.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/askdata/askdata/internal/audit"
	"github.com/askdata/askdata/internal/auth"
	"github.com/askdata/askdata/internal/executor"
	"github.com/askdata/askdata/internal/guard"
	"github.com/askdata/askdata/internal/nl2sql"
	"github.com/askdata/askdata/internal/observability"
)

// ErrQuestionRequired is returned before the pipeline starts; no audit
// record exists for it because no attempt was made.
var ErrQuestionRequired = errors.New("question is required")

const maxRowLimitHint = 100

// RejectionError reports a guard rejection. It carries the raw candidate,
// which was never executed, so callers can show what the generator produced.
type RejectionError struct {
	Reasons      []string
	GeneratedSQL string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("sql rejected: %s", strings.Join(e.Reasons, ","))
}

// DependencyError marks a failure of an external collaborator (schema
// describer or SQL generator) before any statement existed to audit.
type DependencyError struct {
	Stage string
	Err   error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s dependency failed: %v", e.Stage, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

type SchemaSource interface {
	Describe(ctx context.Context) (string, error)
}

type QueryExecutor interface {
	Execute(ctx context.Context, statement string, params []any) (executor.Result, error)
}

type Config struct {
	MaxRows         int
	RequestTimeout  time.Duration
	DefaultRowLimit int
}

type Service struct {
	generator nl2sql.Generator
	schema    SchemaSource
	executor  QueryExecutor
	audit     audit.Store
	logger    *slog.Logger
	cfg       Config
}

func NewService(cfg Config, generator nl2sql.Generator, schema SchemaSource, queryExecutor QueryExecutor, auditStore audit.Store, logger *slog.Logger) *Service {
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 5000
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 20 * time.Second
	}
	if cfg.DefaultRowLimit <= 0 {
		cfg.DefaultRowLimit = 50
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		generator: generator,
		schema:    schema,
		executor:  queryExecutor,
		audit:     auditStore,
		logger:    logger,
		cfg:       cfg,
	}
}

type Request struct {
	Question string
	RowLimit int
	Actor    *auth.Identity
}

type Response struct {
	Columns []string
	Rows    []map[string]any
	Explain Explain
}

type Explain struct {
	Question     string   `json:"question"`
	GeneratedSQL string   `json:"generated_sql"`
	RewrittenSQL string   `json:"rewritten_sql"`
	Confidence   float64  `json:"confidence"`
	Notes        []string `json:"notes"`
	ElapsedMs    int64    `json:"elapsed_ms"`
}

// Ask runs the full pipeline. Once a candidate statement exists, exactly one
// audit record is written no matter how the request ends: rejection,
// execution failure, or success.
func (s *Service) Ask(ctx context.Context, req Request) (Response, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Response{}, ErrQuestionRequired
	}

	rowLimit := req.RowLimit
	if rowLimit <= 0 {
		rowLimit = s.cfg.DefaultRowLimit
	}
	if rowLimit > maxRowLimitHint {
		rowLimit = maxRowLimitHint
	}

	// The deadline bounds generator and executor together; the audit write
	// below deliberately escapes it so a timed-out request is still audited.
	pipelineCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	schemaText, err := s.schema.Describe(pipelineCtx)
	if err != nil {
		observability.ObserveAskOutcome("dependency_error")
		return Response{}, &DependencyError{Stage: "schema", Err: err}
	}

	generated, err := s.generator.Generate(pipelineCtx, nl2sql.Request{
		Question:   question,
		RowLimit:   rowLimit,
		SchemaText: schemaText,
	})
	if err != nil {
		// No candidate statement exists yet, so there is nothing to audit.
		s.logger.ErrorContext(ctx, "sql generation failed", slog.Any("error", err))
		observability.ObserveAskOutcome("dependency_error")
		return Response{}, &DependencyError{Stage: "generator", Err: err}
	}

	verdict := guard.Validate(generated.SQL, s.cfg.MaxRows)
	record := audit.Record{
		Question:     question,
		GeneratedSQL: generated.SQL,
		Confidence:   generated.Confidence,
		Notes:        verdict.Notes,
	}
	if req.Actor != nil {
		if req.Actor.UserID != "" {
			record.UserID = &req.Actor.UserID
		}
		if req.Actor.Email != "" {
			record.UserEmail = &req.Actor.Email
		}
	}

	if !verdict.Valid {
		for _, code := range verdict.Reasons {
			observability.ObserveGuardRejection(code)
		}
		rejection := &RejectionError{Reasons: verdict.Reasons, GeneratedSQL: generated.SQL}
		message := rejection.Error()
		record.Error = &message
		s.writeAudit(ctx, record)
		observability.ObserveAskOutcome("rejected")
		return Response{}, rejection
	}

	record.RewrittenSQL = verdict.RewrittenSQL
	result, execErr := s.executor.Execute(pipelineCtx, verdict.RewrittenSQL, generated.Params)
	if execErr != nil {
		message := execErr.Error()
		record.Error = &message
		var detail *executor.ExecutionError
		if errors.As(execErr, &detail) {
			record.ElapsedMs = detail.Elapsed.Milliseconds()
		}
		s.writeAudit(ctx, record)
		observability.ObserveAskOutcome("execution_error")
		return Response{}, execErr
	}

	record.ElapsedMs = result.Elapsed.Milliseconds()
	s.writeAudit(ctx, record)
	observability.ObserveQueryDuration(result.Elapsed)
	observability.ObserveAskOutcome("ok")

	notes := verdict.Notes
	if notes == nil {
		notes = []string{}
	}
	return Response{
		Columns: result.Columns,
		Rows:    result.Rows,
		Explain: Explain{
			Question:     question,
			GeneratedSQL: generated.SQL,
			RewrittenSQL: verdict.RewrittenSQL,
			Confidence:   generated.Confidence,
			Notes:        notes,
			ElapsedMs:    result.Elapsed.Milliseconds(),
		},
	}, nil
}

// writeAudit must not mask the request outcome: a store failure is logged
// and counted, because a missing record breaks the one-record-per-attempt
// invariant and operators need to know.
func (s *Service) writeAudit(ctx context.Context, record audit.Record) {
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := s.audit.Append(auditCtx, record); err != nil {
		observability.IncrementAuditWriteFailure()
		s.logger.ErrorContext(ctx, "audit write failed",
			slog.String("question", record.Question),
			slog.Any("error", err),
		)
	}
}
