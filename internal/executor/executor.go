// Package executor runs guarded statements under a hard statement timeout.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Result holds the materialized rows of one execution. Column order comes
// from the query result metadata, not from any fixed schema.
type Result struct {
	Columns []string
	Rows    []map[string]any
	Elapsed time.Duration
}

// ExecutionError is the single failure shape for database errors, statement
// timeouts, and cancelled deadlines. Elapsed covers the aborted attempt so
// the audit trail can still account for the time spent.
type ExecutionError struct {
	Elapsed time.Duration
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed after %s: %v", e.Elapsed, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

type Executor struct {
	db               *sql.DB
	statementTimeout time.Duration
}

func New(db *sql.DB, statementTimeout time.Duration) *Executor {
	if statementTimeout <= 0 {
		statementTimeout = 15 * time.Second
	}
	return &Executor{db: db, statementTimeout: statementTimeout}
}

// Execute runs one statement on a dedicated connection. A server-side
// statement_timeout scoped to the transaction makes the database itself kill
// a runaway query; the caller's ctx deadline additionally bounds connection
// acquisition. The statement is never retried: it may have partially run
// server-side and the executor cannot verify idempotence.
func (e *Executor) Execute(ctx context.Context, statement string, params []any) (Result, error) {
	start := time.Now()

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return Result{}, &ExecutionError{Elapsed: time.Since(start), Err: fmt.Errorf("acquire connection: %w", err)}
	}
	defer func() { _ = conn.Close() }()

	tx, err := conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return Result{}, &ExecutionError{Elapsed: time.Since(start), Err: fmt.Errorf("begin read-only tx: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	// SET LOCAL scopes the timeout to this transaction, so the pooled
	// connection is clean when it goes back.
	timeoutStmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", e.statementTimeout.Milliseconds())
	if _, err := tx.ExecContext(ctx, timeoutStmt); err != nil {
		return Result{}, &ExecutionError{Elapsed: time.Since(start), Err: fmt.Errorf("set statement timeout: %w", err)}
	}

	rows, err := tx.QueryContext(ctx, statement, params...)
	if err != nil {
		return Result{}, &ExecutionError{Elapsed: time.Since(start), Err: fmt.Errorf("run statement: %w", err)}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, &ExecutionError{Elapsed: time.Since(start), Err: fmt.Errorf("read result columns: %w", err)}
	}

	records := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return Result{}, &ExecutionError{Elapsed: time.Since(start), Err: fmt.Errorf("scan row: %w", err)}
		}
		record := make(map[string]any, len(columns))
		for i, column := range columns {
			record[column] = normalizeValue(values[i])
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return Result{}, &ExecutionError{Elapsed: time.Since(start), Err: fmt.Errorf("iterate rows: %w", err)}
	}

	return Result{Columns: columns, Rows: records, Elapsed: time.Since(start)}, nil
}

// Drivers surface text columns as []byte, which would JSON-encode as base64.
func normalizeValue(value any) any {
	if raw, ok := value.([]byte); ok {
		return string(raw)
	}
	return value
}
