// Package schema produces the textual database description fed to SQL
// generation.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/askdata/askdata/internal/observability"
)

const columnsQuery = `
SELECT c.table_schema, c.table_name, c.column_name, c.data_type
FROM information_schema.columns c
JOIN information_schema.tables t
  ON c.table_name = t.table_name
 AND c.table_schema = t.table_schema
WHERE c.table_schema NOT IN ('pg_catalog', 'information_schema')
  AND t.table_type = 'BASE TABLE'
ORDER BY c.table_schema, c.table_name, c.ordinal_position`

// Describer caches the schema text with an explicit expiry instead of
// re-reading information_schema on every request. The cache is refreshed
// lazily on read; concurrent readers serialize on the lock so at most one
// refresh runs at a time.
type Describer struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	cached    string
	refreshed time.Time
}

func NewDescriber(db *sql.DB, ttl time.Duration) *Describer {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Describer{db: db, ttl: ttl, now: time.Now}
}

func (d *Describer) Describe(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cached != "" && d.now().Sub(d.refreshed) < d.ttl {
		return d.cached, nil
	}

	text, err := d.load(ctx)
	if err != nil {
		return "", err
	}
	d.cached = text
	d.refreshed = d.now()
	observability.IncrementSchemaCacheRefresh()
	return text, nil
}

// LastRefreshed reports when the cached text was last rebuilt; zero when the
// cache has never been filled.
func (d *Describer) LastRefreshed() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.refreshed
}

func (d *Describer) load(ctx context.Context) (string, error) {
	rows, err := d.db.QueryContext(ctx, columnsQuery)
	if err != nil {
		return "", fmt.Errorf("query information_schema: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var builder strings.Builder
	builder.WriteString("You have a PostgreSQL database. Here are the tables and columns:\n")

	var currentSchema, currentTable string
	for rows.Next() {
		var tableSchema, tableName, columnName, dataType string
		if err := rows.Scan(&tableSchema, &tableName, &columnName, &dataType); err != nil {
			return "", fmt.Errorf("scan schema row: %w", err)
		}
		if tableSchema != currentSchema || tableName != currentTable {
			fmt.Fprintf(&builder, "- %s.%s (\n", tableSchema, tableName)
			currentSchema = tableSchema
			currentTable = tableName
		}
		fmt.Fprintf(&builder, "    %s %s,\n", columnName, dataType)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate schema rows: %w", err)
	}
	return builder.String(), nil
}
