package migrations

import (
	"strings"
	"testing"
)

func TestAuditMigrationContainsRequiredTableAndIndexes(t *testing.T) {
	body, err := embeddedFS.ReadFile("sql/000001_ask_audit.up.sql")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	sql := string(body)
	requiredSnippets := []string{
		"CREATE TABLE ask_audit",
		"audit_id UUID PRIMARY KEY",
		"notes JSONB NOT NULL DEFAULT '[]'::jsonb",
		"CREATE INDEX idx_ask_audit_created_at_desc",
		"CREATE INDEX idx_ask_audit_user_id",
	}

	for _, snippet := range requiredSnippets {
		if !strings.Contains(sql, snippet) {
			t.Fatalf("migration missing required snippet: %s", snippet)
		}
	}
}

func TestAuditMigrationDownDropsTable(t *testing.T) {
	body, err := embeddedFS.ReadFile("sql/000001_ask_audit.down.sql")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(body), "DROP TABLE IF EXISTS ask_audit") {
		t.Fatalf("down migration does not drop ask_audit: %s", body)
	}
}
