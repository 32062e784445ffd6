// Package guard decides whether model-generated SQL may be executed.
//
// The guard is deliberately a lexical filter, not a SQL parser. It pairs an
// allow-list on statement structure (must start with SELECT or WITH) with a
// substring deny-list of mutating or session-altering keywords. The substring
// scan will also reject tokens appearing inside string literals or comments;
// that conservative bias is the point: nothing resembling a mutating
// statement gets near the database.
package guard

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	CodeEmptySQL          = "EMPTY_SQL"
	CodeMultiStatement    = "MULTI_STATEMENT_NOT_ALLOWED"
	CodeOnlySelectAllowed = "ONLY_SELECT_ALLOWED"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	limitClause   = regexp.MustCompile(`\blimit\b`)

	// Trailing spaces on "set ", "reset " and "do " keep short words from
	// matching inside identifiers like "reset_at" or "dossier".
	forbiddenTokens = []string{
		"insert", "update", "delete", "merge", "alter", "drop", "create",
		"grant", "revoke", "truncate", "call", "copy", "vacuum", "analyze",
		"explain analyze", "listen", "notify", "set ", "reset ", "do ",
		"refresh materialized view", "cluster", "reindex",
	}
)

// Verdict is the guard's decision about one candidate statement. Exactly one
// of RewrittenSQL or Reasons is populated: a valid verdict carries the
// statement to execute, an invalid one carries the rejection codes.
type Verdict struct {
	Valid        bool
	RewrittenSQL string
	Notes        []string
	Reasons      []string
}

// Validate checks a candidate statement and either rewrites it into a
// bounded, single, read-only statement or rejects it with reason codes.
// It is a pure function: no I/O, no state.
func Validate(candidate string, maxRows int) Verdict {
	if strings.TrimSpace(candidate) == "" {
		return Verdict{Reasons: []string{CodeEmptySQL}}
	}

	normalized := strings.TrimSpace(whitespaceRun.ReplaceAllString(candidate, " "))

	var reasons []string
	if strings.Count(normalized, ";") > 1 {
		reasons = append(reasons, CodeMultiStatement)
	}

	// A lone trailing terminator is not itself an error.
	normalized = strings.TrimSuffix(normalized, ";")

	lowered := strings.ToLower(normalized)
	if !strings.HasPrefix(lowered, "select") && !strings.HasPrefix(lowered, "with") {
		reasons = append(reasons, CodeOnlySelectAllowed)
	}

	for _, token := range forbiddenTokens {
		if strings.Contains(lowered, token) {
			reasons = append(reasons, fmt.Sprintf("FORBIDDEN_TOKEN:%s", strings.TrimSpace(token)))
		}
	}

	if len(reasons) > 0 {
		return Verdict{Reasons: reasons}
	}

	var notes []string
	if !limitClause.MatchString(lowered) {
		normalized = fmt.Sprintf("%s limit %d", normalized, maxRows)
		notes = append(notes, fmt.Sprintf("LIMIT_APPLIED:%d", maxRows))
	}

	return Verdict{Valid: true, RewrittenSQL: normalized, Notes: notes}
}
