// Package nl2sql turns natural-language questions into candidate SQL.
//
// Whatever a Generator returns is untrusted input: it is never executed
// without passing the guard first.
package nl2sql

import "context"

type Request struct {
	Question   string `json:"question"`
	RowLimit   int    `json:"row_limit"`
	SchemaText string `json:"schema_text"`
}

// Result carries one candidate statement. Confidence is the generator's own
// estimate in [0, 1]; Params are optional positional arguments for the
// statement.
type Result struct {
	SQL        string  `json:"sql"`
	Confidence float64 `json:"confidence"`
	Params     []any   `json:"params,omitempty"`
	Provider   string  `json:"provider"`
	Model      string  `json:"model"`
}

type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}
