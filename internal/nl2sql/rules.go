package nl2sql

import (
	"context"
	"strings"
)

// RuleGenerator answers a small set of known question shapes with canned SQL.
// It needs no network and no credentials, which makes it the default when AI
// generation is disabled and the generator of choice in tests.
type RuleGenerator struct{}

func NewRuleGenerator() *RuleGenerator {
	return &RuleGenerator{}
}

func (g *RuleGenerator) Generate(_ context.Context, req Request) (Result, error) {
	question := strings.ToLower(strings.TrimSpace(req.Question))

	if strings.Contains(question, "top") && strings.Contains(question, "product") &&
		(strings.Contains(question, "revenue") || strings.Contains(question, "sales")) {
		rowLimit := 10
		if req.RowLimit > 0 && req.RowLimit <= 100 {
			rowLimit = req.RowLimit
		}
		return Result{
			SQL: "select p.id, p.name, sum(oi.quantity * oi.unit_price) as revenue " +
				"from order_items oi " +
				"join products p on p.id = oi.product_id " +
				"group by p.id, p.name " +
				"order by revenue desc " +
				"limit $1",
			Confidence: 0.70,
			Params:     []any{rowLimit},
			Provider:   "rules",
		}, nil
	}

	if (strings.Contains(question, "list") || strings.Contains(question, "show")) &&
		strings.Contains(question, "tables") {
		rowLimit := 50
		if req.RowLimit > 0 {
			rowLimit = req.RowLimit
		}
		return Result{
			SQL: "select table_schema, table_name " +
				"from information_schema.tables " +
				"where table_schema not in ('pg_catalog','information_schema') " +
				"order by table_schema, table_name " +
				"limit $1",
			Confidence: 0.60,
			Params:     []any{rowLimit},
			Provider:   "rules",
		}, nil
	}

	return Result{
		SQL:        "select 1 as unsupported_request limit 1",
		Confidence: 0.10,
		Provider:   "rules",
	}, nil
}
