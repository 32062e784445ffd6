package nl2sql

import (
	"context"
	"strings"
	"testing"
)

func TestRuleGeneratorMapsTopProductsQuestion(t *testing.T) {
	generator := NewRuleGenerator()
	result, err := generator.Generate(context.Background(), Request{Question: "Top products by revenue", RowLimit: 5})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(result.SQL, "from order_items") {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if len(result.Params) != 1 || result.Params[0] != 5 {
		t.Fatalf("Params = %v", result.Params)
	}
	if result.Confidence != 0.70 {
		t.Fatalf("Confidence = %f", result.Confidence)
	}
}

func TestRuleGeneratorMapsListTablesQuestion(t *testing.T) {
	generator := NewRuleGenerator()
	result, err := generator.Generate(context.Background(), Request{Question: "show me the tables"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(result.SQL, "information_schema.tables") {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if len(result.Params) != 1 || result.Params[0] != 50 {
		t.Fatalf("Params = %v", result.Params)
	}
}

func TestRuleGeneratorFallsBackOnUnknownQuestion(t *testing.T) {
	generator := NewRuleGenerator()
	result, err := generator.Generate(context.Background(), Request{Question: "what is the airspeed of an unladen swallow"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.SQL != "select 1 as unsupported_request limit 1" {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if result.Confidence != 0.10 {
		t.Fatalf("Confidence = %f", result.Confidence)
	}
}
