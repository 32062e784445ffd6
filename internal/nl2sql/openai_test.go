package nl2sql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStripMarkdownSQL(t *testing.T) {
	got := stripMarkdownSQL("```sql\nSELECT 1;\n```")
	if got != "SELECT 1;" {
		t.Fatalf("stripMarkdownSQL() = %q", got)
	}
}

func TestNewOpenAIGeneratorRequiresCredentials(t *testing.T) {
	if _, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing base URL")
	}
	if _, err := NewOpenAIGenerator(OpenAIConfig{BaseURL: "https://api.example.com"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestOpenAIGeneratorGenerate(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "```sql\nselect id from products\n```"}},
			},
		})
	}))
	defer server.Close()

	generator, err := NewOpenAIGenerator(OpenAIConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator() error = %v", err)
	}

	result, err := generator.Generate(context.Background(), Request{
		Question:   "what products exist?",
		RowLimit:   25,
		SchemaText: "- public.products (id, name)",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.SQL != "select id from products" {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if result.Confidence != openAIConfidence {
		t.Fatalf("Confidence = %f", result.Confidence)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotBody["model"] != "gpt-4o-mini" {
		t.Fatalf("payload model = %v", gotBody["model"])
	}
}

func TestOpenAIGeneratorGenerateRejectsEmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []map[string]any{}})
	}))
	defer server.Close()

	generator, err := NewOpenAIGenerator(OpenAIConfig{BaseURL: server.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator() error = %v", err)
	}
	if _, err := generator.Generate(context.Background(), Request{Question: "q"}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
