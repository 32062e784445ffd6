package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/askdata/askdata/internal/executor"
	"github.com/askdata/askdata/internal/gateway"
)

func TestAskEndpointReturnsRows(t *testing.T) {
	service := &fakeAskService{response: gateway.Response{
		Columns: []string{"id"},
		Rows:    []map[string]any{{"id": int64(7)}},
		Explain: gateway.Explain{
			Question:     "top products by revenue",
			GeneratedSQL: "select id from products",
			RewrittenSQL: "select id from products limit 5000",
			Confidence:   0.8,
			Notes:        []string{"LIMIT_APPLIED:5000"},
			ElapsedMs:    12,
		},
	}}
	handler := NewHandler(testConfig(t, nil), Dependencies{Gateway: service})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"top products by revenue","limit":10}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Columns []string         `json:"columns"`
		Rows    []map[string]any `json:"rows"`
		Explain gateway.Explain  `json:"explain"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if len(body.Rows) != 1 {
		t.Fatalf("rows = %v", body.Rows)
	}
	if body.Explain.RewrittenSQL != "select id from products limit 5000" {
		t.Fatalf("explain.rewritten_sql = %q", body.Explain.RewrittenSQL)
	}

	if len(service.requests) != 1 {
		t.Fatalf("gateway calls = %d", len(service.requests))
	}
	if service.requests[0].RowLimit != 10 {
		t.Fatalf("row limit = %d", service.requests[0].RowLimit)
	}
}

func TestAskEndpointRejectsInvalidJSON(t *testing.T) {
	handler := NewHandler(testConfig(t, nil), Dependencies{Gateway: &fakeAskService{}})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "INVALID_JSON" {
		t.Fatalf("error_code = %q", code)
	}
}

func TestAskEndpointRequiresQuestion(t *testing.T) {
	service := &fakeAskService{err: gateway.ErrQuestionRequired}
	handler := NewHandler(testConfig(t, nil), Dependencies{Gateway: service})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"  "}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "QUESTION_REQUIRED" {
		t.Fatalf("error_code = %q", code)
	}
}

func TestAskEndpointReportsGuardRejection(t *testing.T) {
	service := &fakeAskService{err: &gateway.RejectionError{
		Reasons:      []string{"FORBIDDEN_TOKEN:delete"},
		GeneratedSQL: "DELETE FROM products",
	}}
	handler := NewHandler(testConfig(t, nil), Dependencies{Gateway: service})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"remove products"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if body["error_code"] != "SQL_NOT_ALLOWED" {
		t.Fatalf("error_code = %v", body["error_code"])
	}
	extra, ok := body["context"].(map[string]any)
	if !ok {
		t.Fatalf("context = %v", body["context"])
	}
	if extra["generated_sql"] != "DELETE FROM products" {
		t.Fatalf("generated_sql = %v", extra["generated_sql"])
	}
}

func TestAskEndpointReportsGeneratorFailure(t *testing.T) {
	service := &fakeAskService{err: &gateway.DependencyError{Stage: "generator", Err: errors.New("upstream 500")}}
	handler := NewHandler(testConfig(t, nil), Dependencies{Gateway: service})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"anything"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "GENERATOR_FAILED" {
		t.Fatalf("error_code = %q", code)
	}
}

func TestAskEndpointHidesExecutionDetail(t *testing.T) {
	service := &fakeAskService{err: &executor.ExecutionError{Err: errors.New(`relation "secret_table" does not exist`)}}
	handler := NewHandler(testConfig(t, nil), Dependencies{Gateway: service})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"anything"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "QUERY_FAILED" {
		t.Fatalf("error_code = %q", code)
	}
	if strings.Contains(rr.Body.String(), "secret_table") {
		t.Fatalf("backend detail leaked: %s", rr.Body.String())
	}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	code, _ := body["error_code"].(string)
	return code
}
