package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/askdata/askdata/internal/auth"
)

func TestSchemaEndpointReturnsCachedText(t *testing.T) {
	refreshed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	describer := &fakeSchemaDescriber{text: "- public.products (id bigint)", refreshed: refreshed}
	handler := NewHandler(testConfig(t, nil), Dependencies{Schema: describer})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/schema", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var body schemaResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if body.Schema != "- public.products (id bigint)" {
		t.Fatalf("schema = %q", body.Schema)
	}
	if body.RefreshedAt == nil || !body.RefreshedAt.Equal(refreshed) {
		t.Fatalf("refreshed_at = %v", body.RefreshedAt)
	}
}

func TestSchemaEndpointReportsFailure(t *testing.T) {
	describer := &fakeSchemaDescriber{err: errors.New("connection refused")}
	handler := NewHandler(testConfig(t, nil), Dependencies{Schema: describer})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/schema", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "SCHEMA_UNAVAILABLE" {
		t.Fatalf("error_code = %q", code)
	}
}

func TestMeEndpointEchoesIdentity(t *testing.T) {
	validator, err := auth.NewStaticAPIKeyValidator("secret:user-1:one@example.com")
	if err != nil {
		t.Fatalf("validator setup failed: %v", err)
	}
	cfg := testConfig(t, map[string]string{"ASKDATA_AUTH_REQUIRED": "true"})
	handler := NewHandler(cfg, Dependencies{AuthMiddleware: auth.Middleware(nil, validator)})

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("X-API-Key", "secret")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if body["user_id"] != "user-1" {
		t.Fatalf("user_id = %v", body["user_id"])
	}
	if body["email"] != "one@example.com" {
		t.Fatalf("email = %v", body["email"])
	}
}

func TestMeEndpointWithoutIdentity(t *testing.T) {
	handler := NewHandler(testConfig(t, nil), Dependencies{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}
}
