package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/askdata/askdata/internal/auth"
	"github.com/askdata/askdata/internal/gateway"
)

type askRequest struct {
	Question string `json:"question"`
	Limit    int    `json:"limit"`
}

type askResponse struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Explain gateway.Explain  `json:"explain"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Gateway == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASK_NOT_CONFIGURED", "ask dependencies are not configured", false, nil)
		return
	}

	var request askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	if request.Limit < 0 {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be positive", false, nil)
		return
	}

	gatewayRequest := gateway.Request{Question: request.Question, RowLimit: request.Limit}
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		gatewayRequest.Actor = &identity
	}

	response, err := deps.Gateway.Ask(r.Context(), gatewayRequest)
	if err != nil {
		writeAskError(deps, w, r, err)
		return
	}

	rows := response.Rows
	if rows == nil {
		rows = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, askResponse{
		Columns: response.Columns,
		Rows:    rows,
		Explain: response.Explain,
	})
}

func writeAskError(deps Dependencies, w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, gateway.ErrQuestionRequired) {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	var rejection *gateway.RejectionError
	if errors.As(err, &rejection) {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_NOT_ALLOWED", "generated sql was rejected", false, map[string]any{
			"details":       rejection.Reasons,
			"generated_sql": rejection.GeneratedSQL,
		})
		return
	}

	var dependency *gateway.DependencyError
	if errors.As(err, &dependency) {
		if dependency.Stage == "generator" {
			writeError(r.Context(), w, http.StatusBadGateway, "GENERATOR_FAILED", "sql generation failed", true, nil)
			return
		}
		writeError(r.Context(), w, http.StatusServiceUnavailable, "SCHEMA_UNAVAILABLE", "schema lookup failed", true, nil)
		return
	}

	// Execution errors carry backend detail (table names, timeout text)
	// that does not belong on the wire; the audit record has the full story.
	if deps.Logger != nil {
		deps.Logger.ErrorContext(r.Context(), "ask request failed", "error", err)
	}
	writeError(r.Context(), w, http.StatusInternalServerError, "QUERY_FAILED", "query execution failed", true, nil)
}
