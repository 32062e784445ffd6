package api

import (
	"net/http"
	"time"

	"github.com/askdata/askdata/internal/auth"
)

type schemaResponse struct {
	Schema      string     `json:"schema"`
	RefreshedAt *time.Time `json:"refreshed_at"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema dependencies are not configured", false, nil)
		return
	}

	text, err := deps.Schema.Describe(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "SCHEMA_UNAVAILABLE", "schema lookup failed", true, map[string]any{"details": err.Error()})
		return
	}

	response := schemaResponse{Schema: text}
	if refreshed := deps.Schema.LastRefreshed(); !refreshed.IsZero() {
		response.RefreshedAt = &refreshed
	}
	writeJSON(w, http.StatusOK, response)
}

func handleMe(_ Dependencies, w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(r.Context(), w, http.StatusUnauthorized, "UNAUTHENTICATED", "no authenticated identity", false, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": identity.UserID,
		"email":   identity.Email,
	})
}
