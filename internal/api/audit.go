package api

import (
	"net/http"
	"strconv"

	"github.com/askdata/askdata/internal/audit"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

type auditListResponse struct {
	Records []audit.Record `json:"records"`
}

func handleAuditList(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.AuditReader == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "AUDIT_NOT_CONFIGURED", "audit dependencies are not configured", false, nil)
		return
	}

	limit := defaultAuditPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer", false, nil)
			return
		}
		limit = parsed
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}

	records, err := deps.AuditReader.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "AUDIT_LIST_FAILED", "failed to list audit records", true, map[string]any{"details": err.Error()})
		return
	}
	if records == nil {
		records = []audit.Record{}
	}
	writeJSON(w, http.StatusOK, auditListResponse{Records: records})
}
