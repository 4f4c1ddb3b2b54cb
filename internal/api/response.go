package api

import (
	"encoding/json"
	"net/http"

	"github.com/blagoySimandov/bundlestore/internal/logging"
	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, reason string, err error) {
	logging.EnrichError(r.Context(), err, reason)
	writeJSON(w, status, ErrorResponse{
		Error:   err.Error(),
		Reason:  reason,
		TraceID: logging.GetTraceID(r.Context()),
	})
}
