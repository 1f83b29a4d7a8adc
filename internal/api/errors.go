package api

import (
	"encoding/json"
	"net/http"

	"shareit/internal/models"
	"shareit/internal/service"
)

type errorBody struct {
	ErrorClass string `json:"errorClass"`
	Message    string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, errorClass, message string) {
	writeJSON(w, statusCode, errorBody{ErrorClass: errorClass, Message: message})
}

func writeValidationError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "ValidationError", message)
}

// writeServiceError maps a service failure onto its HTTP status and body.
// Unauthorized is reported as not found so callers cannot probe for foreign entities.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch service.KindOf(err) {
	case service.KindNotFound, service.KindUnauthorized:
		writeError(w, http.StatusNotFound, "NotFoundError", err.Error())
	case service.KindInvalidOperation:
		writeError(w, http.StatusBadRequest, "InvalidOperationError", err.Error())
	case service.KindUnsupportedFilter:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": models.UnsupportedStateMessage})
	case service.KindConflict:
		writeError(w, http.StatusConflict, "ConflictError", err.Error())
	default:
		s.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "InternalError", "internal server error")
	}
}
