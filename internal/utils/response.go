package utils

import (
	"encoding/json"
	"net/http"

	"github.com/brizzai/notion-tasks-sync/internal/apperr"
	"github.com/brizzai/notion-tasks-sync/internal/logger"
	"go.uber.org/zap"
)

// WriteJSON writes a JSON response with status 200
func WriteJSON(w http.ResponseWriter, data interface{}) {
	WriteJSONStatus(w, http.StatusOK, data)
}

// WriteJSONStatus writes a JSON response with the given status
func WriteJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code, message string, status int) {
	WriteJSONStatus(w, status, map[string]string{
		"error":             code,
		"error_description": message,
	})
}

// WriteAppError maps err to a status code. Unknown errors are logged and
// answered with a generic message so internals do not leak to the client.
func WriteAppError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnknown {
		logger.Error("Unhandled error", zap.Error(err))
		WriteError(w, "internal_error", "Internal server error", status)
		return
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err), zap.Stringer("kind", kind))
	}
	WriteError(w, kind.String(), err.Error(), status)
}
