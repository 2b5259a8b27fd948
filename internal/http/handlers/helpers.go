package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"smartpark/internal/registry"
	"smartpark/internal/repository"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeValidationError emits the field-tagged failures so the client can
// re-prompt per field. Returns false when err is not a validation error.
func writeValidationError(w http.ResponseWriter, err error) bool {
	var verr *registry.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  "validation failed",
		"fields": verr.Fields,
	})
	return true
}

// writeStoreError maps transient store failures to 503 so clients know the
// whole operation is safe to retry. Returns false for anything else.
func writeStoreError(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, repository.ErrStoreUnavailable) {
		return false
	}
	writeError(w, http.StatusServiceUnavailable, "store unavailable, retry later")
	return true
}
