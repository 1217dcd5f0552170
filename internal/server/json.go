package server

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeValidationError reports a field-level validation failure the way
// the API contract expects: the offending field plus a message.
func writeValidationError(w http.ResponseWriter, e *ValidationError) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": e.Message,
		"field": e.Field,
	})
}
