package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/credence-ai/credence/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store sentinels to HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrAlreadyResolved):
		writeError(w, http.StatusConflict, "contradiction already resolved")
	case errors.Is(err, store.ErrInvalidResolution):
		writeError(w, http.StatusBadRequest, "invalid resolution")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
