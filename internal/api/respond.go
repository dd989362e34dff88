package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MikeSquared-Agency/DesaRank/internal/ranker"
	"github.com/MikeSquared-Agency/DesaRank/internal/scoring"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps engine errors to 422 with their kind, unreadable uploads
// to 400 and everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	if kind := scoring.Kind(err); kind != "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error(), "kind": kind})
		return
	}
	if errors.Is(err, ranker.ErrInvalidUpload) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
