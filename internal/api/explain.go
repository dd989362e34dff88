package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Explain returns the per-criterion breakdown for one village.
// GET /api/v1/ranking/{name}
func (h *RankingHandler) Explain(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if v, err := url.PathUnescape(name); err == nil {
		name = v
	}
	name = strings.TrimSpace(name)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "village name required"})
		return
	}

	eval, err := h.ranker.Evaluate(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ranked, ok := eval.Find(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "village not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rank":           ranked.Rank,
		"desa":           ranked.Name,
		"final_score":    ranked.FinalScore,
		"factors":        ranked.Factors,
		"total_villages": len(eval.Results),
		"consistency":    eval.Consistency,
	})
}
