package api

import (
	"encoding/json"
	"net/http"

	"github.com/MikeSquared-Agency/DesaRank/internal/scoring"
)

type WeightsHandler struct {
	ranker Ranker
}

func NewWeightsHandler(r Ranker) *WeightsHandler {
	return &WeightsHandler{ranker: r}
}

type updateWeightsRequest struct {
	Values map[string]float64 `json:"values"`
}

// Get returns the comparison pairs, their current values and the weights.
// GET /api/v1/weights
func (h *WeightsHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.ranker.Weights(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Update replaces the pairwise comparisons.
// PUT /api/v1/weights
func (h *WeightsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateWeightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Values == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "values is required"})
		return
	}

	view, err := h.ranker.SaveComparisons(r.Context(), scoring.Comparisons(req.Values))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
