package api

import (
	"context"
	"net/http"

	"github.com/MikeSquared-Agency/DesaRank/internal/dataset"
	"github.com/MikeSquared-Agency/DesaRank/internal/ranker"
	"github.com/MikeSquared-Agency/DesaRank/internal/scoring"
)

// Ranker is the service surface the handlers need. *ranker.Service implements it.
type Ranker interface {
	Criteria() scoring.CriterionSet
	Evaluate(ctx context.Context) (*scoring.Evaluation, error)
	Dashboard(ctx context.Context) (*ranker.Dashboard, error)
	Frontier(ctx context.Context) ([]scoring.Ranked, error)
	Weights(ctx context.Context) (*ranker.WeightsView, error)
	SaveComparisons(ctx context.Context, c scoring.Comparisons) (*ranker.WeightsView, error)
	AddVillage(ctx context.Context, name string, values map[string]float64) (dataset.Record, error)
	ImportVillages(ctx context.Context, filename string, data []byte) (int, error)
}

type RankingHandler struct {
	ranker Ranker
}

func NewRankingHandler(r Ranker) *RankingHandler {
	return &RankingHandler{ranker: r}
}

type rankingRow struct {
	Rank       int                `json:"rank"`
	Name       string             `json:"desa"`
	Values     map[string]float64 `json:"values"`
	FinalScore float64            `json:"final_score"`
}

func toRows(criteria scoring.CriterionSet, results []scoring.Ranked) []rankingRow {
	rows := make([]rankingRow, len(results))
	for i, r := range results {
		values := make(map[string]float64, len(criteria))
		for k, c := range criteria {
			if k < len(r.Values) {
				values[c.Name] = r.Values[k]
			}
		}
		rows[i] = rankingRow{Rank: r.Rank, Name: r.Name, Values: values, FinalScore: r.FinalScore}
	}
	return rows
}

// Dashboard returns the summary of the current ranking.
// GET /api/v1/dashboard
func (h *RankingHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.ranker.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Ranking returns every village in rank order.
// GET /api/v1/ranking
func (h *RankingHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	eval, err := h.ranker.Evaluate(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results":     toRows(eval.Criteria, eval.Results),
		"criteria":    eval.Criteria,
		"weights":     eval.Weights,
		"consistency": eval.Consistency,
	})
}

// Frontier returns the villages no other village dominates.
// GET /api/v1/ranking/frontier
func (h *RankingHandler) Frontier(w http.ResponseWriter, r *http.Request) {
	frontier, err := h.ranker.Frontier(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": toRows(h.ranker.Criteria(), frontier),
		"count":   len(frontier),
	})
}

// Criteria lists the criterion definitions.
// GET /api/v1/criteria
func (h *RankingHandler) Criteria(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ranker.Criteria())
}
