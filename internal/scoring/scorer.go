package scoring

import (
	"log/slog"
)

// Evaluation is the complete output of one AHP + SAW run.
type Evaluation struct {
	Criteria    CriterionSet      `json:"criteria"`
	Matrix      Matrix            `json:"matrix"`
	Weights     WeightVector      `json:"weights"`
	Consistency ConsistencyReport `json:"consistency"`
	Results     []Ranked          `json:"results"`
}

// Top returns the best-ranked village, if any.
func (e *Evaluation) Top() (Ranked, bool) {
	if e == nil || len(e.Results) == 0 {
		return Ranked{}, false
	}
	return e.Results[0], true
}

// Find returns the ranked entry for a village name.
func (e *Evaluation) Find(name string) (Ranked, bool) {
	if e == nil {
		return Ranked{}, false
	}
	for _, r := range e.Results {
		if r.Name == name {
			return r, true
		}
	}
	return Ranked{}, false
}

// Scorer runs the two-stage AHP weight derivation and SAW ranking over a fixed
// criterion set. It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	criteria CriterionSet
	logger   *slog.Logger
}

// NewScorer creates a Scorer for the given criteria.
func NewScorer(criteria CriterionSet, logger *slog.Logger) *Scorer {
	return &Scorer{
		criteria: criteria,
		logger:   logger,
	}
}

// Criteria returns the criterion set the scorer was built with.
func (s *Scorer) Criteria() CriterionSet {
	return s.criteria
}

// Weights resolves the AHP weights for the scorer's criteria and also
// returns the expanded matrix.
func (s *Scorer) Weights(c Comparisons) (WeightVector, ConsistencyReport, Matrix, error) {
	n := len(s.criteria)
	weights, report, err := ResolveWeights(n, c)
	if err != nil {
		return nil, ConsistencyReport{}, nil, err
	}
	m, err := BuildMatrix(n, c)
	if err != nil {
		return nil, ConsistencyReport{}, nil, err
	}
	return weights, report, m, nil
}

// Evaluate derives weights from the comparisons and ranks the candidates.
// No partial result is returned on error.
func (s *Scorer) Evaluate(c Comparisons, candidates []Candidate) (*Evaluation, error) {
	weights, report, m, err := s.Weights(c)
	if err != nil {
		return nil, err
	}

	results, err := Rank(s.criteria, weights, candidates)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("evaluation complete",
		"criteria", len(s.criteria),
		"candidates", len(results),
		"cr", report.CR,
		"status", report.Verdict,
	)

	return &Evaluation{
		Criteria:    s.criteria,
		Matrix:      m,
		Weights:     weights,
		Consistency: report,
		Results:     results,
	}, nil
}

// Frontier returns the Pareto-optimal subset of an evaluation's results.
func (s *Scorer) Frontier(e *Evaluation) []Ranked {
	if e == nil {
		return nil
	}
	return ComputeFrontier(e.Results)
}
