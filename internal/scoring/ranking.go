package scoring

import (
	"math"
	"sort"
)

// Candidate is one village with a raw value per criterion, in criterion order.
type Candidate struct {
	Name   string    `json:"desa"`
	Values []float64 `json:"values"`
}

// FactorResult captures one criterion's contribution to the final score.
type FactorResult struct {
	Name     string   `json:"name"`
	Polarity Polarity `json:"type"`
	Raw      float64  `json:"raw"`
	Score    float64  `json:"score"`
	Weight   float64  `json:"weight"`
	Weighted float64  `json:"weighted"`
}

// Ranked is a scored candidate. Rank 1 is the best.
type Ranked struct {
	Rank       int            `json:"rank"`
	Name       string         `json:"desa"`
	Values     []float64      `json:"values"`
	Normalized []float64      `json:"normalized"`
	Factors    []FactorResult `json:"factors"`
	FinalScore float64        `json:"final_score"`
}

// Dedupe drops candidates whose name was already seen, keeping the first
// occurrence in input order.
func Dedupe(candidates []Candidate) []Candidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		out = append(out, c)
	}
	return out
}

func validateCandidates(criteria CriterionSet, candidates []Candidate) error {
	for _, c := range candidates {
		if len(c.Values) != len(criteria) {
			return &DatasetError{Candidate: c.Name, Reason: "wrong number of criterion values"}
		}
		for i, v := range c.Values {
			switch {
			case math.IsNaN(v) || math.IsInf(v, 0):
				return &DatasetError{Candidate: c.Name, Criterion: criteria[i].Name, Reason: "value is not finite"}
			case v < 0:
				return &DatasetError{Candidate: c.Name, Criterion: criteria[i].Name, Reason: "value is negative"}
			}
		}
	}
	return nil
}

// Rank normalizes every criterion with SAW, computes the weighted composite
// score and returns candidates sorted by descending score. Duplicated names
// are collapsed to their first occurrence before any statistic is taken.
//
//	benefit: x / max   (all zero when max == 0)
//	cost:    min / x   (ErrDegenerateCostValue when any x == 0)
func Rank(criteria CriterionSet, weights WeightVector, candidates []Candidate) ([]Ranked, error) {
	if len(criteria) == 0 {
		return nil, ErrEmptyCriterionSet
	}
	if len(weights) != len(criteria) {
		return nil, ErrWeightCountMismatch
	}
	candidates = Dedupe(candidates)
	if len(candidates) == 0 {
		return []Ranked{}, nil
	}
	if err := validateCandidates(criteria, candidates); err != nil {
		return nil, err
	}

	// Per-criterion scale: max for benefit, min for cost.
	scale := make([]float64, len(criteria))
	for i, crit := range criteria {
		scale[i] = candidates[0].Values[i]
		for _, c := range candidates[1:] {
			v := c.Values[i]
			if crit.Polarity == Benefit && v > scale[i] {
				scale[i] = v
			}
			if crit.Polarity == Cost && v < scale[i] {
				scale[i] = v
			}
		}
		if crit.Polarity == Cost && scale[i] == 0 {
			for _, c := range candidates {
				if c.Values[i] == 0 {
					return nil, &CostValueError{Criterion: crit.Name, Candidate: c.Name}
				}
			}
		}
	}

	results := make([]Ranked, len(candidates))
	for k, c := range candidates {
		r := Ranked{
			Name:       c.Name,
			Values:     append([]float64(nil), c.Values...),
			Normalized: make([]float64, len(criteria)),
			Factors:    make([]FactorResult, len(criteria)),
		}
		for i, crit := range criteria {
			var norm float64
			switch crit.Polarity {
			case Benefit:
				if scale[i] != 0 {
					norm = c.Values[i] / scale[i]
				}
			case Cost:
				norm = scale[i] / c.Values[i]
			}
			r.Normalized[i] = norm
			r.Factors[i] = FactorResult{
				Name:     crit.Name,
				Polarity: crit.Polarity,
				Raw:      c.Values[i],
				Score:    norm,
				Weight:   weights[i],
				Weighted: norm * weights[i],
			}
			r.FinalScore += r.Factors[i].Weighted
		}
		results[k] = r
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].FinalScore > results[b].FinalScore
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}
