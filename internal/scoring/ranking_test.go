package scoring

import (
	"errors"
	"math"
	"testing"
)

func twoCriteria() CriterionSet {
	return NewCriterionSet(
		Criterion{Name: "A", Polarity: Benefit},
		Criterion{Name: "B", Polarity: Cost},
	)
}

func TestRankTieKeepsInputOrder(t *testing.T) {
	results, err := Rank(twoCriteria(), WeightVector{0.5, 0.5}, []Candidate{
		{Name: "X", Values: []float64{10, 2}},
		{Name: "Y", Values: []float64{5, 1}},
	})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	x, y := results[0], results[1]
	if x.Name != "X" || x.Rank != 1 {
		t.Errorf("expected X ranked 1, got %s ranked %d", x.Name, x.Rank)
	}
	if y.Name != "Y" || y.Rank != 2 {
		t.Errorf("expected Y ranked 2, got %s ranked %d", y.Name, y.Rank)
	}
	if x.Normalized[0] != 1.0 || x.Normalized[1] != 0.5 {
		t.Errorf("X normalized: got %v, want [1 0.5]", x.Normalized)
	}
	if y.Normalized[0] != 0.5 || y.Normalized[1] != 1.0 {
		t.Errorf("Y normalized: got %v, want [0.5 1]", y.Normalized)
	}
	if x.FinalScore != 0.75 || y.FinalScore != 0.75 {
		t.Errorf("expected both scores 0.75, got %f and %f", x.FinalScore, y.FinalScore)
	}
}

func TestRankOrdersByDescendingScore(t *testing.T) {
	results, err := Rank(twoCriteria(), WeightVector{0.7, 0.3}, []Candidate{
		{Name: "low", Values: []float64{1, 4}},
		{Name: "high", Values: []float64{10, 1}},
		{Name: "mid", Values: []float64{6, 2}},
	})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	want := []string{"high", "mid", "low"}
	for i, r := range results {
		if r.Name != want[i] {
			t.Errorf("position %d: got %s, want %s", i, r.Name, want[i])
		}
		if r.Rank != i+1 {
			t.Errorf("%s: rank %d, want %d", r.Name, r.Rank, i+1)
		}
		if i > 0 && results[i-1].FinalScore < r.FinalScore {
			t.Errorf("scores not descending at %d", i)
		}
	}
}

func TestRankExtremesNormalizeToOne(t *testing.T) {
	criteria := DefaultCriteria()
	candidates := []Candidate{
		{Name: "Sukamaju", Values: []float64{12, 30, 8, 40, 55, 3}},
		{Name: "Sukajaya", Values: []float64{7, 45, 11, 22, 61, 9}},
		{Name: "Mekarsari", Values: []float64{19, 12, 5, 37, 18, 4}},
	}
	w, _, err := ResolveWeights(len(criteria), DefaultComparisons())
	if err != nil {
		t.Fatalf("ResolveWeights failed: %v", err)
	}
	results, err := Rank(criteria, w, candidates)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}

	byName := map[string]Ranked{}
	for _, r := range results {
		byName[r.Name] = r
	}
	for i, crit := range criteria {
		best := candidates[0]
		for _, c := range candidates[1:] {
			if crit.Polarity == Benefit && c.Values[i] > best.Values[i] {
				best = c
			}
			if crit.Polarity == Cost && c.Values[i] < best.Values[i] {
				best = c
			}
		}
		if got := byName[best.Name].Normalized[i]; got != 1.0 {
			t.Errorf("%s: extreme holder %s normalized to %f, want exactly 1", crit.Name, best.Name, got)
		}
		for _, r := range results {
			if r.Normalized[i] < 0 || r.Normalized[i] > 1 {
				t.Errorf("%s/%s normalized out of range: %f", r.Name, crit.Name, r.Normalized[i])
			}
		}
	}
}

func TestRankFactorsSumToFinalScore(t *testing.T) {
	results, err := Rank(twoCriteria(), WeightVector{0.25, 0.75}, []Candidate{
		{Name: "X", Values: []float64{3, 9}},
		{Name: "Y", Values: []float64{8, 4}},
	})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	for _, r := range results {
		var total float64
		for i, f := range r.Factors {
			if f.Weighted != f.Score*f.Weight {
				t.Errorf("%s/%s: weighted %f != score*weight", r.Name, f.Name, f.Weighted)
			}
			if f.Raw != r.Values[i] {
				t.Errorf("%s/%s: raw %f, want %f", r.Name, f.Name, f.Raw, r.Values[i])
			}
			total += f.Weighted
		}
		if math.Abs(total-r.FinalScore) > 1e-12 {
			t.Errorf("%s: factors sum %f != final %f", r.Name, total, r.FinalScore)
		}
	}
}

func TestRankDeduplicatesByName(t *testing.T) {
	results, err := Rank(twoCriteria(), WeightVector{0.5, 0.5}, []Candidate{
		{Name: "Alpha", Values: []float64{4, 2}},
		{Name: "Beta", Values: []float64{2, 2}},
		{Name: "Alpha", Values: []float64{100, 1}},
	})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	var alpha *Ranked
	for i := range results {
		if results[i].Name == "Alpha" {
			if alpha != nil {
				t.Fatal("Alpha appears twice")
			}
			alpha = &results[i]
		}
	}
	if alpha == nil {
		t.Fatal("Alpha missing")
	}
	if alpha.Values[0] != 4 || alpha.Values[1] != 2 {
		t.Errorf("expected first occurrence values [4 2], got %v", alpha.Values)
	}
	// The dropped duplicate must not influence the benefit max.
	if alpha.Normalized[0] != 1.0 {
		t.Errorf("expected Alpha to hold the benefit max, got %f", alpha.Normalized[0])
	}
}

func TestRankBenefitMaxZero(t *testing.T) {
	results, err := Rank(twoCriteria(), WeightVector{0.5, 0.5}, []Candidate{
		{Name: "X", Values: []float64{0, 2}},
		{Name: "Y", Values: []float64{0, 4}},
	})
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	for _, r := range results {
		if r.Normalized[0] != 0 {
			t.Errorf("%s: expected 0 for all-zero benefit criterion, got %f", r.Name, r.Normalized[0])
		}
		if math.IsNaN(r.FinalScore) || math.IsInf(r.FinalScore, 0) {
			t.Errorf("%s: non-finite score", r.Name)
		}
	}
}

func TestRankDegenerateCostValue(t *testing.T) {
	_, err := Rank(twoCriteria(), WeightVector{0.5, 0.5}, []Candidate{
		{Name: "X", Values: []float64{3, 2}},
		{Name: "Y", Values: []float64{5, 0}},
	})
	if !errors.Is(err, ErrDegenerateCostValue) {
		t.Fatalf("expected ErrDegenerateCostValue, got %v", err)
	}
	var ce *CostValueError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CostValueError, got %T", err)
	}
	if ce.Criterion != "B" || ce.Candidate != "Y" {
		t.Errorf("unexpected error detail: %+v", ce)
	}
}

func TestRankMalformedDataset(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		criterion string
	}{
		{"short row", []float64{1}, ""},
		{"nan", []float64{math.NaN(), 1}, "A"},
		{"inf", []float64{1, math.Inf(1)}, "B"},
		{"negative", []float64{-1, 1}, "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Rank(twoCriteria(), WeightVector{0.5, 0.5}, []Candidate{
				{Name: "ok", Values: []float64{1, 1}},
				{Name: "bad", Values: tt.values},
			})
			if !errors.Is(err, ErrMalformedDataset) {
				t.Fatalf("expected ErrMalformedDataset, got %v", err)
			}
			var de *DatasetError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DatasetError, got %T", err)
			}
			if de.Candidate != "bad" || de.Criterion != tt.criterion {
				t.Errorf("unexpected error detail: %+v", de)
			}
		})
	}
}

func TestRankEmptyCandidates(t *testing.T) {
	results, err := Rank(twoCriteria(), WeightVector{0.5, 0.5}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil result, got %v", results)
	}
}

func TestRankWeightMismatch(t *testing.T) {
	_, err := Rank(twoCriteria(), WeightVector{1}, []Candidate{{Name: "X", Values: []float64{1, 1}}})
	if !errors.Is(err, ErrWeightCountMismatch) {
		t.Fatalf("expected ErrWeightCountMismatch, got %v", err)
	}
}

func TestRankEmptyCriteria(t *testing.T) {
	_, err := Rank(nil, nil, nil)
	if !errors.Is(err, ErrEmptyCriterionSet) {
		t.Fatalf("expected ErrEmptyCriterionSet, got %v", err)
	}
}

func TestDedupe(t *testing.T) {
	out := Dedupe([]Candidate{{Name: "a"}, {Name: "b"}, {Name: "a"}, {Name: "c"}, {Name: "b"}})
	want := []string{"a", "b", "c"}
	if len(out) != len(want) {
		t.Fatalf("expected %d, got %d", len(want), len(out))
	}
	for i, c := range out {
		if c.Name != want[i] {
			t.Errorf("position %d: got %s, want %s", i, c.Name, want[i])
		}
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&ComparisonError{Key: "0-1"}, "invalid_comparison_value"},
		{&CostValueError{}, "degenerate_cost_value"},
		{&DatasetError{}, "malformed_dataset"},
		{ErrEmptyCriterionSet, "empty_criterion_set"},
		{ErrWeightCountMismatch, "weight_count_mismatch"},
		{errors.New("other"), ""},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
