package scoring

import "testing"

func TestComputeFrontier(t *testing.T) {
	results := []Ranked{
		{Name: "a", Normalized: []float64{1.0, 0.5, 0.8}},
		{Name: "b", Normalized: []float64{0.9, 0.4, 0.7}}, // dominated by a
		{Name: "c", Normalized: []float64{0.2, 1.0, 0.3}},
		{Name: "d", Normalized: []float64{1.0, 0.5, 0.8}}, // equal to a, not dominated
	}

	frontier := ComputeFrontier(results)
	got := map[string]bool{}
	for _, r := range frontier {
		got[r.Name] = true
	}
	if len(frontier) != 3 || !got["a"] || !got["c"] || !got["d"] {
		t.Errorf("unexpected frontier: %v", got)
	}
	if got["b"] {
		t.Error("b is dominated and should be excluded")
	}
}

func TestComputeFrontierSmallInputs(t *testing.T) {
	if got := ComputeFrontier(nil); len(got) != 0 {
		t.Errorf("expected empty frontier, got %d", len(got))
	}
	one := []Ranked{{Name: "solo", Normalized: []float64{0.1}}}
	if got := ComputeFrontier(one); len(got) != 1 || got[0].Name != "solo" {
		t.Errorf("expected single entry frontier, got %v", got)
	}
}

func TestDominates(t *testing.T) {
	if !dominates([]float64{1, 1}, []float64{1, 0.5}) {
		t.Error("expected domination when >= everywhere and > once")
	}
	if dominates([]float64{1, 1}, []float64{1, 1}) {
		t.Error("equal vectors must not dominate")
	}
	if dominates([]float64{1, 0.2}, []float64{0.5, 0.9}) {
		t.Error("trade-off vectors must not dominate")
	}
}
