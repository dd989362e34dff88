package scoring

// ComputeFrontier returns the Pareto-optimal villages from a ranked set,
// compared on their normalized criterion values (already oriented so that
// higher is better for both benefit and cost criteria).
// A village is dominated if another village is >= on every criterion and
// strictly better on at least one. Input order is preserved.
// O(n^2) dominance check.
func ComputeFrontier(results []Ranked) []Ranked {
	if len(results) <= 1 {
		return results
	}

	var frontier []Ranked
	for i := range results {
		dominated := false
		for j := range results {
			if i == j {
				continue
			}
			if dominates(results[j].Normalized, results[i].Normalized) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, results[i])
		}
	}
	return frontier
}

// dominates returns true if a dominates b.
func dominates(a, b []float64) bool {
	better := false
	for i := range a {
		if a[i] < b[i] {
			return false
		}
		if a[i] > b[i] {
			better = true
		}
	}
	return better
}
