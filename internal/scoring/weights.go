package scoring

import (
	"fmt"
	"math"
)

// ConsistencyThreshold is the largest CR (exclusive) accepted as consistent.
const ConsistencyThreshold = 0.10

// WeightVector holds one normalized priority weight per criterion.
// A valid vector sums to 1.0 (±0.001 tolerance) with no negative entries.
type WeightVector []float64

// Sum returns the total of all weights.
func (w WeightVector) Sum() float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w WeightVector) Validate() error {
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return fmt.Errorf("weights sum to %.4f, must sum to 1.0", w.Sum())
	}
	for _, v := range w {
		if v < 0 {
			return fmt.Errorf("negative weight: %f", v)
		}
	}
	return nil
}

// Rounded returns a copy rounded to the given number of decimals, for charts.
func (w WeightVector) Rounded(decimals int) []float64 {
	p := math.Pow(10, float64(decimals))
	out := make([]float64, len(w))
	for i, v := range w {
		out[i] = math.Round(v*p) / p
	}
	return out
}

// Verdict is the outcome of the consistency check.
type Verdict string

const (
	Consistent   Verdict = "consistent"
	Inconsistent Verdict = "inconsistent"
)

// VerdictFor applies the strict CR < 0.10 threshold.
func VerdictFor(cr float64) Verdict {
	if cr < ConsistencyThreshold {
		return Consistent
	}
	return Inconsistent
}

// ConsistencyReport carries the AHP consistency diagnostics.
type ConsistencyReport struct {
	LambdaMax float64 `json:"lambda_max"`
	CI        float64 `json:"ci"`
	RI        float64 `json:"ri"`
	CR        float64 `json:"cr"`
	Verdict   Verdict `json:"status"`
}

var randomIndex = map[int]float64{1: 0, 2: 0, 3: 0.58, 4: 0.90, 5: 1.12, 6: 1.24}

// RandomIndex returns Saaty's random consistency index for n criteria.
// Sizes above 6 reuse the n=6 value.
func RandomIndex(n int) float64 {
	if ri, ok := randomIndex[n]; ok {
		return ri
	}
	return 1.24
}

// ResolveWeights derives the AHP priority vector and consistency report for
// n criteria from the upper-triangle comparisons.
//
//	weight[i] = mean_c( M[i][c] / colsum[c] )
//	λmax      = mean_i( (M·w)[i] / w[i] )
//	CI        = (λmax - n) / (n - 1)
//	CR        = CI / RI(n)
func ResolveWeights(n int, c Comparisons) (WeightVector, ConsistencyReport, error) {
	if n <= 0 {
		return nil, ConsistencyReport{}, ErrEmptyCriterionSet
	}
	if n == 1 {
		return WeightVector{1}, ConsistencyReport{LambdaMax: 1, Verdict: Consistent}, nil
	}

	m, err := BuildMatrix(n, c)
	if err != nil {
		return nil, ConsistencyReport{}, err
	}

	colSums := m.ColumnSums()
	weights := make(WeightVector, n)
	for i, row := range m {
		var s float64
		for col, v := range row {
			s += v / colSums[col]
		}
		weights[i] = s / float64(n)
	}

	weighted := m.MulVec(weights)
	var lambda float64
	for i := range weighted {
		lambda += weighted[i] / weights[i]
	}
	lambda /= float64(n)

	ci := (lambda - float64(n)) / float64(n-1)
	ri := RandomIndex(n)
	var cr float64
	if ri != 0 {
		cr = ci / ri
	}

	return weights, ConsistencyReport{
		LambdaMax: lambda,
		CI:        ci,
		RI:        ri,
		CR:        cr,
		Verdict:   VerdictFor(cr),
	}, nil
}
