package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Comparisons holds the upper triangle of a pairwise comparison matrix keyed
// "i-j" (zero-based, i < j). A value v means criterion i is v times as
// important as criterion j. Missing keys mean indifference (1.0).
type Comparisons map[string]float64

// PairKey formats the key for the (i, j) entry.
func PairKey(i, j int) string {
	return strconv.Itoa(i) + "-" + strconv.Itoa(j)
}

// ParsePairKey splits "i-j" into its indexes. Only the form PairKey
// produces is accepted.
func ParsePairKey(key string) (int, int, error) {
	a, b, ok := strings.Cut(key, "-")
	if !ok {
		return 0, 0, fmt.Errorf("pair key %q: want \"i-j\"", key)
	}
	i, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("pair key %q: %w", key, err)
	}
	j, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("pair key %q: %w", key, err)
	}
	// "00-1" or "+0-1" would be stored beside "0-1" and never read.
	if PairKey(i, j) != key {
		return 0, 0, fmt.Errorf("pair key %q: want %q", key, PairKey(i, j))
	}
	return i, j, nil
}

// DefaultComparisons returns the reference matrix for the six default
// criteria. It is perfectly consistent (CR = 0).
func DefaultComparisons() Comparisons {
	return Comparisons{
		"0-1": 1.0, "0-2": 1.5, "0-3": 1.5, "0-4": 0.6, "0-5": 0.6,
		"1-2": 1.5, "1-3": 1.5, "1-4": 0.6, "1-5": 0.6,
		"2-3": 1.0, "2-4": 0.4, "2-5": 0.4,
		"3-4": 0.4, "3-5": 0.4,
		"4-5": 1.0,
	}
}

// Clone returns an independent copy.
func (c Comparisons) Clone() Comparisons {
	out := make(Comparisons, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Value returns the (i, j) entry for i < j, defaulting to 1.0.
func (c Comparisons) Value(i, j int) float64 {
	if v, ok := c[PairKey(i, j)]; ok {
		return v
	}
	return 1.0
}

// Pair is one upper-triangle cell, labelled with criterion names.
type Pair struct {
	ID         string `json:"id"`
	I          int    `json:"i"`
	J          int    `json:"j"`
	Criterion1 string `json:"kriteria1"`
	Criterion2 string `json:"kriteria2"`
}

// Pairs enumerates every upper-triangle pair in row-major order.
func Pairs(criteria CriterionSet) []Pair {
	n := len(criteria)
	pairs := make([]Pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, Pair{
				ID:         PairKey(i, j),
				I:          i,
				J:          j,
				Criterion1: criteria[i].Name,
				Criterion2: criteria[j].Name,
			})
		}
	}
	return pairs
}

func checkValue(key string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return &ComparisonError{Key: key, Value: v}
	}
	return nil
}

// ValidateComparisons is the write-side check run before a configuration is
// persisted: every key must address the strict upper triangle of an n×n
// matrix and every value must be positive and finite.
func ValidateComparisons(n int, c Comparisons) error {
	if n <= 0 {
		return ErrEmptyCriterionSet
	}
	for key, v := range c {
		i, j, err := ParsePairKey(key)
		if err != nil {
			return &ComparisonError{Key: key, Value: v, Reason: err.Error()}
		}
		if i < 0 || j >= n || i >= j {
			return &ComparisonError{Key: key, Value: v, Reason: fmt.Sprintf("not an upper-triangle pair for %d criteria", n)}
		}
		if err := checkValue(key, v); err != nil {
			return err
		}
	}
	return nil
}

// Matrix is a full n×n pairwise comparison matrix.
type Matrix [][]float64

// BuildMatrix expands the upper triangle into a full reciprocal matrix.
// Only the n(n-1)/2 upper-triangle keys are read.
func BuildMatrix(n int, c Comparisons) (Matrix, error) {
	if n <= 0 {
		return nil, ErrEmptyCriterionSet
	}
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			key := PairKey(i, j)
			v := c.Value(i, j)
			if err := checkValue(key, v); err != nil {
				return nil, err
			}
			m[i][j] = v
			m[j][i] = 1 / v
		}
	}
	return m, nil
}

// ColumnSums returns the sum of each column.
func (m Matrix) ColumnSums() []float64 {
	sums := make([]float64, len(m))
	for _, row := range m {
		for c, v := range row {
			sums[c] += v
		}
	}
	return sums
}

// MulVec returns m·v.
func (m Matrix) MulVec(v []float64) []float64 {
	out := make([]float64, len(m))
	for i, row := range m {
		var s float64
		for c, x := range row {
			s += x * v[c]
		}
		out[i] = s
	}
	return out
}
