package scoring

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidComparisonValue is returned for a pairwise value that is not a
	// positive finite number, or a key outside the upper triangle.
	ErrInvalidComparisonValue = errors.New("invalid comparison value")
	// ErrDegenerateCostValue is returned when a cost criterion has a zero raw value.
	ErrDegenerateCostValue = errors.New("degenerate cost value")
	// ErrMalformedDataset is returned for missing, non-finite or negative raw values.
	ErrMalformedDataset = errors.New("malformed dataset")
	// ErrEmptyCriterionSet is returned when there are no criteria to weigh.
	ErrEmptyCriterionSet = errors.New("empty criterion set")
	// ErrWeightCountMismatch is returned when the weight vector does not match the criteria.
	ErrWeightCountMismatch = errors.New("weight count does not match criteria")
)

// ComparisonError names the pairwise entry that was rejected.
type ComparisonError struct {
	Key    string
	Value  float64
	Reason string
}

func (e *ComparisonError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %q: %s", ErrInvalidComparisonValue, e.Key, e.Reason)
	}
	return fmt.Sprintf("%s: %q = %v (must be > 0)", ErrInvalidComparisonValue, e.Key, e.Value)
}

func (e *ComparisonError) Unwrap() error { return ErrInvalidComparisonValue }

// CostValueError names the cost criterion and candidate holding a zero value.
type CostValueError struct {
	Criterion string
	Candidate string
}

func (e *CostValueError) Error() string {
	return fmt.Sprintf("%s: criterion %q is zero for %q", ErrDegenerateCostValue, e.Criterion, e.Candidate)
}

func (e *CostValueError) Unwrap() error { return ErrDegenerateCostValue }

// DatasetError names the candidate and criterion whose raw value is unusable.
// Criterion is empty when the whole row has the wrong shape.
type DatasetError struct {
	Candidate string
	Criterion string
	Reason    string
}

func (e *DatasetError) Error() string {
	if e.Criterion == "" {
		return fmt.Sprintf("%s: %q: %s", ErrMalformedDataset, e.Candidate, e.Reason)
	}
	return fmt.Sprintf("%s: %q criterion %q: %s", ErrMalformedDataset, e.Candidate, e.Criterion, e.Reason)
}

func (e *DatasetError) Unwrap() error { return ErrMalformedDataset }

// Kind returns a stable machine-readable name for an engine error, or "" if
// err is not one.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidComparisonValue):
		return "invalid_comparison_value"
	case errors.Is(err, ErrDegenerateCostValue):
		return "degenerate_cost_value"
	case errors.Is(err, ErrMalformedDataset):
		return "malformed_dataset"
	case errors.Is(err, ErrEmptyCriterionSet):
		return "empty_criterion_set"
	case errors.Is(err, ErrWeightCountMismatch):
		return "weight_count_mismatch"
	}
	return ""
}
