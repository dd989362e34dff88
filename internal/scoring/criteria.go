package scoring

import (
	"fmt"
	"strings"
)

// Polarity says whether a higher raw value is better (Benefit) or worse (Cost).
type Polarity string

const (
	Benefit Polarity = "benefit"
	Cost    Polarity = "cost"
)

// ParsePolarity accepts "benefit" or "cost" in any case.
func ParsePolarity(s string) (Polarity, error) {
	switch Polarity(strings.ToLower(strings.TrimSpace(s))) {
	case Benefit:
		return Benefit, nil
	case Cost:
		return Cost, nil
	}
	return "", fmt.Errorf("unknown criterion type %q (want benefit or cost)", s)
}

// Criterion is one column of the decision matrix.
type Criterion struct {
	Index    int      `json:"index"`
	Name     string   `json:"name"`
	Polarity Polarity `json:"type"`
}

// CriterionSet is the ordered, fixed list of criteria for a computation.
type CriterionSet []Criterion

// DefaultCriteria returns the six reference criteria used for village ranking.
func DefaultCriteria() CriterionSet {
	return NewCriterionSet(
		Criterion{Name: "IbuHamil_Normal", Polarity: Cost},
		Criterion{Name: "Bayi_GiziNormal", Polarity: Cost},
		Criterion{Name: "IbuHamil_Periksa", Polarity: Cost},
		Criterion{Name: "IbuHamil_TTD", Polarity: Benefit},
		Criterion{Name: "Anak_Terpantau_TumbuhKembang", Polarity: Benefit},
		Criterion{Name: "Anak_GiziBuruk", Polarity: Benefit},
	)
}

// NewCriterionSet assigns ordinal indexes in argument order.
func NewCriterionSet(criteria ...Criterion) CriterionSet {
	set := make(CriterionSet, len(criteria))
	for i, c := range criteria {
		c.Index = i
		set[i] = c
	}
	return set
}

// Names returns the criterion names in order.
func (cs CriterionSet) Names() []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return names
}

// Lookup returns the index of the named criterion, or -1.
func (cs CriterionSet) Lookup(name string) int {
	for i, c := range cs {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks the set is non-empty, names are unique and non-blank, and
// every polarity is known.
func (cs CriterionSet) Validate() error {
	if len(cs) == 0 {
		return ErrEmptyCriterionSet
	}
	seen := make(map[string]bool, len(cs))
	for i, c := range cs {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("criterion %d: name is empty", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("criterion %d: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true
		if c.Polarity != Benefit && c.Polarity != Cost {
			return fmt.Errorf("criterion %q: unknown type %q", c.Name, c.Polarity)
		}
	}
	return nil
}
