// Package dataset parses village datasets from CSV and XLSX tables and converts
// them into scoring candidates.
package dataset

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/MikeSquared-Agency/DesaRank/internal/scoring"
)

// NameColumn is the header of the village name column.
const NameColumn = "Desa"

var (
	ErrMissingColumns    = eris.New("dataset: missing required columns")
	ErrUnsupportedFormat = eris.New("dataset: unsupported file format")
	ErrEmpty             = eris.New("dataset: no header row")
)

// Record is one village row. Values are aligned with the criterion set; a nil
// entry marks a value that was missing or could not be read as a number.
type Record struct {
	Name   string     `json:"desa"`
	Values []*float64 `json:"values"`
}

// NewRecord builds a complete record from plain values.
func NewRecord(name string, values ...float64) Record {
	r := Record{Name: name, Values: make([]*float64, len(values))}
	for i := range values {
		v := values[i]
		r.Values[i] = &v
	}
	return r
}

// Missing returns the indexes of values that are nil.
func (r Record) Missing() []int {
	var out []int
	for i, v := range r.Values {
		if v == nil {
			out = append(out, i)
		}
	}
	return out
}

// Header returns the canonical header row for the criterion set.
func Header(criteria scoring.CriterionSet) []string {
	return append([]string{NameColumn}, criteria.Names()...)
}

// ParseNumber coerces a cell to a float. Blank or non-numeric cells return nil.
func ParseNumber(cell string) *float64 {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Parse reads a table whose first row is the header. The header must contain
// NameColumn and every criterion name, in any order; other columns are
// ignored. Rows without a name and rows where every criterion value is
// missing are dropped.
func Parse(rows [][]string, criteria scoring.CriterionSet) ([]Record, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	nameCol, cols, err := columns(rows[0], criteria)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		name := strings.TrimSpace(cell(row, nameCol))
		if name == "" {
			continue
		}
		rec := Record{Name: name, Values: make([]*float64, len(criteria))}
		present := 0
		for i, col := range cols {
			if v := ParseNumber(cell(row, col)); v != nil {
				rec.Values[i] = v
				present++
			}
		}
		if present == 0 {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// columns locates NameColumn and each criterion in a header row. The first
// occurrence of a duplicated header wins.
func columns(header []string, criteria scoring.CriterionSet) (int, []int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			// Excel's "CSV UTF-8" export starts with a byte order mark.
			h = strings.TrimPrefix(h, "\ufeff")
		}
		name := strings.TrimSpace(h)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, want := range Header(criteria) {
		if _, ok := index[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return 0, nil, eris.Wrapf(ErrMissingColumns, "header must contain %s; missing %s",
			strings.Join(Header(criteria), ", "), strings.Join(missing, ", "))
	}

	cols := make([]int, len(criteria))
	for i, c := range criteria {
		cols[i] = index[c.Name]
	}
	return index[NameColumn], cols, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// Complete returns a *scoring.DatasetError for the first record that is
// missing a criterion value.
func Complete(records []Record, criteria scoring.CriterionSet) error {
	for _, r := range records {
		if len(r.Values) != len(criteria) {
			return &scoring.DatasetError{Candidate: r.Name, Reason: "wrong number of criterion values"}
		}
		if m := r.Missing(); len(m) > 0 {
			return &scoring.DatasetError{Candidate: r.Name, Criterion: criteria[m[0]].Name, Reason: "value is missing or not numeric"}
		}
	}
	return nil
}

// Candidates converts records into scoring candidates. Any missing value is
// reported as scoring.ErrMalformedDataset naming the village and criterion.
func Candidates(records []Record, criteria scoring.CriterionSet) ([]scoring.Candidate, error) {
	if err := Complete(records, criteria); err != nil {
		return nil, err
	}
	out := make([]scoring.Candidate, len(records))
	for i, r := range records {
		values := make([]float64, len(r.Values))
		for k, v := range r.Values {
			values[k] = *v
		}
		out[i] = scoring.Candidate{Name: r.Name, Values: values}
	}
	return out, nil
}
