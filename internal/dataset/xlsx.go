package dataset

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/MikeSquared-Agency/DesaRank/internal/scoring"
)

// ReadXLSX reads the named sheet (or the first sheet when sheet is "") of
// a workbook on disk.
func ReadXLSX(path, sheet string, criteria scoring.CriterionSet) ([]Record, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	return readWorkbook(f, sheet, criteria)
}

// ReadXLSXBytes reads a workbook held in memory, e.g. an upload.
func ReadXLSXBytes(data []byte, sheet string, criteria scoring.CriterionSet) ([]Record, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open upload")
	}
	return readWorkbook(f, sheet, criteria)
}

func readWorkbook(f *xlsx.File, sheet string, criteria scoring.CriterionSet) ([]Record, error) {
	s, err := getSheet(f, sheet)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(s.Rows))
	for _, row := range s.Rows {
		rows = append(rows, rowToStrings(row))
	}
	return Parse(rows, criteria)
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		if sheet, ok := f.Sheet[name]; ok {
			return sheet, nil
		}
		// Hand-edited workbooks often carry stray spaces in sheet names.
		for _, sheet := range f.Sheets {
			if strings.TrimSpace(sheet.Name) == strings.TrimSpace(name) {
				return sheet, nil
			}
		}
		return nil, eris.Errorf("xlsx: sheet %q not found", name)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

// WriteXLSX writes the records under a canonical header to a new workbook
// with a single sheet. Missing values are left blank.
func WriteXLSX(path, sheet string, criteria scoring.CriterionSet, records []Record) error {
	f := xlsx.NewFile()
	s, err := f.AddSheet(sheet)
	if err != nil {
		return eris.Wrapf(err, "xlsx: add sheet %q", sheet)
	}

	header := s.AddRow()
	for _, h := range Header(criteria) {
		header.AddCell().SetString(h)
	}
	for _, r := range records {
		row := s.AddRow()
		row.AddCell().SetString(r.Name)
		for i := range criteria {
			c := row.AddCell()
			if i < len(r.Values) && r.Values[i] != nil {
				c.SetFloat(*r.Values[i])
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "xlsx: save file")
	}
	return nil
}

// AppendXLSX adds records to the sheet of the workbook at src and saves the
// result to dst, which may equal src. New rows follow the sheet's own header
// layout; existing rows, other columns and other sheets are kept as they are.
// An empty sheet gets the canonical header first.
func AppendXLSX(src, dst, sheet string, criteria scoring.CriterionSet, records []Record) error {
	f, err := xlsx.OpenFile(src)
	if err != nil {
		return eris.Wrap(err, "xlsx: open file")
	}
	s, err := getSheet(f, sheet)
	if err != nil {
		return err
	}

	if len(s.Rows) == 0 {
		header := s.AddRow()
		for _, h := range Header(criteria) {
			header.AddCell().SetString(h)
		}
	}
	width := len(s.Rows[0].Cells)
	nameCol, cols, err := columns(rowToStrings(s.Rows[0]), criteria)
	if err != nil {
		return err
	}

	for _, r := range records {
		row := s.AddRow()
		cells := make([]*xlsx.Cell, width)
		for i := range cells {
			cells[i] = row.AddCell()
		}
		cells[nameCol].SetString(r.Name)
		for i, col := range cols {
			if i < len(r.Values) && r.Values[i] != nil {
				cells[col].SetFloat(*r.Values[i])
			}
		}
	}

	if err := f.Save(dst); err != nil {
		return eris.Wrap(err, "xlsx: save file")
	}
	return nil
}

// ReadCSV reads a comma-separated table with a header row.
func ReadCSV(r io.Reader, criteria scoring.CriterionSet) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read rows")
	}
	return Parse(rows, criteria)
}

// ReadUpload picks a parser from the file extension.
// Only .csv and .xlsx are accepted; legacy .xls workbooks are not.
func ReadUpload(filename string, data []byte, criteria scoring.CriterionSet) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ReadCSV(bytes.NewReader(data), criteria)
	case ".xlsx":
		return ReadXLSXBytes(data, "", criteria)
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "%q: use .xlsx or .csv", filename)
	}
}
