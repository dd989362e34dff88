package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/MikeSquared-Agency/DesaRank/internal/dataset"
	"github.com/MikeSquared-Agency/DesaRank/internal/scoring"
)

// FileStore keeps the comparisons in a JSON object file and the village
// dataset in one sheet of an XLSX workbook. Writes go through a temp file in
// the same directory followed by a rename.
type FileStore struct {
	comparisonsPath string
	workbookPath    string
	sheet           string
	criteria        scoring.CriterionSet

	mu sync.RWMutex
}

func NewFileStore(comparisonsPath, workbookPath, sheet string, criteria scoring.CriterionSet) *FileStore {
	return &FileStore{
		comparisonsPath: comparisonsPath,
		workbookPath:    workbookPath,
		sheet:           sheet,
		criteria:        criteria,
	}
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) LoadComparisons(_ context.Context) (scoring.Comparisons, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.comparisonsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read comparisons: %w", err)
	}

	var c scoring.Comparisons
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, false, fmt.Errorf("decode comparisons %s: %w", s.comparisonsPath, err)
	}
	if c == nil {
		c = scoring.Comparisons{}
	}
	return c, true, nil
}

func (s *FileStore) SaveComparisons(_ context.Context, c scoring.Comparisons) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode comparisons: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(s.comparisonsPath, func(tmp string) error {
		return os.WriteFile(tmp, data, 0o644)
	})
}

func (s *FileStore) ListVillages(_ context.Context) ([]dataset.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readVillages()
}

func (s *FileStore) readVillages() ([]dataset.Record, error) {
	if _, err := os.Stat(s.workbookPath); errors.Is(err, fs.ErrNotExist) {
		return []dataset.Record{}, nil
	}
	records, err := dataset.ReadXLSX(s.workbookPath, s.sheet, s.criteria)
	if err != nil {
		return nil, fmt.Errorf("read villages: %w", err)
	}
	return records, nil
}

func (s *FileStore) AppendVillages(_ context.Context, records []dataset.Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.workbookPath); errors.Is(err, fs.ErrNotExist) {
		return writeAtomic(s.workbookPath, func(tmp string) error {
			return dataset.WriteXLSX(tmp, s.sheet, s.criteria, records)
		})
	}
	// Append in place so columns and rows the dataset does not read survive.
	return writeAtomic(s.workbookPath, func(tmp string) error {
		return dataset.AppendXLSX(s.workbookPath, tmp, s.sheet, s.criteria, records)
	})
}

// writeAtomic calls write with a temp path next to path, then renames it over path.
func writeAtomic(path string, write func(tmp string) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	f.Close()

	if err := write(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
