package store

import (
	"context"

	"github.com/MikeSquared-Agency/DesaRank/internal/dataset"
	"github.com/MikeSquared-Agency/DesaRank/internal/scoring"
)

// ComparisonStore persists the pairwise comparison configuration.
type ComparisonStore interface {
	// LoadComparisons returns ok=false when nothing was ever saved.
	LoadComparisons(ctx context.Context) (scoring.Comparisons, bool, error)
	// SaveComparisons replaces the whole mapping.
	SaveComparisons(ctx context.Context, c scoring.Comparisons) error
}

// VillageStore persists the village dataset in insertion order.
type VillageStore interface {
	ListVillages(ctx context.Context) ([]dataset.Record, error)
	AppendVillages(ctx context.Context, records []dataset.Record) error
}

type Store interface {
	ComparisonStore
	VillageStore
	Close() error
}

// Backend names accepted by configuration.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)
