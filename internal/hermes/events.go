package hermes

import "time"

type WeightsUpdatedEvent struct {
	Values           map[string]float64 `json:"values"`
	Weights          []float64          `json:"weights"`
	ConsistencyRatio float64            `json:"consistency_ratio"`
	Status           string             `json:"status"`
	Timestamp        time.Time          `json:"timestamp"`
}

// VillagesImportedEvent is published after rows are appended to the dataset,
// whether from an upload or a single manual entry.
type VillagesImportedEvent struct {
	BatchID   string    `json:"batch_id"`
	Source    string    `json:"source"`
	Filename  string    `json:"filename,omitempty"`
	Imported  int       `json:"imported"`
	Villages  []string  `json:"villages"`
	Timestamp time.Time `json:"timestamp"`
}

type RankingComputedEvent struct {
	TotalVillages    int       `json:"total_villages"`
	TopVillage       string    `json:"top_village,omitempty"`
	TopScore         float64   `json:"top_score"`
	ConsistencyRatio float64   `json:"consistency_ratio"`
	Status           string    `json:"status"`
	DurationMs       float64   `json:"duration_ms"`
	Timestamp        time.Time `json:"timestamp"`
}

const (
	SourceUpload = "upload"
	SourceManual = "manual"
)
