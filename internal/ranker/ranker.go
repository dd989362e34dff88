// Package ranker ties the scoring engine to storage and events. It loads the
// current comparisons and village dataset, runs the evaluation, and applies
// weight edits and dataset appends.
package ranker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/DesaRank/internal/dataset"
	"github.com/MikeSquared-Agency/DesaRank/internal/hermes"
	"github.com/MikeSquared-Agency/DesaRank/internal/scoring"
	"github.com/MikeSquared-Agency/DesaRank/internal/store"
)

// ErrInvalidUpload wraps any failure to read an uploaded dataset file.
var ErrInvalidUpload = errors.New("invalid upload")

// DashboardDecimals is the rounding applied to chart weights.
const DashboardDecimals = 4

type Service struct {
	store   store.Store
	hermes  hermes.Client
	scorer  *scoring.Scorer
	metrics *Metrics
	logger  *slog.Logger

	// mu orders writes against evaluations: writers hold it exclusively,
	// Evaluate holds it shared while loading and computing.
	mu sync.RWMutex

	cacheMu sync.Mutex
	cached  *scoring.Evaluation
	gen     uint64
}

func New(s store.Store, h hermes.Client, scorer *scoring.Scorer, m *Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   s,
		hermes:  h,
		scorer:  scorer,
		metrics: m,
		logger:  logger,
	}
}

func (s *Service) Criteria() scoring.CriterionSet {
	return s.scorer.Criteria()
}

// Comparisons returns the saved comparisons, or the built-in default when
// nothing was saved yet.
func (s *Service) Comparisons(ctx context.Context) (scoring.Comparisons, bool, error) {
	c, ok, err := s.store.LoadComparisons(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load comparisons: %w", err)
	}
	if !ok {
		return scoring.DefaultComparisons(), true, nil
	}
	return c, false, nil
}

// Evaluate returns the current ranking. Results are cached until the next
// write, local or announced over hermes.
func (s *Service) Evaluate(ctx context.Context) (*scoring.Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.cacheMu.Lock()
	if s.cached != nil {
		e := s.cached
		s.cacheMu.Unlock()
		return e, nil
	}
	gen := s.gen
	s.cacheMu.Unlock()

	start := time.Now()
	eval, err := s.evaluate(ctx)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.observeEvaluation(StatusFailure, elapsed.Seconds())
		return nil, err
	}
	s.metrics.observeEvaluation(StatusSuccess, elapsed.Seconds())
	s.metrics.setRanking(eval.Consistency.CR, len(eval.Results))

	s.cacheMu.Lock()
	if s.gen == gen {
		s.cached = eval
	}
	s.cacheMu.Unlock()

	ev := hermes.RankingComputedEvent{
		TotalVillages:    len(eval.Results),
		ConsistencyRatio: eval.Consistency.CR,
		Status:           string(eval.Consistency.Verdict),
		DurationMs:       float64(elapsed.Microseconds()) / 1000,
		Timestamp:        time.Now().UTC(),
	}
	if top, ok := eval.Top(); ok {
		ev.TopVillage = top.Name
		ev.TopScore = top.FinalScore
	}
	s.publish(hermes.SubjectRankingComputed, ev)

	return eval, nil
}

func (s *Service) evaluate(ctx context.Context) (*scoring.Evaluation, error) {
	c, _, err := s.Comparisons(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListVillages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list villages: %w", err)
	}
	candidates, err := dataset.Candidates(records, s.Criteria())
	if err != nil {
		return nil, err
	}
	return s.scorer.Evaluate(c, candidates)
}

// Invalidate drops the cached evaluation.
func (s *Service) Invalidate() {
	s.cacheMu.Lock()
	s.cached = nil
	s.gen++
	s.cacheMu.Unlock()
}

// WeightsView describes the comparison configuration and the weights it yields.
type WeightsView struct {
	Pairs       []scoring.Pair            `json:"pairs"`
	Values      scoring.Comparisons       `json:"values"`
	IsDefault   bool                      `json:"is_default"`
	Weights     scoring.WeightVector      `json:"weights"`
	Consistency scoring.ConsistencyReport `json:"consistency"`
	Matrix      scoring.Matrix            `json:"matrix"`
}

func (s *Service) Weights(ctx context.Context) (*WeightsView, error) {
	c, isDefault, err := s.Comparisons(ctx)
	if err != nil {
		return nil, err
	}
	return s.weightsView(c, isDefault)
}

func (s *Service) weightsView(c scoring.Comparisons, isDefault bool) (*WeightsView, error) {
	w, report, m, err := s.scorer.Weights(c)
	if err != nil {
		return nil, err
	}
	return &WeightsView{
		Pairs:       scoring.Pairs(s.Criteria()),
		Values:      c,
		IsDefault:   isDefault,
		Weights:     w,
		Consistency: report,
		Matrix:      m,
	}, nil
}

// SaveComparisons replaces the stored comparisons. The mapping must give a
// valid value for every pair. An inconsistent matrix is still saved; the
// verdict is reported back to the caller.
func (s *Service) SaveComparisons(ctx context.Context, c scoring.Comparisons) (*WeightsView, error) {
	criteria := s.Criteria()
	for _, p := range scoring.Pairs(criteria) {
		if _, ok := c[p.ID]; !ok {
			return nil, &scoring.ComparisonError{Key: p.ID, Reason: "missing value for " + p.Criterion1 + " vs " + p.Criterion2}
		}
	}
	if err := scoring.ValidateComparisons(len(criteria), c); err != nil {
		return nil, err
	}
	view, err := s.weightsView(c.Clone(), false)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	err = s.store.SaveComparisons(ctx, view.Values)
	if err == nil {
		s.Invalidate()
	}
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("save comparisons: %w", err)
	}

	s.logger.Info("comparisons updated",
		"cr", view.Consistency.CR,
		"status", view.Consistency.Verdict,
	)
	s.publish(hermes.SubjectWeightsUpdated, hermes.WeightsUpdatedEvent{
		Values:           view.Values,
		Weights:          view.Weights,
		ConsistencyRatio: view.Consistency.CR,
		Status:           string(view.Consistency.Verdict),
		Timestamp:        time.Now().UTC(),
	})
	return view, nil
}

// AddVillage appends one village entered by hand. Every criterion must be
// given; unknown criterion names are rejected.
func (s *Service) AddVillage(ctx context.Context, name string, values map[string]float64) (dataset.Record, error) {
	criteria := s.Criteria()
	name = strings.TrimSpace(name)
	if name == "" {
		return dataset.Record{}, &scoring.DatasetError{Reason: "village name is required"}
	}
	for k := range values {
		if criteria.Lookup(k) < 0 {
			return dataset.Record{}, &scoring.DatasetError{Candidate: name, Criterion: k, Reason: "unknown criterion"}
		}
	}

	rec := dataset.Record{Name: name, Values: make([]*float64, len(criteria))}
	for i, c := range criteria {
		v, ok := values[c.Name]
		if !ok {
			continue
		}
		rec.Values[i] = &v
	}
	if err := checkRecords([]dataset.Record{rec}, criteria); err != nil {
		return dataset.Record{}, err
	}

	if err := s.appendVillages(ctx, []dataset.Record{rec}, hermes.SourceManual, ""); err != nil {
		return dataset.Record{}, err
	}
	return rec, nil
}

// ImportVillages parses an uploaded .csv or .xlsx file and appends its rows.
// Rows with every value missing are dropped by the parser; any remaining row
// with a missing value rejects the whole upload.
func (s *Service) ImportVillages(ctx context.Context, filename string, data []byte) (int, error) {
	criteria := s.Criteria()
	records, err := dataset.ReadUpload(filename, data, criteria)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidUpload, err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	if err := checkRecords(records, criteria); err != nil {
		return 0, err
	}
	if err := s.appendVillages(ctx, records, hermes.SourceUpload, filename); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (s *Service) appendVillages(ctx context.Context, records []dataset.Record, source, filename string) error {
	s.mu.Lock()
	err := s.store.AppendVillages(ctx, records)
	if err == nil {
		s.Invalidate()
	}
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("append villages: %w", err)
	}

	s.metrics.addImported(source, len(records))
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	batchID := uuid.New().String()
	s.logger.Info("villages appended", "batch_id", batchID, "source", source, "count", len(records))
	s.publish(hermes.SubjectVillagesImported, hermes.VillagesImportedEvent{
		BatchID:   batchID,
		Source:    source,
		Filename:  filename,
		Imported:  len(records),
		Villages:  names,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// checkRecords rejects records that could never be ranked.
func checkRecords(records []dataset.Record, criteria scoring.CriterionSet) error {
	if err := dataset.Complete(records, criteria); err != nil {
		return err
	}
	for _, r := range records {
		for i, v := range r.Values {
			if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
				return &scoring.DatasetError{Candidate: r.Name, Criterion: criteria[i].Name, Reason: "value must be a non-negative number"}
			}
		}
	}
	return nil
}

// Dashboard is the summary view of the current ranking.
type Dashboard struct {
	TopVillage    string                    `json:"top_village"`
	TopScore      float64                   `json:"top_score"`
	TotalVillages int                       `json:"total_villages"`
	Consistency   scoring.ConsistencyReport `json:"consistency"`
	Labels        []string                  `json:"labels"`
	Weights       []float64                 `json:"weights"`
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	eval, err := s.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{
		TotalVillages: len(eval.Results),
		Consistency:   eval.Consistency,
		Labels:        eval.Criteria.Names(),
		Weights:       eval.Weights.Rounded(DashboardDecimals),
	}
	if top, ok := eval.Top(); ok {
		d.TopVillage = top.Name
		d.TopScore = top.FinalScore
	}
	return d, nil
}

func (s *Service) Frontier(ctx context.Context) ([]scoring.Ranked, error) {
	eval, err := s.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return s.scorer.Frontier(eval), nil
}

// SetupSubscriptions drops the cache when another instance changes the
// comparisons or the dataset.
func (s *Service) SetupSubscriptions() {
	if s.hermes == nil {
		return
	}
	for _, subject := range []string{hermes.SubjectWeightsUpdated, hermes.SubjectVillagesImported} {
		if err := s.hermes.Subscribe(subject, func(_ string, data []byte) {
			if !json.Valid(data) {
				s.logger.Warn("invalid event payload", "subject", subject)
				return
			}
			s.Invalidate()
		}); err != nil {
			s.logger.Warn("failed to subscribe", "subject", subject, "error", err)
		}
	}
}

func (s *Service) publish(subject string, data interface{}) {
	if s.hermes == nil {
		return
	}
	if err := s.hermes.Publish(subject, data); err != nil {
		s.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
