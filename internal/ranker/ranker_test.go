package ranker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MikeSquared-Agency/DesaRank/internal/dataset"
	"github.com/MikeSquared-Agency/DesaRank/internal/hermes"
	"github.com/MikeSquared-Agency/DesaRank/internal/scoring"
)

// Mock implementations

type mockStore struct {
	mu          sync.Mutex
	comparisons scoring.Comparisons
	villages    []dataset.Record
	loads       int
	failSave    error
}

func (m *mockStore) LoadComparisons(_ context.Context) (scoring.Comparisons, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.comparisons == nil {
		return nil, false, nil
	}
	return m.comparisons.Clone(), true, nil
}
func (m *mockStore) SaveComparisons(_ context.Context, c scoring.Comparisons) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	m.comparisons = c.Clone()
	return nil
}
func (m *mockStore) ListVillages(_ context.Context) ([]dataset.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]dataset.Record(nil), m.villages...), nil
}
func (m *mockStore) AppendVillages(_ context.Context, records []dataset.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.villages = append(m.villages, records...)
	return nil
}
func (m *mockStore) Close() error { return nil }

type published struct {
	subject string
	data    interface{}
}

type mockHermes struct {
	mu        sync.Mutex
	published []published
	handlers  map[string]func(string, []byte)
}

func (m *mockHermes) Publish(subject string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, published{subject, data})
	return nil
}
func (m *mockHermes) Subscribe(subject string, handler func(string, []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handlers == nil {
		m.handlers = map[string]func(string, []byte){}
	}
	m.handlers[subject] = handler
	return nil
}
func (m *mockHermes) Close() {}

func (m *mockHermes) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, p := range m.published {
		out = append(out, p.subject)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRecords() []dataset.Record {
	return []dataset.Record{
		dataset.NewRecord("Sukamaju", 12, 30, 8, 40, 55, 3),
		dataset.NewRecord("Sukajaya", 7, 45, 11, 22, 61, 9),
		dataset.NewRecord("Mekarsari", 19, 12, 5, 37, 18, 4),
	}
}

func newTestService(ms *mockStore, mh *mockHermes) (*Service, *Metrics) {
	logger := discardLogger()
	m := NewMetrics()
	var h hermes.Client
	if mh != nil {
		h = mh
	}
	return New(ms, h, scoring.NewScorer(scoring.DefaultCriteria(), logger), m, logger), m
}

func TestEvaluateDefaultsAndCaches(t *testing.T) {
	ms := &mockStore{villages: sampleRecords()}
	mh := &mockHermes{}
	svc, m := newTestService(ms, mh)
	ctx := context.Background()

	eval, err := svc.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(eval.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(eval.Results))
	}
	if eval.Consistency.Verdict != scoring.Consistent {
		t.Errorf("expected default matrix to be consistent")
	}

	again, err := svc.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if again != eval {
		t.Error("expected cached evaluation on second call")
	}
	if ms.loads != 1 {
		t.Errorf("expected one store load, got %d", ms.loads)
	}

	if got := mh.subjects(); len(got) != 1 || got[0] != hermes.SubjectRankingComputed {
		t.Errorf("expected a single ranking.computed event, got %v", got)
	}
	if v := testutil.ToFloat64(m.evaluations.WithLabelValues(StatusSuccess)); v != 1 {
		t.Errorf("expected 1 successful evaluation, got %v", v)
	}
	if v := testutil.ToFloat64(m.rankedVillages); v != 3 {
		t.Errorf("expected ranked villages gauge 3, got %v", v)
	}
}

func TestEvaluateEmptyDataset(t *testing.T) {
	svc, _ := newTestService(&mockStore{}, nil)
	eval, err := svc.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(eval.Results) != 0 {
		t.Errorf("expected empty ranking, got %d", len(eval.Results))
	}

	d, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if d.TopVillage != "" || d.TotalVillages != 0 {
		t.Errorf("unexpected dashboard for empty dataset: %+v", d)
	}
}

func TestEvaluateDegenerateCost(t *testing.T) {
	records := sampleRecords()
	zero := 0.0
	records[1].Values[0] = &zero // cost criterion
	svc, m := newTestService(&mockStore{villages: records}, nil)

	_, err := svc.Evaluate(context.Background())
	if !errors.Is(err, scoring.ErrDegenerateCostValue) {
		t.Fatalf("expected ErrDegenerateCostValue, got %v", err)
	}
	if v := testutil.ToFloat64(m.evaluations.WithLabelValues(StatusFailure)); v != 1 {
		t.Errorf("expected 1 failed evaluation, got %v", v)
	}
}

func TestWeightsDefault(t *testing.T) {
	svc, _ := newTestService(&mockStore{}, nil)
	view, err := svc.Weights(context.Background())
	if err != nil {
		t.Fatalf("Weights failed: %v", err)
	}
	if !view.IsDefault {
		t.Error("expected default comparisons")
	}
	if len(view.Pairs) != 15 {
		t.Errorf("expected 15 pairs, got %d", len(view.Pairs))
	}
	if view.Pairs[0].Criterion1 != "IbuHamil_Normal" || view.Pairs[0].Criterion2 != "Bayi_GiziNormal" {
		t.Errorf("unexpected first pair: %+v", view.Pairs[0])
	}
	if len(view.Matrix) != 6 {
		t.Errorf("expected 6x6 matrix, got %d rows", len(view.Matrix))
	}
}

func TestSaveComparisons(t *testing.T) {
	ms := &mockStore{villages: sampleRecords()}
	mh := &mockHermes{}
	svc, _ := newTestService(ms, mh)
	ctx := context.Background()

	before, err := svc.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	c := scoring.DefaultComparisons()
	c["0-1"] = 9
	c["0-2"] = 1.0 / 9
	c["1-2"] = 9
	view, err := svc.SaveComparisons(ctx, c)
	if err != nil {
		t.Fatalf("SaveComparisons failed: %v", err)
	}
	if view.IsDefault {
		t.Error("saved comparisons should not be reported as default")
	}
	if view.Consistency.Verdict != scoring.Inconsistent {
		t.Errorf("expected inconsistent verdict, got %s (CR %f)", view.Consistency.Verdict, view.Consistency.CR)
	}
	if ms.comparisons["0-1"] != 9 {
		t.Error("expected comparisons to be persisted even when inconsistent")
	}

	after, err := svc.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if after == before {
		t.Error("expected cache to be invalidated after save")
	}

	found := false
	for _, s := range mh.subjects() {
		if s == hermes.SubjectWeightsUpdated {
			found = true
		}
	}
	if !found {
		t.Error("expected weights.updated event")
	}
}

func TestSaveComparisonsRejects(t *testing.T) {
	ms := &mockStore{}
	svc, _ := newTestService(ms, nil)
	ctx := context.Background()

	missing := scoring.DefaultComparisons()
	delete(missing, "2-4")
	_, err := svc.SaveComparisons(ctx, missing)
	if !errors.Is(err, scoring.ErrInvalidComparisonValue) || !strings.Contains(err.Error(), "2-4") {
		t.Errorf("expected missing pair error naming 2-4, got %v", err)
	}

	bad := scoring.DefaultComparisons()
	bad["3-5"] = 0
	if _, err := svc.SaveComparisons(ctx, bad); !errors.Is(err, scoring.ErrInvalidComparisonValue) {
		t.Errorf("expected ErrInvalidComparisonValue, got %v", err)
	}

	extra := scoring.DefaultComparisons()
	extra["5-1"] = 2
	if _, err := svc.SaveComparisons(ctx, extra); !errors.Is(err, scoring.ErrInvalidComparisonValue) {
		t.Errorf("expected lower-triangle key to be rejected, got %v", err)
	}

	if ms.comparisons != nil {
		t.Error("rejected comparisons must not be persisted")
	}

	ms.failSave = errors.New("disk full")
	_, err = svc.SaveComparisons(ctx, scoring.DefaultComparisons())
	if err == nil || scoring.Kind(err) != "" {
		t.Errorf("expected plain store error, got %v", err)
	}
}

func TestAddVillage(t *testing.T) {
	ms := &mockStore{}
	mh := &mockHermes{}
	svc, m := newTestService(ms, mh)
	ctx := context.Background()

	values := map[string]float64{
		"IbuHamil_Normal": 12, "Bayi_GiziNormal": 30, "IbuHamil_Periksa": 8,
		"IbuHamil_TTD": 40, "Anak_Terpantau_TumbuhKembang": 55, "Anak_GiziBuruk": 3,
	}
	rec, err := svc.AddVillage(ctx, "  Sukamaju ", values)
	if err != nil {
		t.Fatalf("AddVillage failed: %v", err)
	}
	if rec.Name != "Sukamaju" || *rec.Values[3] != 40 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if len(ms.villages) != 1 {
		t.Fatalf("expected 1 stored village, got %d", len(ms.villages))
	}
	if v := testutil.ToFloat64(m.imported.WithLabelValues(hermes.SourceManual)); v != 1 {
		t.Errorf("expected 1 manual import, got %v", v)
	}

	eval, err := svc.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if top, ok := eval.Top(); !ok || top.Name != "Sukamaju" {
		t.Errorf("expected Sukamaju on top, got %+v", top)
	}
}

func TestAddVillageRejects(t *testing.T) {
	ms := &mockStore{}
	svc, _ := newTestService(ms, nil)
	ctx := context.Background()
	full := func() map[string]float64 {
		return map[string]float64{
			"IbuHamil_Normal": 1, "Bayi_GiziNormal": 1, "IbuHamil_Periksa": 1,
			"IbuHamil_TTD": 1, "Anak_Terpantau_TumbuhKembang": 1, "Anak_GiziBuruk": 1,
		}
	}

	tests := []struct {
		name   string
		desa   string
		mutate func(map[string]float64)
	}{
		{"blank name", " ", func(map[string]float64) {}},
		{"missing criterion", "X", func(v map[string]float64) { delete(v, "IbuHamil_TTD") }},
		{"unknown criterion", "X", func(v map[string]float64) { v["Jarak"] = 4 }},
		{"negative value", "X", func(v map[string]float64) { v["Anak_GiziBuruk"] = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := full()
			tt.mutate(v)
			_, err := svc.AddVillage(ctx, tt.desa, v)
			if !errors.Is(err, scoring.ErrMalformedDataset) {
				t.Errorf("expected ErrMalformedDataset, got %v", err)
			}
		})
	}
	if len(ms.villages) != 0 {
		t.Errorf("rejected villages must not be stored, got %d", len(ms.villages))
	}
}

func csvUpload(rows ...string) []byte {
	header := strings.Join(dataset.Header(scoring.DefaultCriteria()), ",")
	return []byte(header + "\n" + strings.Join(rows, "\n") + "\n")
}

func TestImportVillages(t *testing.T) {
	ms := &mockStore{villages: sampleRecords()}
	mh := &mockHermes{}
	svc, m := newTestService(ms, mh)
	ctx := context.Background()

	data := csvUpload(
		"Cibodas,5,20,6,30,40,2",
		"Kosong,,,,,,",
		"Girimulya,9,25,7,33,47,5",
	)
	n, err := svc.ImportVillages(ctx, "batch.csv", data)
	if err != nil {
		t.Fatalf("ImportVillages failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 imported rows (all-missing row dropped), got %d", n)
	}
	if len(ms.villages) != 5 {
		t.Errorf("expected 5 stored villages, got %d", len(ms.villages))
	}
	if v := testutil.ToFloat64(m.imported.WithLabelValues(hermes.SourceUpload)); v != 2 {
		t.Errorf("expected 2 uploaded rows counted, got %v", v)
	}

	var ev hermes.VillagesImportedEvent
	for _, p := range mh.published {
		if p.subject == hermes.SubjectVillagesImported {
			ev = p.data.(hermes.VillagesImportedEvent)
		}
	}
	if ev.Imported != 2 || ev.Filename != "batch.csv" || ev.BatchID == "" {
		t.Errorf("unexpected import event: %+v", ev)
	}
}

func TestImportVillagesRejects(t *testing.T) {
	ms := &mockStore{}
	svc, _ := newTestService(ms, nil)
	ctx := context.Background()

	_, err := svc.ImportVillages(ctx, "old.xls", []byte("x"))
	if !errors.Is(err, ErrInvalidUpload) || !errors.Is(err, dataset.ErrUnsupportedFormat) {
		t.Errorf("expected invalid upload wrapping unsupported format, got %v", err)
	}

	_, err = svc.ImportVillages(ctx, "cols.csv", []byte("Desa,IbuHamil_TTD\nX,1\n"))
	if !errors.Is(err, ErrInvalidUpload) || !errors.Is(err, dataset.ErrMissingColumns) {
		t.Errorf("expected missing columns, got %v", err)
	}

	_, err = svc.ImportVillages(ctx, "partial.csv", csvUpload("Cibodas,5,20,,30,40,2"))
	if !errors.Is(err, scoring.ErrMalformedDataset) {
		t.Errorf("expected partial row to be rejected, got %v", err)
	}

	n, err := svc.ImportVillages(ctx, "empty.csv", csvUpload())
	if err != nil || n != 0 {
		t.Errorf("expected empty upload to import nothing, got %d, %v", n, err)
	}
	if len(ms.villages) != 0 {
		t.Errorf("rejected uploads must not be stored, got %d", len(ms.villages))
	}
}

func TestDashboard(t *testing.T) {
	svc, _ := newTestService(&mockStore{villages: sampleRecords()}, nil)
	d, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if d.TotalVillages != 3 || d.TopVillage == "" || d.TopScore <= 0 {
		t.Errorf("unexpected dashboard: %+v", d)
	}
	want := []float64{0.15, 0.15, 0.1, 0.1, 0.25, 0.25}
	if len(d.Weights) != len(want) {
		t.Fatalf("expected %d weights, got %d", len(want), len(d.Weights))
	}
	for i := range want {
		if d.Weights[i] != want[i] {
			t.Errorf("weight %d: expected %v, got %v", i, want[i], d.Weights[i])
		}
	}
	if d.Labels[4] != "Anak_Terpantau_TumbuhKembang" {
		t.Errorf("unexpected labels: %v", d.Labels)
	}
}

func TestFrontier(t *testing.T) {
	svc, _ := newTestService(&mockStore{villages: sampleRecords()}, nil)
	frontier, err := svc.Frontier(context.Background())
	if err != nil {
		t.Fatalf("Frontier failed: %v", err)
	}
	if len(frontier) == 0 || len(frontier) > 3 {
		t.Errorf("unexpected frontier size %d", len(frontier))
	}
}

func TestSubscriptionsInvalidateCache(t *testing.T) {
	ms := &mockStore{villages: sampleRecords()}
	mh := &mockHermes{}
	svc, _ := newTestService(ms, mh)
	svc.SetupSubscriptions()

	h, ok := mh.handlers[hermes.SubjectVillagesImported]
	if !ok {
		t.Fatal("expected subscription to villages.imported")
	}
	if _, ok := mh.handlers[hermes.SubjectWeightsUpdated]; !ok {
		t.Fatal("expected subscription to weights.updated")
	}

	ctx := context.Background()
	first, _ := svc.Evaluate(ctx)

	h(hermes.SubjectVillagesImported, []byte("not json"))
	if same, _ := svc.Evaluate(ctx); same != first {
		t.Error("invalid payload should not invalidate the cache")
	}

	h(hermes.SubjectVillagesImported, []byte(`{"imported":1}`))
	if next, _ := svc.Evaluate(ctx); next == first {
		t.Error("expected a fresh evaluation after remote import")
	}
}

func TestConcurrentEvaluateAndWrite(t *testing.T) {
	ms := &mockStore{villages: sampleRecords()}
	svc, _ := newTestService(ms, &mockHermes{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := svc.Evaluate(ctx); err != nil {
				t.Errorf("Evaluate failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := svc.SaveComparisons(ctx, scoring.DefaultComparisons()); err != nil {
				t.Errorf("SaveComparisons failed: %v", err)
			}
		}()
	}
	wg.Wait()

	eval, err := svc.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(eval.Results) != 3 {
		t.Errorf("expected 3 results, got %d", len(eval.Results))
	}
}
