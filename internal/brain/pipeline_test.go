package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/internal/s0_ingest"
	"github.com/wonny/prism/internal/s1_similarity"
	"github.com/wonny/prism/internal/s2_community"
	"github.com/wonny/prism/internal/s3_trend"
	"github.com/wonny/prism/internal/s4_recommend"
	"github.com/wonny/prism/internal/strategyconfig"
	"github.com/wonny/prism/pkg/logger"
)

func closeSeries(symbol string, closes ...float64) *contracts.Series {
	bars := make([]contracts.Bar, len(closes))
	for i, c := range closes {
		bars[i] = contracts.Bar{Date: day(i), Close: c, Volume: 100}
	}
	return &contracts.Series{Symbol: symbol, Bars: bars}
}

// pipelineSet builds a fresh dataset per call so consecutive runs cannot
// share state through a common SeriesSet.
func pipelineSet() *contracts.SeriesSet {
	return contracts.NewSeriesSet([]*contracts.Series{
		closeSeries("AAA", 10, 11, 12, 13, 14, 15),
		closeSeries("BBB", 20, 22, 24, 26, 28, 30),
		closeSeries("CCC", 30, 29, 28, 27, 26, 25),
		closeSeries("DDD", 5, 7, 4, 8, 3, 9),
		closeSeries("EEE", 50, 70, 40, 80, 30, 90),
	})
}

func realPipeline(workers int) *Orchestrator {
	log := logger.NewNop()
	strategy := strategyconfig.Default()

	return NewOrchestrator(
		s0_ingest.NewQualityGate(strategy.Trend.MinDays, log),
		s1_similarity.NewBuilder(strategy.Similarity, workers, log),
		s2_community.NewDetector(strategy.Community, strategy.Similarity, log),
		s3_trend.NewScorer(strategy.Trend, log),
		s4_recommend.NewRecommender(strategy.Recommend, log),
		Repos{},
		nil,
		log,
	)
}

func runPipeline(t *testing.T, runID string) *contracts.Report {
	t.Helper()

	set := pipelineSet()
	orch := realPipeline(4)
	result, err := orch.Run(context.Background(), RunConfig{
		RunID:      runID,
		Trigger:    contracts.TriggerManual,
		ConfigHash: "cafe0123",
		Loader: &fakeLoader{
			set:    set,
			report: &contracts.IngestReport{Source: "csv", RowsRead: 30, RowsAccepted: 30, Tickers: 5},
		},
		DryRun: true,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !result.Success {
		t.Fatalf("Run() failed: %v", result.Error)
	}
	return result.Report
}

// Two runs over the same dataset and strategy must agree byte for byte
// once the generation timestamp is held fixed.
func TestRun_DeterministicReport(t *testing.T) {
	first := runPipeline(t, "run_fixed")
	second := runPipeline(t, "run_fixed")

	if first.Tickers != 5 {
		t.Fatalf("tickers = %d, want 5", first.Tickers)
	}
	if first.Edges == 0 {
		t.Fatal("expected at least one edge in the report")
	}
	if len(first.Communities) == 0 {
		t.Fatal("expected at least one community in the report")
	}
	if first.PickCount() == 0 {
		t.Fatal("expected at least one pick in the report")
	}

	first.GeneratedAt = time.Time{}
	second.GeneratedAt = time.Time{}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal first report: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal second report: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("report bodies differ:\n  first:  %s\n  second: %s", a, b)
	}
}

// Worker counts shape only the scheduling of pair jobs, never the report.
func TestRun_WorkerCountDoesNotChangeReport(t *testing.T) {
	reports := make([][]byte, 0, 2)
	for _, workers := range []int{1, 8} {
		set := pipelineSet()
		orch := realPipeline(workers)
		result, err := orch.Run(context.Background(), RunConfig{
			RunID:   "run_workers",
			Trigger: contracts.TriggerManual,
			Loader:  &fakeLoader{set: set, report: &contracts.IngestReport{Source: "csv", Tickers: 5}},
			DryRun:  true,
		})
		if err != nil {
			t.Fatalf("Run() with %d workers: %v", workers, err)
		}
		result.Report.GeneratedAt = time.Time{}
		body, err := json.Marshal(result.Report)
		if err != nil {
			t.Fatalf("marshal report: %v", err)
		}
		reports = append(reports, body)
	}

	if !bytes.Equal(reports[0], reports[1]) {
		t.Errorf("reports diverge across worker counts:\n  1 worker:  %s\n  8 workers: %s", reports[0], reports[1])
	}
}
