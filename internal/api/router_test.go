package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wonny/prism/internal/api/handlers"
	"github.com/wonny/prism/internal/brain"
	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
)

type fakeRunRepo struct {
	records []*contracts.RunRecord
	listErr error
}

func (r *fakeRunRepo) Create(ctx context.Context, record *contracts.RunRecord) error { return nil }
func (r *fakeRunRepo) Finish(ctx context.Context, record *contracts.RunRecord) error { return nil }

func (r *fakeRunRepo) Get(ctx context.Context, runID string) (*contracts.RunRecord, error) {
	for _, record := range r.records {
		if record.RunID == runID {
			return record, nil
		}
	}
	return nil, errors.New("run not found")
}

func (r *fakeRunRepo) Latest(ctx context.Context) (*contracts.RunRecord, error) {
	if len(r.records) == 0 {
		return nil, errors.New("no runs found")
	}
	return r.records[0], nil
}

func (r *fakeRunRepo) List(ctx context.Context, limit int) ([]*contracts.RunRecord, error) {
	if r.listErr != nil {
		panic(r.listErr) // exercises the recovery middleware
	}
	if limit > len(r.records) {
		limit = len(r.records)
	}
	return r.records[:limit], nil
}

func (r *fakeRunRepo) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

type fakeReportRepo struct {
	reports map[string]*contracts.Report
}

func (r *fakeReportRepo) SaveReport(ctx context.Context, report *contracts.Report) error {
	return nil
}

func (r *fakeReportRepo) LoadReport(ctx context.Context, runID string) (*contracts.Report, error) {
	report, ok := r.reports[runID]
	if !ok {
		return nil, errors.New("no report found")
	}
	return report, nil
}

type fakeCommunityRepo struct {
	partitions map[string]*contracts.Partition
}

func (r *fakeCommunityRepo) SavePartition(ctx context.Context, runID string, partition *contracts.Partition) error {
	return nil
}

func (r *fakeCommunityRepo) LoadPartition(ctx context.Context, runID string) (*contracts.Partition, error) {
	if partition, ok := r.partitions[runID]; ok {
		return partition, nil
	}
	return &contracts.Partition{BySymbol: map[string]int{}}, nil
}

type fakeEdgeRepo struct {
	edges map[string][]contracts.Edge
}

func (r *fakeEdgeRepo) SaveGraph(ctx context.Context, runID string, graph *contracts.SimilarityGraph) error {
	return nil
}

func (r *fakeEdgeRepo) LoadEdges(ctx context.Context, runID string) ([]contracts.Edge, error) {
	return r.edges[runID], nil
}

type fakeTickerRepo struct {
	tickers []*contracts.Ticker
}

func (r *fakeTickerRepo) Save(ctx context.Context, ticker *contracts.Ticker) error       { return nil }
func (r *fakeTickerRepo) SaveBatch(ctx context.Context, tickers []*contracts.Ticker) error { return nil }

func (r *fakeTickerRepo) Get(ctx context.Context, symbol string) (*contracts.Ticker, error) {
	return nil, errors.New("not found")
}

func (r *fakeTickerRepo) List(ctx context.Context) ([]*contracts.Ticker, error) {
	return r.tickers, nil
}

type fakeBarRepo struct {
	series map[string]*contracts.Series
	count  int64
}

func (r *fakeBarRepo) SaveSeries(ctx context.Context, series *contracts.Series) error { return nil }
func (r *fakeBarRepo) SaveBatch(ctx context.Context, set *contracts.SeriesSet) error  { return nil }

func (r *fakeBarRepo) LoadSeries(ctx context.Context, from, to time.Time) ([]*contracts.Series, error) {
	return nil, nil
}

func (r *fakeBarRepo) LoadSymbol(ctx context.Context, symbol string, from, to time.Time) (*contracts.Series, error) {
	if series, ok := r.series[symbol]; ok {
		return series, nil
	}
	return &contracts.Series{Symbol: symbol}, nil
}

func (r *fakeBarRepo) LatestDate(ctx context.Context, symbol string) (time.Time, error) {
	return time.Time{}, nil
}

func (r *fakeBarRepo) CountBars(ctx context.Context) (int64, error) {
	return r.count, nil
}

type fakeLauncher struct {
	runID string
	err   error
}

func (l *fakeLauncher) Launch(trigger string) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	return l.runID, nil
}

type routerFixture struct {
	runs     *fakeRunRepo
	reports  *fakeReportRepo
	parts    *fakeCommunityRepo
	edges    *fakeEdgeRepo
	tickers  *fakeTickerRepo
	bars     *fakeBarRepo
	launcher *fakeLauncher
}

func newRouterFixture() *routerFixture {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	finished := now.Add(40 * time.Second)

	return &routerFixture{
		runs: &fakeRunRepo{records: []*contracts.RunRecord{
			{
				RunID: "run_b", Trigger: "manual", Status: contracts.RunStatusCompleted,
				StartedAt: now, FinishedAt: &finished,
				CompletedStages: []string{"S0_INGEST", "S1_SIMILARITY", "S2_COMMUNITY", "S3_TREND", "S4_RECOMMEND"},
			},
			{RunID: "run_a", Trigger: "scheduled", Status: contracts.RunStatusFailed, StartedAt: now.AddDate(0, 0, -1)},
		}},
		reports: &fakeReportRepo{reports: map[string]*contracts.Report{
			"run_b": {
				RunID:   "run_b",
				Tickers: 3,
				Communities: []contracts.CommunityReport{
					{CommunityID: 0, Size: 2, Members: []string{"AAA", "BBB"}, Picks: []contracts.Pick{{Rank: 1, Symbol: "AAA", Slope: 1.5}}},
				},
			},
		}},
		parts: &fakeCommunityRepo{partitions: map[string]*contracts.Partition{
			"run_b": {
				BySymbol:   map[string]int{"AAA": 0, "BBB": 0, "CCC": 1},
				Levels:     1,
				Modularity: 0.31,
			},
		}},
		edges: &fakeEdgeRepo{edges: map[string][]contracts.Edge{
			"run_b": {
				{Source: "AAA", Target: "BBB", Weight: 0.9, Overlap: 30},
				{Source: "BBB", Target: "CCC", Weight: 0.5, Overlap: 28},
			},
		}},
		tickers: &fakeTickerRepo{tickers: []*contracts.Ticker{
			{Symbol: "AAA", Name: "Alpha"},
			{Symbol: "BBB", Name: "Beta"},
		}},
		bars: &fakeBarRepo{
			count: 60,
			series: map[string]*contracts.Series{
				"AAA": {Symbol: "AAA", Bars: []contracts.Bar{
					{Date: now, Close: 10, Volume: 100},
					{Date: now.AddDate(0, 0, 1), Close: 11, Volume: 120},
				}},
			},
		},
		launcher: &fakeLauncher{runID: "run_new"},
	}
}

func (f *routerFixture) router() http.Handler {
	log := logger.NewNop()
	return NewRouter(Deps{
		Health:  handlers.NewHealthHandler(nil, nil, log),
		Summary: handlers.NewSummaryHandler(f.tickers, f.bars, f.runs, nil, log),
		Runs:    handlers.NewRunsHandler(f.runs, f.reports, f.parts, f.edges, f.launcher, nil, log),
		Tickers: handlers.NewTickersHandler(f.tickers, f.bars, log),
		Logger:  log,
	})
}

func doRequest(t *testing.T, router http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, newRouterFixture().router(), "GET", "/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	checks := body["checks"].(map[string]interface{})
	if checks["database"] != "disabled" || checks["redis"] != "disabled" {
		t.Errorf("checks = %v", checks)
	}
}

func TestGetSummary(t *testing.T) {
	rec := doRequest(t, newRouterFixture().router(), "GET", "/api/summary")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["tickers"].(float64) != 2 {
		t.Errorf("tickers = %v", body["tickers"])
	}
	if body["bars"].(float64) != 60 {
		t.Errorf("bars = %v", body["bars"])
	}
	latest := body["latest_run"].(map[string]interface{})
	if latest["run_id"] != "run_b" {
		t.Errorf("latest run = %v", latest["run_id"])
	}
}

func TestListRuns(t *testing.T) {
	router := newRouterFixture().router()

	rec := doRequest(t, router, "GET", "/api/runs")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"].(float64) != 2 {
		t.Errorf("count = %v", body["count"])
	}

	rec = doRequest(t, router, "GET", "/api/runs?limit=1")
	if body := decodeBody(t, rec); body["count"].(float64) != 1 {
		t.Errorf("limited count = %v", body["count"])
	}

	rec = doRequest(t, router, "GET", "/api/runs?limit=abc")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", rec.Code)
	}
}

func TestGetRun(t *testing.T) {
	router := newRouterFixture().router()

	rec := doRequest(t, router, "GET", "/api/runs/run_a")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["run_id"] != "run_a" {
		t.Errorf("run_id = %v", body["run_id"])
	}

	rec = doRequest(t, router, "GET", "/api/runs/run_nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing run status = %d", rec.Code)
	}
}

func TestLatestRun(t *testing.T) {
	f := newRouterFixture()

	rec := doRequest(t, f.router(), "GET", "/api/runs/latest")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["run_id"] != "run_b" {
		t.Errorf("run_id = %v", body["run_id"])
	}

	f.runs.records = nil
	rec = doRequest(t, f.router(), "GET", "/api/runs/latest")
	if rec.Code != http.StatusNotFound {
		t.Errorf("empty latest status = %d", rec.Code)
	}
}

func TestGetRecommendations(t *testing.T) {
	router := newRouterFixture().router()

	rec := doRequest(t, router, "GET", "/api/runs/run_b/recommendations")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["run_id"] != "run_b" {
		t.Errorf("run_id = %v", body["run_id"])
	}
	communities := body["communities"].([]interface{})
	if len(communities) != 1 {
		t.Errorf("communities = %v", communities)
	}

	// "latest" resolves through the run records
	rec = doRequest(t, router, "GET", "/api/runs/latest/recommendations")
	if rec.Code != http.StatusOK {
		t.Fatalf("latest status = %d", rec.Code)
	}

	rec = doRequest(t, router, "GET", "/api/runs/run_a/recommendations")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing report status = %d", rec.Code)
	}
}

func TestGetCommunities(t *testing.T) {
	router := newRouterFixture().router()

	rec := doRequest(t, router, "GET", "/api/runs/run_b/communities")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"].(float64) != 2 {
		t.Errorf("count = %v", body["count"])
	}
	blocks := body["communities"].([]interface{})
	first := blocks[0].(map[string]interface{})
	if first["community_id"].(float64) != 0 || first["size"].(float64) != 2 {
		t.Errorf("first block = %v", first)
	}

	rec = doRequest(t, router, "GET", "/api/runs/run_nope/communities")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing partition status = %d", rec.Code)
	}
}

func TestGetEdges(t *testing.T) {
	router := newRouterFixture().router()

	rec := doRequest(t, router, "GET", "/api/runs/run_b/edges")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["count"].(float64) != 2 {
		t.Errorf("count = %v", body["count"])
	}

	rec = doRequest(t, router, "GET", "/api/runs/run_b/edges?symbol=aaa")
	body := decodeBody(t, rec)
	if body["count"].(float64) != 1 {
		t.Fatalf("filtered count = %v", body["count"])
	}
	edge := body["edges"].([]interface{})[0].(map[string]interface{})
	if edge["source"] != "AAA" {
		t.Errorf("edge = %v", edge)
	}
}

func TestListTickers(t *testing.T) {
	rec := doRequest(t, newRouterFixture().router(), "GET", "/api/tickers")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["count"].(float64) != 2 {
		t.Errorf("count = %v", body["count"])
	}
}

func TestGetBars(t *testing.T) {
	router := newRouterFixture().router()

	rec := doRequest(t, router, "GET", "/api/tickers/aaa/bars")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["symbol"] != "AAA" {
		t.Errorf("symbol = %v", body["symbol"])
	}
	if bars := body["bars"].([]interface{}); len(bars) != 2 {
		t.Errorf("bars = %d", len(bars))
	}

	rec = doRequest(t, router, "GET", "/api/tickers/ZZZ/bars")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown symbol status = %d", rec.Code)
	}

	rec = doRequest(t, router, "GET", "/api/tickers/AAA/bars?from=junk")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d", rec.Code)
	}
}

func TestTriggerRun(t *testing.T) {
	f := newRouterFixture()

	rec := doRequest(t, f.router(), "POST", "/api/runs")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["run_id"] != "run_new" || body["status"] != "accepted" {
		t.Errorf("body = %v", body)
	}

	f.launcher.err = brain.ErrRunInProgress
	rec = doRequest(t, f.router(), "POST", "/api/runs")
	if rec.Code != http.StatusConflict {
		t.Errorf("busy status = %d", rec.Code)
	}

	f.launcher.err = errors.New("boom")
	rec = doRequest(t, f.router(), "POST", "/api/runs")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("failure status = %d", rec.Code)
	}
}

func TestTriggerRun_NoLauncher(t *testing.T) {
	f := newRouterFixture()
	log := logger.NewNop()
	router := NewRouter(Deps{
		Health:  handlers.NewHealthHandler(nil, nil, log),
		Summary: handlers.NewSummaryHandler(f.tickers, f.bars, f.runs, nil, log),
		Runs:    handlers.NewRunsHandler(f.runs, f.reports, f.parts, f.edges, nil, nil, log),
		Tickers: handlers.NewTickersHandler(f.tickers, f.bars, log),
		Logger:  log,
	})

	rec := doRequest(t, router, "POST", "/api/runs")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	f := newRouterFixture()
	f.runs.listErr = errors.New("repo exploded")

	rec := doRequest(t, f.router(), "GET", "/api/runs")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Internal server error" {
		t.Errorf("body = %v", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := doRequest(t, newRouterFixture().router(), "DELETE", "/api/runs")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}
