package s1_similarity

import (
	"context"
	"testing"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/internal/strategyconfig"
	"github.com/wonny/prism/pkg/logger"
)

func testConfig() strategyconfig.Similarity {
	return strategyconfig.Similarity{
		TopK:       2,
		Cutoff:     0.2,
		EdgePolicy: strategyconfig.EdgePolicyMagnitude,
		MinOverlap: 2,
	}
}

func buildGraph(t *testing.T, cfg strategyconfig.Similarity, workers int, series ...*contracts.Series) (*contracts.SimilarityGraph, *contracts.Diagnostics) {
	t.Helper()

	b := NewBuilder(cfg, workers, logger.NewNop())
	graph, diags, err := b.Build(context.Background(), contracts.NewSeriesSet(series))
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return graph, diags
}

func edgeKeys(graph *contracts.SimilarityGraph) []string {
	keys := make([]string, 0, len(graph.Edges))
	for _, e := range graph.Edges {
		keys = append(keys, e.Source+"-"+e.Target)
	}
	return keys
}

func TestBuild_CorrelatedTriple(t *testing.T) {
	start := day(2026, 1, 2)
	graph, diags := buildGraph(t, testConfig(), 1,
		seriesOf("AAA", start, 1, 2, 3, 4, 5),
		seriesOf("BBB", start, 2, 4, 6, 8, 10),
		seriesOf("CCC", start, 5, 4, 3, 2, 1),
	)

	if graph.NodeCount() != 3 {
		t.Fatalf("nodes = %d, want 3", graph.NodeCount())
	}

	// Every pair is perfectly linear, so all three edges survive
	want := map[string]float64{
		"AAA-BBB": 1.0,
		"AAA-CCC": -1.0,
		"BBB-CCC": -1.0,
	}
	if graph.EdgeCount() != len(want) {
		t.Fatalf("edges = %v, want 3", edgeKeys(graph))
	}
	for _, e := range graph.Edges {
		key := e.Source + "-" + e.Target
		w, ok := want[key]
		if !ok {
			t.Errorf("unexpected edge %s", key)
			continue
		}
		if !almostEqual(e.Weight, w) {
			t.Errorf("edge %s weight = %v, want %v", key, e.Weight, w)
		}
		if e.Overlap != 5 {
			t.Errorf("edge %s overlap = %d, want 5", key, e.Overlap)
		}
	}

	if diags.PairsSkippedOverlap != 0 || diags.PairsSkippedVariance != 0 {
		t.Errorf("unexpected skips: %+v", diags)
	}
}

func TestBuild_PositivePolicyDropsInverse(t *testing.T) {
	cfg := testConfig()
	cfg.EdgePolicy = strategyconfig.EdgePolicyPositive

	start := day(2026, 1, 2)
	graph, _ := buildGraph(t, cfg, 1,
		seriesOf("AAA", start, 1, 2, 3, 4, 5),
		seriesOf("BBB", start, 2, 4, 6, 8, 10),
		seriesOf("CCC", start, 5, 4, 3, 2, 1),
	)

	// Negative correlations rank below the cutoff under POSITIVE
	if got := edgeKeys(graph); len(got) != 1 || got[0] != "AAA-BBB" {
		t.Fatalf("edges = %v, want [AAA-BBB]", got)
	}
	if !almostEqual(graph.Edges[0].Weight, 1.0) {
		t.Errorf("weight = %v, want 1.0", graph.Edges[0].Weight)
	}
}

func TestBuild_EdgesSorted(t *testing.T) {
	start := day(2026, 1, 2)
	graph, _ := buildGraph(t, testConfig(), 1,
		seriesOf("DDD", start, 1, 2, 3, 4, 5),
		seriesOf("AAA", start, 2, 4, 6, 8, 10),
		seriesOf("CCC", start, 3, 6, 9, 12, 15),
	)

	want := []string{"AAA-CCC", "AAA-DDD", "CCC-DDD"}
	got := edgeKeys(graph)
	if len(got) != len(want) {
		t.Fatalf("edges = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("edges = %v, want %v", got, want)
		}
	}
	for _, e := range graph.Edges {
		if e.Source >= e.Target {
			t.Errorf("edge %s-%s not normalized", e.Source, e.Target)
		}
	}
}

func TestBuild_TopKTieBreak(t *testing.T) {
	// Four identical trends: every pair correlates at exactly +1.0,
	// so top-k selection falls back to the lexicographic tie-break.
	cfg := testConfig()
	start := day(2026, 1, 2)
	graph, _ := buildGraph(t, cfg, 1,
		seriesOf("PPP", start, 1, 2, 3, 4, 5),
		seriesOf("QQQ", start, 10, 20, 30, 40, 50),
		seriesOf("RRR", start, 5, 10, 15, 20, 25),
		seriesOf("SSS", start, 2, 4, 6, 8, 10),
	)

	// Each ticker keeps its two smallest peers; RRR-SSS is the one
	// pair neither endpoint admits.
	want := []string{"PPP-QQQ", "PPP-RRR", "PPP-SSS", "QQQ-RRR", "QQQ-SSS"}
	got := edgeKeys(graph)
	if len(got) != len(want) {
		t.Fatalf("edges = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("edges = %v, want %v", got, want)
		}
	}
}

func TestBuild_CutoffExcludesWeakPairs(t *testing.T) {
	cfg := testConfig()
	cfg.Cutoff = 0.9

	start := day(2026, 1, 2)
	graph, _ := buildGraph(t, cfg, 1,
		seriesOf("AAA", start, 1, 2, 3, 4, 5),
		seriesOf("BBB", start, 2, 4, 6, 8, 10),
		seriesOf("ZZZ", start, 3, 1, 4, 1, 5),
	)

	for _, e := range graph.Edges {
		if e.Magnitude() < cfg.Cutoff {
			t.Errorf("edge %s-%s magnitude %v below cutoff", e.Source, e.Target, e.Magnitude())
		}
	}
	if got := edgeKeys(graph); len(got) != 1 || got[0] != "AAA-BBB" {
		t.Fatalf("edges = %v, want [AAA-BBB]", got)
	}
}

func TestBuild_MinOverlapSkip(t *testing.T) {
	cfg := testConfig()
	cfg.MinOverlap = 3

	start := day(2026, 1, 2)
	graph, diags := buildGraph(t, cfg, 1,
		seriesOf("AAA", start, 1, 2, 3, 4, 5),
		// Two shared dates only, below the overlap floor
		seriesOf("BBB", start.AddDate(0, 0, 3), 7, 9),
	)

	if graph.EdgeCount() != 0 {
		t.Fatalf("edges = %v, want none", edgeKeys(graph))
	}
	if diags.PairsSkippedOverlap != 1 {
		t.Errorf("pairs skipped for overlap = %d, want 1", diags.PairsSkippedOverlap)
	}
}

func TestBuild_ZeroVarianceSkip(t *testing.T) {
	start := day(2026, 1, 2)
	graph, diags := buildGraph(t, testConfig(), 1,
		seriesOf("AAA", start, 1, 2, 3, 4, 5),
		seriesOf("FLT", start, 9, 9, 9, 9, 9),
	)

	if graph.EdgeCount() != 0 {
		t.Fatalf("edges = %v, want none", edgeKeys(graph))
	}
	if diags.PairsSkippedVariance != 1 {
		t.Errorf("pairs skipped for variance = %d, want 1", diags.PairsSkippedVariance)
	}

	// The flat ticker still appears in the graph as an isolated node
	isolated := graph.Isolated()
	if len(isolated) != 2 {
		t.Errorf("isolated = %v, want both tickers", isolated)
	}
}

func TestBuild_IsolatedTickerKept(t *testing.T) {
	start := day(2026, 1, 2)
	graph, _ := buildGraph(t, testConfig(), 1,
		seriesOf("AAA", start, 1, 2, 3, 4, 5),
		seriesOf("BBB", start, 2, 4, 6, 8, 10),
		// No shared dates with the others
		seriesOf("LON", start.AddDate(0, 0, 30), 4, 5, 6),
	)

	if graph.NodeCount() != 3 {
		t.Fatalf("nodes = %d, want 3", graph.NodeCount())
	}
	isolated := graph.Isolated()
	if len(isolated) != 1 || isolated[0] != "LON" {
		t.Errorf("isolated = %v, want [LON]", isolated)
	}
}

func TestBuild_SingleTicker(t *testing.T) {
	graph, diags := buildGraph(t, testConfig(), 1,
		seriesOf("AAA", day(2026, 1, 2), 1, 2, 3),
	)

	if graph.NodeCount() != 1 || graph.EdgeCount() != 0 {
		t.Fatalf("graph = %d nodes %d edges, want 1/0", graph.NodeCount(), graph.EdgeCount())
	}
	if diags.HasFindings() {
		t.Errorf("unexpected findings: %+v", diags)
	}
}

func TestBuild_DeterministicAcrossWorkers(t *testing.T) {
	start := day(2026, 1, 2)
	mk := func() []*contracts.Series {
		return []*contracts.Series{
			seriesOf("AAA", start, 1, 2, 3, 4, 5, 6, 7),
			seriesOf("BBB", start, 2, 4, 6, 8, 10, 12, 14),
			seriesOf("CCC", start, 7, 6, 5, 4, 3, 2, 1),
			seriesOf("DDD", start, 1, 3, 2, 5, 4, 7, 6),
			seriesOf("EEE", start, 10, 11, 9, 12, 8, 13, 7),
		}
	}

	base, _ := buildGraph(t, testConfig(), 1, mk()...)
	for _, workers := range []int{2, 4, 8} {
		graph, _ := buildGraph(t, testConfig(), workers, mk()...)
		if graph.EdgeCount() != base.EdgeCount() {
			t.Fatalf("workers=%d edges = %v, want %v", workers, edgeKeys(graph), edgeKeys(base))
		}
		for i, e := range graph.Edges {
			if e != base.Edges[i] {
				t.Fatalf("workers=%d edge %d = %+v, want %+v", workers, i, e, base.Edges[i])
			}
		}
	}
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := day(2026, 1, 2)
	series := []*contracts.Series{
		seriesOf("AAA", start, 1, 2, 3, 4, 5),
		seriesOf("BBB", start, 2, 4, 6, 8, 10),
	}

	b := NewBuilder(testConfig(), 2, logger.NewNop())
	if _, _, err := b.Build(ctx, contracts.NewSeriesSet(series)); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
