package s1_similarity

import (
	"context"
	"sort"
	"sync"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/internal/strategyconfig"
	"github.com/wonny/prism/pkg/logger"
)

// Builder implements contracts.GraphBuilder: pairwise Pearson over the
// dataset, then per-ticker top-k edge selection.
type Builder struct {
	cfg     strategyconfig.Similarity
	workers int
	logger  *logger.Logger
}

// NewBuilder creates a graph builder. workers < 1 means sequential.
func NewBuilder(cfg strategyconfig.Similarity, workers int, log *logger.Logger) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		cfg:     cfg,
		workers: workers,
		logger:  log.Component("similarity"),
	}
}

// candidate is one scored peer of a ticker
type candidate struct {
	peer    string
	r       float64
	overlap int
}

// pairResult carries one unordered pair's outcome off the worker pool
type pairResult struct {
	a, b    string
	r       float64
	overlap int
	skipped string // "" | "overlap" | "variance"
}

// Build computes the similarity graph for the dataset
func (b *Builder) Build(ctx context.Context, set *contracts.SeriesSet) (*contracts.SimilarityGraph, *contracts.Diagnostics, error) {
	symbols := set.Symbols
	diags := contracts.NewDiagnostics()

	results, err := b.computePairs(ctx, set)
	if err != nil {
		return nil, nil, err
	}

	// Regroup pair results into per-ticker candidate lists
	candidates := make(map[string][]candidate, len(symbols))
	for _, res := range results {
		switch res.skipped {
		case "overlap":
			diags.PairsSkippedOverlap++
		case "variance":
			diags.PairsSkippedVariance++
		default:
			candidates[res.a] = append(candidates[res.a], candidate{peer: res.b, r: res.r, overlap: res.overlap})
			candidates[res.b] = append(candidates[res.b], candidate{peer: res.a, r: res.r, overlap: res.overlap})
		}
	}

	edges := b.selectEdges(symbols, candidates)

	graph := &contracts.SimilarityGraph{
		Symbols: symbols,
		Edges:   edges,
	}

	b.logger.WithFields(map[string]interface{}{
		"tickers":          len(symbols),
		"edges":            len(edges),
		"skipped_overlap":  diags.PairsSkippedOverlap,
		"skipped_variance": diags.PairsSkippedVariance,
	}).Info("Similarity graph built")

	return graph, diags, nil
}

// computePairs evaluates every unordered symbol pair, fanning rows out
// over the worker pool. Result order is irrelevant downstream.
func (b *Builder) computePairs(ctx context.Context, set *contracts.SeriesSet) ([]pairResult, error) {
	symbols := set.Symbols
	n := len(symbols)
	if n < 2 {
		return nil, nil
	}

	rowCh := make(chan int, n)
	resultCh := make(chan pairResult, 64)

	var wg sync.WaitGroup
	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rowCh {
				seriesA := set.Series[symbols[i]]
				for j := i + 1; j < n; j++ {
					select {
					case <-ctx.Done():
						return
					default:
					}
					resultCh <- b.evalPair(symbols[i], symbols[j], seriesA, set.Series[symbols[j]])
				}
			}
		}()
	}

	go func() {
		for i := 0; i < n; i++ {
			rowCh <- i
		}
		close(rowCh)
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]pairResult, 0, n*(n-1)/2)
	for res := range resultCh {
		results = append(results, res)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// evalPair aligns two series and computes their correlation
func (b *Builder) evalPair(symA, symB string, a, bs *contracts.Series) pairResult {
	x, y := alignByDate(a, bs)

	if len(x) < b.cfg.MinOverlap {
		return pairResult{a: symA, b: symB, skipped: "overlap"}
	}

	r, ok := pearson(x, y)
	if !ok {
		return pairResult{a: symA, b: symB, skipped: "variance"}
	}

	return pairResult{a: symA, b: symB, r: r, overlap: len(x)}
}

// strength maps a correlation to its ranking strength under the policy
func (b *Builder) strength(r float64) float64 {
	if b.cfg.UseMagnitude() {
		if r < 0 {
			return -r
		}
		return r
	}
	return r
}

// selectEdges keeps each ticker's top-k qualifying peers and unions the
// kept links into the undirected edge set.
func (b *Builder) selectEdges(symbols []string, candidates map[string][]candidate) []contracts.Edge {
	type pairKey struct{ a, b string }
	kept := make(map[pairKey]contracts.Edge)

	for _, symbol := range symbols {
		cands := candidates[symbol]

		// Rank by strength descending, ties to the smaller peer symbol
		sort.Slice(cands, func(i, j int) bool {
			si, sj := b.strength(cands[i].r), b.strength(cands[j].r)
			if si != sj {
				return si > sj
			}
			return cands[i].peer < cands[j].peer
		})

		taken := 0
		for _, cand := range cands {
			if taken >= b.cfg.TopK {
				break
			}
			if b.strength(cand.r) < b.cfg.Cutoff {
				// Sorted by strength, nothing below qualifies either
				break
			}
			taken++

			a, c := symbol, cand.peer
			if c < a {
				a, c = c, a
			}
			key := pairKey{a, c}
			if _, exists := kept[key]; exists {
				// Same pairwise computation from the other side
				continue
			}
			kept[key] = contracts.Edge{
				Source:  a,
				Target:  c,
				Weight:  cand.r,
				Overlap: cand.overlap,
			}
		}
	}

	edges := make([]contracts.Edge, 0, len(kept))
	for _, edge := range kept {
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return edges
}
