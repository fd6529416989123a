package s2_community

import (
	"context"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/internal/strategyconfig"
	"github.com/wonny/prism/pkg/logger"
)

// Detector implements contracts.CommunityDetector with weighted Louvain
// over the similarity graph. Edge weights enter the modularity math as
// |r| under the MAGNITUDE policy and as the signed r under POSITIVE.
type Detector struct {
	cfg          strategyconfig.Community
	useMagnitude bool
	logger       *logger.Logger
}

// NewDetector creates a new community detector
func NewDetector(cfg strategyconfig.Community, similarity strategyconfig.Similarity, log *logger.Logger) *Detector {
	if cfg.MaxLevels < 1 {
		cfg.MaxLevels = 10
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 0.0001
	}
	return &Detector{
		cfg:          cfg,
		useMagnitude: similarity.UseMagnitude(),
		logger:       log.Component("community"),
	}
}

// Detect partitions the graph into communities. Every ticker lands in
// exactly one community; tickers without edges become singletons. Ids
// are contiguous from 0, ordered by each community's smallest symbol.
func (d *Detector) Detect(ctx context.Context, graph *contracts.SimilarityGraph) (*contracts.Partition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	symbols := graph.Symbols
	n := len(symbols)
	if n == 0 {
		return &contracts.Partition{BySymbol: map[string]int{}}, nil
	}

	index := make(map[string]int, n)
	for i, sym := range symbols {
		index[sym] = i
	}

	base := newWeightedGraph(n)
	for _, e := range graph.Edges {
		w := e.Weight
		if d.useMagnitude {
			w = e.Magnitude()
		}
		base.addEdge(index[e.Source], index[e.Target], w)
	}

	// assign carries each original node's community through the levels
	assign := make([]int, n)
	for i := range assign {
		assign[i] = i
	}

	g := base
	levels := 0
	for level := 0; level < d.cfg.MaxLevels; level++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		comm, moved := g.localMove(d.cfg.Tolerance)
		comm, k := renumber(comm)
		for i := range assign {
			assign[i] = comm[assign[i]]
		}
		levels++

		// A level that merges nothing ends the climb
		if !moved || k == g.n {
			break
		}
		g = g.aggregate(comm, k)
	}

	partition := &contracts.Partition{
		BySymbol:   canonicalize(symbols, assign),
		Levels:     levels,
		Modularity: base.modularity(assign),
	}

	d.logger.WithFields(map[string]interface{}{
		"tickers":     n,
		"edges":       graph.EdgeCount(),
		"communities": partition.CommunityCount(),
		"levels":      partition.Levels,
		"modularity":  partition.Modularity,
	}).Info("Communities detected")

	return partition, nil
}

// canonicalize relabels communities 0..K-1 ordered by each community's
// lexicographically smallest member. Symbols arrive sorted, so first
// occurrence order is exactly that.
func canonicalize(symbols []string, assign []int) map[string]int {
	remap := make(map[int]int, len(assign))
	out := make(map[string]int, len(symbols))
	next := 0
	for i, sym := range symbols {
		id, ok := remap[assign[i]]
		if !ok {
			id = next
			remap[assign[i]] = id
			next++
		}
		out[sym] = id
	}
	return out
}
