package contracts

import "math"

// Edge is an undirected similarity edge between two tickers.
// Source is always the lexicographically smaller symbol.
type Edge struct {
	Source  string  `json:"source"`
	Target  string  `json:"target"`
	Weight  float64 `json:"weight"`  // signed Pearson correlation
	Overlap int     `json:"overlap"` // shared trading dates
}

// Magnitude returns the absolute edge weight
func (e Edge) Magnitude() float64 {
	return math.Abs(e.Weight)
}

// Touches reports whether the edge is incident to the symbol
func (e Edge) Touches(symbol string) bool {
	return e.Source == symbol || e.Target == symbol
}

// Other returns the opposite endpoint, or "" if symbol is not an endpoint
func (e Edge) Other(symbol string) string {
	switch symbol {
	case e.Source:
		return e.Target
	case e.Target:
		return e.Source
	default:
		return ""
	}
}

// SimilarityGraph holds every ingested ticker (isolated ones included)
// and the deduplicated edge set, both in deterministic order.
type SimilarityGraph struct {
	Symbols []string `json:"symbols"` // sorted ascending
	Edges   []Edge   `json:"edges"`   // sorted by (Source, Target)
}

// NodeCount returns the number of tickers in the graph
func (g *SimilarityGraph) NodeCount() int {
	return len(g.Symbols)
}

// EdgeCount returns the number of edges in the graph
func (g *SimilarityGraph) EdgeCount() int {
	return len(g.Edges)
}

// EdgesOf returns the edges incident to a symbol, in stored order
func (g *SimilarityGraph) EdgesOf(symbol string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Touches(symbol) {
			out = append(out, e)
		}
	}
	return out
}

// Isolated returns the symbols with no incident edges, sorted ascending
func (g *SimilarityGraph) Isolated() []string {
	connected := make(map[string]bool, len(g.Symbols))
	for _, e := range g.Edges {
		connected[e.Source] = true
		connected[e.Target] = true
	}
	var out []string
	for _, sym := range g.Symbols {
		if !connected[sym] {
			out = append(out, sym)
		}
	}
	return out
}
