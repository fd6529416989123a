package s2_community

import "sort"

// maxSweeps caps the local-moving passes of one level
const maxSweeps = 100

// weightedGraph is the undirected working graph for one Louvain level.
// Nodes are dense indices 0..n-1; aggregation folds each community into
// a single node and its internal weight into a self loop.
type weightedGraph struct {
	n    int
	adj  []map[int]float64 // symmetric, no self entries
	self []float64         // self-loop weight
	deg  []float64         // weighted degree, self loops count twice
	m    float64           // total edge weight, self loops included once
}

func newWeightedGraph(n int) *weightedGraph {
	g := &weightedGraph{
		n:    n,
		adj:  make([]map[int]float64, n),
		self: make([]float64, n),
		deg:  make([]float64, n),
	}
	for i := range g.adj {
		g.adj[i] = make(map[int]float64)
	}
	return g
}

func (g *weightedGraph) addEdge(a, b int, w float64) {
	if a == b {
		g.self[a] += w
		g.deg[a] += 2 * w
		g.m += w
		return
	}
	g.adj[a][b] += w
	g.adj[b][a] += w
	g.deg[a] += w
	g.deg[b] += w
	g.m += w
}

// nbrs returns i's neighbor indices in ascending order. Every float
// accumulation walks neighbors through this, keeping results identical
// across runs regardless of map iteration order.
func (g *weightedGraph) nbrs(i int) []int {
	out := make([]int, 0, len(g.adj[i]))
	for j := range g.adj[i] {
		out = append(out, j)
	}
	sort.Ints(out)
	return out
}

// localMove runs greedy modularity sweeps until no node moves. Nodes are
// visited in ascending index order and candidate communities evaluated in
// ascending id, so equal gains always resolve the same way. A node only
// moves when the modularity gain exceeds minGain.
func (g *weightedGraph) localMove(minGain float64) ([]int, bool) {
	comm := make([]int, g.n)
	sumTot := make([]float64, g.n)
	neighbors := make([][]int, g.n)
	for i := 0; i < g.n; i++ {
		comm[i] = i
		sumTot[i] = g.deg[i]
		neighbors[i] = g.nbrs(i)
	}
	if g.m == 0 {
		return comm, false
	}

	moved := false
	for sweep := 0; sweep < maxSweeps; sweep++ {
		movedInSweep := false

		for i := 0; i < g.n; i++ {
			ci := comm[i]

			// Edge weight from i into each neighboring community
			nbw := make(map[int]float64, len(neighbors[i]))
			for _, j := range neighbors[i] {
				nbw[comm[j]] += g.adj[i][j]
			}

			candidates := make([]int, 0, len(nbw))
			for c := range nbw {
				candidates = append(candidates, c)
			}
			sort.Ints(candidates)

			// Take i out of its community before comparing placements
			sumTot[ci] -= g.deg[i]
			stay := g.gain(nbw[ci], sumTot[ci], g.deg[i])

			best := ci
			bestDelta := 0.0
			for _, c := range candidates {
				if c == ci {
					continue
				}
				delta := g.gain(nbw[c], sumTot[c], g.deg[i]) - stay
				if delta > minGain && delta > bestDelta {
					best = c
					bestDelta = delta
				}
			}

			sumTot[best] += g.deg[i]
			if best != ci {
				comm[i] = best
				movedInSweep = true
				moved = true
			}
		}

		if !movedInSweep {
			break
		}
	}
	return comm, moved
}

// gain is the modularity delta of joining a community, relative to the
// node sitting alone: kIn/m - sumTot*deg/(2m^2).
func (g *weightedGraph) gain(kIn, sumTot, deg float64) float64 {
	return (kIn - sumTot*deg/(2*g.m)) / g.m
}

// modularity scores a partition of this graph
func (g *weightedGraph) modularity(comm []int) float64 {
	if g.m == 0 {
		return 0
	}

	maxID := 0
	for _, c := range comm {
		if c > maxID {
			maxID = c
		}
	}
	in := make([]float64, maxID+1)
	tot := make([]float64, maxID+1)

	for i := 0; i < g.n; i++ {
		tot[comm[i]] += g.deg[i]
		in[comm[i]] += g.self[i]
		for _, j := range g.nbrs(i) {
			if j > i && comm[j] == comm[i] {
				in[comm[i]] += g.adj[i][j]
			}
		}
	}

	q := 0.0
	for c := range tot {
		half := tot[c] / (2 * g.m)
		q += in[c]/g.m - half*half
	}
	return q
}

// aggregate folds each community into a single node of a smaller graph.
// Internal edges become self loops; parallel cross edges sum.
func (g *weightedGraph) aggregate(comm []int, k int) *weightedGraph {
	agg := newWeightedGraph(k)
	for i := 0; i < g.n; i++ {
		if g.self[i] != 0 {
			agg.addEdge(comm[i], comm[i], g.self[i])
		}
		for _, j := range g.nbrs(i) {
			if j > i {
				agg.addEdge(comm[i], comm[j], g.adj[i][j])
			}
		}
	}
	return agg
}

// renumber maps community ids to 0..k-1 ordered by smallest member index
func renumber(comm []int) ([]int, int) {
	remap := make(map[int]int, len(comm))
	out := make([]int, len(comm))
	next := 0
	for i, c := range comm {
		id, ok := remap[c]
		if !ok {
			id = next
			remap[c] = id
			next++
		}
		out[i] = id
	}
	return out, next
}
