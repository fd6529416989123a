package contracts

import "sort"

// Partition assigns every ticker to exactly one community.
// Community ids are canonical: contiguous from 0, ordered by each
// community's lexicographically smallest member symbol.
type Partition struct {
	BySymbol   map[string]int `json:"by_symbol"`
	Levels     int            `json:"levels"`
	Modularity float64        `json:"modularity"`
}

// CommunityCount returns the number of distinct communities
func (p *Partition) CommunityCount() int {
	seen := make(map[int]bool, len(p.BySymbol))
	for _, id := range p.BySymbol {
		seen[id] = true
	}
	return len(seen)
}

// CommunityIDs returns the distinct community ids sorted ascending
func (p *Partition) CommunityIDs() []int {
	seen := make(map[int]bool, len(p.BySymbol))
	for _, id := range p.BySymbol {
		seen[id] = true
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Members returns the symbols in a community, sorted ascending
func (p *Partition) Members(id int) []string {
	var members []string
	for sym, cid := range p.BySymbol {
		if cid == id {
			members = append(members, sym)
		}
	}
	sort.Strings(members)
	return members
}

// Communities returns every community with sorted members
func (p *Partition) Communities() map[int][]string {
	out := make(map[int][]string)
	for sym, id := range p.BySymbol {
		out[id] = append(out[id], sym)
	}
	for id := range out {
		sort.Strings(out[id])
	}
	return out
}

// Covers reports whether the partition assigns every given symbol exactly once
func (p *Partition) Covers(symbols []string) bool {
	if len(p.BySymbol) != len(symbols) {
		return false
	}
	for _, sym := range symbols {
		if _, ok := p.BySymbol[sym]; !ok {
			return false
		}
	}
	return true
}
