package contracts

import "time"

// Pick is one recommended ticker within a community
type Pick struct {
	Rank   int     `json:"rank"` // 1-based within the community
	Symbol string  `json:"symbol"`
	Slope  float64 `json:"slope"`
}

// CommunityReport is one community's block in the final report
type CommunityReport struct {
	CommunityID int      `json:"community_id"`
	Size        int      `json:"size"`
	Members     []string `json:"members"`
	Picks       []Pick   `json:"picks"`
}

// Report is the final pipeline output: per-community picks plus the
// run metadata and accumulated diagnostics.
type Report struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	ConfigHash  string            `json:"config_hash"`
	Tickers     int               `json:"tickers"`
	Edges       int               `json:"edges"`
	Modularity  float64           `json:"modularity"`
	Communities []CommunityReport `json:"communities"`
	Diagnostics *Diagnostics      `json:"diagnostics,omitempty"`
}

// Community returns the block for a community id, or nil
func (r *Report) Community(id int) *CommunityReport {
	for i := range r.Communities {
		if r.Communities[i].CommunityID == id {
			return &r.Communities[i]
		}
	}
	return nil
}

// PickCount returns the total number of picks across communities
func (r *Report) PickCount() int {
	total := 0
	for _, c := range r.Communities {
		total += len(c.Picks)
	}
	return total
}
