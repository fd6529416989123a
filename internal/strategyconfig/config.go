package strategyconfig

// Edge policies for S1 similarity selection
const (
	EdgePolicyMagnitude = "MAGNITUDE" // rank and admit peers by |r|
	EdgePolicyPositive  = "POSITIVE"  // admit only r >= cutoff
)

// Report ordering modes for S4
const (
	OrderCommunityID = "COMMUNITY_ID"
	OrderSize        = "SIZE"
)

// Config is the full analysis strategy configuration
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Similarity Similarity `yaml:"similarity" json:"similarity"`
	Community  Community  `yaml:"community" json:"community"`
	Trend      Trend      `yaml:"trend" json:"trend"`
	Recommend  Recommend  `yaml:"recommend" json:"recommend"`
}

// Meta identifies the strategy for run records
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Similarity S1: correlation graph construction
type Similarity struct {
	TopK       int     `yaml:"top_k" json:"top_k"`
	Cutoff     float64 `yaml:"cutoff" json:"cutoff"`
	EdgePolicy string  `yaml:"edge_policy" json:"edge_policy"` // MAGNITUDE | POSITIVE
	MinOverlap int     `yaml:"min_overlap" json:"min_overlap"`
}

// UseMagnitude reports whether peers rank by absolute correlation
func (s Similarity) UseMagnitude() bool {
	return s.EdgePolicy == EdgePolicyMagnitude
}

// Community S2: Louvain detection bounds
type Community struct {
	MaxLevels int     `yaml:"max_levels" json:"max_levels"`
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
}

// Trend S3: slope scoring
type Trend struct {
	MinDays int `yaml:"min_days" json:"min_days"`
}

// Recommend S4: community-relative picks
type Recommend struct {
	TopN  int    `yaml:"top_n" json:"top_n"`
	Order string `yaml:"order" json:"order"` // COMMUNITY_ID | SIZE
}

// Default returns the built-in strategy used when no YAML is given
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "correlation_communities_v1",
			Version:    "1.0.0",
		},
		Similarity: Similarity{
			TopK:       3,
			Cutoff:     0.2,
			EdgePolicy: EdgePolicyMagnitude,
			MinOverlap: 2,
		},
		Community: Community{
			MaxLevels: 10,
			Tolerance: 0.0001,
		},
		Trend: Trend{
			MinDays: 2,
		},
		Recommend: Recommend{
			TopN:  3,
			Order: OrderCommunityID,
		},
	}
}
