package contracts

// Stage represents a pipeline stage
type Stage string

const (
	// StageIngest S0: dataset construction
	// Responsibility: CSV/remote bar loading, validation, day indexing, quality snapshot
	// Location: internal/s0_ingest/
	StageIngest Stage = "S0_INGEST"

	// StageSimilarity S1: correlation graph
	// Responsibility: pairwise Pearson over date-aligned closes, top-k edge selection
	// Location: internal/s1_similarity/
	StageSimilarity Stage = "S1_SIMILARITY"

	// StageCommunity S2: community detection
	// Responsibility: Louvain over the similarity graph, canonical community ids
	// Location: internal/s2_community/
	StageCommunity Stage = "S2_COMMUNITY"

	// StageTrend S3: trend scoring
	// Responsibility: OLS slope of close against day index per ticker
	// Location: internal/s3_trend/
	StageTrend Stage = "S3_TREND"

	// StageRecommend S4: community-relative picks
	// Responsibility: group by community, rank by slope, top-N selection
	// Location: internal/s4_recommend/
	StageRecommend Stage = "S4_RECOMMEND"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageIngest:
		return "S0"
	case StageSimilarity:
		return "S1"
	case StageCommunity:
		return "S2"
	case StageTrend:
		return "S3"
	case StageRecommend:
		return "S4"
	default:
		return "UNKNOWN"
	}
}

// Description returns a human readable description of the stage
func (s Stage) Description() string {
	switch s {
	case StageIngest:
		return "dataset construction"
	case StageSimilarity:
		return "correlation graph"
	case StageCommunity:
		return "community detection"
	case StageTrend:
		return "trend scoring"
	case StageRecommend:
		return "recommendations"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageIngest,
		StageSimilarity,
		StageCommunity,
		StageTrend,
		StageRecommend,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// StageResult represents the result of a single stage execution
type StageResult struct {
	Stage       Stage  `json:"stage"`
	Success     bool   `json:"success"`
	InputCount  int    `json:"input_count"`
	OutputCount int    `json:"output_count"`
	Duration    int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}
