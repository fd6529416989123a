package contracts

import "context"

// DatasetLoader constructs the per-ticker dataset (S0)
type DatasetLoader interface {
	Load(ctx context.Context) (*SeriesSet, *IngestReport, error)
}

// GraphBuilder builds the correlation graph (S1)
type GraphBuilder interface {
	Build(ctx context.Context, set *SeriesSet) (*SimilarityGraph, *Diagnostics, error)
}

// CommunityDetector partitions the graph into communities (S2)
type CommunityDetector interface {
	Detect(ctx context.Context, graph *SimilarityGraph) (*Partition, error)
}

// TrendScorer computes per-ticker trend slopes (S3)
type TrendScorer interface {
	Score(ctx context.Context, set *SeriesSet) ([]TrendScore, *Diagnostics, error)
}

// Recommender produces community-relative picks (S4)
type Recommender interface {
	Recommend(ctx context.Context, partition *Partition, trends []TrendScore) ([]CommunityReport, error)
}

// ProgressSink receives pipeline progress events as they happen.
// Implementations must not block; slow consumers drop events.
type ProgressSink interface {
	Publish(event ProgressEvent)
}

// ProgressEvent is one pipeline progress notification
type ProgressEvent struct {
	Type    string `json:"type"`
	RunID   string `json:"run_id"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// Progress event types
const (
	EventRunStarted     = "run_started"
	EventStageStarted   = "stage_started"
	EventStageCompleted = "stage_completed"
	EventRunCompleted   = "run_completed"
	EventRunFailed      = "run_failed"
)
