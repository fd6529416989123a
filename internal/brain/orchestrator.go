package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/internal/s0_ingest"
	"github.com/wonny/prism/pkg/logger"
	"github.com/wonny/prism/pkg/metrics"
)

// Repos bundles the per-run artifact repositories. The zero value
// disables persistence, which covers CSV-only runs without a database.
type Repos struct {
	Edges       contracts.EdgeRepository
	Communities contracts.CommunityRepository
	Trends      contracts.TrendRepository
	Reports     contracts.ReportRepository
	Runs        contracts.RunRepository
}

// Orchestrator coordinates the entire 5-stage pipeline
type Orchestrator struct {
	gate        *s0_ingest.QualityGate
	builder     contracts.GraphBuilder
	detector    contracts.CommunityDetector
	scorer      contracts.TrendScorer
	recommender contracts.Recommender

	repos Repos
	sink  contracts.ProgressSink

	logger *logger.Logger
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	RunID      string
	Trigger    string // manual | scheduled | api
	GitSHA     string
	ConfigHash string
	Loader     contracts.DatasetLoader
	DryRun     bool // skip all persistence
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID           string
	Trigger         string
	Success         bool
	Error           error
	CompletedStages []string
	IngestReport    *contracts.IngestReport
	Quality         *contracts.QualitySnapshot
	Set             *contracts.SeriesSet
	Graph           *contracts.SimilarityGraph
	Partition       *contracts.Partition
	Trends          []contracts.TrendScore
	Report          *contracts.Report
	Diagnostics     *contracts.Diagnostics
	Duration        time.Duration
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	gate *s0_ingest.QualityGate,
	builder contracts.GraphBuilder,
	detector contracts.CommunityDetector,
	scorer contracts.TrendScorer,
	recommender contracts.Recommender,
	repos Repos,
	sink contracts.ProgressSink,
	log *logger.Logger,
) *Orchestrator {
	if sink == nil {
		sink = NopSink{}
	}
	return &Orchestrator{
		gate:        gate,
		builder:     builder,
		detector:    detector,
		scorer:      scorer,
		recommender: recommender,
		repos:       repos,
		sink:        sink,
		logger:      log.Component("brain"),
	}
}

// Run executes the complete pipeline S0 → S1 → S2 → S3 → S4
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	startTime := time.Now()

	if config.RunID == "" {
		config.RunID = GenerateRunID()
	}
	if config.Trigger == "" {
		config.Trigger = contracts.TriggerManual
	}
	persist := !config.DryRun && o.repos.Runs != nil

	result := &RunResult{
		RunID:           config.RunID,
		Trigger:         config.Trigger,
		CompletedStages: make([]string, 0, len(contracts.AllStages())),
		Diagnostics:     contracts.NewDiagnostics(),
	}

	record := &contracts.RunRecord{
		RunID:      config.RunID,
		Trigger:    config.Trigger,
		Status:     contracts.RunStatusRunning,
		ConfigHash: config.ConfigHash,
		GitSHA:     config.GitSHA,
		StartedAt:  startTime,
	}
	if persist {
		if err := o.repos.Runs.Create(ctx, record); err != nil {
			return o.fail(ctx, result, record, persist, fmt.Errorf("create run record: %w", err))
		}
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":      config.RunID,
		"trigger":     config.Trigger,
		"config_hash": config.ConfigHash,
		"dry_run":     config.DryRun,
	}).Info("Starting pipeline run")
	o.sink.Publish(contracts.ProgressEvent{Type: contracts.EventRunStarted, RunID: config.RunID})

	// S0: Ingest
	set, ingestReport, quality, err := o.runS0(ctx, config)
	if err != nil {
		return o.fail(ctx, result, record, persist, fmt.Errorf("S0 failed: %w", err))
	}
	result.Set = set
	result.IngestReport = ingestReport
	result.Quality = quality
	result.Diagnostics.RowsRejected += ingestReport.RowsRejected
	result.Diagnostics.DuplicateRows += ingestReport.Duplicates
	result.CompletedStages = append(result.CompletedStages, contracts.StageIngest.String())

	// S1: Similarity graph
	graph, err := o.runS1(ctx, config, persist, set, result.Diagnostics)
	if err != nil {
		return o.fail(ctx, result, record, persist, fmt.Errorf("S1 failed: %w", err))
	}
	result.Graph = graph
	result.CompletedStages = append(result.CompletedStages, contracts.StageSimilarity.String())

	// S2: Community detection
	partition, err := o.runS2(ctx, config, persist, graph)
	if err != nil {
		return o.fail(ctx, result, record, persist, fmt.Errorf("S2 failed: %w", err))
	}
	result.Partition = partition
	result.CompletedStages = append(result.CompletedStages, contracts.StageCommunity.String())

	// S3: Trend scoring
	trends, err := o.runS3(ctx, config, persist, set, result.Diagnostics)
	if err != nil {
		return o.fail(ctx, result, record, persist, fmt.Errorf("S3 failed: %w", err))
	}
	result.Trends = trends
	result.CompletedStages = append(result.CompletedStages, contracts.StageTrend.String())

	// S4: Recommendations
	report, err := o.runS4(ctx, config, persist, result)
	if err != nil {
		return o.fail(ctx, result, record, persist, fmt.Errorf("S4 failed: %w", err))
	}
	result.Report = report
	result.CompletedStages = append(result.CompletedStages, contracts.StageRecommend.String())

	result.Success = true
	result.Duration = time.Since(startTime)

	metrics.RecordRun(config.Trigger, result.Duration, nil)
	metrics.SetDatasetGauges(set.Len(), graph.EdgeCount(), partition.CommunityCount())

	if persist {
		o.finishRecord(ctx, record, result, contracts.RunStatusCompleted, nil)
	}
	o.sink.Publish(contracts.ProgressEvent{
		Type:  contracts.EventRunCompleted,
		RunID: config.RunID,
		Count: report.PickCount(),
	})

	o.logger.WithFields(map[string]interface{}{
		"run_id":      config.RunID,
		"duration":    result.Duration.Seconds(),
		"stages":      len(result.CompletedStages),
		"communities": len(report.Communities),
		"picks":       report.PickCount(),
	}).Info("Pipeline run completed successfully")

	return result, nil
}

// runS0 executes S0: dataset construction and the quality gate
func (o *Orchestrator) runS0(ctx context.Context, config RunConfig) (*contracts.SeriesSet, *contracts.IngestReport, *contracts.QualitySnapshot, error) {
	started := o.stageStart(config.RunID, contracts.StageIngest)

	set, report, err := config.Loader.Load(ctx)
	metrics.RecordStage(contracts.StageIngest.String(), time.Since(started), err)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dataset load: %w", err)
	}
	metrics.RecordIngest(report.Source, report.RowsAccepted, report.RowsRejected)

	quality := o.gate.Check(set)
	if !quality.Passed {
		return nil, nil, nil, fmt.Errorf("quality gate failed: %d tickers, %d bars", quality.Tickers, quality.Bars)
	}

	o.stageDone(config.RunID, contracts.StageIngest, set.Len())
	return set, report, quality, nil
}

// runS1 executes S1: correlation graph construction
func (o *Orchestrator) runS1(ctx context.Context, config RunConfig, persist bool, set *contracts.SeriesSet, diags *contracts.Diagnostics) (*contracts.SimilarityGraph, error) {
	started := o.stageStart(config.RunID, contracts.StageSimilarity)

	graph, stageDiags, err := o.builder.Build(ctx, set)
	metrics.RecordStage(contracts.StageSimilarity.String(), time.Since(started), err)
	if err != nil {
		return nil, fmt.Errorf("graph build: %w", err)
	}
	diags.Merge(stageDiags)

	if persist && o.repos.Edges != nil {
		if err := o.repos.Edges.SaveGraph(ctx, config.RunID, graph); err != nil {
			return nil, fmt.Errorf("save graph: %w", err)
		}
	}

	o.stageDone(config.RunID, contracts.StageSimilarity, graph.EdgeCount())
	return graph, nil
}

// runS2 executes S2: community detection
func (o *Orchestrator) runS2(ctx context.Context, config RunConfig, persist bool, graph *contracts.SimilarityGraph) (*contracts.Partition, error) {
	started := o.stageStart(config.RunID, contracts.StageCommunity)

	partition, err := o.detector.Detect(ctx, graph)
	metrics.RecordStage(contracts.StageCommunity.String(), time.Since(started), err)
	if err != nil {
		return nil, fmt.Errorf("community detect: %w", err)
	}

	if persist && o.repos.Communities != nil {
		if err := o.repos.Communities.SavePartition(ctx, config.RunID, partition); err != nil {
			return nil, fmt.Errorf("save partition: %w", err)
		}
	}

	o.stageDone(config.RunID, contracts.StageCommunity, partition.CommunityCount())
	return partition, nil
}

// runS3 executes S3: trend scoring
func (o *Orchestrator) runS3(ctx context.Context, config RunConfig, persist bool, set *contracts.SeriesSet, diags *contracts.Diagnostics) ([]contracts.TrendScore, error) {
	started := o.stageStart(config.RunID, contracts.StageTrend)

	trends, stageDiags, err := o.scorer.Score(ctx, set)
	metrics.RecordStage(contracts.StageTrend.String(), time.Since(started), err)
	if err != nil {
		return nil, fmt.Errorf("trend score: %w", err)
	}
	diags.Merge(stageDiags)

	if persist && o.repos.Trends != nil {
		if err := o.repos.Trends.SaveScores(ctx, config.RunID, trends); err != nil {
			return nil, fmt.Errorf("save trends: %w", err)
		}
	}

	o.stageDone(config.RunID, contracts.StageTrend, len(trends))
	return trends, nil
}

// runS4 executes S4: recommendations and final report assembly
func (o *Orchestrator) runS4(ctx context.Context, config RunConfig, persist bool, result *RunResult) (*contracts.Report, error) {
	started := o.stageStart(config.RunID, contracts.StageRecommend)

	communities, err := o.recommender.Recommend(ctx, result.Partition, result.Trends)
	metrics.RecordStage(contracts.StageRecommend.String(), time.Since(started), err)
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}

	report := &contracts.Report{
		RunID:       config.RunID,
		GeneratedAt: time.Now(),
		ConfigHash:  config.ConfigHash,
		Tickers:     result.Set.Len(),
		Edges:       result.Graph.EdgeCount(),
		Modularity:  result.Partition.Modularity,
		Communities: communities,
		Diagnostics: result.Diagnostics,
	}

	if persist && o.repos.Reports != nil {
		if err := o.repos.Reports.SaveReport(ctx, report); err != nil {
			return nil, fmt.Errorf("save report: %w", err)
		}
	}

	o.stageDone(config.RunID, contracts.StageRecommend, report.PickCount())
	return report, nil
}

func (o *Orchestrator) stageStart(runID string, stage contracts.Stage) time.Time {
	o.logger.Info(fmt.Sprintf("Running %s: %s", stage.ShortName(), stage.Description()))
	o.sink.Publish(contracts.ProgressEvent{
		Type:  contracts.EventStageStarted,
		RunID: runID,
		Stage: stage.String(),
	})
	return time.Now()
}

func (o *Orchestrator) stageDone(runID string, stage contracts.Stage, count int) {
	o.logger.WithFields(map[string]interface{}{
		"stage": stage.String(),
		"count": count,
	}).Info(fmt.Sprintf("%s completed", stage.ShortName()))
	o.sink.Publish(contracts.ProgressEvent{
		Type:  contracts.EventStageCompleted,
		RunID: runID,
		Stage: stage.String(),
		Count: count,
	})
}

// fail finalizes a run after a stage error
func (o *Orchestrator) fail(ctx context.Context, result *RunResult, record *contracts.RunRecord, persist bool, err error) (*RunResult, error) {
	result.Error = err
	result.Duration = time.Since(record.StartedAt)

	metrics.RecordRun(result.Trigger, result.Duration, err)
	o.sink.Publish(contracts.ProgressEvent{
		Type:    contracts.EventRunFailed,
		RunID:   result.RunID,
		Message: err.Error(),
	})
	if persist {
		o.finishRecord(ctx, record, result, contracts.RunStatusFailed, err)
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"stages": len(result.CompletedStages),
		"error":  err.Error(),
	}).Error("Pipeline run failed")

	return result, err
}

// finishRecord writes the terminal run record. The parent context may
// already be cancelled when a run fails, so the write gets its own.
func (o *Orchestrator) finishRecord(ctx context.Context, record *contracts.RunRecord, result *RunResult, status contracts.RunStatus, runErr error) {
	now := time.Now()
	record.FinishedAt = &now
	record.Status = status
	record.CompletedStages = result.CompletedStages
	record.Diagnostics = result.Diagnostics
	if runErr != nil {
		record.Error = runErr.Error()
	}

	if err := o.repos.Runs.Finish(context.WithoutCancel(ctx), record); err != nil {
		o.logger.WithError(err).Error("Failed to save run record")
	}
}

// GenerateRunID generates a unique run ID
func GenerateRunID() string {
	return fmt.Sprintf("run_%s", time.Now().Format("20060102_150405"))
}
