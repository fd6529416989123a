package commands

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/wonny/prism/internal/brain"
	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/internal/s0_ingest"
	"github.com/wonny/prism/internal/s1_similarity"
	"github.com/wonny/prism/internal/s2_community"
	"github.com/wonny/prism/internal/s3_trend"
	"github.com/wonny/prism/internal/s4_recommend"
	"github.com/wonny/prism/internal/strategyconfig"
	"github.com/wonny/prism/pkg/config"
	"github.com/wonny/prism/pkg/database"
	"github.com/wonny/prism/pkg/logger"
)

// cliRuntime bundles the dependencies most commands share
type cliRuntime struct {
	cfg        *config.Config
	log        *logger.Logger
	db         *database.DB
	strategy   *strategyconfig.Config
	configHash string
}

// openRuntime loads config, logger and strategy parameters, and
// connects to Postgres when the command needs it
func openRuntime(needDB bool) (*cliRuntime, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load strategy parameters
	strategy, _, err := strategyconfig.LoadOrDefault(cfg.StrategyPath)
	if err != nil {
		return nil, fmt.Errorf("load strategy config: %w", err)
	}
	for _, warning := range strategyconfig.Warn(strategy) {
		PrintWarning(fmt.Sprintf("%s: %s", warning.Code, warning.Message))
	}

	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return nil, fmt.Errorf("hash strategy config: %w", err)
	}

	rt := &cliRuntime{
		cfg:        cfg,
		log:        log,
		strategy:   strategy,
		configHash: hash,
	}

	// 4. Connect to database
	if needDB {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		rt.db = db
	}

	return rt, nil
}

// close releases the runtime's connections
func (rt *cliRuntime) close() {
	if rt.db != nil {
		rt.db.Close()
	}
}

// stages builds the four analysis stages from the strategy parameters
func (rt *cliRuntime) stages() (contracts.GraphBuilder, contracts.CommunityDetector, contracts.TrendScorer, contracts.Recommender) {
	builder := s1_similarity.NewBuilder(rt.strategy.Similarity, rt.cfg.Fetch.Workers, rt.log)
	detector := s2_community.NewDetector(rt.strategy.Community, rt.strategy.Similarity, rt.log)
	scorer := s3_trend.NewScorer(rt.strategy.Trend, rt.log)
	recommender := s4_recommend.NewRecommender(rt.strategy.Recommend, rt.log)
	return builder, detector, scorer, recommender
}

// repos builds the stage repositories. Zero value when no database is
// connected, which turns persistence off in the orchestrator.
func (rt *cliRuntime) repos() brain.Repos {
	if rt.db == nil {
		return brain.Repos{}
	}
	return brain.Repos{
		Edges:       s1_similarity.NewEdgeRepository(rt.db),
		Communities: s2_community.NewCommunityRepository(rt.db),
		Trends:      s3_trend.NewTrendRepository(rt.db),
		Reports:     s4_recommend.NewReportRepository(rt.db),
		Runs:        brain.NewRunRepository(rt.db),
	}
}

// orchestrator wires the full pipeline
func (rt *cliRuntime) orchestrator(sink contracts.ProgressSink) *brain.Orchestrator {
	builder, detector, scorer, recommender := rt.stages()
	gate := s0_ingest.NewQualityGate(rt.strategy.Trend.MinDays, rt.log)

	return brain.NewOrchestrator(
		gate,
		builder,
		detector,
		scorer,
		recommender,
		rt.repos(),
		sink,
		rt.log,
	)
}

// getGitSHA returns the short commit hash for run records
func getGitSHA() string {
	cmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(output))
}
