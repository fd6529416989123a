package brain

import (
	"context"
	"errors"
	"sync"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
)

// ErrRunInProgress is returned when a run is requested while another
// one is still executing
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Launcher starts pipeline runs in the background, one at a time.
// The API trigger endpoint and the scheduler share one launcher so
// concurrent triggers cannot overlap.
type Launcher struct {
	orch       *Orchestrator
	loader     contracts.DatasetLoader
	configHash string
	gitSHA     string
	logger     *logger.Logger

	mu      sync.Mutex
	running bool
}

// NewLauncher creates a new launcher
func NewLauncher(
	orch *Orchestrator,
	loader contracts.DatasetLoader,
	configHash string,
	gitSHA string,
	log *logger.Logger,
) *Launcher {
	return &Launcher{
		orch:       orch,
		loader:     loader,
		configHash: configHash,
		gitSHA:     gitSHA,
		logger:     log.Component("launcher"),
	}
}

// Launch starts a background run and returns its id immediately.
// Returns ErrRunInProgress while a previous run is still executing.
func (l *Launcher) Launch(trigger string) (string, error) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return "", ErrRunInProgress
	}
	l.running = true
	l.mu.Unlock()

	runID := GenerateRunID()

	go func() {
		defer func() {
			l.mu.Lock()
			l.running = false
			l.mu.Unlock()
		}()

		_, err := l.orch.Run(context.Background(), RunConfig{
			RunID:      runID,
			Trigger:    trigger,
			ConfigHash: l.configHash,
			GitSHA:     l.gitSHA,
			Loader:     l.loader,
		})
		if err != nil {
			l.logger.WithError(err).WithField("run_id", runID).Error("Background run failed")
		}
	}()

	return runID, nil
}

// Running reports whether a run is currently executing
func (l *Launcher) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// RunNow executes a run synchronously with this launcher's wiring.
// Returns ErrRunInProgress while a background run is executing.
func (l *Launcher) RunNow(ctx context.Context, trigger string) (*RunResult, error) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return nil, ErrRunInProgress
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	return l.orch.Run(ctx, RunConfig{
		Trigger:    trigger,
		ConfigHash: l.configHash,
		GitSHA:     l.gitSHA,
		Loader:     l.loader,
	})
}
