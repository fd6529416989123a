package logger_test

import (
	"errors"

	"github.com/wonny/prism/pkg/config"
	"github.com/wonny/prism/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := logger.New(cfg)

	log.Info("pipeline started")
	log.Infof("loaded %d tickers", 42)
}

// Example_fields demonstrates structured fields
func Example_fields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"run_id": "run_20260102_030405",
		"stage":  "S1_SIMILARITY",
	}).Info("stage completed")

	log.WithError(errors.New("no rows")).Error("load failed")
}

// Example_component demonstrates per-component loggers
func Example_component() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "debug",
		LogFormat: "json",
	}

	log := logger.New(cfg).Component("scheduler")

	log.Debug("registering jobs")
}
