package brain

import (
	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
)

// NopSink discards progress events
type NopSink struct{}

// Publish implements contracts.ProgressSink
func (NopSink) Publish(contracts.ProgressEvent) {}

// LogSink writes progress events to the logger
type LogSink struct {
	logger *logger.Logger
}

// NewLogSink creates a sink that logs every event at debug level
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{logger: log.Component("progress")}
}

// Publish implements contracts.ProgressSink
func (s *LogSink) Publish(event contracts.ProgressEvent) {
	s.logger.WithFields(map[string]interface{}{
		"type":   event.Type,
		"run_id": event.RunID,
		"stage":  event.Stage,
		"count":  event.Count,
	}).Debug("Pipeline progress")
}

// FanoutSink forwards each event to every member sink in order
type FanoutSink []contracts.ProgressSink

// Publish implements contracts.ProgressSink
func (f FanoutSink) Publish(event contracts.ProgressEvent) {
	for _, sink := range f {
		sink.Publish(event)
	}
}
