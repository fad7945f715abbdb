package controller

import (
	"github.com/sirupsen/logrus"

	"github.com/ishanwen-byte/plantevolve-go/internal/types"
	"github.com/ishanwen-byte/plantevolve-go/pkg/evaluator"
)

// Listener receives progress notifications from a run. Callbacks are made
// from the goroutine calling Run.
type Listener interface {
	// OnStart is called once before the first attempt
	OnStart(runID string, cfg types.EvolutionConfig)
	// OnAttemptFailed is called when an attempt's candidate fails the gate
	OnAttemptFailed(attempt, maxAttempts int, elapsedSeconds float64, report evaluator.GateReport)
	// OnSuccess is called when a valid candidate is found
	OnSuccess(attempt int, totalSeconds float64)
}

// LogListener reports progress through a logrus logger
type LogListener struct {
	logger *logrus.Logger
}

// NewLogListener creates a listener writing to logger, or to a fresh logger
// when nil
func NewLogListener(logger *logrus.Logger) *LogListener {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogListener{logger: logger}
}

func (l *LogListener) OnStart(runID string, cfg types.EvolutionConfig) {
	l.logger.WithFields(logrus.Fields{
		"run_id":       runID,
		"population":   cfg.PopulationSize,
		"generations":  cfg.Generations,
		"max_attempts": cfg.MaxAttempts,
	}).Info("Evolution started")
}

func (l *LogListener) OnAttemptFailed(attempt, maxAttempts int, elapsedSeconds float64, report evaluator.GateReport) {
	l.logger.WithFields(logrus.Fields{
		"attempt": attempt,
		"max":     maxAttempts,
		"elapsed": elapsedSeconds,
		"gate":    report.String(),
	}).Warn("Attempt produced no valid layout")
}

func (l *LogListener) OnSuccess(attempt int, totalSeconds float64) {
	l.logger.WithFields(logrus.Fields{
		"attempt": attempt,
		"elapsed": totalSeconds,
	}).Info("Valid layout found")
}
