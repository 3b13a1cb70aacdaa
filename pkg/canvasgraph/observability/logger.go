// Package observability provides structured logging, metrics, and tracing
// for graph assembly.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds assembly context to a logger.
// Returns a new logger with assembly_id and graph_id fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "a1b2", "sdxl_canvas_outpaint_graph")
//	enriched.Info("building") // includes assembly_id, graph_id
func EnrichLogger(logger *slog.Logger, assemblyID, graphID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("assembly_id", assemblyID),
		slog.String("graph_id", graphID),
	)
}

// LogAssemblyStart logs the start of a graph assembly.
func LogAssemblyStart(logger *slog.Logger, assemblyID string) {
	if logger == nil {
		return
	}
	logger.Info("graph assembly starting",
		slog.String("assembly_id", assemblyID),
	)
}

// LogAssemblyComplete logs a successful assembly.
func LogAssemblyComplete(logger *slog.Logger, assemblyID string, durationMs float64, nodeCount, edgeCount int) {
	if logger == nil {
		return
	}
	logger.Info("graph assembly completed",
		slog.String("assembly_id", assemblyID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("nodes", nodeCount),
		slog.Int("edges", edgeCount),
	)
}

// LogAssemblyError logs a failed assembly.
func LogAssemblyError(logger *slog.Logger, assemblyID string, err error, durationMs float64, lastStage string) {
	if logger == nil {
		return
	}
	logger.Error("graph assembly failed",
		slog.String("assembly_id", assemblyID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_stage", lastStage),
	)
}

// LogStageApplied logs a successful augmentation stage.
func LogStageApplied(logger *slog.Logger, stage string, nodesAdded int) {
	if logger == nil {
		return
	}
	logger.Debug("stage applied",
		slog.String("stage", stage),
		slog.Int("nodes_added", nodesAdded),
	)
}

// LogStageSkipped logs a stage the driver did not invoke.
func LogStageSkipped(logger *slog.Logger, stage, reason string) {
	if logger == nil {
		return
	}
	logger.Debug("stage skipped",
		slog.String("stage", stage),
		slog.String("reason", reason),
	)
}

// LogStageError logs a failed augmentation stage.
func LogStageError(logger *slog.Logger, stage string, err error) {
	if logger == nil {
		return
	}
	logger.Error("stage failed",
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
