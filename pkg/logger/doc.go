// Package logger provides a structured logging interface for lxpfetch.
//
// It wraps zerolog behind a small interface with:
// - The usual levels (Debug, Info, Warn, Error, Fatal)
// - Structured fields, per entry or bound to a child logger
// - Colored console output for interactive runs
// - Optional JSON file output for later inspection
// - A process-wide logger reachable via GetLogger
//
// Basic Usage:
//
//	import "lxpfetch/pkg/logger"
//
//	// Initialize the global logger
//	err := logger.Initialize(&logger.Config{
//	    Level: "info",
//	    File:  "lxpfetch.log",
//	})
//
//	// Use the global logger
//	log := logger.GetLogger()
//	log.Info("Starting download")
//	log.WithField("subject_id", 42).Info("Discovered subject")
//	log.WithError(err).Error("Failed to fetch lesson")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("component", "crawler").
//	    WithField("run_id", runID)
//
//	// Use structured logging
//	log.InfoWithFields("Item written", map[string]interface{}{
//	    "path":  "out/subject/intro.md",
//	    "bytes": 2048,
//	})
package logger
