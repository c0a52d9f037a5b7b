// Package logger provides structured logging capabilities.
//
// The logger package sets up and configures the application's logging
// system using zap, providing structured, high-performance logging
// throughout the application. Log output always goes to stderr so the
// stdio transport keeps stdout to itself.
//
// Usage:
//
//	logger, err := logger.New("production", "info")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger.Info("executor started")
//	logger.Error("script failed", zap.Error(err))
package logger
