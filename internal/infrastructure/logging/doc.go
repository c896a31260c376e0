// Package logging provides structured logging for the light bridge.
//
// This package wraps Go's standard log/slog package so every component logs
// with the same shape.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Custom writers for interactive tools
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("light registered", "light", "kitchen")
//	logger.Error("failed to connect", "error", err)
//
// Never log broker passwords or InfluxDB tokens.
package logging
