// Package logging provides structured logging for cloudcfg.
//
// This package wraps Go's standard log/slog package so every component logs
// the same way.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for terminals
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("configuration loaded", "keys", cfg.Len())
//
// # Security
//
// Never log settings values directly. Log a settings.Description, which
// masks secrets:
//
//	logger.Debug("effective configuration", "config", settings.Describe(cfg, nil))
package logging
