// Package logging provides structured logging for the Nest Matters bridge.
//
// It wraps the standard library's log/slog with configuration-driven
// format and level selection, plus default service/version attributes on
// every record. Components derive child loggers with With():
//
//	log := logging.New(cfg.Logging, version)
//	climateLog := log.With("component", "climate", "instance", "living-room")
package logging
