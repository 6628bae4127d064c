// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

// Package logging provides centralized zerolog-based structured logging
// for Recensus.
//
// Every component logs through this package so that pipeline runs, API
// requests, and model training all emit uniform JSON lines that can be
// filtered by component and correlated by run or request ID.
//
// # Quick Start
//
//	import "github.com/tomtom215/recensus/internal/logging"
//
//	// Initialize at application startup
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	// Log messages with structured fields
//	logging.Info().Str("category", "Books").Int64("rows", n).Msg("Ingest complete")
//	logging.Error().Err(err).Msg("Ingest failed")
//
//	// Context-aware logging (request / run correlation)
//	logging.Ctx(ctx).Info().Msg("Processing request")
//
// # Configuration
//
// Environment Variables:
//
//	LOG_LEVEL   - Minimum log level: trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - Output format: json, console (default: json)
//	LOG_CALLER  - Include caller file:line: true, false (default: false)
//
// # Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
//
// Use structured fields instead of string formatting:
//
//	logging.Info().Str("category", c).Int64("rows", n).Msg("loaded")  // Correct
//	logging.Info().Msgf("loaded %d rows for %s", n, c)                // Avoid
//
// # Component Loggers
//
// Long-lived components hold a child logger with a component field:
//
//	log := logging.WithComponent("pipeline")
//	log.Info().Msg("run started")
//
// # slog Adapter
//
// Libraries that require an *slog.Logger (sutureslog in particular) use
// the adapter so their output still flows through zerolog:
//
//	slogger := logging.NewSlogLogger()
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger
// is protected by a sync.RWMutex for configuration changes.
package logging
