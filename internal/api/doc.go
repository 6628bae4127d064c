// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

// Package api serves the read-only reporting API over the cleaned snapshot.
//
// Routing uses chi with a global middleware stack (request ID with logging
// context, real IP, panic recovery, CORS) and per-group rate limiting via
// httprate. Handlers are split across files by concern:
//
//   - handlers.go: Handler struct and constructor
//   - handlers_helpers.go: response envelope and parameter helpers
//   - handlers_health.go: liveness and readiness probes
//   - handlers_core.go: stats, categories, reviews listing, ingest runs
//   - handlers_eda.go: per-section exploratory report endpoints
//   - handlers_recommend.go: trained recommender queries (optional)
//
// Every endpoint responds with the models.APIResponse envelope: status,
// payload, timing metadata, and a structured error with a stable code on
// failure. Query parameters are validated with go-playground/validator
// before any database work.
//
// The package never writes to the snapshot. Ingestion and training run
// through the CLI; serve mode only reads what they produced.
package api
