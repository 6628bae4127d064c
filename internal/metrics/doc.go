// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements application instrumentation using the Prometheus
client library, exposing metrics for monitoring performance, errors, and
system health.

# Overview

The package provides metrics for:
  - Database query performance (DuckDB)
  - Ingest pipeline throughput and drop accounting
  - Analysis stage execution (EDA, classify, cluster, recommend, export)
  - Checkpoint activity
  - API request latency and throughput

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8490/metrics

# Available Metrics

Database Metrics:
  - duckdb_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type
  - duckdb_rows_inserted_total: Cleaned rows inserted (counter)
  - duckdb_insert_batch_size: Rows per insert batch (histogram)

Ingest Metrics:
  - ingest_duration_seconds: Category ingest duration (histogram)
    Buckets: 1 to 3600 seconds
  - ingest_reviews_read_total: Raw review lines read (counter)
    Labels: category
  - ingest_rows_loaded_total: Rows surviving deduplication (counter)
    Labels: category
  - ingest_dropped_total: Reviews dropped during cleaning (counter)
    Labels: category, reason (malformed, join_miss, policy, duplicate)
  - ingest_last_success_timestamp: Last successful run (gauge)
  - ingest_errors_total: Failed runs (counter)
    Labels: error_type (dataset, database, checkpoint, other)

Checkpoint Metrics:
  - checkpoint_saves_total: Checkpoints written (counter)
  - checkpoint_resumes_total: Runs resumed from a checkpoint (counter)

Stage Metrics:
  - stage_duration_seconds: Stage execution time (histogram)
    Labels: stage (eda, classify, cluster, recommend, export, sample)
  - stage_errors_total: Failed stage executions (counter)
    Labels: stage
  - stage_last_success_timestamp: Last successful execution (gauge)
    Labels: stage

Model Quality Metrics:
  - classifier_test_accuracy: Test-split accuracy of the last classifier (gauge)
  - recommender_holdout_rmse: Holdout RMSE of the last recommender (gauge)

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: Active requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

System Metrics:
  - app_info: Version and build information (gauge)
    Labels: version, go_version
  - app_uptime_seconds: Application uptime (gauge)

# Usage

Metrics are recorded through helper functions rather than direct metric
access:

	metrics.RecordDBQuery("SELECT", "cleaned_reviews", duration, err)
	metrics.RecordIngestRun("Electronics", duration, read, loaded, err)
	metrics.RecordStage(metrics.StageEDA, duration, err)

All metrics register on the default Prometheus registry via promauto at
package initialization.
*/
package metrics
