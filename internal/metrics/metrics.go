// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Database query performance (DuckDB)
// - Ingest pipeline throughput and drop accounting
// - Analysis stage execution (EDA, classify, cluster, recommend, export)
// - API endpoint latency and throughput

// Drop reason labels for IngestDropped. Every review read but not loaded is
// attributed to exactly one reason.
const (
	DropReasonMalformed = "malformed"
	DropReasonJoinMiss  = "join_miss"
	DropReasonPolicy    = "policy"
	DropReasonDuplicate = "duplicate"
)

// Stage labels for StageDuration, StageErrors, and StageLastSuccess.
const (
	StageEDA       = "eda"
	StageClassify  = "classify"
	StageCluster   = "cluster"
	StageRecommend = "recommend"
	StageExport    = "export"
	StageSample    = "sample"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets, // 0.005s, 0.01s, 0.025s, 0.05s, 0.1s, 0.25s, 0.5s, 1s, 2.5s, 5s, 10s
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBRowsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duckdb_rows_inserted_total",
			Help: "Total number of cleaned review rows inserted",
		},
	)

	DBBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "duckdb_insert_batch_size",
			Help:    "Number of rows in insert batches",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 5000, 10000},
		},
	)

	// Ingest Pipeline Metrics
	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "Duration of category ingest runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600}, // Full categories can take an hour
		},
	)

	IngestReviewsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_reviews_read_total",
			Help: "Total number of raw review lines read",
		},
		[]string{"category"},
	)

	IngestRowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_loaded_total",
			Help: "Total number of cleaned rows surviving deduplication",
		},
		[]string{"category"},
	)

	IngestDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_dropped_total",
			Help: "Total number of reviews dropped during cleaning",
		},
		[]string{"category", "reason"}, // reason: "malformed", "join_miss", "policy", "duplicate"
	)

	IngestLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_last_success_timestamp",
			Help: "Unix timestamp of last successful ingest run",
		},
	)

	IngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_errors_total",
			Help: "Total number of ingest run failures",
		},
		[]string{"error_type"}, // "dataset", "database", "checkpoint", "other"
	)

	// Checkpoint Metrics
	CheckpointSaves = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkpoint_saves_total",
			Help: "Total number of ingest checkpoints written",
		},
	)

	CheckpointResumes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkpoint_resumes_total",
			Help: "Total number of ingest runs resumed from a checkpoint",
		},
	)

	// Analysis Stage Metrics
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stage_duration_seconds",
			Help:    "Duration of analysis stage executions in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"stage"},
	)

	StageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stage_errors_total",
			Help: "Total number of analysis stage failures",
		},
		[]string{"stage"},
	)

	StageLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stage_last_success_timestamp",
			Help: "Unix timestamp of last successful stage execution",
		},
		[]string{"stage"},
	)

	// Model Quality Metrics
	ClassifierAccuracy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "classifier_test_accuracy",
			Help: "Accuracy of the last trained sentiment classifier on its test split",
		},
	)

	RecommenderRMSE = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommender_holdout_rmse",
			Help: "RMSE of the last trained recommender on its holdout split",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordBatchInsert records a batch of rows written to the cleaned table
func RecordBatchInsert(rows int) {
	DBRowsInserted.Add(float64(rows))
	DBBatchSize.Observe(float64(rows))
}

// RecordIngestRun records the outcome of one category ingest
func RecordIngestRun(category string, duration time.Duration, read, loaded int64, err error) {
	IngestDuration.Observe(duration.Seconds())
	IngestReviewsRead.WithLabelValues(category).Add(float64(read))
	IngestRowsLoaded.WithLabelValues(category).Add(float64(loaded))

	if err != nil {
		errorType := "other"
		errorMsg := err.Error()
		switch {
		case strings.Contains(errorMsg, "dataset"), strings.Contains(errorMsg, "open"):
			errorType = "dataset"
		case strings.Contains(errorMsg, "duckdb"), strings.Contains(errorMsg, "database"), strings.Contains(errorMsg, "insert"):
			errorType = "database"
		case strings.Contains(errorMsg, "checkpoint"):
			errorType = "checkpoint"
		}
		IngestErrors.WithLabelValues(errorType).Inc()
	} else {
		IngestLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordIngestDrops attributes dropped reviews to their reasons
func RecordIngestDrops(category string, malformed, joinMisses, policy, duplicates int64) {
	if malformed > 0 {
		IngestDropped.WithLabelValues(category, DropReasonMalformed).Add(float64(malformed))
	}
	if joinMisses > 0 {
		IngestDropped.WithLabelValues(category, DropReasonJoinMiss).Add(float64(joinMisses))
	}
	if policy > 0 {
		IngestDropped.WithLabelValues(category, DropReasonPolicy).Add(float64(policy))
	}
	if duplicates > 0 {
		IngestDropped.WithLabelValues(category, DropReasonDuplicate).Add(float64(duplicates))
	}
}

// RecordStage records an analysis stage execution
func RecordStage(stage string, duration time.Duration, err error) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		StageErrors.WithLabelValues(stage).Inc()
	} else {
		StageLastSuccess.WithLabelValues(stage).Set(float64(time.Now().Unix()))
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
