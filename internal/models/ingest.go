// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package models

import (
	"time"
)

// Ingest run lifecycle states as persisted in the ingest_runs table.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// IngestRun records one execution of the ingest pipeline for a category.
// Runs are persisted so repeated ingests are observable and resumable.
type IngestRun struct {
	ID          string      `json:"id"`
	Category    string      `json:"category"`
	Status      string      `json:"status"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Error       string      `json:"error,omitempty"`
	Stats       IngestStats `json:"stats"`
}

// IngestStats holds counters accumulated while ingesting one category.
// Every raw review line lands in exactly one bucket: malformed, join miss,
// policy drop, or staged. Duplicates are removed after staging, so
// RowsLoaded = RowsStaged - Duplicates.
type IngestStats struct {
	// ReviewsRead is the number of raw review lines read.
	ReviewsRead int64

	// ProductsIndexed is the number of product metadata rows indexed.
	ProductsIndexed int64

	// MalformedLines is the number of lines skipped as unparseable JSON.
	MalformedLines int64

	// JoinMisses is the number of reviews dropped for having no matching
	// product metadata.
	JoinMisses int64

	// DroppedPolicy is the number of reviews dropped by the missing-value
	// policy (absent text, rating outside 1-5, non-positive timestamp,
	// or empty reviewer/product identifiers).
	DroppedPolicy int64

	// RowsStaged is the number of cleaned rows written before deduplication.
	RowsStaged int64

	// Duplicates is the number of staged rows removed as duplicates of an
	// earlier row with the same reviewer, product, and timestamp.
	Duplicates int64

	// RowsLoaded is the number of rows surviving deduplication.
	RowsLoaded int64

	// StartTime is when the ingest started.
	StartTime time.Time

	// EndTime is when the ingest completed (zero if still running).
	EndTime time.Time

	// DryRun indicates the pipeline parsed and counted without writing.
	DryRun bool
}

// Duration returns the elapsed time of the ingest.
func (s *IngestStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// RecordsPerSecond returns the raw review read rate.
func (s *IngestStats) RecordsPerSecond() float64 {
	duration := s.Duration().Seconds()
	if duration == 0 {
		return 0
	}
	return float64(s.ReviewsRead) / duration
}

// DropRate returns the fraction of read reviews that did not survive
// cleaning, in the range 0-1.
func (s *IngestStats) DropRate() float64 {
	if s.ReviewsRead == 0 {
		return 0
	}
	dropped := s.ReviewsRead - s.RowsLoaded
	return float64(dropped) / float64(s.ReviewsRead)
}

// IngestSummary is a human-readable projection of IngestStats.
type IngestSummary struct {
	Status          string    `json:"status"`
	ReviewsRead     int64     `json:"reviews_read"`
	ProductsIndexed int64     `json:"products_indexed"`
	MalformedLines  int64     `json:"malformed_lines"`
	JoinMisses      int64     `json:"join_misses"`
	DroppedPolicy   int64     `json:"dropped_policy"`
	Duplicates      int64     `json:"duplicates"`
	RowsLoaded      int64     `json:"rows_loaded"`
	DropRate        float64   `json:"drop_rate"`
	RecordsPerSec   float64   `json:"records_per_second"`
	ElapsedSeconds  float64   `json:"elapsed_seconds"`
	StartTime       time.Time `json:"start_time"`
	DryRun          bool      `json:"dry_run"`
}

// ToSummary converts IngestStats to an IngestSummary with derived fields.
func (s *IngestStats) ToSummary(running bool) *IngestSummary {
	summary := &IngestSummary{
		ReviewsRead:     s.ReviewsRead,
		ProductsIndexed: s.ProductsIndexed,
		MalformedLines:  s.MalformedLines,
		JoinMisses:      s.JoinMisses,
		DroppedPolicy:   s.DroppedPolicy,
		Duplicates:      s.Duplicates,
		RowsLoaded:      s.RowsLoaded,
		DropRate:        s.DropRate(),
		RecordsPerSec:   s.RecordsPerSecond(),
		ElapsedSeconds:  s.Duration().Seconds(),
		StartTime:       s.StartTime,
		DryRun:          s.DryRun,
	}

	if running {
		summary.Status = RunStatusRunning
	} else if s.EndTime.IsZero() {
		summary.Status = "pending"
	} else {
		summary.Status = RunStatusCompleted
	}

	return summary
}
