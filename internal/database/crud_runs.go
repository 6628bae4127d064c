// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

/*
crud_runs.go - Ingest Run Accounting

This file persists the lifecycle of ingest runs. Each run covers one
category and moves running -> completed or running -> failed, carrying the
full drop accounting so every raw row is attributable to loaded, malformed,
join miss, policy drop, or duplicate.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/recensus/internal/models"
)

// InsertIngestRun records the start of an ingest run with status running.
func (db *DB) InsertIngestRun(ctx context.Context, run *models.IngestRun) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `INSERT INTO ingest_runs (
			id, category, status, started_at, dry_run
		) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Category, models.RunStatusRunning, run.StartedAt, run.Stats.DryRun)
	if err != nil {
		return fmt.Errorf("failed to insert ingest run %s: %w", run.ID, err)
	}

	return nil
}

// CompleteIngestRun marks a run completed and stores its final counters.
func (db *DB) CompleteIngestRun(ctx context.Context, id string, stats *models.IngestStats) error {
	return db.finishIngestRun(ctx, id, models.RunStatusCompleted, stats, "")
}

// FailIngestRun marks a run failed, storing the error text alongside
// whatever counters were accumulated before the failure.
func (db *DB) FailIngestRun(ctx context.Context, id string, stats *models.IngestStats, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	return db.finishIngestRun(ctx, id, models.RunStatusFailed, stats, msg)
}

// finishIngestRun applies the terminal state shared by completion and failure.
func (db *DB) finishIngestRun(ctx context.Context, id, status string, stats *models.IngestStats, errMsg string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, `UPDATE ingest_runs SET
			status = ?,
			completed_at = ?,
			error = ?,
			reviews_read = ?,
			products_indexed = ?,
			malformed_lines = ?,
			join_misses = ?,
			dropped_policy = ?,
			rows_staged = ?,
			duplicates = ?,
			rows_loaded = ?
		WHERE id = ?`,
		status, time.Now().UTC(), nullIfEmpty(errMsg),
		stats.ReviewsRead, stats.ProductsIndexed, stats.MalformedLines,
		stats.JoinMisses, stats.DroppedPolicy, stats.RowsStaged,
		stats.Duplicates, stats.RowsLoaded, id)
	if err != nil {
		return fmt.Errorf("failed to finish ingest run %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows for run %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("ingest run %s not found", id)
	}

	return nil
}

// nullIfEmpty maps an empty string to SQL NULL for nullable text columns.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// GetIngestRun fetches a single run by ID.
func (db *DB) GetIngestRun(ctx context.Context, id string) (*models.IngestRun, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, ingestRunSelect+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingest run %s: %w", id, err)
	}
	defer closeQuietly(rows)

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read ingest run %s: %w", id, err)
		}
		return nil, sql.ErrNoRows
	}

	run, err := scanIngestRun(rows)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListIngestRuns returns runs ordered newest first.
func (db *DB) ListIngestRuns(ctx context.Context, limit int) ([]models.IngestRun, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = defaultListLimit
	}

	runs, err := queryAndScan(ctx, db.conn,
		ingestRunSelect+` ORDER BY started_at DESC LIMIT ?`,
		[]interface{}{limit}, scanIngestRun)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingest runs: %w", err)
	}

	return runs, nil
}

// ingestRunSelect is the shared column list for run reads, kept in scan order.
const ingestRunSelect = `SELECT
	id, category, status, started_at, completed_at, error, dry_run,
	reviews_read, products_indexed, malformed_lines, join_misses,
	dropped_policy, rows_staged, duplicates, rows_loaded
FROM ingest_runs`

// scanIngestRun scans one run row including its nullable terminal fields.
func scanIngestRun(rows *sql.Rows) (models.IngestRun, error) {
	var run models.IngestRun
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := rows.Scan(
		&run.ID, &run.Category, &run.Status, &run.StartedAt,
		&completedAt, &errMsg, &run.Stats.DryRun,
		&run.Stats.ReviewsRead, &run.Stats.ProductsIndexed,
		&run.Stats.MalformedLines, &run.Stats.JoinMisses,
		&run.Stats.DroppedPolicy, &run.Stats.RowsStaged,
		&run.Stats.Duplicates, &run.Stats.RowsLoaded,
	)
	if err != nil {
		return run, fmt.Errorf("failed to scan ingest run row: %w", err)
	}

	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}

	run.Stats.StartTime = run.StartedAt
	if run.CompletedAt != nil {
		run.Stats.EndTime = *run.CompletedAt
	}

	return run, nil
}
