// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

/*
database_schema.go - Database Schema Management

This file manages the DuckDB database schema including table creation
and index management for optimal query performance.

Tables:
  - cleaned_reviews: The preprocessed review snapshot (one row per surviving
    raw review, keyed by a monotonically increasing ingest_seq that preserves
    input order for keep-first deduplication)
  - ingest_runs: One row per ingest invocation per category with full drop
    accounting (read, malformed, join misses, policy drops, duplicates, loaded)
  - sample_ratings: Materialized seeded sample of rating triples for the
    recommendation stage

Schema Strategy:
All columns are defined in the initial CREATE TABLE statement. This provides:
  - Single source of truth for the complete schema
  - Faster startup (no migrations to run)
  - Cleaner codebase

Index Strategy:
Indexes are created for:
  - Frequently filtered columns (category, product_id, reviewer_id, year,
    sentiment)
  - The deduplication key (reviewer_id, product_id, ts)
  - Run listing (category, started_at)
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrSchemaMismatch is returned when a required column is absent from the
// snapshot. Downstream stages check columns before querying so a schema
// drift surfaces as a configuration error, not a malformed SQL error.
var ErrSchemaMismatch = errors.New("schema mismatch")

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := db.getTableCreationQueries()

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func (db *DB) getTableCreationQueries() []string {
	queries := []string{
		// ingest_seq source. DuckDB has no auto-increment column type;
		// the documented idiom is a sequence with a DEFAULT nextval().
		`CREATE SEQUENCE IF NOT EXISTS seq_cleaned_reviews START 1;`,

		// Cleaned reviews table - the immutable preprocessed snapshot
		`CREATE TABLE IF NOT EXISTS cleaned_reviews (
			-- ============================================
			-- Identity and ordering
			-- ============================================
			ingest_seq BIGINT PRIMARY KEY DEFAULT nextval('seq_cleaned_reviews'),
			reviewer_id TEXT NOT NULL,
			product_id TEXT NOT NULL,

			-- ============================================
			-- Review fields
			-- ============================================
			rating DOUBLE NOT NULL,
			review_title TEXT NOT NULL,
			review_text TEXT NOT NULL,
			ts TIMESTAMP NOT NULL,
			helpful_votes INTEGER NOT NULL DEFAULT 0,
			verified_purchase BOOLEAN NOT NULL DEFAULT false,

			-- ============================================
			-- Joined product metadata
			-- ============================================
			category TEXT NOT NULL,
			brand TEXT NOT NULL,
			price DOUBLE,
			avg_product_rating DOUBLE,

			-- ============================================
			-- Derived columns
			-- ============================================
			review_length INTEGER NOT NULL,
			year INTEGER NOT NULL,
			sentiment TEXT NOT NULL
		);`,

		// Ingest runs table - per-category run accounting
		`CREATE TABLE IF NOT EXISTS ingest_runs (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			error TEXT,
			dry_run BOOLEAN NOT NULL DEFAULT false,

			-- Drop accounting
			reviews_read BIGINT NOT NULL DEFAULT 0,
			products_indexed BIGINT NOT NULL DEFAULT 0,
			malformed_lines BIGINT NOT NULL DEFAULT 0,
			join_misses BIGINT NOT NULL DEFAULT 0,
			dropped_policy BIGINT NOT NULL DEFAULT 0,
			rows_staged BIGINT NOT NULL DEFAULT 0,
			duplicates BIGINT NOT NULL DEFAULT 0,
			rows_loaded BIGINT NOT NULL DEFAULT 0
		);`,

		// Sample ratings table - seeded modeling sample, rebuilt on demand
		`CREATE TABLE IF NOT EXISTS sample_ratings (
			ingest_seq BIGINT PRIMARY KEY,
			reviewer_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			rating DOUBLE NOT NULL
		);`,
	}

	return queries
}

// createIndexes creates database indexes for query optimization
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := db.getIndexQueries()

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}

	return nil
}

// getIndexQueries returns index creation SQL statements
func (db *DB) getIndexQueries() []string {
	return []string{
		// Filter indexes
		`CREATE INDEX IF NOT EXISTS idx_reviews_category ON cleaned_reviews(category);`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_product ON cleaned_reviews(product_id);`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_reviewer ON cleaned_reviews(reviewer_id);`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_year ON cleaned_reviews(year);`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_sentiment ON cleaned_reviews(sentiment);`,

		// Deduplication key
		`CREATE INDEX IF NOT EXISTS idx_reviews_dedupe ON cleaned_reviews(reviewer_id, product_id, ts);`,

		// Run listing
		`CREATE INDEX IF NOT EXISTS idx_runs_category ON ingest_runs(category, started_at);`,
	}
}

// VerifyColumns checks that every required column exists on the given table.
// It returns an error wrapping ErrSchemaMismatch that names each missing
// column, so a stage pointed at a stale or foreign snapshot fails with a
// configuration error before issuing analytical queries.
func (db *DB) VerifyColumns(ctx context.Context, table string, required []string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_name = ?`, table)
	if err != nil {
		return fmt.Errorf("failed to read schema for %s: %w", table, err)
	}
	defer closeQuietly(rows)

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan column name: %w", err)
		}
		present[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate schema rows: %w", err)
	}

	if len(present) == 0 {
		return fmt.Errorf("%w: table %s does not exist", ErrSchemaMismatch, table)
	}

	var missing []string
	for _, col := range required {
		if !present[strings.ToLower(col)] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: table %s is missing columns: %s",
			ErrSchemaMismatch, table, strings.Join(missing, ", "))
	}

	return nil
}

// CleanedReviewColumns is the full column list of the snapshot in schema
// order, shared by batch insert, export, and column verification.
var CleanedReviewColumns = []string{
	"reviewer_id",
	"product_id",
	"rating",
	"review_title",
	"review_text",
	"ts",
	"helpful_votes",
	"verified_purchase",
	"category",
	"brand",
	"price",
	"avg_product_rating",
	"review_length",
	"year",
	"sentiment",
}
