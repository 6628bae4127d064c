// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

/*
crud_reviews.go - Cleaned Review CRUD Operations

This file implements the write path of the preprocessing pipeline and the
read path of the review listing API.

Write path:
  - InsertCleanedReviewsBatch: One transaction per batch with a prepared
    statement, matching the single-writer ingest model
  - DedupeReviews: Set-based keep-first deduplication on
    (reviewer_id, product_id, ts) using MIN(ingest_seq)
  - DeleteCategory: Clears a category before a fresh (non-resumed) re-ingest

Read path:
  - ListReviews: Filtered, paginated listing with a total count
  - CountReviews: Snapshot row count
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/recensus/internal/logging"
	"github.com/tomtom215/recensus/internal/metrics"
	"github.com/tomtom215/recensus/internal/models"
)

// Pagination bounds for review listing queries
const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// InsertCleanedReviewsBatch inserts a batch of cleaned reviews in a single
// transaction. The ingest_seq column is assigned by the database sequence in
// execution order, which preserves input order for keep-first deduplication.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - reviews: Cleaned rows to insert; an empty batch is a no-op
//
// Returns:
//   - Number of rows inserted
//   - error if any insert fails; the whole batch rolls back
func (db *DB) InsertCleanedReviewsBatch(ctx context.Context, reviews []*models.CleanedReview) (inserted int, err error) {
	if len(reviews) == 0 {
		return 0, nil
	}

	start := time.Now()

	// Start transaction
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Ensure transaction is finalized
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Transaction rollback failed")
			}
		}
	}()

	// Prepare statement within transaction for efficiency
	query := `INSERT INTO cleaned_reviews (
		reviewer_id, product_id, rating, review_title, review_text, ts,
		helpful_votes, verified_purchase, category, brand, price,
		avg_product_rating, review_length, year, sentiment
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch insert: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for i, review := range reviews {
		_, execErr := stmt.ExecContext(ctx,
			review.ReviewerID, review.ProductID, review.Rating,
			review.ReviewTitle, review.ReviewText, review.Timestamp,
			review.HelpfulVotes, review.VerifiedPurchase,
			review.Category, review.Brand, review.Price,
			review.AvgProductRating, review.ReviewLength, review.Year,
			string(review.Sentiment),
		)
		if execErr != nil {
			err = fmt.Errorf("failed to insert review %d (reviewer=%s, product=%s): %w",
				i, review.ReviewerID, review.ProductID, execErr)
			return 0, err
		}
		inserted++
	}

	// Commit transaction
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.RecordDBQuery("insert_batch", "cleaned_reviews", time.Since(start), nil)
	metrics.RecordBatchInsert(inserted)

	logging.Debug().
		Int("inserted", inserted).
		Int("total", len(reviews)).
		Msg("Batch transaction committed")

	return inserted, nil
}

// DedupeReviews removes duplicate reviews within a category, keeping the
// first-loaded row per (reviewer_id, product_id, ts). "First" is defined by
// MIN(ingest_seq), so the row that appeared earliest in the input survives.
// The delete is set-based and runs out-of-core in DuckDB, so its memory use
// does not grow with category size.
//
// An empty category scopes the pass to the whole snapshot, which covers
// products that appear in more than one category dump.
//
// Returns the number of rows removed.
func (db *DB) DedupeReviews(ctx context.Context, category string) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()

	var (
		query string
		args  []interface{}
	)
	if category != "" {
		query = `DELETE FROM cleaned_reviews
			WHERE category = ?
			  AND ingest_seq NOT IN (
				SELECT MIN(ingest_seq)
				FROM cleaned_reviews
				WHERE category = ?
				GROUP BY reviewer_id, product_id, ts
			)`
		args = []interface{}{category, category}
	} else {
		query = `DELETE FROM cleaned_reviews
			WHERE ingest_seq NOT IN (
				SELECT MIN(ingest_seq)
				FROM cleaned_reviews
				GROUP BY reviewer_id, product_id, ts
			)`
	}

	result, err := db.conn.ExecContext(ctx, query, args...)
	metrics.RecordDBQuery("dedupe", "cleaned_reviews", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to deduplicate reviews: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deduplicated row count: %w", err)
	}

	if removed > 0 {
		logging.Info().
			Str("category", category).
			Int64("removed", removed).
			Msg("Removed duplicate reviews")
	}

	return removed, nil
}

// DeleteCategory removes all cleaned rows for a category. Used before a
// fresh (non-resumed) re-ingest so repeated runs do not accumulate rows.
func (db *DB) DeleteCategory(ctx context.Context, category string) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM cleaned_reviews WHERE category = ?`, category)
	if err != nil {
		return 0, fmt.Errorf("failed to delete category %s: %w", category, err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted row count: %w", err)
	}

	return removed, nil
}

// CountReviews returns the total number of cleaned rows, optionally scoped
// to a category.
func (db *DB) CountReviews(ctx context.Context, category string) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	var err error
	if category != "" {
		err = db.conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM cleaned_reviews WHERE category = ?`, category).Scan(&count)
	} else {
		err = db.conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM cleaned_reviews`).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	return count, nil
}

// ListReviews returns a filtered page of cleaned reviews plus the total
// count matching the filters, ordered newest first with ingest_seq as the
// tie-breaker so pagination is stable.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - q: Validated listing filters; zero values mean unset
//
// Returns:
//   - Page of cleaned reviews
//   - Total number of rows matching the filters (ignoring pagination)
//   - error if either query fails
func (db *DB) ListReviews(ctx context.Context, q models.ReviewsQuery) ([]models.CleanedReview, int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()

	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where, args := reviewsWhere(q)

	// Total count first so has_more can be derived from the page
	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM cleaned_reviews WHERE %s`, where)
	if err := db.conn.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		metrics.RecordDBQuery("list", "cleaned_reviews", time.Since(start), err)
		return nil, 0, fmt.Errorf("failed to count filtered reviews: %w", err)
	}

	listQuery := fmt.Sprintf(`SELECT
			reviewer_id, product_id, rating, review_title, review_text, ts,
			helpful_votes, verified_purchase, category, brand, price,
			avg_product_rating, review_length, year, sentiment
		FROM cleaned_reviews
		WHERE %s
		ORDER BY ts DESC, ingest_seq DESC
		LIMIT ? OFFSET ?`, where)
	listArgs := append(args, limit, offset)

	reviews, err := queryAndScan(ctx, db.conn, listQuery, listArgs, scanCleanedReview)
	metrics.RecordDBQuery("list", "cleaned_reviews", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}

	return reviews, total, nil
}

// scanCleanedReview scans one snapshot row. Price and avg_product_rating are
// nullable and surface as nil pointers.
func scanCleanedReview(rows *sql.Rows) (models.CleanedReview, error) {
	var r models.CleanedReview
	var price, avgRating sql.NullFloat64
	var sentiment string

	err := rows.Scan(
		&r.ReviewerID, &r.ProductID, &r.Rating, &r.ReviewTitle, &r.ReviewText,
		&r.Timestamp, &r.HelpfulVotes, &r.VerifiedPurchase, &r.Category,
		&r.Brand, &price, &avgRating, &r.ReviewLength, &r.Year, &sentiment,
	)
	if err != nil {
		return r, fmt.Errorf("failed to scan review row: %w", err)
	}

	if price.Valid {
		r.Price = &price.Float64
	}
	if avgRating.Valid {
		r.AvgProductRating = &avgRating.Float64
	}
	r.Sentiment = models.Sentiment(sentiment)

	return r, nil
}
