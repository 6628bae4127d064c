// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

/*
training_data.go - Model Training Data Readers

This file feeds the modeling stages from the cleaned snapshot:
  - GetLabeledReviews: positive/negative rows for the sentiment classifier
  - GetProductFeatures: per-product aggregates for k-means clustering, with
    NULL prices imputed from the category mean
  - GetSampleRatings / CreateSampleRatings: the seeded Bernoulli sample of
    rating triples used by the recommendation stage

Sampling determinism:
Each row's inclusion depends only on hash(ingest_seq + seed), so a fixed
seed selects the identical row set on every run over the same snapshot.
Using setseed()/random() instead would tie determinism to connection state,
which does not survive a connection pool.
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

// sampleResolution is the denominator of the sampling predicate. A fraction
// is mapped to a threshold out of this many hash buckets, so the smallest
// expressible fraction is 1e-6.
const sampleResolution = 1_000_000

// sampleThreshold converts a fraction in [0, 1] to a hash bucket threshold.
func sampleThreshold(fraction float64) int64 {
	if fraction <= 0 {
		return 0
	}
	if fraction >= 1 {
		return sampleResolution
	}
	return int64(fraction*sampleResolution + 0.5)
}

// GetLabeledReviews returns classifier training rows: review text, token
// count, and the positive/negative label. Neutral rows are excluded per the
// labeling rule. Rows come back in ingest order so a seeded shuffle
// downstream is reproducible. A maxRows of 0 means no limit.
func (db *DB) GetLabeledReviews(ctx context.Context, maxRows int64) ([]models.LabeledReview, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
	SELECT review_text, review_length, sentiment
	FROM cleaned_reviews
	WHERE sentiment IN (?, ?)
	ORDER BY ingest_seq`
	args := []interface{}{string(models.SentimentPositive), string(models.SentimentNegative)}

	if maxRows > 0 {
		query += ` LIMIT ?`
		args = append(args, maxRows)
	}

	scanLabeled := func(rows *sql.Rows) (models.LabeledReview, error) {
		var r models.LabeledReview
		var sentiment string
		err := rows.Scan(&r.ReviewText, &r.ReviewLength, &sentiment)
		r.Sentiment = models.Sentiment(sentiment)
		return r, err
	}

	labeled, err := queryAndScan(ctx, db.conn, query, args, scanLabeled)
	if err != nil {
		return nil, fmt.Errorf("failed to query labeled reviews: %w", err)
	}

	return labeled, nil
}

// GetProductFeatures returns per-product aggregates for clustering. Products
// without a price take the mean price of their category; if the whole
// category lacks prices the product falls back to zero. Rows are ordered by
// product_id so seeded centroid initialization sees a stable input order.
func (db *DB) GetProductFeatures(ctx context.Context) ([]models.ProductFeatures, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
	WITH category_prices AS (
		SELECT category, AVG(price) as mean_price
		FROM cleaned_reviews
		WHERE price IS NOT NULL
		GROUP BY category
	),
	products AS (
		SELECT
			product_id,
			category,
			COUNT(*) as review_count,
			AVG(rating) as avg_rating,
			AVG(review_length) as avg_length,
			MAX(price) as price
		FROM cleaned_reviews
		GROUP BY product_id, category
	)
	SELECT
		p.product_id,
		p.review_count,
		p.avg_rating,
		p.avg_length,
		COALESCE(p.price, c.mean_price, 0) as price
	FROM products p
	LEFT JOIN category_prices c ON p.category = c.category
	ORDER BY p.product_id`

	scanProduct := func(rows *sql.Rows) (models.ProductFeatures, error) {
		var p models.ProductFeatures
		err := rows.Scan(&p.ProductID, &p.ReviewCount, &p.AvgRating, &p.AvgLength, &p.Price)
		return p, err
	}

	features, err := queryAndScan(ctx, db.conn, query, []interface{}{}, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("failed to query product features: %w", err)
	}

	return features, nil
}

// GetSampleRatings returns the seeded Bernoulli sample of rating triples
// directly from the snapshot without materializing it. The same fraction
// and seed always select the same rows.
func (db *DB) GetSampleRatings(ctx context.Context, fraction float64, seed int64) ([]models.RatingTriple, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
	SELECT reviewer_id, product_id, rating
	FROM cleaned_reviews
	WHERE (hash(ingest_seq + ?) % ?) < ?
	ORDER BY ingest_seq`
	args := []interface{}{seed, sampleResolution, sampleThreshold(fraction)}

	scanTriple := func(rows *sql.Rows) (models.RatingTriple, error) {
		var t models.RatingTriple
		err := rows.Scan(&t.ReviewerID, &t.ProductID, &t.Rating)
		return t, err
	}

	triples, err := queryAndScan(ctx, db.conn, query, args, scanTriple)
	if err != nil {
		return nil, fmt.Errorf("failed to query sample ratings: %w", err)
	}

	return triples, nil
}

// CreateSampleRatings rebuilds the sample_ratings table from the snapshot
// using the same predicate as GetSampleRatings. The rebuild replaces any
// previous sample in one transaction so readers never see a partial table.
//
// Returns the number of sampled rows.
func (db *DB) CreateSampleRatings(ctx context.Context, fraction float64, seed int64) (sampled int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

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

	if _, err = tx.ExecContext(ctx, `DELETE FROM sample_ratings`); err != nil {
		return 0, fmt.Errorf("failed to clear previous sample: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
	INSERT INTO sample_ratings (ingest_seq, reviewer_id, product_id, rating)
	SELECT ingest_seq, reviewer_id, product_id, rating
	FROM cleaned_reviews
	WHERE (hash(ingest_seq + ?) % ?) < ?`,
		seed, sampleResolution, sampleThreshold(fraction))
	if err != nil {
		return 0, fmt.Errorf("failed to materialize sample: %w", err)
	}

	sampled, err = result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get sampled row count: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sample transaction: %w", err)
	}

	metrics.RecordDBQuery("create_sample", "sample_ratings", time.Since(start), nil)

	logging.Info().
		Float64("fraction", fraction).
		Int64("seed", seed).
		Int64("sampled", sampled).
		Msg("Materialized rating sample")

	return sampled, nil
}

// GetMaterializedSample returns the rating triples from the last
// CreateSampleRatings call in snapshot order. An empty result means no
// sample has been materialized yet.
func (db *DB) GetMaterializedSample(ctx context.Context) ([]models.RatingTriple, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
	SELECT reviewer_id, product_id, rating
	FROM sample_ratings
	ORDER BY ingest_seq`

	scanTriple := func(rows *sql.Rows) (models.RatingTriple, error) {
		var t models.RatingTriple
		err := rows.Scan(&t.ReviewerID, &t.ProductID, &t.Rating)
		return t, err
	}

	triples, err := queryAndScan(ctx, db.conn, query, []interface{}{}, scanTriple)
	if err != nil {
		return nil, fmt.Errorf("failed to query materialized sample: %w", err)
	}

	return triples, nil
}
