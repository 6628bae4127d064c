// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

/*
analytics_eda.go - Exploratory Analysis Queries

This file implements the aggregate queries behind the EDA report and the
stats API. Every query reads only the cleaned snapshot; nothing here touches
raw inputs. All methods take an optional category scope where an empty
string means the whole snapshot.

The eda package fans these queries out concurrently and assembles the
results into a models.EDAReport.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomtom215/recensus/internal/models"
)

// categoryScope returns the WHERE clause and args for an optional category
// filter. The clause always starts with WHERE so queries can append filters
// with AND.
func categoryScope(category string) (string, []interface{}) {
	if category == "" {
		return "WHERE 1=1", []interface{}{}
	}
	return "WHERE category = ?", []interface{}{category}
}

// GetDatasetOverview returns snapshot-wide summary figures in one pass.
// An empty snapshot yields zero values rather than an error.
func (db *DB) GetDatasetOverview(ctx context.Context, category string) (*models.DatasetOverview, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	scope, args := categoryScope(category)

	query := fmt.Sprintf(`
	SELECT
		COUNT(*) as total_reviews,
		COUNT(DISTINCT reviewer_id) as distinct_reviewers,
		COUNT(DISTINCT product_id) as distinct_products,
		COUNT(DISTINCT category) as categories,
		AVG(rating) as avg_rating,
		AVG(review_length) as avg_review_length,
		AVG(CASE WHEN verified_purchase THEN 1.0 ELSE 0.0 END) as verified_share,
		MIN(year) as first_year,
		MAX(year) as last_year
	FROM cleaned_reviews
	%s`, scope)

	var o models.DatasetOverview
	var avgRating, avgLength, verifiedShare sql.NullFloat64
	var firstYear, lastYear sql.NullInt64

	err := db.conn.QueryRowContext(ctx, query, args...).Scan(
		&o.TotalReviews, &o.DistinctReviewers, &o.DistinctProducts,
		&o.Categories, &avgRating, &avgLength, &verifiedShare,
		&firstYear, &lastYear,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset overview: %w", err)
	}

	o.AvgRating = avgRating.Float64
	o.AvgReviewLength = avgLength.Float64
	o.VerifiedShare = verifiedShare.Float64
	o.FirstYear = int(firstYear.Int64)
	o.LastYear = int(lastYear.Int64)

	return &o, nil
}

// GetRatingHistogram returns review counts per star rating, ascending.
func (db *DB) GetRatingHistogram(ctx context.Context, category string) ([]models.RatingBucket, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	scope, args := categoryScope(category)

	query := fmt.Sprintf(`
	SELECT rating, COUNT(*) as review_count
	FROM cleaned_reviews
	%s
	GROUP BY rating
	ORDER BY rating`, scope)

	scanBucket := func(rows *sql.Rows) (models.RatingBucket, error) {
		var b models.RatingBucket
		err := rows.Scan(&b.Rating, &b.Count)
		return b, err
	}

	buckets, err := queryAndScan(ctx, db.conn, query, args, scanBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating histogram: %w", err)
	}

	return buckets, nil
}

// GetLengthHistogram returns review counts binned by token count. Each bin
// is labelled with its inclusive upper bound; lengths above maxBucket share
// the final bin so a handful of extreme reviews cannot stretch the axis.
func (db *DB) GetLengthHistogram(ctx context.Context, category string, binWidth, maxBucket int) ([]models.LengthBucket, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if binWidth <= 0 {
		return nil, fmt.Errorf("bin width must be positive, got %d", binWidth)
	}
	if maxBucket < binWidth {
		maxBucket = binWidth
	}

	scope, args := categoryScope(category)

	query := fmt.Sprintf(`
	SELECT
		LEAST(CAST(CEIL(review_length / CAST(? AS DOUBLE)) AS INTEGER) * ?, ?) as upper_bound,
		COUNT(*) as review_count
	FROM cleaned_reviews
	%s
	GROUP BY upper_bound
	ORDER BY upper_bound`, scope)

	queryArgs := append([]interface{}{binWidth, binWidth, maxBucket}, args...)

	scanBucket := func(rows *sql.Rows) (models.LengthBucket, error) {
		var b models.LengthBucket
		err := rows.Scan(&b.UpperBound, &b.Count)
		return b, err
	}

	buckets, err := queryAndScan(ctx, db.conn, query, queryArgs, scanBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to query length histogram: %w", err)
	}

	return buckets, nil
}

// GetYearlyCounts returns review volume and mean rating per calendar year.
func (db *DB) GetYearlyCounts(ctx context.Context, category string) ([]models.YearCount, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	scope, args := categoryScope(category)

	query := fmt.Sprintf(`
	SELECT year, COUNT(*) as review_count, AVG(rating) as avg_rating
	FROM cleaned_reviews
	%s
	GROUP BY year
	ORDER BY year`, scope)

	scanYear := func(rows *sql.Rows) (models.YearCount, error) {
		var y models.YearCount
		err := rows.Scan(&y.Year, &y.Count, &y.AvgRating)
		return y, err
	}

	years, err := queryAndScan(ctx, db.conn, query, args, scanYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query yearly counts: %w", err)
	}

	return years, nil
}

// GetLengthRatingCorrelation returns the Pearson correlation between review
// length and rating. DuckDB's corr() returns NULL when either column has
// zero variance or the scope is empty; that degenerate case surfaces as nil
// rather than a fake zero.
func (db *DB) GetLengthRatingCorrelation(ctx context.Context, category string) (*float64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	scope, args := categoryScope(category)

	query := fmt.Sprintf(`
	SELECT corr(review_length, rating)
	FROM cleaned_reviews
	%s`, scope)

	var corr sql.NullFloat64
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&corr); err != nil {
		return nil, fmt.Errorf("failed to query length-rating correlation: %w", err)
	}

	if !corr.Valid {
		return nil, nil
	}
	return &corr.Float64, nil
}

// GetTopBrands returns the brand leaderboard by review count. The "unknown"
// sentinel assigned to rows without store metadata is excluded; it is not a
// brand and would otherwise dominate every leaderboard.
func (db *DB) GetTopBrands(ctx context.Context, category string, limit int) ([]models.BrandStat, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	scope, args := categoryScope(category)

	query := fmt.Sprintf(`
	SELECT brand, COUNT(*) as review_count, AVG(rating) as avg_rating
	FROM cleaned_reviews
	%s AND brand != ?
	GROUP BY brand
	ORDER BY review_count DESC, brand
	LIMIT ?`, scope)

	queryArgs := append(args, models.UnknownBrand, limit)

	scanBrand := func(rows *sql.Rows) (models.BrandStat, error) {
		var b models.BrandStat
		err := rows.Scan(&b.Brand, &b.Reviews, &b.AvgRating)
		return b, err
	}

	brands, err := queryAndScan(ctx, db.conn, query, queryArgs, scanBrand)
	if err != nil {
		return nil, fmt.Errorf("failed to query top brands: %w", err)
	}

	return brands, nil
}

// GetCategoryStats returns per-category aggregates ordered by review count.
func (db *DB) GetCategoryStats(ctx context.Context) ([]models.CategoryStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
	SELECT
		category,
		COUNT(*) as review_count,
		COUNT(DISTINCT product_id) as product_count,
		COUNT(DISTINCT reviewer_id) as reviewer_count,
		AVG(rating) as avg_rating
	FROM cleaned_reviews
	GROUP BY category
	ORDER BY review_count DESC, category`

	scanCategory := func(rows *sql.Rows) (models.CategoryStats, error) {
		var c models.CategoryStats
		err := rows.Scan(&c.Category, &c.Reviews, &c.Products, &c.Reviewers, &c.AvgRating)
		return c, err
	}

	stats, err := queryAndScan(ctx, db.conn, query, []interface{}{}, scanCategory)
	if err != nil {
		return nil, fmt.Errorf("failed to query category stats: %w", err)
	}

	return stats, nil
}

// GetSentimentBreakdown returns review counts per derived sentiment label.
func (db *DB) GetSentimentBreakdown(ctx context.Context, category string) (*models.SentimentBreakdown, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	scope, args := categoryScope(category)

	query := fmt.Sprintf(`
	SELECT
		COALESCE(SUM(CASE WHEN sentiment = 'positive' THEN 1 ELSE 0 END), 0) as positive,
		COALESCE(SUM(CASE WHEN sentiment = 'negative' THEN 1 ELSE 0 END), 0) as negative,
		COALESCE(SUM(CASE WHEN sentiment = 'neutral' THEN 1 ELSE 0 END), 0) as neutral
	FROM cleaned_reviews
	%s`, scope)

	var s models.SentimentBreakdown
	err := db.conn.QueryRowContext(ctx, query, args...).Scan(&s.Positive, &s.Negative, &s.Neutral)
	if err != nil {
		return nil, fmt.Errorf("failed to query sentiment breakdown: %w", err)
	}

	return &s, nil
}

// GetStats returns the snapshot summary served by the stats API endpoint.
func (db *DB) GetStats(ctx context.Context) (*models.StatsResponse, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var stats models.StatsResponse
	err := db.conn.QueryRowContext(ctx, `
	SELECT
		COUNT(*) as total_reviews,
		COUNT(DISTINCT product_id) as total_products,
		COUNT(DISTINCT reviewer_id) as total_reviewers
	FROM cleaned_reviews`).Scan(&stats.TotalReviews, &stats.TotalProducts, &stats.TotalReviewers)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot totals: %w", err)
	}

	categories, err := db.GetCategoryStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.Categories = categories

	return &stats, nil
}
