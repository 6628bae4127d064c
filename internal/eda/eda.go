// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

// Package eda assembles the exploratory report over the cleaned snapshot.
//
// The report's sections come from independent read-only aggregate queries,
// so they are gathered concurrently; a failure in any one aborts the whole
// build. An optional category scopes every section except the per-category
// comparison table.
package eda

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/recensus/internal/config"
	"github.com/tomtom215/recensus/internal/logging"
	"github.com/tomtom215/recensus/internal/metrics"
	"github.com/tomtom215/recensus/internal/models"
)

// Fallbacks for unset report knobs.
const (
	defaultTopBrands       = 20
	defaultHistogramBins   = 50
	defaultMaxLengthBucket = 1000
)

// snapshotColumns are the cleaned_reviews columns the report queries touch.
// Verified up front so a stale database file fails with one clear error
// instead of eight query failures.
var snapshotColumns = []string{
	"reviewer_id",
	"product_id",
	"rating",
	"verified_purchase",
	"category",
	"brand",
	"review_length",
	"year",
	"sentiment",
}

// Store is the read surface the report is built from. Satisfied by
// database.DB.
type Store interface {
	VerifyColumns(ctx context.Context, table string, required []string) error
	GetDatasetOverview(ctx context.Context, category string) (*models.DatasetOverview, error)
	GetRatingHistogram(ctx context.Context, category string) ([]models.RatingBucket, error)
	GetLengthHistogram(ctx context.Context, category string, binWidth, maxBucket int) ([]models.LengthBucket, error)
	GetYearlyCounts(ctx context.Context, category string) ([]models.YearCount, error)
	GetLengthRatingCorrelation(ctx context.Context, category string) (*float64, error)
	GetTopBrands(ctx context.Context, category string, limit int) ([]models.BrandStat, error)
	GetCategoryStats(ctx context.Context) ([]models.CategoryStats, error)
	GetSentimentBreakdown(ctx context.Context, category string) (*models.SentimentBreakdown, error)
}

// Builder produces EDA reports from a snapshot store.
type Builder struct {
	cfg   *config.EDAConfig
	store Store
}

// NewBuilder creates a report builder.
func NewBuilder(cfg *config.EDAConfig, store Store) *Builder {
	return &Builder{cfg: cfg, store: store}
}

// TopBrandLimit returns the configured brand leaderboard size with the
// default applied. Shared by the report builder and the API handlers.
func TopBrandLimit(cfg *config.EDAConfig) int {
	if cfg != nil && cfg.TopBrands > 0 {
		return cfg.TopBrands
	}
	return defaultTopBrands
}

// LengthBinning derives the token width of one length histogram bin from
// the configured bin count and the capped maximum length. Shared by the
// report builder and the API handlers.
func LengthBinning(cfg *config.EDAConfig) (binWidth, maxBucket int) {
	var bins int
	if cfg != nil {
		bins = cfg.HistogramBins
		maxBucket = cfg.MaxLengthBucket
	}
	if bins <= 0 {
		bins = defaultHistogramBins
	}
	if maxBucket <= 0 {
		maxBucket = defaultMaxLengthBucket
	}
	binWidth = maxBucket / bins
	if binWidth < 1 {
		binWidth = 1
	}
	return binWidth, maxBucket
}

// BuildReport runs every report section concurrently and assembles the
// result. category may be empty to span the whole snapshot.
func (b *Builder) BuildReport(ctx context.Context, category string) (report *models.EDAReport, err error) {
	start := time.Now()
	defer func() { metrics.RecordStage(metrics.StageEDA, time.Since(start), err) }()

	if verifyErr := b.store.VerifyColumns(ctx, "cleaned_reviews", snapshotColumns); verifyErr != nil {
		err = fmt.Errorf("snapshot precheck: %w", verifyErr)
		return nil, err
	}

	report = &models.EDAReport{
		GeneratedAt: time.Now().UTC(),
		Category:    category,
	}
	binWidth, maxBucket := LengthBinning(b.cfg)

	// Each goroutine fills a distinct report field; Wait orders the writes
	// before the return.
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		overview, err := b.store.GetDatasetOverview(egCtx, category)
		if err != nil {
			return fmt.Errorf("overview: %w", err)
		}
		report.Overview = *overview
		return nil
	})

	eg.Go(func() error {
		histogram, err := b.store.GetRatingHistogram(egCtx, category)
		if err != nil {
			return fmt.Errorf("rating histogram: %w", err)
		}
		report.RatingHistogram = histogram
		return nil
	})

	eg.Go(func() error {
		histogram, err := b.store.GetLengthHistogram(egCtx, category, binWidth, maxBucket)
		if err != nil {
			return fmt.Errorf("length histogram: %w", err)
		}
		report.LengthHistogram = histogram
		return nil
	})

	eg.Go(func() error {
		years, err := b.store.GetYearlyCounts(egCtx, category)
		if err != nil {
			return fmt.Errorf("yearly counts: %w", err)
		}
		report.YearlyCounts = years
		return nil
	})

	eg.Go(func() error {
		correlation, err := b.store.GetLengthRatingCorrelation(egCtx, category)
		if err != nil {
			return fmt.Errorf("length-rating correlation: %w", err)
		}
		report.LengthRatingCorrelation = correlation
		return nil
	})

	eg.Go(func() error {
		brands, err := b.store.GetTopBrands(egCtx, category, TopBrandLimit(b.cfg))
		if err != nil {
			return fmt.Errorf("top brands: %w", err)
		}
		report.TopBrands = brands
		return nil
	})

	eg.Go(func() error {
		stats, err := b.store.GetCategoryStats(egCtx)
		if err != nil {
			return fmt.Errorf("category stats: %w", err)
		}
		report.CategoryStats = stats
		return nil
	})

	eg.Go(func() error {
		sentiment, err := b.store.GetSentimentBreakdown(egCtx, category)
		if err != nil {
			return fmt.Errorf("sentiment breakdown: %w", err)
		}
		report.Sentiment = *sentiment
		return nil
	})

	if err = eg.Wait(); err != nil {
		return nil, err
	}

	logging.Info().
		Str("category", category).
		Int64("total_reviews", report.Overview.TotalReviews).
		Dur("duration", time.Since(start)).
		Msg("EDA report built")

	return report, nil
}
