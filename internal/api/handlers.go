// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package api

import (
	"context"
	"time"

	"github.com/tomtom215/recensus/internal/config"
	"github.com/tomtom215/recensus/internal/models"
)

// Store is the snapshot read surface the API serves from. Satisfied by
// database.DB.
type Store interface {
	Ping(ctx context.Context) error
	GetRecordCounts(ctx context.Context) (reviews, runs int64, err error)
	GetStats(ctx context.Context) (*models.StatsResponse, error)
	GetCategoryStats(ctx context.Context) ([]models.CategoryStats, error)
	ListReviews(ctx context.Context, q models.ReviewsQuery) ([]models.CleanedReview, int64, error)
	ListIngestRuns(ctx context.Context, limit int) ([]models.IngestRun, error)
	GetDatasetOverview(ctx context.Context, category string) (*models.DatasetOverview, error)
	GetRatingHistogram(ctx context.Context, category string) ([]models.RatingBucket, error)
	GetLengthHistogram(ctx context.Context, category string, binWidth, maxBucket int) ([]models.LengthBucket, error)
	GetYearlyCounts(ctx context.Context, category string) ([]models.YearCount, error)
	GetLengthRatingCorrelation(ctx context.Context, category string) (*float64, error)
	GetTopBrands(ctx context.Context, category string, limit int) ([]models.BrandStat, error)
	GetSentimentBreakdown(ctx context.Context, category string) (*models.SentimentBreakdown, error)
}

// RecommendEngine is the trained-recommender surface the API queries.
// Satisfied by recommend.Engine.
type RecommendEngine interface {
	TopK(ctx context.Context, reviewerID string, k int) ([]models.RecommendedItem, string, error)
	Similar(ctx context.Context, productID string, k int) ([]models.RecommendedItem, error)
}

// Handler contains dependencies for the API handlers.
//
// Handler methods are split across files by concern; see the package doc
// for the layout. The recommender engine is optional: when it is absent
// the recommendation endpoints respond 503 and everything else works.
type Handler struct {
	store     Store
	config    *config.Config
	engine    RecommendEngine
	startTime time.Time
}

// NewHandler creates an API handler serving from the given store.
func NewHandler(store Store, cfg *config.Config) *Handler {
	return &Handler{
		store:     store,
		config:    cfg,
		startTime: time.Now(),
	}
}

// SetRecommendEngine wires the trained recommender into the handler.
// Called during serve startup when background retraining is enabled;
// should not be called after the router starts serving.
func (h *Handler) SetRecommendEngine(engine RecommendEngine) {
	h.engine = engine
}

// getPageSizeConfig returns the configured default and maximum page sizes
// with fallbacks applied.
func (h *Handler) getPageSizeConfig() (defaultSize, maxSize int) {
	defaultSize, maxSize = 20, 100
	if h.config == nil {
		return defaultSize, maxSize
	}
	if h.config.API.DefaultPageSize > 0 {
		defaultSize = h.config.API.DefaultPageSize
	}
	if h.config.API.MaxPageSize > 0 {
		maxSize = h.config.API.MaxPageSize
	}
	return defaultSize, maxSize
}
