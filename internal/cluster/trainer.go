// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package cluster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/recensus/internal/config"
	"github.com/tomtom215/recensus/internal/logging"
	"github.com/tomtom215/recensus/internal/metrics"
	"github.com/tomtom215/recensus/internal/models"
)

// ErrNoProducts is returned when the snapshot yields no products to
// cluster.
var ErrNoProducts = errors.New("no products available for clustering")

// clusteringColumns are the cleaned_reviews columns the per-product
// aggregate query touches. Verified up front per the snapshot precheck
// rule.
var clusteringColumns = []string{"product_id", "category", "rating", "review_length", "price"}

// Store is the read surface clustering needs. Satisfied by database.DB.
type Store interface {
	VerifyColumns(ctx context.Context, table string, required []string) error
	GetProductFeatures(ctx context.Context) ([]models.ProductFeatures, error)
}

// Trainer runs the full clustering cycle against a snapshot.
type Trainer struct {
	cfg   *config.ClusterConfig
	store Store
}

// NewTrainer creates a trainer.
func NewTrainer(cfg *config.ClusterConfig, store Store) *Trainer {
	return &Trainer{cfg: cfg, store: store}
}

// Run reads per-product aggregates, standardizes them, fits k-means, and
// returns the report with centroids de-standardized into original feature
// units.
func (t *Trainer) Run(ctx context.Context) (report *models.ClusterReport, err error) {
	start := time.Now()
	defer func() { metrics.RecordStage(metrics.StageCluster, time.Since(start), err) }()

	if verifyErr := t.store.VerifyColumns(ctx, "cleaned_reviews", clusteringColumns); verifyErr != nil {
		err = fmt.Errorf("snapshot precheck: %w", verifyErr)
		return nil, err
	}

	products, err := t.store.GetProductFeatures(ctx)
	if err != nil {
		return nil, fmt.Errorf("load product features: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrNoProducts
	}

	points := make([][]float64, len(products))
	for i, p := range products {
		points[i] = featureVector(p)
	}
	means, stddevs := standardize(points)

	km := NewKMeans(KMeansConfig{
		K:             t.cfg.K,
		MaxIterations: t.cfg.MaxIterations,
		Tolerance:     t.cfg.Tolerance,
		Seed:          t.cfg.Seed,
	})
	result, err := km.Fit(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("fit k-means: %w", err)
	}

	clusters := make([]models.ClusterSummary, len(result.Centroids))
	for i, centroid := range result.Centroids {
		clusters[i] = models.ClusterSummary{
			ID:             i,
			Size:           result.Sizes[i],
			AvgReviewCount: destandardize(centroid[0], means[0], stddevs[0]),
			AvgRating:      destandardize(centroid[1], means[1], stddevs[1]),
			AvgLength:      destandardize(centroid[2], means[2], stddevs[2]),
			AvgPrice:       destandardize(centroid[3], means[3], stddevs[3]),
		}
	}

	report = &models.ClusterReport{
		TrainedAt:  time.Now().UTC(),
		K:          len(result.Centroids),
		Rows:       int64(len(products)),
		Iterations: result.Iterations,
		Converged:  result.Converged,
		Inertia:    result.Inertia,
		Clusters:   clusters,
	}

	logging.Info().
		Int("k", report.K).
		Int64("products", report.Rows).
		Int("iterations", report.Iterations).
		Bool("converged", report.Converged).
		Float64("inertia", report.Inertia).
		Dur("duration", time.Since(start)).
		Msg("Product clustering completed")

	return report, nil
}

// featureVector flattens one product's aggregates into the clustering
// point layout.
func featureVector(p models.ProductFeatures) []float64 {
	return []float64{float64(p.ReviewCount), p.AvgRating, p.AvgLength, p.Price}
}
