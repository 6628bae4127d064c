// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/recensus/internal/models"
)

// Note: algorithms depend on this package for the contract, and this package
// depends only on models. The DataProvider interface lets the database layer
// plug in without a circular import.

// ErrNotTrained is returned by prediction methods before the first
// successful Train call.
var ErrNotTrained = errors.New("model is not trained")

// ErrTrainingInProgress is returned when Train is called while another
// training run holds the engine.
var ErrTrainingInProgress = errors.New("training already in progress")

// ErrNoRatings is returned when the sample yields no usable rating triples.
var ErrNoRatings = errors.New("no rating triples available for training")

// Algorithm is the contract shared by the rating predictors.
//
// Train replaces the model under an exclusive lock; the read methods take a
// shared lock, so a model can serve predictions while a retrain is pending.
type Algorithm interface {
	// Name returns the algorithm identifier.
	Name() string

	// Train fits the model on rating triples. An empty input trains an
	// empty model: IsTrained becomes true and predictions return the
	// neutral midpoint of the rating scale.
	Train(ctx context.Context, ratings []models.RatingTriple) error

	// Predict estimates the rating the reviewer would give the product,
	// falling back to the training-set global mean when either side is
	// unknown. The result is clamped to the 1..5 rating scale.
	Predict(ctx context.Context, reviewerID, productID string) (float64, error)

	// PredictTopK ranks the k best unrated products for the reviewer.
	// A nil slice with nil error means the model cannot rank for this
	// reviewer (unknown to the factorization); callers fall back.
	PredictTopK(ctx context.Context, reviewerID string, k int) ([]models.RecommendedItem, error)

	// IsTrained reports whether Train has completed at least once.
	IsTrained() bool

	// Version is incremented on every successful Train.
	Version() int

	// LastTrainedAt returns the wall time of the last successful Train.
	LastTrainedAt() time.Time
}

// SimilarityPredictor is implemented by algorithms that can rank products
// by similarity to a given product. Unknown products yield a nil slice
// with a nil error.
type SimilarityPredictor interface {
	PredictSimilar(ctx context.Context, productID string, k int) ([]models.RecommendedItem, error)
}

// DataProvider supplies rating triples for training. Implemented by the
// database layer.
type DataProvider interface {
	// GetMaterializedSample returns the triples persisted by the sample
	// stage, in snapshot order. Empty means no sample has been
	// materialized.
	GetMaterializedSample(ctx context.Context) ([]models.RatingTriple, error)

	// GetSampleRatings draws the seeded Bernoulli sample directly from
	// the snapshot without materializing it.
	GetSampleRatings(ctx context.Context, fraction float64, seed int64) ([]models.RatingTriple, error)
}

// Status describes the engine's training state for the API and CLI.
type Status struct {
	Trained       bool                    `json:"trained"`
	Training      bool                    `json:"training"`
	ModelVersion  int                     `json:"model_version"`
	LastTrainedAt *time.Time              `json:"last_trained_at,omitempty"`
	LastError     string                  `json:"last_error,omitempty"`
	Report        *models.RecommendReport `json:"report,omitempty"`
}
