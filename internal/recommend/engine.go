// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package recommend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/recensus/internal/config"
	"github.com/tomtom215/recensus/internal/metrics"
	"github.com/tomtom215/recensus/internal/models"
)

// Engine coordinates the rating predictor and its popularity baseline.
// It owns the train cycle: load the rating sample, split off the holdout,
// fit both models on the train split, and score them against the holdout.
// It is safe for concurrent use; at most one training run executes at a
// time and predictions keep serving the previous model while one runs.
type Engine struct {
	config *config.RecommendConfig
	sample *config.SampleConfig
	logger zerolog.Logger

	// Data provider interface, typically the database layer.
	provider DataProvider

	// Registered models
	algMu     sync.RWMutex
	predictor Algorithm
	baseline  Algorithm

	// trainMu serializes training runs; TryLock turns a concurrent
	// request into ErrTrainingInProgress instead of a queue.
	trainMu sync.Mutex

	// Training state
	stateMu   sync.RWMutex
	training  bool
	report    *models.RecommendReport
	lastError string
}

// NewEngine creates a recommendation engine. The sample configuration
// supplies the fraction and seed for drawing ratings directly when no
// materialized sample exists.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *config.RecommendConfig, sample *config.SampleConfig, logger zerolog.Logger) *Engine {
	if cfg == nil {
		cfg = &config.RecommendConfig{}
	}
	if sample == nil {
		sample = &config.SampleConfig{Fraction: 0.0001, Seed: 42}
	}

	return &Engine{
		config: cfg,
		sample: sample,
		logger: logger.With().Str("component", "recommend").Logger(),
	}
}

// SetDataProvider sets the data provider for training.
func (e *Engine) SetDataProvider(dp DataProvider) {
	e.provider = dp
}

// RegisterPredictor sets the primary rating predictor. Predictions and
// similarity queries go through this model.
func (e *Engine) RegisterPredictor(alg Algorithm) {
	e.algMu.Lock()
	defer e.algMu.Unlock()

	e.predictor = alg
	e.logger.Info().
		Str("algorithm", alg.Name()).
		Msg("registered rating predictor")
}

// RegisterBaseline sets the non-personalized baseline. It anchors the
// holdout evaluation and serves rankings for reviewers the predictor
// does not know.
func (e *Engine) RegisterBaseline(alg Algorithm) {
	e.algMu.Lock()
	defer e.algMu.Unlock()

	e.baseline = alg
	e.logger.Info().
		Str("algorithm", alg.Name()).
		Msg("registered baseline")
}

// Train runs one full training cycle and stores the evaluation report.
// Returns ErrTrainingInProgress if a cycle is already running.
func (e *Engine) Train(ctx context.Context) (err error) {
	if !e.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	start := time.Now()
	defer func() { metrics.RecordStage(metrics.StageRecommend, time.Since(start), err) }()

	predictor, baseline := e.getAlgorithms()
	if predictor == nil {
		return fmt.Errorf("no rating predictor registered")
	}
	if e.provider == nil {
		return fmt.Errorf("data provider not set")
	}

	e.setTraining(true)
	defer e.setTraining(false)

	e.logger.Info().Msg("starting recommender training")

	ratings, err := e.loadRatings(ctx)
	if err != nil {
		e.recordError(err)
		return err
	}

	ratings = filterMinReviews(ratings, e.config.MinReviews)
	if len(ratings) == 0 {
		e.recordError(ErrNoRatings)
		return ErrNoRatings
	}

	train, holdout := splitHoldout(ratings, e.config.HoldoutFraction, e.config.Seed)
	reviewers, products := countEntities(train)

	e.logger.Info().
		Int("train", len(train)).
		Int("holdout", len(holdout)).
		Int("reviewers", reviewers).
		Int("products", products).
		Msg("loaded rating sample")

	if err := predictor.Train(ctx, train); err != nil {
		e.recordError(err)
		return fmt.Errorf("train %s: %w", predictor.Name(), err)
	}

	if baseline != nil {
		if err := baseline.Train(ctx, train); err != nil {
			e.recordError(err)
			return fmt.Errorf("train %s: %w", baseline.Name(), err)
		}
	}

	rmse, mae, err := evaluate(ctx, predictor, holdout)
	if err != nil {
		e.recordError(err)
		return fmt.Errorf("evaluate %s: %w", predictor.Name(), err)
	}

	var baseRMSE, baseMAE float64
	if baseline != nil {
		baseRMSE, baseMAE, err = evaluate(ctx, baseline, holdout)
		if err != nil {
			e.recordError(err)
			return fmt.Errorf("evaluate %s: %w", baseline.Name(), err)
		}
	}

	report := &models.RecommendReport{
		TrainedAt:    time.Now().UTC(),
		Users:        reviewers,
		Products:     products,
		Interactions: int64(len(train)),
		Factors:      e.config.Factors,
		Iterations:   e.config.Iterations,
		HoldoutSize:  int64(len(holdout)),
		RMSE:         rmse,
		MAE:          mae,
		BaselineRMSE: baseRMSE,
		BaselineMAE:  baseMAE,
	}

	e.stateMu.Lock()
	e.report = report
	e.lastError = ""
	e.stateMu.Unlock()

	metrics.RecommenderRMSE.Set(rmse)

	e.logger.Info().
		Int("version", predictor.Version()).
		Float64("rmse", rmse).
		Float64("mae", mae).
		Float64("baseline_rmse", baseRMSE).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("recommender training complete")

	return nil
}

// loadRatings returns the training sample. A previously materialized
// sample wins; otherwise the seeded sample is drawn directly from the
// snapshot with the configured fraction.
func (e *Engine) loadRatings(ctx context.Context) ([]models.RatingTriple, error) {
	triples, err := e.provider.GetMaterializedSample(ctx)
	if err != nil {
		return nil, fmt.Errorf("load materialized sample: %w", err)
	}
	if len(triples) > 0 {
		e.logger.Debug().
			Int("ratings", len(triples)).
			Msg("using materialized sample")
		return triples, nil
	}

	triples, err = e.provider.GetSampleRatings(ctx, e.sample.Fraction, e.sample.Seed)
	if err != nil {
		return nil, fmt.Errorf("sample ratings: %w", err)
	}

	e.logger.Debug().
		Int("ratings", len(triples)).
		Float64("fraction", e.sample.Fraction).
		Msg("sampled ratings directly from snapshot")
	return triples, nil
}

// TopK returns the k best products for the reviewer and the name of the
// model that produced the ranking. Reviewers unknown to the predictor
// fall back to the baseline.
func (e *Engine) TopK(ctx context.Context, reviewerID string, k int) ([]models.RecommendedItem, string, error) {
	predictor, baseline := e.getAlgorithms()
	if predictor == nil || !predictor.IsTrained() {
		return nil, "", ErrNotTrained
	}

	if k <= 0 {
		k = 10
	}

	items, err := predictor.PredictTopK(ctx, reviewerID, k)
	if err != nil {
		return nil, "", err
	}
	if items != nil {
		return items, predictor.Name(), nil
	}

	if baseline == nil || !baseline.IsTrained() {
		return []models.RecommendedItem{}, predictor.Name(), nil
	}

	items, err = baseline.PredictTopK(ctx, reviewerID, k)
	if err != nil {
		return nil, "", err
	}
	return items, baseline.Name(), nil
}

// Similar returns the k products closest to the given product in the
// predictor's latent space.
func (e *Engine) Similar(ctx context.Context, productID string, k int) ([]models.RecommendedItem, error) {
	predictor, _ := e.getAlgorithms()
	if predictor == nil || !predictor.IsTrained() {
		return nil, ErrNotTrained
	}

	sp, ok := predictor.(SimilarityPredictor)
	if !ok {
		return nil, fmt.Errorf("predictor %s does not support similarity queries", predictor.Name())
	}

	if k <= 0 {
		k = 10
	}

	items, err := sp.PredictSimilar(ctx, productID, k)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.RecommendedItem{}
	}
	return items, nil
}

// Status returns the current model state for the status endpoint.
func (e *Engine) Status() Status {
	predictor, _ := e.getAlgorithms()

	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	s := Status{
		Training:  e.training,
		LastError: e.lastError,
	}
	if e.report != nil {
		r := *e.report
		s.Report = &r
	}
	if predictor != nil {
		s.Trained = predictor.IsTrained()
		s.ModelVersion = predictor.Version()
		if t := predictor.LastTrainedAt(); !t.IsZero() {
			s.LastTrainedAt = &t
		}
	}
	return s
}

// Report returns the evaluation report from the last completed training
// cycle, or nil if none has completed.
func (e *Engine) Report() *models.RecommendReport {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	if e.report == nil {
		return nil
	}
	r := *e.report
	return &r
}

func (e *Engine) getAlgorithms() (predictor, baseline Algorithm) {
	e.algMu.RLock()
	defer e.algMu.RUnlock()
	return e.predictor, e.baseline
}

func (e *Engine) setTraining(v bool) {
	e.stateMu.Lock()
	e.training = v
	e.stateMu.Unlock()
}

func (e *Engine) recordError(err error) {
	e.stateMu.Lock()
	e.lastError = err.Error()
	e.stateMu.Unlock()

	e.logger.Error().Err(err).Msg("recommender training failed")
}

// filterMinReviews drops reviewers with fewer than minCount ratings.
// Cold reviewers add factor rows without enough signal to fit them.
func filterMinReviews(ratings []models.RatingTriple, minCount int) []models.RatingTriple {
	if minCount <= 1 {
		return ratings
	}

	counts := make(map[string]int, len(ratings))
	for _, r := range ratings {
		counts[r.ReviewerID]++
	}

	filtered := make([]models.RatingTriple, 0, len(ratings))
	for _, r := range ratings {
		if counts[r.ReviewerID] >= minCount {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// countEntities counts distinct reviewers and products in the triples.
func countEntities(ratings []models.RatingTriple) (reviewers, products int) {
	users := make(map[string]struct{}, len(ratings))
	items := make(map[string]struct{}, len(ratings))
	for _, r := range ratings {
		users[r.ReviewerID] = struct{}{}
		items[r.ProductID] = struct{}{}
	}
	return len(users), len(items)
}
