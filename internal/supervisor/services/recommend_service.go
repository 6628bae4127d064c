// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RecommendEngine defines the training surface of the recommendation
// engine. The service depends on this interface rather than the concrete
// engine to avoid a circular import with internal/recommend.
type RecommendEngine interface {
	// Train fits all registered algorithms against the current dataset.
	Train(ctx context.Context) error
}

// RecommendServiceConfig holds configuration for the recommendation service.
type RecommendServiceConfig struct {
	// TrainOnStartup triggers a training run when the service starts.
	TrainOnStartup bool

	// TrainInterval is how often to retrain models.
	TrainInterval time.Duration
}

// RecommendService wraps the recommendation engine for Suture supervision.
// It owns the training lifecycle: an optional startup run plus periodic
// retraining on a ticker. Training failures are logged and retried on the
// next tick rather than propagated, so a transient database error never
// restarts the service.
type RecommendService struct {
	engine RecommendEngine
	config RecommendServiceConfig
	logger zerolog.Logger
	name   string
}

// NewRecommendService creates a new recommendation training service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecommendService(engine RecommendEngine, cfg RecommendServiceConfig, logger zerolog.Logger) *RecommendService {
	return &RecommendService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "recommend").Logger(),
		name:   "recommend-service",
	}
}

// Serve implements the suture.Service interface.
// It manages the training loop for the recommendation engine.
func (s *RecommendService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("train_interval", s.config.TrainInterval).
		Msg("recommendation service starting")

	if s.config.TrainOnStartup {
		s.logger.Info().Msg("training models on startup")
		if err := s.train(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("initial training failed (will retry on schedule)")
		}
	}

	if s.config.TrainInterval <= 0 {
		s.config.TrainInterval = 24 * time.Hour
	}

	ticker := time.NewTicker(s.config.TrainInterval)
	defer ticker.Stop()

	s.logger.Info().Msg("recommendation service running")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("recommendation service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.logger.Debug().Msg("scheduled training triggered")
			if err := s.train(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled training failed")
			}
		}
	}
}

// train performs a single training cycle with its own timeout.
func (s *RecommendService) train(ctx context.Context) error {
	trainCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	start := time.Now()
	s.logger.Info().Msg("starting model training")

	if err := s.engine.Train(trainCtx); err != nil {
		return err
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Msg("model training complete")

	return nil
}

// String returns the service name for logging.
func (s *RecommendService) String() string {
	return s.name
}
