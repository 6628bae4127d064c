// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/recensus/internal/api"
	"github.com/tomtom215/recensus/internal/config"
	"github.com/tomtom215/recensus/internal/database"
	"github.com/tomtom215/recensus/internal/logging"
	"github.com/tomtom215/recensus/internal/metrics"
	"github.com/tomtom215/recensus/internal/recommend"
	"github.com/tomtom215/recensus/internal/supervisor"
	"github.com/tomtom215/recensus/internal/supervisor/services"
)

// serveCmd runs the supervised HTTP reporting API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the reporting API over HTTP",
	Long: `Serve exposes the cleaned snapshot over a read-only HTTP API: health
probes, dataset stats, paginated review listings, the EDA endpoints, and
(when enabled) ALS recommendations. Prometheus metrics are served at
/metrics.

The server runs under a suture supervision tree. With RECOMMEND_ENABLED the
tree also carries a training service that retrains the ALS model on the
configured interval.`,
	Example: `  recensus serve
  HTTP_PORT=9000 RECOMMEND_ENABLED=true recensus serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}

	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Recensus reporting API")

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	// === BUILD THE HTTP STACK ===

	handler := api.NewHandler(db, cfg)

	// The recommendation engine is optional; without it the recommendation
	// endpoints answer 503 and no training service is supervised.
	engine := buildServeEngine(cfg, db, handler)

	chiMiddleware := api.NewChiMiddlewareFromConfig(&cfg.API)
	router := api.NewRouter(handler, chiMiddleware).SetupChi()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// === BUILD THE SUPERVISOR TREE ===

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("failed to create supervisor tree: %w", err)
	}

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	if engine != nil {
		tree.AddTrainingService(services.NewRecommendService(engine, services.RecommendServiceConfig{
			TrainOnStartup: cfg.Recommend.TrainOnStartup,
			TrainInterval:  cfg.Recommend.TrainInterval,
		}, logging.Logger()))
		logging.Info().
			Dur("train_interval", cfg.Recommend.TrainInterval).
			Bool("train_on_startup", cfg.Recommend.TrainOnStartup).
			Msg("Recommendation training service added")
	}

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Reporting API stopped gracefully")
	return nil
}

// buildServeEngine wires the recommendation engine into the handler when
// enabled. Returns nil when recommendations are disabled.
func buildServeEngine(cfg *config.Config, db *database.DB, handler *api.Handler) *recommend.Engine {
	if !cfg.Recommend.Enabled {
		logging.Info().Msg("Recommendation engine disabled (RECOMMEND_ENABLED=false)")
		return nil
	}

	engine := buildRecommendEngine(cfg, db)
	handler.SetRecommendEngine(engine)
	logging.Info().
		Int("factors", cfg.Recommend.Factors).
		Msg("Recommendation engine enabled")
	return engine
}
