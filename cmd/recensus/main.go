// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

// Package main is the entry point for the recensus command line tool.
//
// Recensus preprocesses Amazon Reviews 2023 category dumps into a cleaned
// DuckDB snapshot and runs analytics and modeling stages on top of it. One
// binary carries every stage as a subcommand:
//
//	recensus ingest     Run the preprocessing pipeline for configured categories
//	recensus sample     Materialize the seeded rating sample to a table
//	recensus export     Write the cleaned snapshot as Parquet or CSV
//	recensus report     Compute the exploratory data report
//	recensus classify   Train and evaluate the sentiment classifier
//	recensus cluster    K-means over per-product aggregates
//	recensus recommend  Train ALS on sampled ratings and evaluate
//	recensus serve      Supervised HTTP server exposing the reporting API
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (DATASET_DIR, DUCKDB_PATH, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// Command flags override only what they name; everything else comes from
// the layered configuration.
//
// # Signal Handling
//
// Batch commands stop at the next category or batch boundary on SIGINT
// and SIGTERM. The serve command runs under a suture supervision tree and
// shuts the HTTP server down gracefully (10s drain timeout).
//
// # Example Usage
//
// Ingest two categories and compute the report:
//
//	export DATASET_DIR=/data/raw
//	export DUCKDB_PATH=/data/recensus.duckdb
//	recensus ingest --categories All_Beauty,Gift_Cards
//	recensus report --output report.json
//
// Serve the reporting API with background ALS retraining:
//
//	export RECOMMEND_ENABLED=true
//	export RECOMMEND_TRAIN_ON_STARTUP=true
//	recensus serve
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/recensus/internal/config"
	"github.com/tomtom215/recensus/internal/database"
	"github.com/tomtom215/recensus/internal/dataset"
	"github.com/tomtom215/recensus/internal/logging"
)

// version is reported by the version subcommand and the app_info metric.
const version = "1.0.0"

// rootCmd is the base command; every stage hangs off it as a subcommand.
var rootCmd = &cobra.Command{
	Use:   "recensus",
	Short: "Review dataset analytics and preprocessing",
	Long: `Recensus preprocesses Amazon Reviews 2023 category dumps into a cleaned
DuckDB snapshot and runs analytics and modeling stages on top of it.

The cleaned snapshot is built once by 'ingest' and then shared by every
downstream stage: exploratory reporting, sentiment classification, product
clustering, ALS recommendations, Parquet export, and the HTTP reporting API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(clusterCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// versionCmd prints the build version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the recensus version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "recensus %s\n", version)
	},
}

// bootstrap loads configuration and initializes the global logger.
// Every subcommand calls this first.
func bootstrap() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	return cfg, nil
}

// openDatabase opens the DuckDB snapshot using the loaded configuration.
func openDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logging.Info().Str("path", cfg.Database.Path).Msg("Database initialized")
	return db, nil
}

// closeDatabase closes the snapshot, logging instead of failing the
// command when close itself errors.
func closeDatabase(db *database.DB) {
	if err := db.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing database")
	}
}

// signalContext returns a context canceled on SIGINT or SIGTERM. Batch
// commands check it between categories and batches.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// resolveCategories returns the categories a command should process: the
// flag override when given, else the configured allowlist, else every
// category with a review file present in the dataset directory.
func resolveCategories(cfg *config.Config, override []string) ([]string, error) {
	categories := override
	if len(categories) == 0 {
		categories = cfg.Dataset.Categories
	}
	if len(categories) == 0 {
		found, err := dataset.ListPresentCategories(cfg.Dataset.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset directory: %w", err)
		}
		categories = found
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories to process: none configured and none found in %s", cfg.Dataset.Dir)
	}

	for i, category := range categories {
		categories[i] = dataset.NormalizeCategory(category)
		if !dataset.IsKnownCategory(categories[i]) {
			logging.Warn().
				Str("category", categories[i]).
				Msg("Category not in the published dataset list, ingesting anyway")
		}
	}

	return categories, nil
}

// writeJSON writes v as indented JSON to path, or to stdout when path is
// empty. Reports are the CLI's primary output, so they go to stdout while
// logs stay on stderr.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logging.Info().Str("path", path).Msg("Report written")
	return nil
}
