// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/recensus/internal/config"
	"github.com/tomtom215/recensus/internal/logging"
	"github.com/tomtom215/recensus/internal/pipeline"
)

var (
	ingestCategories []string
	ingestDryRun     bool
	ingestFresh      bool

	sampleFraction float64
	sampleSeed     int64
)

// ingestCmd runs the preprocessing pipeline.
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the preprocessing pipeline over raw review files",
	Long: `Ingest reads per-category raw review and product-metadata files
(raw_review_<Category>.jsonl[.gz] and raw_meta_<Category>.jsonl[.gz]) from the
dataset directory, joins them on parent ASIN, applies the missing-value policy,
derives review_length, year and sentiment, and loads the cleaned rows into the
DuckDB snapshot. Categories are processed strictly one at a time.

Completed categories are checkpointed and skipped on re-runs; --fresh clears
all checkpoints first. --dry-run parses and counts without writing.`,
	Example: `  recensus ingest --categories All_Beauty,Gift_Cards
  recensus ingest --fresh
  recensus ingest --dry-run --categories Software`,
	RunE: runIngest,
}

// sampleCmd materializes the seeded rating sample.
var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Materialize the seeded rating sample to a table",
	Long: `Sample draws a uniform Bernoulli sample of (reviewer_id, product_id,
rating) triples from the cleaned snapshot, seeded over the stable ingest order
so the same seed and data always produce the identical sample, and writes it
to the sample_ratings table for the recommend stage.`,
	Example: `  recensus sample
  recensus sample --fraction 0.001 --seed 7`,
	RunE: runSample,
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestCategories, "categories", nil, "Categories to ingest (default: configured or all present)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "Parse and count without writing")
	ingestCmd.Flags().BoolVar(&ingestFresh, "fresh", false, "Clear all checkpoints before ingesting")

	sampleCmd.Flags().Float64Var(&sampleFraction, "fraction", 0, "Sample fraction in (0, 1] (default: configured)")
	sampleCmd.Flags().Int64Var(&sampleSeed, "seed", 0, "Sample seed (default: configured)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	checkpoints, err := openCheckpoints(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := checkpoints.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Msg("Error closing checkpoint store")
		}
	}()

	if ingestFresh {
		if err := checkpoints.ClearAll(ctx); err != nil {
			return fmt.Errorf("failed to clear checkpoints: %w", err)
		}
		logging.Info().Msg("Checkpoints cleared")
	}

	categories, err := resolveCategories(cfg, ingestCategories)
	if err != nil {
		return err
	}

	p := pipeline.New(&cfg.Pipeline, &cfg.Dataset, db, checkpoints)
	p.SetDryRun(ingestDryRun)

	logging.Info().
		Strs("categories", categories).
		Bool("dry_run", ingestDryRun).
		Msg("Starting ingest")

	results, runErr := p.Run(ctx, categories)

	var loaded int64
	var failed int
	for _, result := range results {
		if result.Err != nil {
			failed++
			continue
		}
		loaded += result.Stats.RowsLoaded
	}

	logging.Info().
		Int("categories", len(results)).
		Int("failed", failed).
		Int64("rows_loaded", loaded).
		Msg("Ingest finished")

	if runErr != nil {
		return fmt.Errorf("ingest aborted: %w", runErr)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d categories failed", failed, len(results))
	}
	return nil
}

// checkpointCloser unifies the Badger and in-memory checkpoint stores for
// the deferred close.
type checkpointCloser interface {
	pipeline.CheckpointStore
	Close() error
}

// openCheckpoints opens the Badger checkpoint store, or an in-memory one
// when checkpointing is disabled (every run starts from scratch).
func openCheckpoints(cfg *config.Config) (checkpointCloser, error) {
	if !cfg.Pipeline.CheckpointEnabled {
		logging.Info().Msg("Checkpointing disabled, starting fresh")
		return pipeline.NewInMemoryCheckpoints(), nil
	}

	checkpoints, err := pipeline.OpenBadgerCheckpoints(cfg.Pipeline.CheckpointDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
	}
	return checkpoints, nil
}

func runSample(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	if sampleFraction > 0 {
		cfg.Sample.Fraction = sampleFraction
	}
	if cmd.Flags().Changed("seed") {
		cfg.Sample.Seed = sampleSeed
	}

	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	sampled, err := db.CreateSampleRatings(ctx, cfg.Sample.Fraction, cfg.Sample.Seed)
	if err != nil {
		return fmt.Errorf("failed to materialize sample: %w", err)
	}

	logging.Info().
		Int64("rows", sampled).
		Float64("fraction", cfg.Sample.Fraction).
		Int64("seed", cfg.Sample.Seed).
		Msg("Sample materialized")

	fmt.Fprintf(cmd.OutOrStdout(), "sampled %d ratings (fraction=%g, seed=%d)\n",
		sampled, cfg.Sample.Fraction, cfg.Sample.Seed)
	return nil
}
