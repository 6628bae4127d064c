// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/recensus/internal/classify"
	"github.com/tomtom215/recensus/internal/cluster"
	"github.com/tomtom215/recensus/internal/config"
	"github.com/tomtom215/recensus/internal/database"
	"github.com/tomtom215/recensus/internal/logging"
	"github.com/tomtom215/recensus/internal/recommend"
	"github.com/tomtom215/recensus/internal/recommend/algorithms"
)

var (
	classifyOutput  string
	clusterOutput   string
	recommendOutput string
)

// classifyCmd trains and evaluates the sentiment classifier.
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Train and evaluate the sentiment classifier",
	Long: `Classify trains a hashed bag-of-words logistic regression on the
cleaned rows whose sentiment is positive or negative (neutral rows are
excluded), scores it on a seeded holdout split, and emits accuracy,
precision, recall, F1, and the confusion matrix as JSON. The model is
persisted when a model directory is configured.`,
	Example: `  recensus classify
  recensus classify --output classify_report.json`,
	RunE: runClassify,
}

// clusterCmd clusters products by their aggregate review behavior.
var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "K-means over per-product aggregates",
	Long: `Cluster runs seeded k-means over per-product features read from the
snapshot — review count, mean rating, mean review length, and price (NULL
prices imputed with the category mean). Features are z-score standardized
before clustering; the report carries cluster sizes, de-standardized
centroids, and inertia.`,
	Example: `  recensus cluster
  recensus cluster --output clusters.json`,
	RunE: runCluster,
}

// recommendCmd trains the ALS recommender and evaluates it.
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Train ALS on sampled ratings and evaluate",
	Long: `Recommend trains explicit-feedback ALS matrix factorization on the
seeded rating sample (the materialized sample_ratings table when present,
otherwise a direct seeded draw), holds out part of each reviewer's ratings,
and reports RMSE and MAE against the damped-mean popularity baseline.`,
	Example: `  recensus recommend
  recensus recommend --output recommend_report.json`,
	RunE: runRecommend,
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyOutput, "output", "o", "", "Write the report to a file instead of stdout")
	clusterCmd.Flags().StringVarP(&clusterOutput, "output", "o", "", "Write the report to a file instead of stdout")
	recommendCmd.Flags().StringVarP(&recommendOutput, "output", "o", "", "Write the report to a file instead of stdout")
}

func runClassify(cmd *cobra.Command, args []string) error {
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

	trainer := classify.NewTrainer(&cfg.Classify, db)
	report, err := trainer.Run(ctx)
	if err != nil {
		return fmt.Errorf("classify failed: %w", err)
	}

	return writeJSON(classifyOutput, report)
}

func runCluster(cmd *cobra.Command, args []string) error {
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

	trainer := cluster.NewTrainer(&cfg.Cluster, db)
	report, err := trainer.Run(ctx)
	if err != nil {
		return fmt.Errorf("cluster failed: %w", err)
	}

	return writeJSON(clusterOutput, report)
}

func runRecommend(cmd *cobra.Command, args []string) error {
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

	engine := buildRecommendEngine(cfg, db)
	if err := engine.Train(ctx); err != nil {
		return fmt.Errorf("recommend training failed: %w", err)
	}

	return writeJSON(recommendOutput, engine.Report())
}

// buildRecommendEngine assembles the recommendation engine with the ALS
// predictor and the popularity baseline. Shared by the recommend command
// and serve mode.
func buildRecommendEngine(cfg *config.Config, db *database.DB) *recommend.Engine {
	engine := recommend.NewEngine(&cfg.Recommend, &cfg.Sample, logging.Logger())
	engine.SetDataProvider(db)
	engine.RegisterPredictor(algorithms.NewALS(algorithms.ALSConfig{
		NumFactors:     cfg.Recommend.Factors,
		NumIterations:  cfg.Recommend.Iterations,
		Regularization: cfg.Recommend.Regularization,
		NumWorkers:     cfg.Recommend.NumWorkers,
	}))
	engine.RegisterBaseline(algorithms.NewPopularity(algorithms.DefaultPopularityConfig()))
	return engine
}
