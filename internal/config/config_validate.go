// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package config

import (
	"fmt"
)

// Validate checks that configuration values are present and in range.
// Dataset.Dir is intentionally not required here: only the ingest command
// needs it and it verifies the directory at startup.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}

	if err := c.validateSample(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateExport(); err != nil {
		return err
	}

	if err := c.validateEDA(); err != nil {
		return err
	}

	if err := c.validateClassify(); err != nil {
		return err
	}

	if err := c.validateCluster(); err != nil {
		return err
	}

	if err := c.validateRecommend(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validatePipeline validates ingest pipeline settings
func (c *Config) validatePipeline() error {
	if c.Pipeline.BatchSize < 1 {
		return fmt.Errorf("PIPELINE_BATCH_SIZE must be at least 1, got %d", c.Pipeline.BatchSize)
	}
	if c.Pipeline.Workers < 0 {
		return fmt.Errorf("PIPELINE_WORKERS must be >= 0 (0 = all CPUs), got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.MaxRows < 0 {
		return fmt.Errorf("PIPELINE_MAX_ROWS must be >= 0 (0 = unlimited), got %d", c.Pipeline.MaxRows)
	}
	if c.Pipeline.CheckpointEnabled && c.Pipeline.CheckpointDir == "" {
		return fmt.Errorf("PIPELINE_CHECKPOINT_DIR is required when PIPELINE_CHECKPOINT_ENABLED=true")
	}
	return nil
}

// validateSample validates sampling settings
func (c *Config) validateSample() error {
	if c.Sample.Fraction <= 0 || c.Sample.Fraction > 1 {
		return fmt.Errorf("SAMPLE_FRACTION must be in (0, 1], got %g", c.Sample.Fraction)
	}
	return nil
}

// validateDatabase validates DuckDB settings
func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0 (0 = all CPUs), got %d", c.Database.Threads)
	}
	return nil
}

// validateExport validates export settings
func (c *Config) validateExport() error {
	switch c.Export.Format {
	case "parquet", "csv":
	default:
		return fmt.Errorf("EXPORT_FORMAT must be parquet or csv, got %q", c.Export.Format)
	}

	switch c.Export.Compression {
	case "zstd", "snappy", "gzip", "uncompressed":
	default:
		return fmt.Errorf("EXPORT_COMPRESSION must be zstd, snappy, gzip or uncompressed, got %q", c.Export.Compression)
	}
	return nil
}

// validateEDA validates report settings
func (c *Config) validateEDA() error {
	if c.EDA.TopBrands < 1 {
		return fmt.Errorf("EDA_TOP_BRANDS must be at least 1, got %d", c.EDA.TopBrands)
	}
	if c.EDA.HistogramBins < 1 {
		return fmt.Errorf("EDA_HISTOGRAM_BINS must be at least 1, got %d", c.EDA.HistogramBins)
	}
	if c.EDA.MaxLengthBucket < 1 {
		return fmt.Errorf("EDA_MAX_LENGTH_BUCKET must be at least 1, got %d", c.EDA.MaxLengthBucket)
	}
	return nil
}

// validateClassify validates classifier hyperparameters
func (c *Config) validateClassify() error {
	if c.Classify.TestFraction <= 0 || c.Classify.TestFraction >= 1 {
		return fmt.Errorf("CLASSIFY_TEST_FRACTION must be in (0, 1), got %g", c.Classify.TestFraction)
	}
	if c.Classify.Epochs < 1 {
		return fmt.Errorf("CLASSIFY_EPOCHS must be at least 1, got %d", c.Classify.Epochs)
	}
	if c.Classify.LearningRate <= 0 {
		return fmt.Errorf("CLASSIFY_LEARNING_RATE must be positive, got %g", c.Classify.LearningRate)
	}
	if c.Classify.L2 < 0 {
		return fmt.Errorf("CLASSIFY_L2 must be >= 0, got %g", c.Classify.L2)
	}
	// Below 10 bits collisions dominate; above 24 the weight vector
	// exceeds what a single training run can justify.
	if c.Classify.HashBits < 10 || c.Classify.HashBits > 24 {
		return fmt.Errorf("CLASSIFY_HASH_BITS must be between 10 and 24, got %d", c.Classify.HashBits)
	}
	return nil
}

// validateCluster validates clustering hyperparameters
func (c *Config) validateCluster() error {
	if c.Cluster.K < 2 {
		return fmt.Errorf("CLUSTER_K must be at least 2, got %d", c.Cluster.K)
	}
	if c.Cluster.MaxIterations < 1 {
		return fmt.Errorf("CLUSTER_MAX_ITERATIONS must be at least 1, got %d", c.Cluster.MaxIterations)
	}
	if c.Cluster.Tolerance < 0 {
		return fmt.Errorf("CLUSTER_TOLERANCE must be >= 0, got %g", c.Cluster.Tolerance)
	}
	return nil
}

// validateRecommend validates recommender hyperparameters
func (c *Config) validateRecommend() error {
	if c.Recommend.Factors < 1 {
		return fmt.Errorf("RECOMMEND_FACTORS must be at least 1, got %d", c.Recommend.Factors)
	}
	if c.Recommend.Iterations < 1 {
		return fmt.Errorf("RECOMMEND_ITERATIONS must be at least 1, got %d", c.Recommend.Iterations)
	}
	if c.Recommend.Regularization < 0 {
		return fmt.Errorf("RECOMMEND_REGULARIZATION must be >= 0, got %g", c.Recommend.Regularization)
	}
	if c.Recommend.MinReviews < 1 {
		return fmt.Errorf("RECOMMEND_MIN_REVIEWS must be at least 1, got %d", c.Recommend.MinReviews)
	}
	if c.Recommend.HoldoutFraction <= 0 || c.Recommend.HoldoutFraction >= 1 {
		return fmt.Errorf("RECOMMEND_HOLDOUT_FRACTION must be in (0, 1), got %g", c.Recommend.HoldoutFraction)
	}
	if c.Recommend.NumWorkers < 0 {
		return fmt.Errorf("RECOMMEND_WORKERS must be >= 0 (0 = all CPUs), got %d", c.Recommend.NumWorkers)
	}
	if c.Recommend.Enabled && c.Recommend.TrainInterval <= 0 {
		return fmt.Errorf("RECOMMEND_TRAIN_INTERVAL must be positive when RECOMMEND_ENABLED=true")
	}
	return nil
}

// validateServer validates HTTP server settings
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("HTTP_HOST must not be empty")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}

	switch c.Server.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development or production, got %q", c.Server.Environment)
	}
	return nil
}

// validateAPI validates API limits
func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be at least 1, got %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE (%d) must be >= API_DEFAULT_PAGE_SIZE (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	if !c.API.RateLimitDisabled {
		if c.API.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.API.RateLimitReqs)
		}
		if c.API.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.API.RateLimitWindow)
		}
	}
	return nil
}

// validateLogging validates logging settings
func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal; got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
