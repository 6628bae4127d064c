// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/recensus/config.yaml",
	"/etc/recensus/config.yml",
}

// ConfigPathEnvVar is the environment variable that overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Dir:        "",
			Categories: []string{}, // empty = ingest every category found in Dir
		},
		Pipeline: PipelineConfig{
			BatchSize:         5000,
			Workers:           0, // 0 = use runtime.NumCPU()
			MaxRows:           0, // unlimited
			CheckpointEnabled: true,
			CheckpointDir:     "/data/recensus/checkpoints",
		},
		Sample: SampleConfig{
			Fraction: 0.0001, // 0.01% of the full 571M-review dump is plenty for ALS
			Seed:     42,
		},
		Database: DatabaseConfig{
			Path:                   "/data/recensus.duckdb",
			MaxMemory:              "2GB",
			Threads:                0,    // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true, // DuckDB default
		},
		Export: ExportConfig{
			Dir:                 "./export",
			Format:              "parquet",
			Compression:         "zstd",
			PartitionByCategory: true,
		},
		EDA: EDAConfig{
			TopBrands:       20,
			HistogramBins:   50,
			MaxLengthBucket: 1000,
		},
		Classify: ClassifyConfig{
			TestFraction: 0.2,
			Seed:         42,
			Epochs:       5,
			LearningRate: 0.1,
			L2:           1e-4,
			HashBits:     18,
			ModelDir:     "/data/recensus/models",
		},
		Cluster: ClusterConfig{
			K:             5,
			MaxIterations: 100,
			Tolerance:     1e-4,
			Seed:          42,
		},
		Recommend: RecommendConfig{
			Enabled:         false, // background retraining is opt-in
			Factors:         32,
			Iterations:      15,
			Regularization:  0.1,
			MinReviews:      3,
			HoldoutFraction: 0.2,
			NumWorkers:      0, // 0 = use runtime.NumCPU()
			Seed:            42,
			TrainInterval:   24 * time.Hour,
			TrainOnStartup:  false,
		},
		Server: ServerConfig{
			Port:        8490,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			DefaultPageSize:   20,
			MaxPageSize:       100,
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence: ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// DATASET_DIR -> dataset.dir
	// PIPELINE_BATCH_SIZE -> pipeline.batch_size
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated slices
var sliceConfigPaths = []string{
	"dataset.categories",
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DATASET_DIR -> dataset.dir
//   - PIPELINE_BATCH_SIZE -> pipeline.batch_size
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Dataset mappings
		"dataset_dir":        "dataset.dir",
		"dataset_categories": "dataset.categories",

		// Pipeline mappings
		"pipeline_batch_size":         "pipeline.batch_size",
		"pipeline_workers":            "pipeline.workers",
		"pipeline_max_rows":           "pipeline.max_rows",
		"pipeline_checkpoint_enabled": "pipeline.checkpoint_enabled",
		"pipeline_checkpoint_dir":     "pipeline.checkpoint_dir",

		// Sample mappings
		"sample_fraction": "sample.fraction",
		"sample_seed":     "sample.seed",

		// Database mappings
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Export mappings
		"export_dir":                   "export.dir",
		"export_format":                "export.format",
		"export_compression":           "export.compression",
		"export_partition_by_category": "export.partition_by_category",

		// EDA mappings
		"eda_top_brands":        "eda.top_brands",
		"eda_histogram_bins":    "eda.histogram_bins",
		"eda_max_length_bucket": "eda.max_length_bucket",

		// Classifier mappings
		"classify_test_fraction": "classify.test_fraction",
		"classify_seed":          "classify.seed",
		"classify_epochs":        "classify.epochs",
		"classify_learning_rate": "classify.learning_rate",
		"classify_l2":            "classify.l2",
		"classify_hash_bits":     "classify.hash_bits",
		"classify_model_dir":     "classify.model_dir",

		// Clustering mappings
		"cluster_k":              "cluster.k",
		"cluster_max_iterations": "cluster.max_iterations",
		"cluster_tolerance":      "cluster.tolerance",
		"cluster_seed":           "cluster.seed",

		// Recommender mappings
		"recommend_enabled":          "recommend.enabled",
		"recommend_factors":          "recommend.factors",
		"recommend_iterations":       "recommend.iterations",
		"recommend_regularization":   "recommend.regularization",
		"recommend_min_reviews":      "recommend.min_reviews",
		"recommend_holdout_fraction": "recommend.holdout_fraction",
		"recommend_workers":          "recommend.num_workers",
		"recommend_seed":             "recommend.seed",
		"recommend_train_interval":   "recommend.train_interval",
		"recommend_train_on_startup": "recommend.train_on_startup",

		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// API mappings
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",
		"rate_limit_requests":   "api.rate_limit_reqs",
		"rate_limit_window":     "api.rate_limit_window",
		"disable_rate_limit":    "api.rate_limit_disabled",
		"cors_origins":          "api.cors_origins",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them.
	// This prevents random environment variables from polluting config.
	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// The caller is responsible for mutex protection when accessing
// configuration during reloads.
//
// Example usage:
//
//	err := WatchConfigFile(configPath, func() {
//	    newCfg, err := config.Load()
//	    if err != nil {
//	        logging.Error().Err(err).Msg("Config reload failed")
//	        return
//	    }
//	    swapConfig(newCfg)
//	})
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
