// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package config

import (
	"time"
)

// Config holds all application configuration loaded from environment
// variables and an optional YAML config file.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting
//
// Configuration Categories:
//
//  1. Data:
//     - Dataset: Location and selection of raw review/metadata sources
//     - Database: DuckDB configuration (path, memory, threads)
//     - Export: Parquet/CSV export of the cleaned table
//
//  2. Processing:
//     - Pipeline: Ingest batching, checkpointing, resume behavior
//     - Sample: Deterministic row sampling
//     - Classify / Cluster / Recommend: Model hyperparameters
//
//  3. Serving:
//     - Server: HTTP server (port, host, timeout, environment)
//     - API: Pagination, rate limiting, CORS
//
//  4. Observability:
//     - Logging: Log levels and output formats
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load config")
//	}
//	db, err := database.New(cfg.Database)
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Dataset   DatasetConfig   `koanf:"dataset"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Sample    SampleConfig    `koanf:"sample"`
	Database  DatabaseConfig  `koanf:"database"`
	Export    ExportConfig    `koanf:"export"`
	EDA       EDAConfig       `koanf:"eda"`
	Classify  ClassifyConfig  `koanf:"classify"`
	Cluster   ClusterConfig   `koanf:"cluster"`
	Recommend RecommendConfig `koanf:"recommend"`
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatasetConfig locates the raw dataset files on disk.
//
// The ingest pipeline expects per-category JSON Lines files named
// raw_review_<Category>.jsonl and raw_meta_<Category>.jsonl, optionally
// gzip-compressed with a .gz suffix, all inside Dir.
//
// Environment Variables:
//   - DATASET_DIR: Directory containing the raw files
//   - DATASET_CATEGORIES: Comma-separated category allowlist (empty = all found)
type DatasetConfig struct {
	Dir        string   `koanf:"dir"`
	Categories []string `koanf:"categories"`
}

// PipelineConfig controls the ingest pipeline.
//
// Environment Variables:
//   - PIPELINE_BATCH_SIZE: Rows per database batch insert (default: 5000)
//   - PIPELINE_WORKERS: Parse worker count, 0 = runtime.NumCPU() (default: 0)
//   - PIPELINE_MAX_ROWS: Cap on raw rows read per category, 0 = unlimited
//   - PIPELINE_CHECKPOINT_ENABLED: Persist resume checkpoints (default: true)
//   - PIPELINE_CHECKPOINT_DIR: Badger checkpoint directory
type PipelineConfig struct {
	BatchSize         int    `koanf:"batch_size"`
	Workers           int    `koanf:"workers"` // 0 = runtime.NumCPU()
	MaxRows           int64  `koanf:"max_rows"`
	CheckpointEnabled bool   `koanf:"checkpoint_enabled"`
	CheckpointDir     string `koanf:"checkpoint_dir"`
}

// SampleConfig controls deterministic sampling of the cleaned table.
//
// Environment Variables:
//   - SAMPLE_FRACTION: Fraction of rows to keep, in (0, 1] (default: 0.0001)
//   - SAMPLE_SEED: PRNG seed; same seed and data yield the same sample (default: 42)
type SampleConfig struct {
	Fraction float64 `koanf:"fraction"`
	Seed     int64   `koanf:"seed"`
}

// DatabaseConfig holds DuckDB settings.
//
// Environment Variables:
//   - DUCKDB_PATH: Database file path (default: /data/recensus.duckdb)
//   - DUCKDB_MAX_MEMORY: Memory limit, e.g. "2GB" (default: 2GB)
//   - DUCKDB_THREADS: Thread count, 0 = runtime.NumCPU() (default: 0)
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // 0 = use runtime.NumCPU()
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// ExportConfig controls exports of the cleaned table.
//
// Environment Variables:
//   - EXPORT_DIR: Output directory (default: ./export)
//   - EXPORT_FORMAT: parquet or csv (default: parquet)
//   - EXPORT_COMPRESSION: Parquet codec: zstd, snappy, gzip, uncompressed (default: zstd)
//   - EXPORT_PARTITION_BY_CATEGORY: Write one partition per category (default: true)
type ExportConfig struct {
	Dir                 string `koanf:"dir"`
	Format              string `koanf:"format"`
	Compression         string `koanf:"compression"`
	PartitionByCategory bool   `koanf:"partition_by_category"`
}

// EDAConfig controls exploratory report generation.
type EDAConfig struct {
	TopBrands       int `koanf:"top_brands"`       // brand leaderboard size (default: 20)
	HistogramBins   int `koanf:"histogram_bins"`   // review length histogram bins (default: 50)
	MaxLengthBucket int `koanf:"max_length_bucket"` // lengths above this share the last bin (default: 1000)
}

// ClassifyConfig holds sentiment classifier hyperparameters.
//
// The classifier is a hashed bag-of-words logistic regression trained
// with SGD on rows whose sentiment is positive or negative.
//
// Environment Variables:
//   - CLASSIFY_TEST_FRACTION: Holdout fraction in (0, 1) (default: 0.2)
//   - CLASSIFY_SEED: Split and shuffle seed (default: 42)
//   - CLASSIFY_EPOCHS: SGD epochs (default: 5)
//   - CLASSIFY_LEARNING_RATE: SGD step size (default: 0.1)
//   - CLASSIFY_L2: L2 regularization strength (default: 0.0001)
//   - CLASSIFY_HASH_BITS: log2 of feature space size (default: 18)
//   - CLASSIFY_MODEL_DIR: Directory for persisted models
type ClassifyConfig struct {
	TestFraction float64 `koanf:"test_fraction"`
	Seed         int64   `koanf:"seed"`
	Epochs       int     `koanf:"epochs"`
	LearningRate float64 `koanf:"learning_rate"`
	L2           float64 `koanf:"l2"`
	HashBits     int     `koanf:"hash_bits"`
	ModelDir     string  `koanf:"model_dir"`
}

// ClusterConfig holds k-means clustering hyperparameters.
//
// Environment Variables:
//   - CLUSTER_K: Number of clusters (default: 5)
//   - CLUSTER_MAX_ITERATIONS: Lloyd iteration cap (default: 100)
//   - CLUSTER_TOLERANCE: Centroid shift convergence threshold (default: 0.0001)
//   - CLUSTER_SEED: Centroid initialization seed (default: 42)
type ClusterConfig struct {
	K             int     `koanf:"k"`
	MaxIterations int     `koanf:"max_iterations"`
	Tolerance     float64 `koanf:"tolerance"`
	Seed          int64   `koanf:"seed"`
}

// RecommendConfig holds recommender hyperparameters and the optional
// background retraining service used in serve mode.
//
// Environment Variables:
//   - RECOMMEND_ENABLED: Enable background retraining in serve mode (default: false)
//   - RECOMMEND_FACTORS: ALS latent factor count (default: 32)
//   - RECOMMEND_ITERATIONS: ALS sweeps (default: 15)
//   - RECOMMEND_REGULARIZATION: ALS lambda (default: 0.1)
//   - RECOMMEND_MIN_REVIEWS: Minimum reviews per user and product (default: 3)
//   - RECOMMEND_HOLDOUT_FRACTION: Per-user eval holdout (default: 0.2)
//   - RECOMMEND_WORKERS: Solver worker count, 0 = runtime.NumCPU()
//   - RECOMMEND_SEED: Factor initialization seed (default: 42)
//   - RECOMMEND_TRAIN_INTERVAL: Retrain period in serve mode (default: 24h)
//   - RECOMMEND_TRAIN_ON_STARTUP: Train immediately when serving (default: false)
type RecommendConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Factors         int           `koanf:"factors"`
	Iterations      int           `koanf:"iterations"`
	Regularization  float64       `koanf:"regularization"`
	MinReviews      int           `koanf:"min_reviews"`
	HoldoutFraction float64       `koanf:"holdout_fraction"`
	NumWorkers      int           `koanf:"num_workers"` // 0 = use runtime.NumCPU()
	Seed            int64         `koanf:"seed"`
	TrainInterval   time.Duration `koanf:"train_interval"`
	TrainOnStartup  bool          `koanf:"train_on_startup"`
}

// ServerConfig holds HTTP server settings for serve mode.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 8490)
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_TIMEOUT: Read/write timeout (default: 30s)
//   - ENVIRONMENT: development or production (default: development)
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// APIConfig holds request handling limits for the reporting API.
//
// Environment Variables:
//   - API_DEFAULT_PAGE_SIZE: Default list page size (default: 20)
//   - API_MAX_PAGE_SIZE: Maximum list page size (default: 100)
//   - RATE_LIMIT_REQUESTS: Requests per window per client (default: 100)
//   - RATE_LIMIT_WINDOW: Rate limit window (default: 1m)
//   - DISABLE_RATE_LIMIT: Turn off rate limiting (default: false)
//   - CORS_ORIGINS: Comma-separated allowed origins (default: *)
type APIConfig struct {
	DefaultPageSize   int           `koanf:"default_page_size"`
	MaxPageSize       int           `koanf:"max_page_size"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: Include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from environment variables and an optional
// config file. Later sources override earlier ones:
//  1. Built-in defaults
//  2. Config file (config.yaml if present, or CONFIG_PATH)
//  3. Environment variables
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
