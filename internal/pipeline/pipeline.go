// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/recensus/internal/config"
	"github.com/tomtom215/recensus/internal/dataset"
	"github.com/tomtom215/recensus/internal/logging"
	"github.com/tomtom215/recensus/internal/metrics"
	"github.com/tomtom215/recensus/internal/models"
)

// ErrEmptyAfterFilter marks a category whose source had rows but none
// survived cleaning. A truly empty source file is a valid empty result,
// not an error.
var ErrEmptyAfterFilter = errors.New("no rows survived filtering")

// defaultBatchSize is used when the configured batch size is not positive.
const defaultBatchSize = 5000

// SnapshotStore is the pipeline's write surface on the cleaned snapshot.
// Satisfied by database.DB.
type SnapshotStore interface {
	InsertCleanedReviewsBatch(ctx context.Context, reviews []*models.CleanedReview) (int, error)
	DedupeReviews(ctx context.Context, category string) (int64, error)
	DeleteCategory(ctx context.Context, category string) (int64, error)
	CountReviews(ctx context.Context, category string) (int64, error)
	InsertIngestRun(ctx context.Context, run *models.IngestRun) error
	CompleteIngestRun(ctx context.Context, id string, stats *models.IngestStats) error
	FailIngestRun(ctx context.Context, id string, stats *models.IngestStats, runErr error) error
}

// CategoryResult is the outcome of ingesting one category.
type CategoryResult struct {
	Category string
	RunID    string
	Skipped  bool // checkpoint says the category already completed
	Stats    models.IngestStats
	Err      error
}

// Pipeline ingests raw review and metadata files into the cleaned snapshot,
// one category at a time. Only one category's metadata index is resident at
// any moment, and the snapshot has a single writer.
type Pipeline struct {
	cfg         *config.PipelineConfig
	data        *config.DatasetConfig
	store       SnapshotStore
	checkpoints CheckpointStore
	mapper      *Mapper
	dryRun      bool

	// State
	mu       sync.RWMutex
	running  bool
	stats    *models.IngestStats
	stopChan chan struct{}
}

// New creates an ingest pipeline. checkpoints may be nil to disable
// resumability.
func New(cfg *config.PipelineConfig, data *config.DatasetConfig, store SnapshotStore, checkpoints CheckpointStore) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		data:        data,
		store:       store,
		checkpoints: checkpoints,
		mapper:      NewMapper(),
		stopChan:    make(chan struct{}),
	}
}

// SetDryRun switches the pipeline to parse and count without writing to
// the snapshot, the run table, or the checkpoint store.
func (p *Pipeline) SetDryRun(dryRun bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dryRun = dryRun
}

// Run ingests the given categories in order, strictly one at a time.
// A category failure is recorded in its CategoryResult and does not stop
// later categories; Run itself returns an error only when the run as a
// whole cannot continue (context canceled or stopped).
func (p *Pipeline) Run(ctx context.Context, categories []string) ([]CategoryResult, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, fmt.Errorf("ingest already in progress")
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	results := make([]CategoryResult, 0, len(categories))
	for _, category := range categories {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		case <-p.stopChan:
			return results, fmt.Errorf("ingest canceled")
		default:
		}

		result := p.runCategory(ctx, category)
		results = append(results, result)

		if result.Err != nil {
			if errors.Is(result.Err, context.Canceled) || errors.Is(result.Err, context.DeadlineExceeded) {
				return results, result.Err
			}
			logging.Error().
				Err(result.Err).
				Str("category", category).
				Msg("Category ingest failed")
			continue
		}

		if result.Skipped {
			logging.Info().
				Str("category", category).
				Msg("Category already ingested, skipping")
		}
	}

	return results, nil
}

// runCategory ingests a single category end to end: resume or fresh start,
// metadata index, batched merge+clean+load, table-wide dedup, verification,
// and run bookkeeping.
func (p *Pipeline) runCategory(ctx context.Context, category string) CategoryResult {
	result := CategoryResult{Category: category}

	resumeStats, err := p.loadCheckpoint(ctx, category)
	if err != nil {
		result.Err = err
		return result
	}
	if resumeStats != nil && !resumeStats.EndTime.IsZero() {
		result.Skipped = true
		result.Stats = *resumeStats
		return result
	}

	p.mu.Lock()
	p.stats = &models.IngestStats{StartTime: time.Now().UTC(), DryRun: p.dryRun}
	if resumeStats != nil {
		start := p.stats.StartTime
		*p.stats = *resumeStats
		p.stats.StartTime = start
		p.stats.EndTime = time.Time{}
		p.stats.DryRun = p.dryRun
	}
	stats := p.stats
	dryRun := p.dryRun
	p.mu.Unlock()

	run := &models.IngestRun{
		ID:        uuid.NewString(),
		Category:  category,
		StartedAt: stats.StartTime,
		Stats:     models.IngestStats{DryRun: dryRun},
	}
	result.RunID = run.ID
	if err := p.store.InsertIngestRun(ctx, run); err != nil {
		result.Err = fmt.Errorf("record ingest run: %w", err)
		return result
	}

	start := time.Now()
	err = p.ingestCategory(ctx, category, stats, resumeStats != nil, dryRun)

	p.mu.Lock()
	stats.EndTime = time.Now().UTC()
	result.Stats = *stats
	p.mu.Unlock()

	metrics.RecordIngestRun(category, time.Since(start), result.Stats.ReviewsRead, result.Stats.RowsLoaded, err)
	metrics.RecordIngestDrops(category, result.Stats.MalformedLines, result.Stats.JoinMisses,
		result.Stats.DroppedPolicy, result.Stats.Duplicates)

	if err != nil {
		result.Err = err
		if failErr := p.store.FailIngestRun(ctx, run.ID, &result.Stats, err); failErr != nil {
			logging.Warn().Err(failErr).Str("run_id", run.ID).Msg("Failed to mark run failed")
		}
		return result
	}

	if err := p.store.CompleteIngestRun(ctx, run.ID, &result.Stats); err != nil {
		result.Err = fmt.Errorf("record run completion: %w", err)
		return result
	}
	p.saveCheckpoint(ctx, category, &result.Stats)

	logging.Info().
		Str("category", category).
		Str("run_id", run.ID).
		Int64("reviews_read", result.Stats.ReviewsRead).
		Int64("malformed", result.Stats.MalformedLines).
		Int64("join_misses", result.Stats.JoinMisses).
		Int64("dropped_policy", result.Stats.DroppedPolicy).
		Int64("duplicates", result.Stats.Duplicates).
		Int64("rows_loaded", result.Stats.RowsLoaded).
		Bool("dry_run", dryRun).
		Dur("duration", result.Stats.Duration()).
		Msg("Category ingest completed")

	return result
}

// ingestCategory performs the data movement for one category. stats is
// updated in place under the pipeline mutex so GetStats stays consistent.
func (p *Pipeline) ingestCategory(ctx context.Context, category string, stats *models.IngestStats, resuming, dryRun bool) error {
	// A fresh (non-resumed) load first clears any rows left behind by an
	// earlier failed attempt so re-runs are idempotent.
	if !resuming && !dryRun {
		removed, err := p.store.DeleteCategory(ctx, category)
		if err != nil {
			return fmt.Errorf("clear previous load: %w", err)
		}
		if removed > 0 {
			logging.Info().
				Str("category", category).
				Int64("removed", removed).
				Msg("Cleared rows from a previous incomplete load")
		}
	}

	index, err := p.buildIndex(ctx, category, stats)
	if err != nil {
		return err
	}

	reviews, err := dataset.OpenReviewFile(p.data.Dir, category)
	if err != nil {
		return fmt.Errorf("open reviews: %w", err)
	}
	defer func() {
		if closeErr := reviews.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Error closing review reader")
		}
	}()

	// Resume by skipping the raw lines already consumed; their counters
	// were restored from the checkpoint.
	var skipBase int64
	if resuming && stats.ReviewsRead > 0 {
		if err := reviews.Skip(stats.ReviewsRead); err != nil {
			return fmt.Errorf("skip to checkpoint: %w", err)
		}
		skipBase = reviews.Lines()
		logging.Info().
			Str("category", category).
			Int64("lines_skipped", skipBase).
			Msg("Resuming ingest from checkpoint")
	}
	readBase := stats.ReviewsRead
	malformedBase := stats.MalformedLines

	if err := p.processBatches(ctx, category, reviews, index, stats, readBase, malformedBase, skipBase, dryRun); err != nil {
		return err
	}

	if !dryRun {
		// Table-wide pass: idempotent, and also collapses rows cross-listed
		// in an earlier category's file.
		duplicates, err := p.store.DedupeReviews(ctx, "")
		if err != nil {
			return fmt.Errorf("dedupe: %w", err)
		}
		p.mu.Lock()
		stats.Duplicates += duplicates
		p.mu.Unlock()
	}

	p.mu.Lock()
	stats.RowsLoaded = stats.RowsStaged - stats.Duplicates
	p.mu.Unlock()

	if stats.ReviewsRead > 0 && stats.RowsLoaded == 0 {
		return fmt.Errorf("category %s: read %d rows: %w", category, stats.ReviewsRead, ErrEmptyAfterFilter)
	}

	return nil
}

// buildIndex streams the category's metadata file into memory.
func (p *Pipeline) buildIndex(ctx context.Context, category string, stats *models.IngestStats) (*MetaIndex, error) {
	meta, err := dataset.OpenMetaFile(p.data.Dir, category)
	if err != nil {
		return nil, fmt.Errorf("open metadata: %w", err)
	}
	defer func() {
		if closeErr := meta.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Error closing metadata reader")
		}
	}()

	index, err := BuildMetaIndex(ctx, meta)
	if err != nil {
		return nil, fmt.Errorf("build metadata index: %w", err)
	}

	p.mu.Lock()
	stats.ProductsIndexed = int64(index.Len())
	stats.MalformedLines += meta.Malformed()
	p.mu.Unlock()

	logging.Info().
		Str("category", category).
		Int("products", index.Len()).
		Int64("skipped", index.Skipped()).
		Int64("malformed", meta.Malformed()).
		Msg("Metadata index built")

	return index, nil
}

// processBatches reads, cleans, and loads review batches until the file is
// exhausted, the row cap is reached, or the run is interrupted.
func (p *Pipeline) processBatches(ctx context.Context, category string, reviews *dataset.ReviewReader,
	index *MetaIndex, stats *models.IngestStats, readBase, malformedBase, skipBase int64, dryRun bool) error {
	batchSize := p.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopChan:
			return fmt.Errorf("ingest canceled")
		default:
		}

		limit := batchSize
		if p.cfg.MaxRows > 0 {
			remaining := p.cfg.MaxRows - stats.ReviewsRead
			if remaining <= 0 {
				return nil
			}
			if remaining < int64(limit) {
				limit = int(remaining)
			}
		}

		batch, err := reviews.ReadBatch(ctx, limit)
		if err != nil {
			return fmt.Errorf("read batch: %w", err)
		}
		if len(batch) == 0 {
			// Account for trailing malformed lines consumed before EOF.
			p.mu.Lock()
			stats.ReviewsRead = readBase + (reviews.Lines() - skipBase)
			stats.MalformedLines = malformedBase + reviews.Malformed()
			p.mu.Unlock()
			return nil
		}

		cleaned := p.cleanBatch(batch, index, stats)

		staged := len(cleaned)
		if !dryRun && staged > 0 {
			inserted, err := p.store.InsertCleanedReviewsBatch(ctx, cleaned)
			if err != nil {
				return fmt.Errorf("load batch: %w", err)
			}
			staged = inserted
		}

		p.mu.Lock()
		stats.ReviewsRead = readBase + (reviews.Lines() - skipBase)
		stats.MalformedLines = malformedBase + reviews.Malformed()
		stats.RowsStaged += int64(staged)
		statsCopy := *stats
		p.mu.Unlock()

		if !dryRun {
			p.saveCheckpoint(ctx, category, &statsCopy)
		}

		logging.Debug().
			Str("category", category).
			Int64("reviews_read", statsCopy.ReviewsRead).
			Int64("rows_staged", statsCopy.RowsStaged).
			Float64("records_per_second", statsCopy.RecordsPerSecond()).
			Msg("Ingest progress")
	}
}

// cleanBatch applies the merge and missing-value policy to one raw batch.
func (p *Pipeline) cleanBatch(batch []models.RawReview, index *MetaIndex, stats *models.IngestStats) []*models.CleanedReview {
	cleaned := make([]*models.CleanedReview, 0, len(batch))
	var joinMisses, droppedPolicy int64

	for i := range batch {
		review := &batch[i]

		product, ok := index.Lookup(review.ParentASIN)
		if !ok {
			joinMisses++
			continue
		}
		if err := p.mapper.ValidateReview(review); err != nil {
			droppedPolicy++
			continue
		}
		cleaned = append(cleaned, p.mapper.ToCleanedReview(review, product))
	}

	p.mu.Lock()
	stats.JoinMisses += joinMisses
	stats.DroppedPolicy += droppedPolicy
	p.mu.Unlock()

	return cleaned
}

// loadCheckpoint reads a category's saved progress, if checkpointing is on.
func (p *Pipeline) loadCheckpoint(ctx context.Context, category string) (*models.IngestStats, error) {
	if p.checkpoints == nil || !p.cfg.CheckpointEnabled {
		return nil, nil
	}
	stats, err := p.checkpoints.Load(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return stats, nil
}

// saveCheckpoint persists progress, logging rather than failing on error.
func (p *Pipeline) saveCheckpoint(ctx context.Context, category string, stats *models.IngestStats) {
	if p.checkpoints == nil || !p.cfg.CheckpointEnabled || stats.DryRun {
		return
	}
	if err := p.checkpoints.Save(ctx, category, stats); err != nil {
		logging.Warn().Err(err).Str("category", category).Msg("Failed to save checkpoint")
	}
}

// Stop cancels a running ingest between batches.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return fmt.Errorf("no ingest in progress")
	}

	close(p.stopChan)
	p.stopChan = make(chan struct{}) // Reset for the next run

	return nil
}

// GetStats returns a copy of the current category's statistics.
func (p *Pipeline) GetStats() *models.IngestStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stats == nil {
		return &models.IngestStats{}
	}

	stats := *p.stats
	return &stats
}

// IsRunning returns whether an ingest is currently in progress.
func (p *Pipeline) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}
