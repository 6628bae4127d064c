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

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/recensus/internal/models"
)

// checkpointPrefix namespaces ingest checkpoints inside the Badger store.
const checkpointPrefix = "ingest:progress:"

// CheckpointStore persists per-category ingest progress so an interrupted
// run can resume and a completed category can be skipped.
type CheckpointStore interface {
	// Save persists the progress for a category.
	Save(ctx context.Context, category string, stats *models.IngestStats) error

	// Load retrieves the saved progress for a category.
	// Returns nil, nil when no checkpoint exists.
	Load(ctx context.Context, category string) (*models.IngestStats, error)

	// Clear removes the checkpoint for one category.
	Clear(ctx context.Context, category string) error

	// ClearAll removes every ingest checkpoint (for fresh runs).
	ClearAll(ctx context.Context) error
}

func checkpointKey(category string) []byte {
	return []byte(checkpointPrefix + category)
}

// BadgerCheckpoints implements CheckpointStore using BadgerDB for
// persistence. This enables resumable ingests across application restarts.
type BadgerCheckpoints struct {
	db *badger.DB
}

// OpenBadgerCheckpoints opens a Badger store at dir for checkpoint use.
func OpenBadgerCheckpoints(dir string) (*BadgerCheckpoints, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for checkpoints: %w", err)
	}
	return &BadgerCheckpoints{db: db}, nil
}

// NewBadgerCheckpoints wraps an already-open BadgerDB instance.
func NewBadgerCheckpoints(db *badger.DB) *BadgerCheckpoints {
	return &BadgerCheckpoints{db: db}
}

// Save persists the progress for a category.
func (c *BadgerCheckpoints) Save(_ context.Context, category string, stats *models.IngestStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(checkpointKey(category), data)
	})
}

// Load retrieves the saved progress for a category.
// Returns nil, nil if no checkpoint has been saved.
func (c *BadgerCheckpoints) Load(_ context.Context, category string) (*models.IngestStats, error) {
	var stats models.IngestStats
	found := false

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(checkpointKey(category))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			found = true
			return json.Unmarshal(val, &stats)
		})
	})

	if err != nil {
		return nil, fmt.Errorf("load checkpoint for %s: %w", category, err)
	}
	if !found {
		return nil, nil
	}

	return &stats, nil
}

// Clear removes the checkpoint for one category.
func (c *BadgerCheckpoints) Clear(_ context.Context, category string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(checkpointKey(category))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Already cleared
		}
		return err
	})
}

// ClearAll removes every ingest checkpoint.
func (c *BadgerCheckpoints) ClearAll(_ context.Context) error {
	return c.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(checkpointPrefix)
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the underlying Badger store.
func (c *BadgerCheckpoints) Close() error {
	return c.db.Close()
}

// InMemoryCheckpoints implements CheckpointStore in memory. This is useful
// for testing or when persistence is not required.
type InMemoryCheckpoints struct {
	mu    sync.Mutex
	stats map[string]models.IngestStats
}

// NewInMemoryCheckpoints creates an empty in-memory checkpoint store.
func NewInMemoryCheckpoints() *InMemoryCheckpoints {
	return &InMemoryCheckpoints{stats: make(map[string]models.IngestStats)}
}

// Save stores a copy of the progress in memory.
func (c *InMemoryCheckpoints) Save(_ context.Context, category string, stats *models.IngestStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats[category] = *stats
	return nil
}

// Load retrieves the progress from memory.
func (c *InMemoryCheckpoints) Load(_ context.Context, category string) (*models.IngestStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats, ok := c.stats[category]
	if !ok {
		return nil, nil
	}
	statsCopy := stats
	return &statsCopy, nil
}

// Clear removes the stored progress for one category.
func (c *InMemoryCheckpoints) Clear(_ context.Context, category string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stats, category)
	return nil
}

// ClearAll removes all stored progress.
func (c *InMemoryCheckpoints) ClearAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = make(map[string]models.IngestStats)
	return nil
}

// Close is a no-op; in-memory state needs no teardown.
func (c *InMemoryCheckpoints) Close() error {
	return nil
}
