// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

// Package algorithms implements the rating predictors behind the
// recommendation engine.
//
// Each algorithm implements the recommend.Algorithm contract over explicit
// {reviewer_id, product_id, rating} triples:
//
//   - ALS: alternating least squares matrix factorization
//   - Popularity: damped-mean rating baseline
//
// # Thread Safety
//
// All algorithms are safe for concurrent use. Training acquires an
// exclusive lock while prediction uses a shared lock.
package algorithms

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/recensus/internal/models"
	"github.com/tomtom215/recensus/internal/recommend"
)

// Rating scale bounds of the source dataset.
const (
	minRating = 1.0
	maxRating = 5.0
)

// BaseAlgorithm provides common state for all algorithms.
type BaseAlgorithm struct {
	name          string
	trained       bool
	version       int
	lastTrainedAt time.Time
	mu            sync.RWMutex
}

// NewBaseAlgorithm creates a new base algorithm with the given name.
func NewBaseAlgorithm(name string) BaseAlgorithm {
	return BaseAlgorithm{
		name: name,
	}
}

// Name returns the algorithm identifier.
func (b *BaseAlgorithm) Name() string {
	return b.name
}

// IsTrained returns whether the model has been trained.
func (b *BaseAlgorithm) IsTrained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// Version returns the model version.
func (b *BaseAlgorithm) Version() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// LastTrainedAt returns when the model was last trained.
func (b *BaseAlgorithm) LastTrainedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastTrainedAt
}

// markTrained updates the trained state.
// Must be called while holding the training lock (acquireTrainLock).
func (b *BaseAlgorithm) markTrained() {
	b.trained = true
	b.version++
	b.lastTrainedAt = time.Now()
}

// acquireTrainLock acquires the exclusive training lock.
func (b *BaseAlgorithm) acquireTrainLock() {
	b.mu.Lock()
}

// releaseTrainLock releases the exclusive training lock.
func (b *BaseAlgorithm) releaseTrainLock() {
	b.mu.Unlock()
}

// acquirePredictLock acquires the shared prediction lock.
func (b *BaseAlgorithm) acquirePredictLock() {
	b.mu.RLock()
}

// releasePredictLock releases the shared prediction lock.
func (b *BaseAlgorithm) releasePredictLock() {
	b.mu.RUnlock()
}

// ContextCancelled checks if the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// clampRating bounds a predicted score to the dataset's rating scale.
func clampRating(score float64) float64 {
	if score < minRating {
		return minRating
	}
	if score > maxRating {
		return maxRating
	}
	return score
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// topK returns the k highest-scoring items sorted by score descending.
// Equal scores break ties by product ID so results are deterministic.
func topK(scores map[string]float64, k int) []models.RecommendedItem {
	if k <= 0 || len(scores) == 0 {
		return nil
	}

	items := make([]models.RecommendedItem, 0, len(scores))
	for id, score := range scores {
		items = append(items, models.RecommendedItem{ProductID: id, Score: score})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ProductID < items[j].ProductID
	})

	if len(items) > k {
		items = items[:k]
	}
	return items
}

// Ensure all algorithms implement the interface.
var (
	_ recommend.Algorithm = (*ALS)(nil)
	_ recommend.Algorithm = (*Popularity)(nil)
)
