// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package algorithms

import (
	"context"
	"sort"

	"github.com/tomtom215/recensus/internal/models"
	"github.com/tomtom215/recensus/internal/recommend"
)

// PopularityConfig contains configuration for the popularity baseline.
type PopularityConfig struct {
	// DampingFactor is the pseudo-count of global-mean ratings blended
	// into each product's average. Products with few ratings shrink
	// toward the global mean instead of dominating the ranking on a
	// single five-star review. If <= 0, defaults to 10.
	DampingFactor float64
}

// DefaultPopularityConfig returns default popularity configuration.
func DefaultPopularityConfig() PopularityConfig {
	return PopularityConfig{
		DampingFactor: 10,
	}
}

// Popularity is the non-personalized baseline: every reviewer receives the
// same ranking, products ordered by damped mean rating
//
//	score_i = (sum_i + m * mu) / (n_i + m)
//
// where sum_i and n_i are the product's rating sum and count, mu is the
// global mean and m is the damping factor. It anchors the holdout
// evaluation: a factorization that cannot beat this baseline is not
// learning anything personal.
type Popularity struct {
	BaseAlgorithm
	config PopularityConfig

	// scores holds each product's damped mean rating.
	scores map[string]float64

	// ranked holds product IDs sorted by score descending, score ties
	// broken by product ID.
	ranked []models.RecommendedItem

	// seen holds each reviewer's rated products, so rankings exclude
	// what the reviewer already reviewed.
	seen map[string]map[string]bool

	// globalMean is the training-set mean rating.
	globalMean float64
}

// NewPopularity creates a new popularity baseline with the given
// configuration.
func NewPopularity(cfg PopularityConfig) *Popularity {
	if cfg.DampingFactor <= 0 {
		cfg.DampingFactor = 10
	}

	return &Popularity{
		BaseAlgorithm: NewBaseAlgorithm("popularity"),
		config:        cfg,
		scores:        make(map[string]float64),
	}
}

// Train computes per-product damped means and the global ranking.
func (p *Popularity) Train(ctx context.Context, ratings []models.RatingTriple) error {
	p.acquireTrainLock()
	defer p.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	p.globalMean = (minRating + maxRating) / 2
	p.scores = make(map[string]float64)
	p.ranked = nil
	p.seen = make(map[string]map[string]bool)

	if len(ratings) == 0 {
		p.markTrained()
		return nil
	}

	sums := make(map[string]float64)
	counts := make(map[string]float64)
	var total float64

	for _, r := range ratings {
		sums[r.ProductID] += r.Rating
		counts[r.ProductID]++
		total += r.Rating

		if p.seen[r.ReviewerID] == nil {
			p.seen[r.ReviewerID] = make(map[string]bool)
		}
		p.seen[r.ReviewerID][r.ProductID] = true
	}
	p.globalMean = total / float64(len(ratings))

	m := p.config.DampingFactor
	for productID, sum := range sums {
		p.scores[productID] = (sum + m*p.globalMean) / (counts[productID] + m)
	}

	p.ranked = make([]models.RecommendedItem, 0, len(p.scores))
	for productID, score := range p.scores {
		p.ranked = append(p.ranked, models.RecommendedItem{ProductID: productID, Score: score})
	}
	sort.Slice(p.ranked, func(i, j int) bool {
		if p.ranked[i].Score != p.ranked[j].Score {
			return p.ranked[i].Score > p.ranked[j].Score
		}
		return p.ranked[i].ProductID < p.ranked[j].ProductID
	})

	p.markTrained()
	return nil
}

// Predict returns the product's damped mean rating, or the global mean for
// unseen products. The reviewer ID does not influence the prediction.
func (p *Popularity) Predict(ctx context.Context, reviewerID, productID string) (float64, error) {
	p.acquirePredictLock()
	defer p.releasePredictLock()

	if !p.trained {
		return 0, recommend.ErrNotTrained
	}
	if ContextCancelled(ctx) {
		return 0, ctx.Err()
	}

	if score, ok := p.scores[productID]; ok {
		return clampRating(score), nil
	}
	return clampRating(p.globalMean), nil
}

// PredictTopK returns the k highest-scored products the reviewer has not
// rated. Unknown reviewers receive the unfiltered global ranking, which is
// what makes this the universal fallback.
func (p *Popularity) PredictTopK(ctx context.Context, reviewerID string, k int) ([]models.RecommendedItem, error) {
	p.acquirePredictLock()
	defer p.releasePredictLock()

	if !p.trained {
		return nil, recommend.ErrNotTrained
	}
	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}

	if k <= 0 {
		return []models.RecommendedItem{}, nil
	}

	rated := p.seen[reviewerID]
	result := make([]models.RecommendedItem, 0, k)
	for _, item := range p.ranked {
		if rated[item.ProductID] {
			continue
		}
		result = append(result, item)
		if len(result) == k {
			break
		}
	}
	return result, nil
}
