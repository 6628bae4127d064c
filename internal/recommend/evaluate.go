// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package recommend

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/tomtom215/recensus/internal/models"
)

// splitHoldout partitions rating triples into train and holdout sets.
//
// The split is stratified per reviewer: a reviewer with n ratings
// contributes floor(n * fraction) of them to the holdout, at least one when
// the fraction is positive and the reviewer has two or more ratings, and
// never all of them. Reviewers with a single rating stay entirely in the
// train set, so every held-out reviewer is known to the trained model.
//
// Reviewers are visited in sorted ID order and shuffled with the seeded
// source, so a fixed (ratings, fraction, seed) input always produces the
// same partition.
func splitHoldout(ratings []models.RatingTriple, fraction float64, seed int64) (train, holdout []models.RatingTriple) {
	if fraction <= 0 || len(ratings) == 0 {
		return ratings, nil
	}

	byReviewer := make(map[string][]models.RatingTriple)
	for _, r := range ratings {
		byReviewer[r.ReviewerID] = append(byReviewer[r.ReviewerID], r)
	}

	reviewers := make([]string, 0, len(byReviewer))
	for id := range byReviewer {
		reviewers = append(reviewers, id)
	}
	sort.Strings(reviewers)

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic split, not crypto

	train = make([]models.RatingTriple, 0, len(ratings))
	for _, id := range reviewers {
		rs := byReviewer[id]
		n := len(rs)
		if n < 2 {
			train = append(train, rs...)
			continue
		}

		nHold := int(float64(n) * fraction)
		if nHold == 0 {
			nHold = 1
		}
		if nHold >= n {
			nHold = n - 1
		}

		perm := rng.Perm(n)
		for pos, idx := range perm {
			if pos < nHold {
				holdout = append(holdout, rs[idx])
			} else {
				train = append(train, rs[idx])
			}
		}
	}

	return train, holdout
}

// evaluate scores the algorithm's predictions against held-out ratings and
// returns root mean squared error and mean absolute error. An empty holdout
// yields zero for both.
func evaluate(ctx context.Context, alg Algorithm, holdout []models.RatingTriple) (rmse, mae float64, err error) {
	if len(holdout) == 0 {
		return 0, 0, nil
	}

	var sqSum, absSum float64
	for _, r := range holdout {
		pred, perr := alg.Predict(ctx, r.ReviewerID, r.ProductID)
		if perr != nil {
			return 0, 0, perr
		}
		diff := pred - r.Rating
		sqSum += diff * diff
		absSum += math.Abs(diff)
	}

	n := float64(len(holdout))
	return math.Sqrt(sqSum / n), absSum / n, nil
}
