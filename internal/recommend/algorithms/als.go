// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package algorithms

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/tomtom215/recensus/internal/models"
	"github.com/tomtom215/recensus/internal/recommend"
)

// ALSConfig contains configuration for the ALS algorithm.
type ALSConfig struct {
	// NumFactors is the dimension of the latent factor vectors.
	// Typical range: 16-128.
	NumFactors int

	// NumIterations is the number of alternating sweeps to run.
	// Typical range: 10-30.
	NumIterations int

	// Regularization is the ridge parameter lambda. It is scaled by each
	// reviewer's/product's rating count (weighted-lambda regularization),
	// so sparse and dense rows shrink proportionally.
	Regularization float64

	// NumWorkers is the number of parallel workers for the per-row
	// solves. If <= 0, defaults to 4.
	NumWorkers int
}

// DefaultALSConfig returns default ALS configuration.
func DefaultALSConfig() ALSConfig {
	return ALSConfig{
		NumFactors:     32,
		NumIterations:  15,
		Regularization: 0.1,
		NumWorkers:     4,
	}
}

// ALS implements alternating least squares matrix factorization for
// explicit feedback.
// Reference: "Large-Scale Parallel Collaborative Filtering for the Netflix
// Prize" (Zhou, Wilkinson, Schreiber, Pan, 2008)
//
// The model factorizes the observed reviewer-product rating matrix into
// latent factor matrices X (reviewers) and Y (products), minimizing
//
//	sum_{(u,i) observed} (r_ui - x_u' * y_i)^2
//	  + lambda * (sum_u n_u ||x_u||^2 + sum_i n_i ||y_i||^2)
//
// where n_u and n_i are rating counts. Unlike the implicit-feedback
// variant, only observed entries enter the loss, so each alternating solve
// runs over a reviewer's (or product's) rated rows instead of a dense
// confidence matrix.
type ALS struct {
	BaseAlgorithm
	config ALSConfig

	// X is the reviewer factor matrix (numUsers x numFactors)
	X [][]float64

	// Y is the product factor matrix (numItems x numFactors)
	Y [][]float64

	// userIndex maps reviewer ID to matrix row
	userIndex map[string]int

	// itemIndex maps product ID to matrix row
	itemIndex map[string]int

	// indexToUser maps matrix row to reviewer ID
	indexToUser []string

	// indexToItem maps matrix row to product ID
	indexToItem []string

	// userRatings holds each reviewer's observed ratings, sorted by
	// product row. Duplicate (reviewer, product) pairs are averaged.
	// Sorted slices keep the solve's accumulation order fixed, which is
	// what makes training bit-for-bit reproducible.
	userRatings [][]ratedEntry

	// itemRatings is the transpose of userRatings, sorted by reviewer row.
	itemRatings [][]ratedEntry

	// globalMean is the training-set mean rating, used as the fallback
	// prediction for unseen reviewers or products.
	globalMean float64
}

// ratedEntry is one observed rating against the counterpart matrix row.
type ratedEntry struct {
	idx    int
	rating float64
}

// NewALS creates a new ALS algorithm with the given configuration.
func NewALS(cfg ALSConfig) *ALS {
	if cfg.NumFactors <= 0 {
		cfg.NumFactors = 32
	}
	if cfg.NumIterations <= 0 {
		cfg.NumIterations = 15
	}
	if cfg.Regularization <= 0 {
		cfg.Regularization = 0.1
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 4
	}

	return &ALS{
		BaseAlgorithm: NewBaseAlgorithm("als"),
		config:        cfg,
		userIndex:     make(map[string]int),
		itemIndex:     make(map[string]int),
	}
}

// Train fits the factor matrices by alternating ridge solves.
//
//nolint:gocyclo // ML training algorithms are inherently complex
func (a *ALS) Train(ctx context.Context, ratings []models.RatingTriple) error {
	a.acquireTrainLock()
	defer a.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	// Build reviewer and product indices in input order so a fixed sample
	// always produces the same factor layout.
	a.userIndex = make(map[string]int)
	a.itemIndex = make(map[string]int)
	a.indexToUser = nil
	a.indexToItem = nil

	for _, r := range ratings {
		if _, ok := a.userIndex[r.ReviewerID]; !ok {
			a.userIndex[r.ReviewerID] = len(a.indexToUser)
			a.indexToUser = append(a.indexToUser, r.ReviewerID)
		}
		if _, ok := a.itemIndex[r.ProductID]; !ok {
			a.itemIndex[r.ProductID] = len(a.indexToItem)
			a.indexToItem = append(a.indexToItem, r.ProductID)
		}
	}

	numUsers := len(a.indexToUser)
	numItems := len(a.indexToItem)
	numFactors := a.config.NumFactors

	a.globalMean = (minRating + maxRating) / 2
	if numUsers == 0 || numItems == 0 {
		a.X = nil
		a.Y = nil
		a.userRatings = nil
		a.itemRatings = nil
		a.markTrained()
		return nil
	}

	// Sparse observed ratings; duplicate pairs are averaged.
	sums := make([]map[int]float64, numUsers)
	counts := make([]map[int]int, numUsers)
	var total float64
	for _, r := range ratings {
		ui := a.userIndex[r.ReviewerID]
		ii := a.itemIndex[r.ProductID]
		if sums[ui] == nil {
			sums[ui] = make(map[int]float64)
			counts[ui] = make(map[int]int)
		}
		sums[ui][ii] += r.Rating
		counts[ui][ii]++
		total += r.Rating
	}
	a.globalMean = total / float64(len(ratings))

	a.userRatings = make([][]ratedEntry, numUsers)
	a.itemRatings = make([][]ratedEntry, numItems)
	for ui, itemSums := range sums {
		entries := make([]ratedEntry, 0, len(itemSums))
		for ii, sum := range itemSums {
			entries = append(entries, ratedEntry{idx: ii, rating: sum / float64(counts[ui][ii])})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })
		a.userRatings[ui] = entries

		// Transpose rows arrive in ascending reviewer order because the
		// outer loop walks reviewers by index.
		for _, e := range entries {
			a.itemRatings[e.idx] = append(a.itemRatings[e.idx], ratedEntry{idx: ui, rating: e.rating})
		}
	}

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	// Deterministic small-value initialization: no PRNG involved, so a
	// fixed sample reproduces the factorization bit for bit.
	a.X = make([][]float64, numUsers)
	for u := 0; u < numUsers; u++ {
		a.X[u] = make([]float64, numFactors)
		for f := 0; f < numFactors; f++ {
			a.X[u][f] = 0.1 * (float64((u*numFactors+f)%1000)/1000.0 - 0.5)
		}
	}

	a.Y = make([][]float64, numItems)
	for i := 0; i < numItems; i++ {
		a.Y[i] = make([]float64, numFactors)
		for f := 0; f < numFactors; f++ {
			a.Y[i][f] = 0.1 * (float64((i*numFactors+f)%1000)/1000.0 - 0.5)
		}
	}

	lambda := a.config.Regularization

	for iter := 0; iter < a.config.NumIterations; iter++ {
		if ContextCancelled(ctx) {
			return ctx.Err()
		}

		// Fix Y, solve for X
		a.updateFactors(a.X, a.Y, a.userRatings, numUsers, numFactors, lambda)

		if ContextCancelled(ctx) {
			return ctx.Err()
		}

		// Fix X, solve for Y
		a.updateFactors(a.Y, a.X, a.itemRatings, numItems, numFactors, lambda)
	}

	a.markTrained()
	return nil
}

// updateFactors solves one half of the alternation: for each row of target,
// a ridge regression against the fixed matrix over that row's observed
// ratings. Rows are distributed across workers in contiguous chunks.
func (a *ALS) updateFactors(target, fixed [][]float64, observed [][]ratedEntry, numRows, numFactors int, lambda float64) {
	var wg sync.WaitGroup
	chunkSize := (numRows + a.config.NumWorkers - 1) / a.config.NumWorkers

	for w := 0; w < a.config.NumWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > numRows {
			end = numRows
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(rStart, rEnd int) {
			defer wg.Done()

			for row := rStart; row < rEnd; row++ {
				a.solveRow(target, fixed, row, observed[row], numFactors, lambda)
			}
		}(start, end)
	}

	wg.Wait()
}

// solveRow computes one factor vector:
//
//	A = F_r' * F_r + lambda * n_r * I
//	b = F_r' * ratings_r
//	target[row] = A^(-1) * b
//
// where F_r stacks the fixed factors of the row's observed counterparts.
//
//nolint:gocritic // A, b follow standard linear algebra notation
func (a *ALS) solveRow(target, fixed [][]float64, row int, ratings []ratedEntry, numFactors int, lambda float64) {
	if len(ratings) == 0 {
		return
	}

	A := make([][]float64, numFactors)
	for f := range A {
		A[f] = make([]float64, numFactors)
	}
	b := make([]float64, numFactors)

	for _, e := range ratings {
		v := fixed[e.idx]
		for f1 := 0; f1 < numFactors; f1++ {
			for f2 := f1; f2 < numFactors; f2++ {
				A[f1][f2] += v[f1] * v[f2]
				if f1 != f2 {
					A[f2][f1] = A[f1][f2]
				}
			}
			b[f1] += e.rating * v[f1]
		}
	}

	// Weighted-lambda: regularization grows with the row's rating count.
	reg := lambda * float64(len(ratings))
	for f := 0; f < numFactors; f++ {
		A[f][f] += reg
	}

	target[row] = solveLinearSystem(A, b)
}

// solveLinearSystem solves A*x = b using Cholesky decomposition.
//
//nolint:gocritic // A, L follow standard linear algebra notation
func solveLinearSystem(A [][]float64, b []float64) []float64 {
	n := len(b)

	// Cholesky decomposition: A = L * L'
	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}

			if i == j {
				if sum <= 0 {
					// Add regularization if not positive definite
					sum = 1e-10
				}
				L[i][j] = math.Sqrt(sum)
			} else {
				if L[j][j] != 0 {
					L[i][j] = sum / L[j][j]
				}
			}
		}
	}

	// Solve L * z = b (forward substitution)
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= L[i][j] * z[j]
		}
		if L[i][i] != 0 {
			z[i] = sum / L[i][i]
		}
	}

	// Solve L' * x = z (back substitution)
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= L[j][i] * x[j]
		}
		if L[i][i] != 0 {
			x[i] = sum / L[i][i]
		}
	}

	return x
}

// Predict estimates the rating the reviewer would give the product. Unseen
// reviewers or products fall back to the global mean. The prediction is
// clamped to the rating scale.
func (a *ALS) Predict(ctx context.Context, reviewerID, productID string) (float64, error) {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if !a.trained {
		return 0, recommend.ErrNotTrained
	}
	if ContextCancelled(ctx) {
		return 0, ctx.Err()
	}

	ui, userOK := a.userIndex[reviewerID]
	ii, itemOK := a.itemIndex[productID]
	if !userOK || !itemOK || len(a.X) == 0 || len(a.Y) == 0 {
		return clampRating(a.globalMean), nil
	}

	return clampRating(dot(a.X[ui], a.Y[ii])), nil
}

// PredictTopK ranks the k products the reviewer has not rated, by predicted
// rating. Returns nil for reviewers unknown to the factorization so callers
// can fall back to the popularity baseline.
func (a *ALS) PredictTopK(ctx context.Context, reviewerID string, k int) ([]models.RecommendedItem, error) {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if !a.trained {
		return nil, recommend.ErrNotTrained
	}
	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}

	ui, ok := a.userIndex[reviewerID]
	if !ok || len(a.Y) == 0 {
		return nil, nil
	}

	rated := make(map[int]struct{}, len(a.userRatings[ui]))
	for _, e := range a.userRatings[ui] {
		rated[e.idx] = struct{}{}
	}
	userVec := a.X[ui]

	scores := make(map[string]float64, len(a.Y))
	for ii, productID := range a.indexToItem {
		if _, seen := rated[ii]; seen {
			continue
		}
		scores[productID] = clampRating(dot(userVec, a.Y[ii]))
	}

	return topK(scores, k), nil
}

// PredictSimilar ranks the k products most similar to the given product by
// cosine similarity of their latent factors. Unknown products return nil.
func (a *ALS) PredictSimilar(ctx context.Context, productID string, k int) ([]models.RecommendedItem, error) {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if !a.trained {
		return nil, recommend.ErrNotTrained
	}
	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}

	sourceIdx, ok := a.itemIndex[productID]
	if !ok || len(a.Y) == 0 {
		return nil, nil
	}

	sourceVec := a.Y[sourceIdx]
	scores := make(map[string]float64, len(a.Y))

	for ii, candidateID := range a.indexToItem {
		if candidateID == productID {
			continue
		}
		score := cosineSimilarity(sourceVec, a.Y[ii])
		if score > 0 {
			scores[candidateID] = score
		}
	}

	return topK(scores, k), nil
}

// NumUsers returns the number of reviewers in the factorization.
func (a *ALS) NumUsers() int {
	a.acquirePredictLock()
	defer a.releasePredictLock()
	return len(a.indexToUser)
}

// NumProducts returns the number of products in the factorization.
func (a *ALS) NumProducts() int {
	a.acquirePredictLock()
	defer a.releasePredictLock()
	return len(a.indexToItem)
}

// GlobalMean returns the training-set mean rating.
func (a *ALS) GlobalMean() float64 {
	a.acquirePredictLock()
	defer a.releasePredictLock()
	return a.globalMean
}

// GetUserFactors returns a copy of the reviewer factor matrix.
func (a *ALS) GetUserFactors() [][]float64 {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if a.X == nil {
		return nil
	}

	result := make([][]float64, len(a.X))
	for i := range a.X {
		result[i] = make([]float64, len(a.X[i]))
		copy(result[i], a.X[i])
	}
	return result
}

// GetItemFactors returns a copy of the product factor matrix.
func (a *ALS) GetItemFactors() [][]float64 {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if a.Y == nil {
		return nil
	}

	result := make([][]float64, len(a.Y))
	for i := range a.Y {
		result[i] = make([]float64, len(a.Y[i]))
		copy(result[i], a.Y[i])
	}
	return result
}

// dot computes the inner product of two equal-length vectors.
func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
