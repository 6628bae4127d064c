// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package cluster

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrNoPoints is returned when Fit is called with an empty point set.
var ErrNoPoints = errors.New("no points to cluster")

// KMeansConfig contains hyperparameters for a k-means run.
type KMeansConfig struct {
	// K is the number of clusters. Clamped to the point count when the
	// input has fewer points than clusters.
	K int

	// MaxIterations caps the Lloyd assign/update loop.
	MaxIterations int

	// Tolerance is the largest centroid shift (Euclidean) at which the
	// run counts as converged.
	Tolerance float64

	// Seed drives centroid initialization.
	Seed int64
}

// DefaultKMeansConfig returns default k-means configuration.
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{
		K:             5,
		MaxIterations: 100,
		Tolerance:     1e-4,
		Seed:          42,
	}
}

// Result holds the outcome of a single Fit.
type Result struct {
	// Centroids has one row per cluster, in the same feature space as
	// the input points.
	Centroids [][]float64

	// Assignments maps each input point to its cluster index.
	Assignments []int

	// Sizes counts the points assigned to each cluster.
	Sizes []int64

	// Iterations is the number of assign/update rounds performed.
	Iterations int

	// Converged reports whether the run stopped on tolerance rather
	// than the iteration cap.
	Converged bool

	// Inertia is the sum of squared distances from each point to its
	// assigned centroid.
	Inertia float64
}

// KMeans partitions points with Lloyd's algorithm. A KMeans value is
// stateless between Fit calls; the same configuration and input always
// produce the same Result.
type KMeans struct {
	config KMeansConfig
}

// NewKMeans creates a k-means runner with the given configuration.
// Non-positive hyperparameters fall back to their defaults.
func NewKMeans(cfg KMeansConfig) *KMeans {
	if cfg.K <= 0 {
		cfg.K = 5
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 100
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 1e-4
	}
	return &KMeans{config: cfg}
}

// Fit clusters the points. All points must share one dimension. The
// context is checked once per iteration so long runs stop promptly on
// cancellation.
func (km *KMeans) Fit(ctx context.Context, points [][]float64) (*Result, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("point %d has dimension %d, want %d", i, len(p), dim)
		}
	}

	k := km.config.K
	if k > len(points) {
		k = len(points)
	}

	centroids := initialCentroids(points, k, km.config.Seed)
	assignments := make([]int, len(points))

	var converged bool
	iterations := 0
	for iterations < km.config.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iterations++

		for i, p := range points {
			assignments[i] = nearestCentroid(p, centroids)
		}

		updated := updateCentroids(points, assignments, centroids)

		shift := 0.0
		for c := range centroids {
			if d := euclideanDistance(centroids[c], updated[c]); d > shift {
				shift = d
			}
		}
		centroids = updated

		if shift <= km.config.Tolerance {
			converged = true
			break
		}
	}

	// Final assignment against the last centroid update, so inertia and
	// sizes describe the centroids actually returned.
	sizes := make([]int64, k)
	inertia := 0.0
	for i, p := range points {
		assignments[i] = nearestCentroid(p, centroids)
		sizes[assignments[i]]++
		inertia += squaredDistance(p, centroids[assignments[i]])
	}

	return &Result{
		Centroids:   centroids,
		Assignments: assignments,
		Sizes:       sizes,
		Iterations:  iterations,
		Converged:   converged,
		Inertia:     inertia,
	}, nil
}

// initialCentroids copies k distinct points chosen by a seeded shuffle of
// the input indices.
func initialCentroids(points [][]float64, k int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	order := rng.Perm(len(points))

	centroids := make([][]float64, k)
	for c := 0; c < k; c++ {
		centroids[c] = append([]float64(nil), points[order[c]]...)
	}
	return centroids
}

// nearestCentroid returns the index of the centroid closest to p. Ties go
// to the lower index.
func nearestCentroid(p []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(p, centroid); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

// updateCentroids recomputes each centroid as the mean of its assigned
// points. A cluster that lost all its points is reseeded with the point
// farthest from its current centroid, which keeps k clusters alive
// without extra randomness.
func updateCentroids(points [][]float64, assignments []int, current [][]float64) [][]float64 {
	k := len(current)
	dim := len(current[0])

	updated := make([][]float64, k)
	counts := make([]int, k)
	for c := range updated {
		updated[c] = make([]float64, dim)
	}
	for i, p := range points {
		c := assignments[i]
		counts[c]++
		for d, v := range p {
			updated[c][d] += v
		}
	}

	for c := range updated {
		if counts[c] == 0 {
			copy(updated[c], points[farthestPoint(points, assignments, current)])
			continue
		}
		for d := range updated[c] {
			updated[c][d] /= float64(counts[c])
		}
	}
	return updated
}

// farthestPoint returns the index of the point with the greatest distance
// to its assigned centroid.
func farthestPoint(points [][]float64, assignments []int, centroids [][]float64) int {
	worst := 0
	worstDist := -1.0
	for i, p := range points {
		if d := squaredDistance(p, centroids[assignments[i]]); d > worstDist {
			worst = i
			worstDist = d
		}
	}
	return worst
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

func euclideanDistance(a, b []float64) float64 {
	return math.Sqrt(squaredDistance(a, b))
}
