// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package cluster

import "math"

// standardize z-scores every column of points in place and returns the
// per-column means and standard deviations used, so centroids can be
// mapped back into original units. A constant column gets a standard
// deviation of 1: it centers to zero everywhere and stops influencing
// distances instead of dividing by zero.
func standardize(points [][]float64) (means, stddevs []float64) {
	if len(points) == 0 {
		return nil, nil
	}
	dim := len(points[0])
	means = make([]float64, dim)
	stddevs = make([]float64, dim)

	n := float64(len(points))
	for _, p := range points {
		for d, v := range p {
			means[d] += v
		}
	}
	for d := range means {
		means[d] /= n
	}

	for _, p := range points {
		for d, v := range p {
			diff := v - means[d]
			stddevs[d] += diff * diff
		}
	}
	for d := range stddevs {
		stddevs[d] = math.Sqrt(stddevs[d] / n)
		if stddevs[d] == 0 {
			stddevs[d] = 1
		}
	}

	for _, p := range points {
		for d := range p {
			p[d] = (p[d] - means[d]) / stddevs[d]
		}
	}
	return means, stddevs
}

// destandardize maps one standardized value back to original units.
func destandardize(v, mean, stddev float64) float64 {
	return v*stddev + mean
}
