// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

// Package cluster groups products by k-means over per-product aggregates.
//
// Each product contributes one point built from the snapshot: review count,
// mean rating, mean review length, and price (imputed with the category mean
// when the product has none). Points are z-score standardized so the widely
// different feature scales carry equal weight, then partitioned with Lloyd's
// algorithm: seeded centroid initialization, nearest-centroid assignment,
// centroid recomputation, until the largest centroid shift drops below the
// tolerance or the iteration cap is hit.
//
// Trainer owns the full cycle: read aggregates from the snapshot, vectorize
// and standardize, fit KMeans, and emit a ClusterReport whose centroids are
// de-standardized back into original feature units.
//
// Initialization is seeded and the input order is stable, so a fixed
// snapshot, seed, and configuration reproduce the same partition.
package cluster
