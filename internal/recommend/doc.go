// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

// Package recommend trains and evaluates rating predictors over the sampled
// review triples.
//
// The engine coordinates two models: an explicit-feedback ALS matrix
// factorization and a damped-mean popularity baseline. Training data comes
// from the seeded snapshot sample via the DataProvider seam, is split with a
// per-reviewer holdout, and both models are scored on the held-out ratings
// (RMSE, MAE). Top-K product recommendations fall back from ALS to the
// baseline for reviewers the factorization has never seen.
//
// # Thread Safety
//
// The engine serializes training (concurrent Train calls fail fast) and
// allows concurrent reads while a model is being replaced.
package recommend
