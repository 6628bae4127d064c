// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

// Package classify trains and evaluates the binary sentiment classifier.
//
// The model is a logistic regression over hashed bag-of-words features of
// the review text plus a saturating review-length feature, fitted with
// plain SGD and L2 regularization. Labels follow the snapshot's sentiment
// column: positive is the positive class, negative the negative class,
// and neutral rows (rating 3) never enter training or evaluation.
//
// Trainer owns the full cycle: read labeled rows from the snapshot, split
// them with a seeded shuffle, fit the classifier, score the test split,
// persist the model, and emit a ClassifyReport. Classifier is the model
// itself and can be reloaded from disk for standalone prediction.
//
// All shuffles and the feature hash are seeded or stateless, so a fixed
// snapshot, seed, and configuration reproduce the same model and report.
package classify
