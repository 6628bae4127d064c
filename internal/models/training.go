// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package models

// LabeledReview is one classifier training row: the review text with its
// derived token count and sentiment label. Neutral rows are excluded at
// query time, so a labeled row is always positive or negative.
type LabeledReview struct {
	ReviewText   string    `json:"review_text"`
	ReviewLength int       `json:"review_length"`
	Sentiment    Sentiment `json:"sentiment"`
}

// ProductFeatures is one clustering input row: per-product aggregates over
// the cleaned snapshot. Price is imputed with the category mean when the
// product itself has no price.
type ProductFeatures struct {
	ProductID   string  `json:"product_id"`
	ReviewCount int64   `json:"review_count"`
	AvgRating   float64 `json:"avg_rating"`
	AvgLength   float64 `json:"avg_length"`
	Price       float64 `json:"price"`
}

// RatingTriple is one recommender interaction: who rated what, and how.
type RatingTriple struct {
	ReviewerID string  `json:"reviewer_id"`
	ProductID  string  `json:"product_id"`
	Rating     float64 `json:"rating"`
}
