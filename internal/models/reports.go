// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package models

import (
	"time"
)

// DatasetOverview represents top-level counts and aggregates of the cleaned dataset
type DatasetOverview struct {
	TotalReviews      int64   `json:"total_reviews"`
	DistinctReviewers int64   `json:"distinct_reviewers"`
	DistinctProducts  int64   `json:"distinct_products"`
	Categories        int     `json:"categories"`
	AvgRating         float64 `json:"avg_rating"`
	AvgReviewLength   float64 `json:"avg_review_length"`
	VerifiedShare     float64 `json:"verified_share"` // Fraction of verified purchases, 0-1
	FirstYear         int     `json:"first_year"`
	LastYear          int     `json:"last_year"`
}

// RatingBucket represents one bar of the rating distribution
type RatingBucket struct {
	Rating float64 `json:"rating"`
	Count  int64   `json:"count"`
}

// LengthBucket represents one bin of the review length histogram
type LengthBucket struct {
	UpperBound int   `json:"upper_bound"` // Inclusive token-count ceiling of the bin
	Count      int64 `json:"count"`
}

// YearCount represents review volume for one calendar year
type YearCount struct {
	Year      int     `json:"year"`
	Count     int64   `json:"count"`
	AvgRating float64 `json:"avg_rating"`
}

// BrandStat represents aggregate review statistics for one brand
type BrandStat struct {
	Brand     string  `json:"brand"`
	Reviews   int64   `json:"reviews"`
	AvgRating float64 `json:"avg_rating"`
}

// SentimentBreakdown represents review counts per sentiment label
type SentimentBreakdown struct {
	Positive int64 `json:"positive"`
	Negative int64 `json:"negative"`
	Neutral  int64 `json:"neutral"`
}

// EDAReport represents the full exploratory analysis of the cleaned dataset.
// LengthRatingCorrelation is nil when the data is degenerate (fewer than two
// rows or zero variance on either side).
type EDAReport struct {
	GeneratedAt             time.Time          `json:"generated_at"`
	Category                string             `json:"category,omitempty"` // Empty when the report spans all categories
	Overview                DatasetOverview    `json:"overview"`
	RatingHistogram         []RatingBucket     `json:"rating_histogram"`
	LengthHistogram         []LengthBucket     `json:"length_histogram"`
	YearlyCounts            []YearCount        `json:"yearly_counts"`
	LengthRatingCorrelation *float64           `json:"length_rating_correlation,omitempty"`
	TopBrands               []BrandStat        `json:"top_brands"`
	CategoryStats           []CategoryStats    `json:"category_stats"`
	Sentiment               SentimentBreakdown `json:"sentiment"`
}

// ConfusionMatrix represents binary classification outcomes with positive
// sentiment as the positive class
type ConfusionMatrix struct {
	TruePositives  int64 `json:"true_positives"`
	TrueNegatives  int64 `json:"true_negatives"`
	FalsePositives int64 `json:"false_positives"`
	FalseNegatives int64 `json:"false_negatives"`
}

// ClassifyReport represents the evaluation of a trained sentiment classifier.
// Neutral reviews are excluded from both training and evaluation.
type ClassifyReport struct {
	TrainedAt time.Time       `json:"trained_at"`
	TrainRows int             `json:"train_rows"`
	TestRows  int             `json:"test_rows"`
	Epochs    int             `json:"epochs"`
	Accuracy  float64         `json:"accuracy"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
	Confusion ConfusionMatrix `json:"confusion"`
	ModelPath string          `json:"model_path,omitempty"`
}

// ClusterSummary represents one k-means cluster with its centroid expressed
// in original (de-standardized) feature units
type ClusterSummary struct {
	ID             int     `json:"id"`
	Size           int64   `json:"size"`
	AvgReviewCount float64 `json:"avg_review_count"`
	AvgRating      float64 `json:"avg_rating"`
	AvgLength      float64 `json:"avg_length"`
	AvgPrice       float64 `json:"avg_price"`
}

// ClusterReport represents the outcome of a k-means run over per-product
// aggregate features
type ClusterReport struct {
	TrainedAt  time.Time        `json:"trained_at"`
	K          int              `json:"k"`
	Rows       int64            `json:"rows"` // Number of products clustered
	Iterations int              `json:"iterations"`
	Converged  bool             `json:"converged"`
	Inertia    float64          `json:"inertia"` // Sum of squared distances to assigned centroids
	Clusters   []ClusterSummary `json:"clusters"`
}

// RecommendedItem represents one scored product recommendation
type RecommendedItem struct {
	ProductID string  `json:"product_id"`
	Score     float64 `json:"score"`
}

// RecommendReport represents the training and holdout evaluation of the
// rating predictor. Baseline figures come from the damped-mean popularity
// model evaluated on the same holdout.
type RecommendReport struct {
	TrainedAt    time.Time `json:"trained_at"`
	Users        int       `json:"users"`
	Products     int       `json:"products"`
	Interactions int64     `json:"interactions"`
	Factors      int       `json:"factors"`
	Iterations   int       `json:"iterations"`
	HoldoutSize  int64     `json:"holdout_size"`
	RMSE         float64   `json:"rmse"`
	MAE          float64   `json:"mae"`
	BaselineRMSE float64   `json:"baseline_rmse"`
	BaselineMAE  float64   `json:"baseline_mae"`
}
