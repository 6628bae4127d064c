// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package models

import (
	"time"
)

// APIResponse is the standard envelope for all API endpoints.
// Status is "success" or "error". Data carries the endpoint payload on
// success; Error is populated on failure.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata *Metadata   `json:"metadata,omitempty"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing information.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS float64   `json:"query_time_ms"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is the error payload of an APIResponse.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is the payload of the health endpoint.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	TotalReviews      int64   `json:"total_reviews"`
	IngestRuns        int64   `json:"ingest_runs"`
	Uptime            float64 `json:"uptime"` // Seconds since process start
}

// PaginationInfo describes the window of a paginated listing.
type PaginationInfo struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// ReviewsQuery is the validated query surface of the reviews listing
// endpoint. Zero values mean "no filter" except Limit, which the handler
// defaults from configuration.
type ReviewsQuery struct {
	Category  string  `json:"category" validate:"omitempty,max=128"`
	Brand     string  `json:"brand" validate:"omitempty,max=256"`
	ProductID string  `json:"product_id" validate:"omitempty,max=64"`
	Sentiment string  `json:"sentiment" validate:"omitempty,oneof=positive negative neutral"`
	MinRating float64 `json:"min_rating" validate:"omitempty,gte=1,lte=5"`
	MaxRating float64 `json:"max_rating" validate:"omitempty,gte=1,lte=5"`
	Verified  *bool   `json:"verified"`
	Year      int     `json:"year" validate:"omitempty,gte=1996,lte=2100"`
	Limit     int     `json:"limit" validate:"omitempty,min=1,max=1000"`
	Offset    int     `json:"offset" validate:"omitempty,min=0"`
}

// ReviewsResponse is the payload of the reviews listing endpoint.
type ReviewsResponse struct {
	Reviews    []CleanedReview `json:"reviews"`
	Pagination PaginationInfo  `json:"pagination"`
}

// CategoryStats summarizes one ingested category.
type CategoryStats struct {
	Category  string  `json:"category"`
	Reviews   int64   `json:"reviews"`
	Products  int64   `json:"products"`
	Reviewers int64   `json:"reviewers"`
	AvgRating float64 `json:"avg_rating"`
}

// StatsResponse is the payload of the dataset stats endpoint.
type StatsResponse struct {
	TotalReviews   int64           `json:"total_reviews"`
	TotalProducts  int64           `json:"total_products"`
	TotalReviewers int64           `json:"total_reviewers"`
	Categories     []CategoryStats `json:"categories"`
}

// RunsResponse is the payload of the ingest run history endpoint.
type RunsResponse struct {
	Runs []IngestRun `json:"runs"`
}

// RecommendationsResponse is the payload of the per-user recommendation
// endpoint.
type RecommendationsResponse struct {
	UserID          string            `json:"user_id"`
	Recommendations []RecommendedItem `json:"recommendations"`
	Source          string            `json:"source"`
}
