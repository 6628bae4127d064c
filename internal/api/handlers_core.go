// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/recensus/internal/models"
)

// This file contains the core data endpoints: dataset statistics, the
// per-category summary, the paginated reviews listing, and ingest run
// history.
//
// All handlers follow a consistent pattern:
//  1. Method validation (GET only, the API is read-only)
//  2. Parameter parsing and validation
//  3. Snapshot query with the request context
//  4. JSON envelope response with query timing metadata

// requireMethod validates the HTTP method and returns true if valid,
// false if an error was already sent.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return false
	}
	return true
}

// requireDB checks snapshot availability and returns true if available,
// false if an error was already sent.
func (h *Handler) requireDB(w http.ResponseWriter) bool {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Database not available", nil)
		return false
	}
	return true
}

// Stats returns dataset-wide totals and the per-category breakdown.
//
// Method: GET
// Path: /api/v1/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireDB(w) {
		return
	}

	start := time.Now()

	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve statistics", err)
		return
	}

	respondData(w, stats, start)
}

// Categories returns the per-category summary: review, product, and
// reviewer counts with the mean rating.
//
// Method: GET
// Path: /api/v1/categories
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireDB(w) {
		return
	}

	start := time.Now()

	categories, err := h.store.GetCategoryStats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve categories", err)
		return
	}
	if categories == nil {
		categories = []models.CategoryStats{}
	}

	respondData(w, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	}, start)
}

// Reviews returns a filtered, paginated page of cleaned reviews.
//
// Method: GET
// Path: /api/v1/reviews
//
// Query parameters: category, brand, product_id, sentiment, min_rating,
// max_rating, verified, year, limit, offset. All optional; limits are
// bounded by the configured maximum page size.
func (h *Handler) Reviews(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	query, apiErr := h.parseReviewsQuery(r)
	if apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	if !h.requireDB(w) {
		return
	}

	start := time.Now()

	reviews, total, err := h.store.ListReviews(r.Context(), query)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list reviews", err)
		return
	}
	if reviews == nil {
		reviews = []models.CleanedReview{}
	}

	respondData(w, models.ReviewsResponse{
		Reviews: reviews,
		Pagination: models.PaginationInfo{
			Limit:   query.Limit,
			Offset:  query.Offset,
			Total:   total,
			HasMore: int64(query.Offset+len(reviews)) < total,
		},
	}, start)
}

// parseReviewsQuery extracts and validates the reviews listing filters.
func (h *Handler) parseReviewsQuery(r *http.Request) (models.ReviewsQuery, *models.APIError) {
	defaultPageSize, maxPageSize := h.getPageSizeConfig()

	query := models.ReviewsQuery{
		Category:  r.URL.Query().Get("category"),
		Brand:     r.URL.Query().Get("brand"),
		ProductID: r.URL.Query().Get("product_id"),
		Sentiment: r.URL.Query().Get("sentiment"),
		MinRating: getFloatParam(r, "min_rating", 0),
		MaxRating: getFloatParam(r, "max_rating", 0),
		Verified:  getBoolParam(r, "verified"),
		Year:      getIntParam(r, "year", 0),
		Limit:     getIntParam(r, "limit", defaultPageSize),
		Offset:    getIntParam(r, "offset", 0),
	}

	if apiErr := validateRequest(&query); apiErr != nil {
		return query, apiErr
	}

	if query.Limit > maxPageSize {
		return query, &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: fmt.Sprintf("limit must be between 1 and %d", maxPageSize),
		}
	}
	if query.MinRating > 0 && query.MaxRating > 0 && query.MinRating > query.MaxRating {
		return query, &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: "min_rating must not exceed max_rating",
		}
	}

	return query, nil
}

// respondValidationError writes a 400 carrying the validation details.
func respondValidationError(w http.ResponseWriter, apiErr *models.APIError) {
	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status: "error",
		Metadata: &models.Metadata{
			Timestamp: time.Now(),
		},
		Error: apiErr,
	})
}

// Runs returns the most recent ingest runs, newest first.
//
// Method: GET
// Path: /api/v1/runs
//
// Query parameters: limit (1-100, default 20).
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	limit := getIntParam(r, "limit", 20)
	if limit < 1 || limit > 100 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be between 1 and 100", nil)
		return
	}

	if !h.requireDB(w) {
		return
	}

	start := time.Now()

	runs, err := h.store.ListIngestRuns(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list ingest runs", err)
		return
	}
	if runs == nil {
		runs = []models.IngestRun{}
	}

	respondData(w, models.RunsResponse{Runs: runs}, start)
}
