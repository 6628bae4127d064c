// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/recensus/internal/config"
	"github.com/tomtom215/recensus/internal/eda"
	"github.com/tomtom215/recensus/internal/models"
)

// maxCategoryParamLength mirrors the ReviewsQuery category bound so the two
// surfaces reject the same inputs.
const maxCategoryParamLength = 128

// getCategoryParam extracts the optional category filter shared by every EDA
// endpoint. Returns false after writing a validation error when the value is
// unusable; an absent param is the all-categories view.
func (h *Handler) getCategoryParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	category := r.URL.Query().Get("category")
	if len(category) > maxCategoryParamLength {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"category must be at most 128 characters", nil)
		return "", false
	}
	return category, true
}

// EDAOverview handles GET /api/v1/eda/overview
// Serves top-level counts and aggregates of the snapshot, optionally scoped
// to one category.
func (h *Handler) EDAOverview(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if !h.requireDB(w) {
		return
	}
	category, ok := h.getCategoryParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	overview, err := h.store.GetDatasetOverview(r.Context(), category)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_ERROR",
			"Failed to build dataset overview", err)
		return
	}

	payload := map[string]interface{}{
		"overview": overview,
	}
	if category != "" {
		payload["category"] = category
	}
	respondData(w, payload, start)
}

// EDARatingHistogram handles GET /api/v1/eda/rating-histogram
// Serves the review count per star rating.
func (h *Handler) EDARatingHistogram(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if !h.requireDB(w) {
		return
	}
	category, ok := h.getCategoryParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	buckets, err := h.store.GetRatingHistogram(r.Context(), category)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_ERROR",
			"Failed to build rating histogram", err)
		return
	}
	if buckets == nil {
		buckets = []models.RatingBucket{}
	}

	payload := map[string]interface{}{
		"buckets": buckets,
		"count":   len(buckets),
	}
	if category != "" {
		payload["category"] = category
	}
	respondData(w, payload, start)
}

// EDALengthHistogram handles GET /api/v1/eda/length-histogram
// Serves binned review-length counts. Bin width and ceiling come from the
// EDA configuration so the endpoint and the batch report always agree.
func (h *Handler) EDALengthHistogram(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if !h.requireDB(w) {
		return
	}
	category, ok := h.getCategoryParam(w, r)
	if !ok {
		return
	}

	binWidth, maxBucket := eda.LengthBinning(h.edaConfig())

	start := time.Now()
	buckets, err := h.store.GetLengthHistogram(r.Context(), category, binWidth, maxBucket)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_ERROR",
			"Failed to build length histogram", err)
		return
	}
	if buckets == nil {
		buckets = []models.LengthBucket{}
	}

	payload := map[string]interface{}{
		"buckets":   buckets,
		"bin_width": binWidth,
		"count":     len(buckets),
	}
	if category != "" {
		payload["category"] = category
	}
	respondData(w, payload, start)
}

// EDAYearly handles GET /api/v1/eda/yearly
// Serves review volume and average rating per calendar year.
func (h *Handler) EDAYearly(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if !h.requireDB(w) {
		return
	}
	category, ok := h.getCategoryParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	years, err := h.store.GetYearlyCounts(r.Context(), category)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_ERROR",
			"Failed to build yearly counts", err)
		return
	}
	if years == nil {
		years = []models.YearCount{}
	}

	payload := map[string]interface{}{
		"years": years,
		"count": len(years),
	}
	if category != "" {
		payload["category"] = category
	}
	respondData(w, payload, start)
}

// EDACorrelation handles GET /api/v1/eda/correlation
// Serves the Pearson correlation between review length and rating. The
// coefficient is null when the snapshot is degenerate (fewer than two rows
// or zero variance on either side).
func (h *Handler) EDACorrelation(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if !h.requireDB(w) {
		return
	}
	category, ok := h.getCategoryParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	corr, err := h.store.GetLengthRatingCorrelation(r.Context(), category)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_ERROR",
			"Failed to compute length-rating correlation", err)
		return
	}

	payload := map[string]interface{}{
		"length_rating_correlation": corr,
	}
	if category != "" {
		payload["category"] = category
	}
	respondData(w, payload, start)
}

// EDABrands handles GET /api/v1/eda/brands
// Serves the most-reviewed brands. The limit param defaults to the
// configured top-brand count and is capped at 100.
func (h *Handler) EDABrands(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if !h.requireDB(w) {
		return
	}
	category, ok := h.getCategoryParam(w, r)
	if !ok {
		return
	}

	limit := getIntParam(r, "limit", eda.TopBrandLimit(h.edaConfig()))
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	start := time.Now()
	brands, err := h.store.GetTopBrands(r.Context(), category, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_ERROR",
			"Failed to rank brands", err)
		return
	}
	if brands == nil {
		brands = []models.BrandStat{}
	}

	payload := map[string]interface{}{
		"brands": brands,
		"count":  len(brands),
	}
	if category != "" {
		payload["category"] = category
	}
	respondData(w, payload, start)
}

// EDASentiment handles GET /api/v1/eda/sentiment
// Serves review counts per derived sentiment label.
func (h *Handler) EDASentiment(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if !h.requireDB(w) {
		return
	}
	category, ok := h.getCategoryParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	breakdown, err := h.store.GetSentimentBreakdown(r.Context(), category)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_ERROR",
			"Failed to build sentiment breakdown", err)
		return
	}

	payload := map[string]interface{}{
		"sentiment": breakdown,
	}
	if category != "" {
		payload["category"] = category
	}
	respondData(w, payload, start)
}

// edaConfig returns the EDA section of the handler config, or nil when the
// handler was built without one; eda helpers fall back to defaults on nil.
func (h *Handler) edaConfig() *config.EDAConfig {
	if h.config == nil {
		return nil
	}
	return &h.config.EDA
}
