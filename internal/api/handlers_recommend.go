// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/recensus/internal/models"
	"github.com/tomtom215/recensus/internal/recommend"
)

const (
	// recommendQueryTimeout bounds a single scoring request so a slow
	// factor scan cannot hold an HTTP worker indefinitely.
	recommendQueryTimeout = 10 * time.Second

	defaultRecommendK = 10
	maxRecommendK     = 100

	// maxEntityIDLength mirrors the ReviewsQuery product_id bound.
	maxEntityIDLength = 64
)

// requireEngine writes a 503 when no recommendation engine is wired and
// reports whether the request may proceed. The engine is optional; a serve
// process started without retraining enabled has none.
func (h *Handler) requireEngine(w http.ResponseWriter) bool {
	if h.engine == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR",
			"Recommendation engine is not enabled", nil)
		return false
	}
	return true
}

// recommendK extracts the k query param with the default applied and the
// ceiling enforced.
func recommendK(r *http.Request) int {
	k := getIntParam(r, "k", defaultRecommendK)
	if k < 1 {
		k = defaultRecommendK
	}
	if k > maxRecommendK {
		k = maxRecommendK
	}
	return k
}

// Recommendations handles GET /api/v1/recommendations/user/{reviewerID}
// Serves the top-k products for one reviewer. Reviewers the trained model
// has never seen fall back to the popularity baseline; the payload names
// the model that produced the ranking.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if !h.requireEngine(w) {
		return
	}

	reviewerID := chi.URLParam(r, "reviewerID")
	if reviewerID == "" || len(reviewerID) > maxEntityIDLength {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"reviewerID must be between 1 and 64 characters", nil)
		return
	}
	k := recommendK(r)

	ctx, cancel := context.WithTimeout(r.Context(), recommendQueryTimeout)
	defer cancel()

	start := time.Now()
	items, source, err := h.engine.TopK(ctx, reviewerID, k)
	if err != nil {
		h.respondRecommendError(w, err)
		return
	}
	if items == nil {
		items = []models.RecommendedItem{}
	}

	respondData(w, models.RecommendationsResponse{
		UserID:          reviewerID,
		Recommendations: items,
		Source:          source,
	}, start)
}

// SimilarProducts handles GET /api/v1/recommendations/similar/{productID}
// Serves the k products closest to the given product in the trained
// model's latent space.
func (h *Handler) SimilarProducts(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if !h.requireEngine(w) {
		return
	}

	productID := chi.URLParam(r, "productID")
	if productID == "" || len(productID) > maxEntityIDLength {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"productID must be between 1 and 64 characters", nil)
		return
	}
	k := recommendK(r)

	ctx, cancel := context.WithTimeout(r.Context(), recommendQueryTimeout)
	defer cancel()

	start := time.Now()
	items, err := h.engine.Similar(ctx, productID, k)
	if err != nil {
		h.respondRecommendError(w, err)
		return
	}

	payload := map[string]interface{}{
		"product_id": productID,
		"similar":    items,
		"count":      len(items),
	}
	respondData(w, payload, start)
}

// respondRecommendError maps engine failures onto API error codes. An
// untrained model is a temporary condition, not a server fault.
func (h *Handler) respondRecommendError(w http.ResponseWriter, err error) {
	if errors.Is(err, recommend.ErrNotTrained) {
		respondError(w, http.StatusServiceUnavailable, "MODEL_NOT_TRAINED",
			"Recommendation model has not been trained yet", nil)
		return
	}
	respondError(w, http.StatusInternalServerError, "RECOMMENDATION_ERROR",
		"Failed to compute recommendations", err)
}
