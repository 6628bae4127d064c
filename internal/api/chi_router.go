// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the chi mux from the handler set and the middleware
// chain.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil middleware gets the default chain.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: mw,
	}
}

// SetupChi configures all HTTP routes and returns the root handler.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order
	r.Use(RequestIDWithLogging())      // Add X-Request-ID header with logging context
	r.Use(chimiddleware.RealIP)        // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// ========================
	// Health Endpoints
	// ========================
	// Permissive rate limiting (1000/min) so orchestrator probes and
	// dashboards can poll freely
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealthProbes())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// ========================
	// Core Data Endpoints
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())

		r.Get("/stats", router.handler.Stats)
		r.Get("/categories", router.handler.Categories)
		r.Get("/reviews", router.handler.Reviews)
		r.Get("/runs", router.handler.Runs)
	})

	// ========================
	// EDA Report Endpoints
	// ========================
	// Permissive rate limiting (600/min) - read-only aggregates backing
	// dashboard exploration
	r.Route("/api/v1/eda", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitReportReads())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())

		r.Get("/overview", router.handler.EDAOverview)
		r.Get("/rating-histogram", router.handler.EDARatingHistogram)
		r.Get("/length-histogram", router.handler.EDALengthHistogram)
		r.Get("/yearly", router.handler.EDAYearly)
		r.Get("/correlation", router.handler.EDACorrelation)
		r.Get("/brands", router.handler.EDABrands)
		r.Get("/sentiment", router.handler.EDASentiment)
	})

	// ========================
	// Recommendation Endpoints
	// ========================
	// Served only when a trained engine is wired; otherwise 503
	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())

		r.Get("/user/{reviewerID}", router.handler.Recommendations)
		r.Get("/similar/{productID}", router.handler.SimilarProducts)
	})

	// ========================
	// Prometheus Metrics
	// ========================
	// Scrape endpoint outside the /api/v1 envelope; no rate limiting so
	// the scraper is never dropped
	r.Handle("/metrics", promhttp.Handler())

	return r
}
