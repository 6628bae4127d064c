// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/recensus/internal/config"
	"github.com/tomtom215/recensus/internal/models"
)

// stubStore implements Store with canned payloads and per-method error
// injection. Handler tests never touch a real snapshot.
type stubStore struct {
	pingErr       error
	countsErr     error
	statsErr      error
	categoriesErr error
	reviewsErr    error
	runsErr       error
	edaErr        error

	countReviews int64
	countRuns    int64
	stats        *models.StatsResponse
	categories   []models.CategoryStats
	reviews      []models.CleanedReview
	reviewsTotal int64
	runs         []models.IngestRun

	overview    *models.DatasetOverview
	ratingHist  []models.RatingBucket
	lengthHist  []models.LengthBucket
	yearly      []models.YearCount
	correlation *float64
	brands      []models.BrandStat
	sentiment   *models.SentimentBreakdown

	gotQuery      models.ReviewsQuery
	gotRunsLimit  int
	gotCategory   string
	gotBinWidth   int
	gotMaxBucket  int
	gotBrandLimit int
}

func (s *stubStore) Ping(ctx context.Context) error { return s.pingErr }

func (s *stubStore) GetRecordCounts(ctx context.Context) (int64, int64, error) {
	return s.countReviews, s.countRuns, s.countsErr
}

func (s *stubStore) GetStats(ctx context.Context) (*models.StatsResponse, error) {
	return s.stats, s.statsErr
}

func (s *stubStore) GetCategoryStats(ctx context.Context) ([]models.CategoryStats, error) {
	return s.categories, s.categoriesErr
}

func (s *stubStore) ListReviews(ctx context.Context, q models.ReviewsQuery) ([]models.CleanedReview, int64, error) {
	s.gotQuery = q
	return s.reviews, s.reviewsTotal, s.reviewsErr
}

func (s *stubStore) ListIngestRuns(ctx context.Context, limit int) ([]models.IngestRun, error) {
	s.gotRunsLimit = limit
	return s.runs, s.runsErr
}

func (s *stubStore) GetDatasetOverview(ctx context.Context, category string) (*models.DatasetOverview, error) {
	s.gotCategory = category
	return s.overview, s.edaErr
}

func (s *stubStore) GetRatingHistogram(ctx context.Context, category string) ([]models.RatingBucket, error) {
	s.gotCategory = category
	return s.ratingHist, s.edaErr
}

func (s *stubStore) GetLengthHistogram(ctx context.Context, category string, binWidth, maxBucket int) ([]models.LengthBucket, error) {
	s.gotCategory = category
	s.gotBinWidth = binWidth
	s.gotMaxBucket = maxBucket
	return s.lengthHist, s.edaErr
}

func (s *stubStore) GetYearlyCounts(ctx context.Context, category string) ([]models.YearCount, error) {
	s.gotCategory = category
	return s.yearly, s.edaErr
}

func (s *stubStore) GetLengthRatingCorrelation(ctx context.Context, category string) (*float64, error) {
	s.gotCategory = category
	return s.correlation, s.edaErr
}

func (s *stubStore) GetTopBrands(ctx context.Context, category string, limit int) ([]models.BrandStat, error) {
	s.gotCategory = category
	s.gotBrandLimit = limit
	return s.brands, s.edaErr
}

func (s *stubStore) GetSentimentBreakdown(ctx context.Context, category string) (*models.SentimentBreakdown, error) {
	s.gotCategory = category
	return s.sentiment, s.edaErr
}

// newTestConfig returns a config with the page sizes the tests assert on.
func newTestConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		EDA: config.EDAConfig{
			TopBrands:       20,
			HistogramBins:   50,
			MaxLengthBucket: 1000,
		},
	}
}

// decodeEnvelope decodes the standard response envelope.
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) *models.APIResponse {
	t.Helper()

	var resp models.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return &resp
}

// TestNewHandler tests the NewHandler constructor
func TestNewHandler(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&stubStore{}, newTestConfig())

	if handler == nil {
		t.Fatal("NewHandler returned nil")
	}
	if handler.startTime.IsZero() {
		t.Error("Expected start time to be set")
	}
	if handler.engine != nil {
		t.Error("Expected engine to be nil until wired")
	}

	defaultSize, maxSize := handler.getPageSizeConfig()
	if defaultSize != 20 || maxSize != 100 {
		t.Errorf("getPageSizeConfig() = (%d, %d), want (20, 100)", defaultSize, maxSize)
	}
}

// TestGetPageSizeConfigDefaults tests the fallbacks without configuration
func TestGetPageSizeConfigDefaults(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&stubStore{}, nil)

	defaultSize, maxSize := handler.getPageSizeConfig()
	if defaultSize != 20 || maxSize != 100 {
		t.Errorf("getPageSizeConfig() = (%d, %d), want (20, 100)", defaultSize, maxSize)
	}
}

// TestHealth tests the full health endpoint in both connectivity states
func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		store         *stubStore
		wantStatus    string
		wantConnected bool
		wantReviews   int64
	}{
		{
			name:          "healthy with counts",
			store:         &stubStore{countReviews: 5000, countRuns: 3},
			wantStatus:    "healthy",
			wantConnected: true,
			wantReviews:   5000,
		},
		{
			name:          "degraded when ping fails",
			store:         &stubStore{pingErr: errors.New("connection refused")},
			wantStatus:    "degraded",
			wantConnected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(tt.store, newTestConfig())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
			w := httptest.NewRecorder()
			handler.Health(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
			}

			resp := decodeEnvelope(t, w)
			if resp.Status != "success" {
				t.Errorf("Expected status 'success', got '%s'", resp.Status)
			}

			data, ok := resp.Data.(map[string]interface{})
			if !ok {
				t.Fatalf("Expected data object, got %T", resp.Data)
			}
			if data["status"] != tt.wantStatus {
				t.Errorf("Expected health status %q, got %v", tt.wantStatus, data["status"])
			}
			if data["database_connected"] != tt.wantConnected {
				t.Errorf("Expected database_connected %v, got %v", tt.wantConnected, data["database_connected"])
			}
			if tt.wantReviews > 0 {
				if got, _ := data["total_reviews"].(float64); int64(got) != tt.wantReviews {
					t.Errorf("Expected total_reviews %d, got %v", tt.wantReviews, data["total_reviews"])
				}
			}
		})
	}
}

// TestHealthLive tests that liveness never depends on the database
func TestHealthLive(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&stubStore{pingErr: errors.New("down")}, newTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	w := httptest.NewRecorder()
	handler.HealthLive(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	resp := decodeEnvelope(t, w)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data object, got %T", resp.Data)
	}
	if data["alive"] != true {
		t.Errorf("Expected alive true, got %v", data["alive"])
	}
}

// TestHealthReady tests readiness in both connectivity states
func TestHealthReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		store      *stubStore
		wantCode   int
		wantStatus string
	}{
		{
			name:       "ready",
			store:      &stubStore{},
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name:       "not ready when ping fails",
			store:      &stubStore{pingErr: errors.New("no database")},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(tt.store, newTestConfig())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil)
			w := httptest.NewRecorder()
			handler.HealthReady(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, w.Code)
			}
			resp := decodeEnvelope(t, w)
			if resp.Status != tt.wantStatus {
				t.Errorf("Expected status %q, got %q", tt.wantStatus, resp.Status)
			}
		})
	}
}

// TestStats tests the dataset stats endpoint
func TestStats(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		store := &stubStore{
			stats: &models.StatsResponse{
				TotalReviews:   12000,
				TotalProducts:  800,
				TotalReviewers: 4000,
				Categories: []models.CategoryStats{
					{Category: "Books", Reviews: 12000, Products: 800, Reviewers: 4000, AvgRating: 4.2},
				},
			},
		}
		handler := NewHandler(store, newTestConfig())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		w := httptest.NewRecorder()
		handler.Stats(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		resp := decodeEnvelope(t, w)
		if resp.Status != "success" {
			t.Errorf("Expected status 'success', got '%s'", resp.Status)
		}
		if resp.Metadata == nil {
			t.Fatal("Expected metadata to be present")
		}
		data, ok := resp.Data.(map[string]interface{})
		if !ok {
			t.Fatalf("Expected data object, got %T", resp.Data)
		}
		if got, _ := data["total_reviews"].(float64); int64(got) != 12000 {
			t.Errorf("Expected total_reviews 12000, got %v", data["total_reviews"])
		}
	})

	t.Run("store error returns 500", func(t *testing.T) {
		handler := NewHandler(&stubStore{statsErr: errors.New("query failed")}, newTestConfig())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		w := httptest.NewRecorder()
		handler.Stats(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
		resp := decodeEnvelope(t, w)
		if resp.Error == nil || resp.Error.Code != "DATABASE_ERROR" {
			t.Errorf("Expected DATABASE_ERROR, got %+v", resp.Error)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		handler := NewHandler(&stubStore{}, newTestConfig())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/stats", nil)
		w := httptest.NewRecorder()
		handler.Stats(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected status %d, got %d", http.StatusMethodNotAllowed, w.Code)
		}
	})

	t.Run("nil store returns 503", func(t *testing.T) {
		handler := NewHandler(nil, newTestConfig())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		w := httptest.NewRecorder()
		handler.Stats(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
		}
	})
}

// TestCategories tests the per-category summary endpoint
func TestCategories(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		store := &stubStore{
			categories: []models.CategoryStats{
				{Category: "Books", Reviews: 100, AvgRating: 4.1},
				{Category: "Electronics", Reviews: 50, AvgRating: 3.8},
			},
		}
		handler := NewHandler(store, newTestConfig())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
		w := httptest.NewRecorder()
		handler.Categories(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
		}
		resp := decodeEnvelope(t, w)
		data, ok := resp.Data.(map[string]interface{})
		if !ok {
			t.Fatalf("Expected data object, got %T", resp.Data)
		}
		if got, _ := data["count"].(float64); int(got) != 2 {
			t.Errorf("Expected count 2, got %v", data["count"])
		}
	})

	t.Run("empty snapshot yields empty array", func(t *testing.T) {
		handler := NewHandler(&stubStore{}, newTestConfig())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
		w := httptest.NewRecorder()
		handler.Categories(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
		}
		if strings.Contains(w.Body.String(), `"categories":null`) {
			t.Error("Expected empty array, got null")
		}
	})
}

// TestReviews tests the paginated reviews listing
func TestReviews(t *testing.T) {
	t.Parallel()

	price := 19.99
	sampleReviews := []models.CleanedReview{
		{
			ReviewerID:       "A1",
			ProductID:        "B001",
			Rating:           5,
			ReviewText:       "great product works well",
			Timestamp:        time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC),
			VerifiedPurchase: true,
			Category:         "Electronics",
			Brand:            "Acme",
			Price:            &price,
			ReviewLength:     4,
			Year:             2021,
			Sentiment:        models.SentimentPositive,
		},
	}

	t.Run("defaults applied", func(t *testing.T) {
		store := &stubStore{reviews: sampleReviews, reviewsTotal: 1}
		handler := NewHandler(store, newTestConfig())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews", nil)
		w := httptest.NewRecorder()
		handler.Reviews(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		if store.gotQuery.Limit != 20 {
			t.Errorf("Expected default limit 20, got %d", store.gotQuery.Limit)
		}
		if store.gotQuery.Offset != 0 {
			t.Errorf("Expected default offset 0, got %d", store.gotQuery.Offset)
		}
	})

	t.Run("filters forwarded to store", func(t *testing.T) {
		store := &stubStore{reviews: sampleReviews, reviewsTotal: 1}
		handler := NewHandler(store, newTestConfig())

		target := "/api/v1/reviews?category=Electronics&sentiment=positive&min_rating=4&verified=true&year=2021&limit=50&offset=10"
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		handler.Reviews(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		q := store.gotQuery
		if q.Category != "Electronics" || q.Sentiment != "positive" || q.Year != 2021 {
			t.Errorf("Filters not forwarded: %+v", q)
		}
		if q.MinRating != 4 {
			t.Errorf("Expected min_rating 4, got %v", q.MinRating)
		}
		if q.Verified == nil || !*q.Verified {
			t.Error("Expected verified filter true")
		}
		if q.Limit != 50 || q.Offset != 10 {
			t.Errorf("Expected limit 50 offset 10, got %d %d", q.Limit, q.Offset)
		}
	})

	t.Run("pagination has_more", func(t *testing.T) {
		store := &stubStore{reviews: sampleReviews, reviewsTotal: 40}
		handler := NewHandler(store, newTestConfig())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews?limit=1", nil)
		w := httptest.NewRecorder()
		handler.Reviews(w, req)

		resp := decodeEnvelope(t, w)
		data, ok := resp.Data.(map[string]interface{})
		if !ok {
			t.Fatalf("Expected data object, got %T", resp.Data)
		}
		pagination, ok := data["pagination"].(map[string]interface{})
		if !ok {
			t.Fatalf("Expected pagination object, got %T", data["pagination"])
		}
		if pagination["has_more"] != true {
			t.Errorf("Expected has_more true, got %v", pagination["has_more"])
		}
		if got, _ := pagination["total"].(float64); int64(got) != 40 {
			t.Errorf("Expected total 40, got %v", pagination["total"])
		}
	})

	t.Run("validation errors", func(t *testing.T) {
		tests := []struct {
			name  string
			query string
		}{
			{name: "bad sentiment", query: "sentiment=meh"},
			{name: "rating above range", query: "min_rating=9"},
			{name: "year before dataset", query: "year=1600"},
			{name: "limit above maximum", query: "limit=500"},
			{name: "min above max rating", query: "min_rating=4&max_rating=2"},
			{name: "negative offset", query: "offset=-5"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				store := &stubStore{}
				handler := NewHandler(store, newTestConfig())

				req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews?"+tt.query, nil)
				w := httptest.NewRecorder()
				handler.Reviews(w, req)

				if w.Code != http.StatusBadRequest {
					t.Errorf("Expected status %d, got %d: %s", http.StatusBadRequest, w.Code, w.Body.String())
				}
				resp := decodeEnvelope(t, w)
				if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
					t.Errorf("Expected VALIDATION_ERROR, got %+v", resp.Error)
				}
			})
		}
	})

	t.Run("store error returns 500", func(t *testing.T) {
		handler := NewHandler(&stubStore{reviewsErr: errors.New("boom")}, newTestConfig())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews", nil)
		w := httptest.NewRecorder()
		handler.Reviews(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}

// TestRuns tests the ingest run history endpoint
func TestRuns(t *testing.T) {
	t.Parallel()

	t.Run("default limit", func(t *testing.T) {
		store := &stubStore{
			runs: []models.IngestRun{
				{ID: "run-1", Category: "Books", Status: "completed", StartedAt: time.Now().UTC()},
			},
		}
		handler := NewHandler(store, newTestConfig())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
		w := httptest.NewRecorder()
		handler.Runs(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
		}
		if store.gotRunsLimit != 20 {
			t.Errorf("Expected default limit 20, got %d", store.gotRunsLimit)
		}
	})

	t.Run("limit out of range", func(t *testing.T) {
		handler := NewHandler(&stubStore{}, newTestConfig())

		for _, limit := range []string{"0", "101", "-1"} {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit="+limit, nil)
			w := httptest.NewRecorder()
			handler.Runs(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("limit=%s: expected status %d, got %d", limit, http.StatusBadRequest, w.Code)
			}
		}
	})

	t.Run("store error returns 500", func(t *testing.T) {
		handler := NewHandler(&stubStore{runsErr: errors.New("boom")}, newTestConfig())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
		w := httptest.NewRecorder()
		handler.Runs(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}

// TestResponseHeaders tests the envelope caching headers
func TestResponseHeaders(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&stubStore{stats: &models.StatsResponse{}}, newTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	handler.Stats(w, req)

	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %q", got)
	}
	if got := w.Header().Get("ETag"); got == "" {
		t.Error("Expected ETag to be set")
	}
	if got := w.Header().Get("Cache-Control"); !strings.Contains(got, "max-age") {
		t.Errorf("Expected Cache-Control with max-age, got %q", got)
	}
}
