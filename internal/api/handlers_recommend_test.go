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

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/recensus/internal/models"
	"github.com/tomtom215/recensus/internal/recommend"
)

// stubEngine implements RecommendEngine without training anything.
type stubEngine struct {
	items      []models.RecommendedItem
	source     string
	topKErr    error
	similar    []models.RecommendedItem
	similarErr error

	gotReviewer string
	gotProduct  string
	gotK        int
}

func (e *stubEngine) TopK(ctx context.Context, reviewerID string, k int) ([]models.RecommendedItem, string, error) {
	e.gotReviewer = reviewerID
	e.gotK = k
	return e.items, e.source, e.topKErr
}

func (e *stubEngine) Similar(ctx context.Context, productID string, k int) ([]models.RecommendedItem, error) {
	e.gotProduct = productID
	e.gotK = k
	return e.similar, e.similarErr
}

// withURLParam attaches a chi route context carrying one URL parameter.
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// TestRecommendationsNoEngine tests the 503 when no engine is wired
func TestRecommendationsNoEngine(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&stubStore{}, newTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/user/A1", nil)
	req = withURLParam(req, "reviewerID", "A1")
	w := httptest.NewRecorder()
	handler.Recommendations(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
	resp := decodeEnvelope(t, w)
	if resp.Error == nil || resp.Error.Code != "SERVICE_ERROR" {
		t.Errorf("Expected SERVICE_ERROR, got %+v", resp.Error)
	}
}

// TestRecommendations tests the per-user endpoint against a stub engine
func TestRecommendations(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		engine := &stubEngine{
			items: []models.RecommendedItem{
				{ProductID: "B001", Score: 4.8},
				{ProductID: "B002", Score: 4.5},
			},
			source: "als",
		}
		handler := NewHandler(&stubStore{}, newTestConfig())
		handler.SetRecommendEngine(engine)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/user/A1?k=2", nil)
		req = withURLParam(req, "reviewerID", "A1")
		w := httptest.NewRecorder()
		handler.Recommendations(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		if engine.gotReviewer != "A1" || engine.gotK != 2 {
			t.Errorf("Engine called with (%q, %d), want (A1, 2)", engine.gotReviewer, engine.gotK)
		}

		resp := decodeEnvelope(t, w)
		data, ok := resp.Data.(map[string]interface{})
		if !ok {
			t.Fatalf("Expected data object, got %T", resp.Data)
		}
		if data["user_id"] != "A1" {
			t.Errorf("Expected user_id A1, got %v", data["user_id"])
		}
		if data["source"] != "als" {
			t.Errorf("Expected source als, got %v", data["source"])
		}
		items, ok := data["recommendations"].([]interface{})
		if !ok {
			t.Fatalf("Expected recommendations array, got %T", data["recommendations"])
		}
		if len(items) != 2 {
			t.Errorf("Expected 2 recommendations, got %d", len(items))
		}
	})

	t.Run("nil items become empty array", func(t *testing.T) {
		engine := &stubEngine{source: "als"}
		handler := NewHandler(&stubStore{}, newTestConfig())
		handler.SetRecommendEngine(engine)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/user/A1", nil)
		req = withURLParam(req, "reviewerID", "A1")
		w := httptest.NewRecorder()
		handler.Recommendations(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
		}
		if strings.Contains(w.Body.String(), `"recommendations":null`) {
			t.Error("Expected empty array, got null")
		}
	})

	t.Run("not trained returns 503", func(t *testing.T) {
		engine := &stubEngine{topKErr: recommend.ErrNotTrained}
		handler := NewHandler(&stubStore{}, newTestConfig())
		handler.SetRecommendEngine(engine)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/user/A1", nil)
		req = withURLParam(req, "reviewerID", "A1")
		w := httptest.NewRecorder()
		handler.Recommendations(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
		}
		resp := decodeEnvelope(t, w)
		if resp.Error == nil || resp.Error.Code != "MODEL_NOT_TRAINED" {
			t.Errorf("Expected MODEL_NOT_TRAINED, got %+v", resp.Error)
		}
	})

	t.Run("engine failure returns 500", func(t *testing.T) {
		engine := &stubEngine{topKErr: errors.New("factor scan failed")}
		handler := NewHandler(&stubStore{}, newTestConfig())
		handler.SetRecommendEngine(engine)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/user/A1", nil)
		req = withURLParam(req, "reviewerID", "A1")
		w := httptest.NewRecorder()
		handler.Recommendations(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
		resp := decodeEnvelope(t, w)
		if resp.Error == nil || resp.Error.Code != "RECOMMENDATION_ERROR" {
			t.Errorf("Expected RECOMMENDATION_ERROR, got %+v", resp.Error)
		}
	})
}

// TestRecommendationsInvalidReviewer tests reviewer ID validation
func TestRecommendationsInvalidReviewer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		reviewerID string
	}{
		{name: "empty", reviewerID: ""},
		{name: "too long", reviewerID: strings.Repeat("A", maxEntityIDLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(&stubStore{}, newTestConfig())
			handler.SetRecommendEngine(&stubEngine{})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/user/x", nil)
			req = withURLParam(req, "reviewerID", tt.reviewerID)
			w := httptest.NewRecorder()
			handler.Recommendations(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
		})
	}
}

// TestRecommendationsKClamped tests the k parameter bounds
func TestRecommendationsKClamped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		wantK int
	}{
		{name: "default", query: "", wantK: 10},
		{name: "explicit", query: "?k=25", wantK: 25},
		{name: "above ceiling", query: "?k=1000", wantK: 100},
		{name: "non-positive", query: "?k=0", wantK: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &stubEngine{source: "als"}
			handler := NewHandler(&stubStore{}, newTestConfig())
			handler.SetRecommendEngine(engine)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/user/A1"+tt.query, nil)
			req = withURLParam(req, "reviewerID", "A1")
			w := httptest.NewRecorder()
			handler.Recommendations(w, req)

			if engine.gotK != tt.wantK {
				t.Errorf("Expected k %d, got %d", tt.wantK, engine.gotK)
			}
		})
	}
}

// TestSimilarProducts tests the product similarity endpoint
func TestSimilarProducts(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		engine := &stubEngine{
			similar: []models.RecommendedItem{{ProductID: "B009", Score: 0.93}},
		}
		handler := NewHandler(&stubStore{}, newTestConfig())
		handler.SetRecommendEngine(engine)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/similar/B001", nil)
		req = withURLParam(req, "productID", "B001")
		w := httptest.NewRecorder()
		handler.SimilarProducts(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		if engine.gotProduct != "B001" {
			t.Errorf("Expected product B001, got %q", engine.gotProduct)
		}

		resp := decodeEnvelope(t, w)
		data, ok := resp.Data.(map[string]interface{})
		if !ok {
			t.Fatalf("Expected data object, got %T", resp.Data)
		}
		if data["product_id"] != "B001" {
			t.Errorf("Expected product_id B001, got %v", data["product_id"])
		}
		if got, _ := data["count"].(float64); int(got) != 1 {
			t.Errorf("Expected count 1, got %v", data["count"])
		}
	})

	t.Run("no engine returns 503", func(t *testing.T) {
		handler := NewHandler(&stubStore{}, newTestConfig())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/similar/B001", nil)
		req = withURLParam(req, "productID", "B001")
		w := httptest.NewRecorder()
		handler.SimilarProducts(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
		}
	})

	t.Run("not trained returns 503", func(t *testing.T) {
		engine := &stubEngine{similarErr: recommend.ErrNotTrained}
		handler := NewHandler(&stubStore{}, newTestConfig())
		handler.SetRecommendEngine(engine)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/similar/B001", nil)
		req = withURLParam(req, "productID", "B001")
		w := httptest.NewRecorder()
		handler.SimilarProducts(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		handler := NewHandler(&stubStore{}, newTestConfig())
		handler.SetRecommendEngine(&stubEngine{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/similar/B001", nil)
		req = withURLParam(req, "productID", "B001")
		w := httptest.NewRecorder()
		handler.SimilarProducts(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected status %d, got %d", http.StatusMethodNotAllowed, w.Code)
		}
	})
}
