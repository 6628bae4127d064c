// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/recensus/internal/models"
)

func strPtr(s string) *string { return &s }

func validRawReview() models.RawReview {
	return models.RawReview{
		UserID:           "AGKHLEW2SOWHNMFQIJGBECAF7INQ",
		ASIN:             "B00YQ6X8EO",
		ParentASIN:       "B00YQ6X8EO",
		Rating:           5,
		Title:            "Such a lovely scent",
		Text:             strPtr("good product works great"),
		Timestamp:        time.Date(2020, 5, 12, 9, 30, 0, 0, time.UTC).UnixMilli(),
		HelpfulVote:      3,
		VerifiedPurchase: true,
	}
}

func TestTokenCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"simple sentence", "good product works great", 4},
		{"empty string", "", 0},
		{"only whitespace", "   \t  ", 0},
		{"collapses runs of whitespace", "great  value\tfor   money", 4},
		{"leading and trailing whitespace", "  solid build  ", 2},
		{"single token", "meh", 1},
		{"newlines separate tokens", "line one\nline two", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenCount(tt.text); got != tt.want {
				t.Errorf("TokenCount(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestYearOf(t *testing.T) {
	tests := []struct {
		name   string
		millis int64
		want   int
	}{
		{"mid-year", time.Date(2020, 6, 15, 12, 0, 0, 0, time.UTC).UnixMilli(), 2020},
		{"last moment of the year stays in UTC", time.Date(2021, 12, 31, 23, 30, 0, 0, time.UTC).UnixMilli(), 2021},
		{"first moment of the year stays in UTC", time.Date(2022, 1, 1, 0, 0, 1, 0, time.UTC).UnixMilli(), 2022},
		{"epoch", 0, 1970},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := YearOf(tt.millis); got != tt.want {
				t.Errorf("YearOf(%d) = %d, want %d", tt.millis, got, tt.want)
			}
		})
	}
}

func TestMapper_ValidateReview(t *testing.T) {
	mapper := NewMapper()

	tests := []struct {
		name    string
		mutate  func(*models.RawReview)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid review",
			mutate:  func(*models.RawReview) {},
			wantErr: false,
		},
		{
			name:    "missing parent_asin",
			mutate:  func(r *models.RawReview) { r.ParentASIN = "" },
			wantErr: true,
			errMsg:  "missing parent_asin",
		},
		{
			name:    "whitespace parent_asin",
			mutate:  func(r *models.RawReview) { r.ParentASIN = "   " },
			wantErr: true,
			errMsg:  "missing parent_asin",
		},
		{
			name:    "missing user_id",
			mutate:  func(r *models.RawReview) { r.UserID = "" },
			wantErr: true,
			errMsg:  "missing user_id",
		},
		{
			name:    "zero rating",
			mutate:  func(r *models.RawReview) { r.Rating = 0 },
			wantErr: true,
			errMsg:  "outside [1,5]",
		},
		{
			name:    "rating above scale",
			mutate:  func(r *models.RawReview) { r.Rating = 6 },
			wantErr: true,
			errMsg:  "outside [1,5]",
		},
		{
			name:    "absent review text",
			mutate:  func(r *models.RawReview) { r.Text = nil },
			wantErr: true,
			errMsg:  "missing review text",
		},
		{
			name:    "empty review text is kept",
			mutate:  func(r *models.RawReview) { r.Text = strPtr("") },
			wantErr: false,
		},
		{
			name:    "zero timestamp",
			mutate:  func(r *models.RawReview) { r.Timestamp = 0 },
			wantErr: true,
			errMsg:  "timestamp",
		},
		{
			name:    "negative timestamp",
			mutate:  func(r *models.RawReview) { r.Timestamp = -1 },
			wantErr: true,
			errMsg:  "timestamp",
		},
		{
			name:    "boundary rating 1 is valid",
			mutate:  func(r *models.RawReview) { r.Rating = 1 },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			review := validRawReview()
			tt.mutate(&review)

			err := mapper.ValidateReview(&review)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateReview() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidateReview() error = %v, want error containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestMapper_ToCleanedReview(t *testing.T) {
	mapper := NewMapper()

	t.Run("converts core fields and derives columns", func(t *testing.T) {
		review := validRawReview()
		product := models.RawProduct{
			ParentASIN:    review.ParentASIN,
			MainCategory:  "All Beauty",
			Title:         "Herbal Shampoo",
			Store:         "Nature Labs",
			AverageRating: 4.3,
			RatingNumber:  211,
			Price:         models.Price{Value: 12.99, Valid: true},
		}

		cleaned := mapper.ToCleanedReview(&review, &product)

		if cleaned.ReviewerID != review.UserID {
			t.Errorf("ReviewerID = %s, want %s", cleaned.ReviewerID, review.UserID)
		}
		if cleaned.ProductID != review.ParentASIN {
			t.Errorf("ProductID = %s, want %s", cleaned.ProductID, review.ParentASIN)
		}
		if cleaned.Rating != 5 {
			t.Errorf("Rating = %f, want 5", cleaned.Rating)
		}
		if cleaned.ReviewText != "good product works great" {
			t.Errorf("ReviewText = %q, want %q", cleaned.ReviewText, "good product works great")
		}
		if cleaned.ReviewLength != 4 {
			t.Errorf("ReviewLength = %d, want 4", cleaned.ReviewLength)
		}
		if cleaned.Year != 2020 {
			t.Errorf("Year = %d, want 2020", cleaned.Year)
		}
		if cleaned.Sentiment != models.SentimentPositive {
			t.Errorf("Sentiment = %s, want %s", cleaned.Sentiment, models.SentimentPositive)
		}
		if cleaned.Category != "All Beauty" {
			t.Errorf("Category = %s, want All Beauty", cleaned.Category)
		}
		if cleaned.Brand != "Nature Labs" {
			t.Errorf("Brand = %s, want Nature Labs", cleaned.Brand)
		}
		if cleaned.Price == nil || *cleaned.Price != 12.99 {
			t.Errorf("Price = %v, want 12.99", cleaned.Price)
		}
		if cleaned.AvgProductRating == nil || *cleaned.AvgProductRating != 4.3 {
			t.Errorf("AvgProductRating = %v, want 4.3", cleaned.AvgProductRating)
		}
		if cleaned.HelpfulVotes != 3 {
			t.Errorf("HelpfulVotes = %d, want 3", cleaned.HelpfulVotes)
		}
		if !cleaned.VerifiedPurchase {
			t.Error("VerifiedPurchase = false, want true")
		}
		wantTS := time.UnixMilli(review.Timestamp).UTC()
		if !cleaned.Timestamp.Equal(wantTS) {
			t.Errorf("Timestamp = %v, want %v", cleaned.Timestamp, wantTS)
		}
	})

	t.Run("substitutes sentinels for missing brand and category", func(t *testing.T) {
		review := validRawReview()
		product := models.RawProduct{
			ParentASIN: review.ParentASIN,
			Store:      "  ",
		}

		cleaned := mapper.ToCleanedReview(&review, &product)

		if cleaned.Brand != models.UnknownBrand {
			t.Errorf("Brand = %s, want %s", cleaned.Brand, models.UnknownBrand)
		}
		if cleaned.Category != models.UnknownCategory {
			t.Errorf("Category = %s, want %s", cleaned.Category, models.UnknownCategory)
		}
	})

	t.Run("keeps price and product rating absent when unavailable", func(t *testing.T) {
		review := validRawReview()
		product := models.RawProduct{
			ParentASIN:   review.ParentASIN,
			MainCategory: "Books",
			Store:        "Orbit Books",
		}

		cleaned := mapper.ToCleanedReview(&review, &product)

		if cleaned.Price != nil {
			t.Errorf("Price = %v, want nil", cleaned.Price)
		}
		if cleaned.AvgProductRating != nil {
			t.Errorf("AvgProductRating = %v, want nil", cleaned.AvgProductRating)
		}
	})

	t.Run("empty text keeps review with zero length", func(t *testing.T) {
		review := validRawReview()
		review.Text = strPtr("")
		product := models.RawProduct{ParentASIN: review.ParentASIN, MainCategory: "Books", Store: "Tor"}

		cleaned := mapper.ToCleanedReview(&review, &product)

		if cleaned.ReviewText != "" {
			t.Errorf("ReviewText = %q, want empty", cleaned.ReviewText)
		}
		if cleaned.ReviewLength != 0 {
			t.Errorf("ReviewLength = %d, want 0", cleaned.ReviewLength)
		}
	})

	t.Run("maps low ratings to negative sentiment", func(t *testing.T) {
		review := validRawReview()
		review.Rating = 2
		product := models.RawProduct{ParentASIN: review.ParentASIN, MainCategory: "Books", Store: "Tor"}

		cleaned := mapper.ToCleanedReview(&review, &product)

		if cleaned.Sentiment != models.SentimentNegative {
			t.Errorf("Sentiment = %s, want %s", cleaned.Sentiment, models.SentimentNegative)
		}
	})

	t.Run("maps middle rating to neutral sentiment", func(t *testing.T) {
		review := validRawReview()
		review.Rating = 3
		product := models.RawProduct{ParentASIN: review.ParentASIN, MainCategory: "Books", Store: "Tor"}

		cleaned := mapper.ToCleanedReview(&review, &product)

		if cleaned.Sentiment != models.SentimentNeutral {
			t.Errorf("Sentiment = %s, want %s", cleaned.Sentiment, models.SentimentNeutral)
		}
	})
}
