// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/recensus/internal/models"
)

// Mapper converts a joined RawReview and RawProduct into a CleanedReview.
// It is stateless: the same inputs always produce the same output, so the
// transformation is testable in isolation from any reader or store.
type Mapper struct{}

// NewMapper creates a new record mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// TokenCount returns the number of whitespace-delimited tokens in text.
// Empty or all-whitespace text counts zero.
func TokenCount(text string) int {
	return len(strings.Fields(text))
}

// YearOf returns the UTC calendar year of an epoch-millisecond timestamp.
func YearOf(millis int64) int {
	return time.UnixMilli(millis).UTC().Year()
}

// ValidateReview checks a raw review against the missing-value policy.
// Returns an error describing why the row must be dropped, or nil when the
// row survives. Brand, category, and price are never grounds for dropping;
// those fall back to sentinels or NULL during mapping.
func (m *Mapper) ValidateReview(rev *models.RawReview) error {
	if strings.TrimSpace(rev.ParentASIN) == "" {
		return fmt.Errorf("missing parent_asin")
	}
	if strings.TrimSpace(rev.UserID) == "" {
		return fmt.Errorf("missing user_id")
	}
	if rev.Rating < 1 || rev.Rating > 5 {
		return fmt.Errorf("rating %.2f outside [1,5]", rev.Rating)
	}
	if rev.Text == nil {
		return fmt.Errorf("missing review text")
	}
	if rev.Timestamp <= 0 {
		return fmt.Errorf("missing or invalid timestamp")
	}
	return nil
}

// ToCleanedReview joins a validated review with its product metadata and
// derives the auxiliary columns. The caller must have run ValidateReview
// first; mapping itself cannot fail.
//
// Derivations:
//   - review_length: whitespace token count of the text, 0 for empty text
//   - year: UTC calendar year of the millisecond timestamp
//   - sentiment: positive for ratings >= 4, negative for <= 2, else neutral
//
// Missing brand or category become the "unknown" sentinel; an unusable
// price stays NULL; a zero average product rating is treated as absent.
func (m *Mapper) ToCleanedReview(rev *models.RawReview, product *models.RawProduct) *models.CleanedReview {
	text := *rev.Text

	brand := strings.TrimSpace(product.Store)
	if brand == "" {
		brand = models.UnknownBrand
	}
	category := strings.TrimSpace(product.MainCategory)
	if category == "" {
		category = models.UnknownCategory
	}

	var avgRating *float64
	if product.AverageRating > 0 {
		v := product.AverageRating
		avgRating = &v
	}

	return &models.CleanedReview{
		ReviewerID:       rev.UserID,
		ProductID:        rev.ParentASIN,
		Rating:           rev.Rating,
		ReviewTitle:      rev.Title,
		ReviewText:       text,
		Timestamp:        time.UnixMilli(rev.Timestamp).UTC(),
		HelpfulVotes:     rev.HelpfulVote,
		VerifiedPurchase: rev.VerifiedPurchase,
		Category:         category,
		Brand:            brand,
		Price:            product.Price.Ptr(),
		AvgProductRating: avgRating,
		ReviewLength:     TokenCount(text),
		Year:             YearOf(rev.Timestamp),
		Sentiment:        models.SentimentFromRating(rev.Rating),
	}
}
