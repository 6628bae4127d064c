// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Sentiment is the coarse label derived from a review's star rating.
type Sentiment string

// Sentiment labels. Ratings of 4 and 5 stars are positive, 1 and 2 are
// negative, and 3-star reviews are neutral. Neutral rows are stored but
// excluded from classifier training.
const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// SentimentFromRating maps a star rating to its sentiment label.
func SentimentFromRating(rating float64) Sentiment {
	switch {
	case rating >= 4:
		return SentimentPositive
	case rating <= 2:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// Sentinel values substituted for missing non-critical fields.
// Rows missing critical fields (reviewer, product, rating, text, timestamp)
// are dropped instead.
const (
	UnknownBrand    = "unknown"
	UnknownCategory = "unknown"
)

// RawReview is one line of a raw_review_<Category>.jsonl file.
//
// Field semantics follow the Amazon Reviews 2023 dump:
//   - ParentASIN groups product variants; reviews join metadata on it
//   - Timestamp is epoch milliseconds
//   - Text is a pointer so an absent field (row dropped) can be told apart
//     from an empty string (row kept with review_length 0)
type RawReview struct {
	UserID           string  `json:"user_id"`
	ASIN             string  `json:"asin"`
	ParentASIN       string  `json:"parent_asin"`
	Rating           float64 `json:"rating"`
	Title            string  `json:"title"`
	Text             *string `json:"text"`
	Timestamp        int64   `json:"timestamp"`
	HelpfulVote      int     `json:"helpful_vote"`
	VerifiedPurchase bool    `json:"verified_purchase"`
}

// RawProduct is one line of a raw_meta_<Category>.jsonl file.
//
// Store carries the brand name. Price is nullable and arrives in several
// shapes (see Price), so metadata rows are never dropped for a bad price.
type RawProduct struct {
	ParentASIN    string  `json:"parent_asin"`
	MainCategory  string  `json:"main_category"`
	Title         string  `json:"title"`
	Store         string  `json:"store"`
	AverageRating float64 `json:"average_rating"`
	RatingNumber  int     `json:"rating_number"`
	Price         Price   `json:"price"`
}

// Price handles the metadata price field, which may arrive as a JSON
// number, a string such as "23.99" or "$1,299.00", null, or junk like
// "None". Unparseable values become invalid (NULL) rather than errors.
type Price struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements tolerant price decoding.
func (p *Price) UnmarshalJSON(data []byte) error {
	p.Value = 0
	p.Valid = false

	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}

	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		str = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(str), "$"))
		str = strings.ReplaceAll(str, ",", "")
		v, err := strconv.ParseFloat(str, 64)
		if err != nil || v < 0 {
			return nil
		}
		p.Value = v
		p.Valid = true
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil || v < 0 {
		return nil
	}
	p.Value = v
	p.Valid = true
	return nil
}

// MarshalJSON emits the price as a number, or null when invalid.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// Ptr returns the price as a nullable float for database binding.
func (p Price) Ptr() *float64 {
	if !p.Valid {
		return nil
	}
	v := p.Value
	return &v
}

// CleanedReview is one row of the cleaned_reviews table: a raw review
// joined with its product metadata, filtered by the missing-value policy,
// and extended with derived columns.
//
// Derived columns:
//   - ReviewLength: whitespace-separated token count of ReviewText
//   - Year: UTC calendar year of Timestamp
//   - Sentiment: label from SentimentFromRating
//
// Nullable columns use pointers: Price when metadata had no usable price,
// AvgProductRating when the product had no aggregate rating.
type CleanedReview struct {
	ReviewerID       string     `json:"reviewer_id"`
	ProductID        string     `json:"product_id"`
	Rating           float64    `json:"rating"`
	ReviewTitle      string     `json:"review_title"`
	ReviewText       string     `json:"review_text"`
	Timestamp        time.Time  `json:"ts"`
	HelpfulVotes     int        `json:"helpful_votes"`
	VerifiedPurchase bool       `json:"verified_purchase"`
	Category         string     `json:"category"`
	Brand            string     `json:"brand"`
	Price            *float64   `json:"price,omitempty"`
	AvgProductRating *float64   `json:"avg_product_rating,omitempty"`
	ReviewLength     int        `json:"review_length"`
	Year             int        `json:"year"`
	Sentiment        Sentiment  `json:"sentiment"`
}
