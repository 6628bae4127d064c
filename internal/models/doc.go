// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

/*
Package models defines data structures for the Recensus application.

This package contains all data models used throughout the application:
raw dataset records, cleaned review rows, ingest bookkeeping, analysis
report types, and API request/response structures. It serves as the single
source of truth for data structure definitions.

Model Categories:

1. Dataset Models:
  - RawReview: One line of a raw_review_<Category>.jsonl file
  - RawProduct: One line of a raw_meta_<Category>.jsonl file
  - Price: Tolerant decoder for the polymorphic metadata price field
  - CleanedReview: One row of the cleaned_reviews table

2. Ingest Models:
  - IngestRun: Persisted record of one pipeline execution
  - IngestStats: Counters accumulated during ingest
  - IngestSummary: Human-readable projection with derived rates

3. Report Models:
  - EDAReport: Exploratory analysis (histograms, correlations, leaderboards)
  - ClassifyReport: Sentiment classifier evaluation
  - ClusterReport: K-means clustering outcome
  - RecommendReport: Rating predictor training and holdout evaluation

4. API Request/Response Models:
  - APIResponse: Standard response wrapper
  - APIError: Error details
  - Metadata: Response metadata (timestamp, query time)
  - ReviewsQuery: Validated filter surface of the reviews listing

Usage Example - API Response:

	import "github.com/tomtom215/recensus/internal/models"

	// Success response
	response := models.APIResponse{
	    Status: "success",
	    Data: models.ReviewsResponse{
	        Reviews:    reviews,
	        Pagination: models.PaginationInfo{Limit: 20, Total: 1000},
	    },
	    Metadata: &models.Metadata{
	        Timestamp:   time.Now(),
	        QueryTimeMS: 45,
	    },
	}

	json.NewEncoder(w).Encode(response)

	// Error response
	errorResponse := models.APIResponse{
	    Status: "error",
	    Error: &models.APIError{
	        Code:    "VALIDATION_ERROR",
	        Message: "Invalid rating range",
	        Details: map[string]interface{}{
	            "field": "min_rating",
	        },
	    },
	}

Missing-Value Policy:

RawReview.Text is a pointer so an absent JSON field (row dropped by the
cleaning policy) can be told apart from an empty string (row kept with
review_length 0). Price decodes numbers, numeric strings with currency
formatting, and null; unparseable values become NULL rather than errors.
Missing brand or category values are replaced with the "unknown" sentinel.

Thread Safety:

All models are:
  - Immutable after creation (pass-by-value or pointers)
  - Safe for concurrent read access
  - No internal mutexes needed (data structures only)

See Also:

  - internal/database: Database operations using these models
  - internal/pipeline: Ingest pipeline producing CleanedReview rows
  - internal/api: API handlers returning these models
*/
package models
