// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package database

import (
	"context"
	"database/sql"

	"github.com/tomtom215/recensus/internal/database/query"
	"github.com/tomtom215/recensus/internal/models"
)

// scanFunc is a function that scans a single row into a result type
type scanFunc[T any] func(*sql.Rows) (T, error)

// queryAndScan executes a query and scans all rows using the provided scan function
func queryAndScan[T any](ctx context.Context, db *sql.DB, query string, args []interface{}, scan scanFunc[T]) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// reviewsWhere converts validated review listing filters into a
// parameterized WHERE clause. Zero values mean the filter is unset.
func reviewsWhere(q models.ReviewsQuery) (string, []interface{}) {
	wb := query.NewWhereBuilder()

	if q.Category != "" {
		wb.AddCategories([]string{q.Category})
	}
	if q.Brand != "" {
		wb.AddBrands([]string{q.Brand})
	}
	if q.ProductID != "" {
		wb.AddProducts([]string{q.ProductID})
	}
	if q.Sentiment != "" {
		wb.AddSentiments([]string{q.Sentiment})
	}

	var minRating, maxRating *float64
	if q.MinRating > 0 {
		minRating = &q.MinRating
	}
	if q.MaxRating > 0 {
		maxRating = &q.MaxRating
	}
	wb.AddRatingRange(minRating, maxRating)
	wb.AddVerified(q.Verified)
	wb.AddYear(q.Year)

	return wb.Build()
}
