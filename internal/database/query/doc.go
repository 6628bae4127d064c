// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

// Package query provides SQL query building utilities for the database package.
//
// This package reduces code duplication and provides type-safe query construction
// for parameterized SQL WHERE clauses. It ensures consistent parameter handling
// and prevents SQL injection vulnerabilities.
//
// # Overview
//
// The WhereBuilder is the primary component, providing a fluent interface for
// constructing WHERE clauses with properly parameterized queries:
//
//	wb := query.NewWhereBuilder()
//	wb.AddCategories([]string{"Books", "Video_Games"})
//	wb.AddSentiments([]string{"positive"})
//	wb.AddRatingRange(minRating, nil)
//	whereClause, args := wb.Build()
//	// Result: "category IN (?, ?) AND sentiment IN (?) AND rating >= ?"
//	// Args: ["Books", "Video_Games", "positive", 4.0]
//
// # Usage Example
//
// Building a query with multiple filters:
//
//	func ListReviews(ctx context.Context, q models.ReviewsQuery) ([]models.CleanedReview, error) {
//	    wb := query.NewWhereBuilder()
//	    if q.Category != "" {
//	        wb.AddCategories([]string{q.Category})
//	    }
//	    wb.AddRatingRange(q.MinRating, q.MaxRating)
//	    wb.AddVerified(q.Verified)
//	    wb.AddYear(q.Year)
//
//	    whereClause, args := wb.Build()
//
//	    sql := fmt.Sprintf(`
//	        SELECT * FROM cleaned_reviews
//	        WHERE %s
//	        ORDER BY ts DESC
//	        LIMIT ?
//	    `, whereClause)
//	    args = append(args, q.Limit)
//
//	    rows, err := db.QueryContext(ctx, sql, args...)
//	    // ...
//	}
//
// Adding custom clauses:
//
//	wb := query.NewWhereBuilder()
//	wb.AddClause("review_length >= ?", 50)
//	wb.AddClause("helpful_votes > ?", 0)
//	wb.AddClause("price IS NOT NULL")
//
// # Available Filter Methods
//
// The WhereBuilder provides methods for common filter types:
//
//   - AddCategories: Filters by dataset category (IN clause)
//   - AddBrands: Filters by product brand (IN clause)
//   - AddSentiments: Filters by derived sentiment label (IN clause)
//   - AddProducts: Filters by product identifier (IN clause)
//   - AddRatingRange: Filters by inclusive star-rating bounds
//   - AddTimestampRange: Filters by review timestamp range
//   - AddYear: Filters by exact review year
//   - AddVerified: Filters by verified-purchase flag
//   - AddClause: Adds custom WHERE clause with parameters
//
// # SQL Injection Prevention
//
// All methods use parameterized queries with ? placeholders:
//
//	// Safe - parameters are properly escaped by the database driver
//	wb.AddBrands(userInput)  // Generates: "brand IN (?, ?)"
//
//	// The generated SQL is safe regardless of input content
//	// Never concatenate user input directly into SQL strings
//
// # Thread Safety
//
// WhereBuilder instances are not thread-safe. Create a new instance per query
// or protect concurrent access with appropriate synchronization.
//
// # Performance
//
//   - Zero allocations for empty builders (returns "1=1")
//   - Efficient string building using slices
//   - No reflection or dynamic SQL parsing
//
// # See Also
//
//   - internal/database: Main database package using this builder
//   - internal/models: Filter types used with the builder
package query
