// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

// Package query provides SQL query building utilities for the database package.
// It reduces code duplication and provides type-safe query construction.
package query

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
// It ensures consistent parameter handling and reduces SQL injection risks.
//
// Example usage:
//
//	wb := query.NewWhereBuilder()
//	wb.AddCategories([]string{"Books", "Video_Games"})
//	wb.AddRatingRange(minRating, maxRating)
//	whereClause, args := wb.Build()
//	// WHERE category IN (?, ?) AND rating >= ? AND rating <= ?
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates a new WhereBuilder instance.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw WHERE clause with its arguments.
// This is useful for custom conditions not covered by helper methods.
//
// Parameters:
//   - clause: SQL condition fragment (e.g., "sentiment = ?")
//   - args: Arguments to bind to placeholders in the clause
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// addIn appends "column IN (?, ...)" for a non-empty value list.
// Empty lists are skipped so optional filters compose cleanly.
func (wb *WhereBuilder) addIn(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		wb.args = append(wb.args, v)
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	return wb
}

// AddCategories adds a category filter using IN clause.
// Generates "category IN (?, ?, ...)" with proper parameterization.
//
// Parameters:
//   - categories: List of dataset categories to filter (empty slice is skipped)
func (wb *WhereBuilder) AddCategories(categories []string) *WhereBuilder {
	return wb.addIn("category", categories)
}

// AddBrands adds a brand filter using IN clause.
// Generates "brand IN (?, ?, ...)" for filtering by product brand.
//
// Parameters:
//   - brands: List of brand names (empty slice is skipped)
func (wb *WhereBuilder) AddBrands(brands []string) *WhereBuilder {
	return wb.addIn("brand", brands)
}

// AddSentiments adds a sentiment filter using IN clause.
// Generates "sentiment IN (?, ?, ...)" for filtering by derived label.
//
// Parameters:
//   - sentiments: List of sentiment labels ("positive", "negative", "neutral")
func (wb *WhereBuilder) AddSentiments(sentiments []string) *WhereBuilder {
	return wb.addIn("sentiment", sentiments)
}

// AddProducts adds a product filter using IN clause.
// Generates "product_id IN (?, ?, ...)" for filtering by parent ASIN.
//
// Parameters:
//   - products: List of product identifiers (empty slice is skipped)
func (wb *WhereBuilder) AddProducts(products []string) *WhereBuilder {
	return wb.addIn("product_id", products)
}

// AddRatingRange adds minimum and/or maximum star-rating filters.
// Nil bounds are skipped, allowing half-open rating queries.
//
// Parameters:
//   - minRating: Optional lower bound, inclusive (nil to skip)
//   - maxRating: Optional upper bound, inclusive (nil to skip)
//
// Generates:
//   - "rating >= ?" if minRating is non-nil
//   - "rating <= ?" if maxRating is non-nil
func (wb *WhereBuilder) AddRatingRange(minRating, maxRating *float64) *WhereBuilder {
	if minRating != nil {
		wb.clauses = append(wb.clauses, "rating >= ?")
		wb.args = append(wb.args, *minRating)
	}
	if maxRating != nil {
		wb.clauses = append(wb.clauses, "rating <= ?")
		wb.args = append(wb.args, *maxRating)
	}
	return wb
}

// AddTimestampRange adds start and/or end review-time filters.
// Nil dates are skipped, allowing flexible date range queries.
//
// Parameters:
//   - start: Optional start time (nil to skip)
//   - end: Optional end time (nil to skip)
//
// Generates:
//   - "ts >= ?" if start is non-nil
//   - "ts <= ?" if end is non-nil
func (wb *WhereBuilder) AddTimestampRange(start, end *time.Time) *WhereBuilder {
	if start != nil {
		wb.clauses = append(wb.clauses, "ts >= ?")
		wb.args = append(wb.args, *start)
	}
	if end != nil {
		wb.clauses = append(wb.clauses, "ts <= ?")
		wb.args = append(wb.args, *end)
	}
	return wb
}

// AddYear adds an exact review-year filter.
// Zero is treated as unset and skipped.
func (wb *WhereBuilder) AddYear(year int) *WhereBuilder {
	if year != 0 {
		wb.clauses = append(wb.clauses, "year = ?")
		wb.args = append(wb.args, year)
	}
	return wb
}

// AddVerified adds a verified-purchase filter.
// A nil pointer is skipped so the filter stays tri-state.
func (wb *WhereBuilder) AddVerified(verified *bool) *WhereBuilder {
	if verified != nil {
		wb.clauses = append(wb.clauses, "verified_purchase = ?")
		wb.args = append(wb.args, *verified)
	}
	return wb
}

// Build constructs the final WHERE clause and returns it with arguments.
// Clauses are joined with "AND". Returns ("1=1", []) if no clauses were added.
//
// Returns:
//   - string: Complete WHERE clause (without "WHERE" keyword)
//   - []interface{}: Arguments to bind to placeholders
//
// Example:
//
//	whereClause, args := wb.Build()
//	query := fmt.Sprintf("SELECT * FROM table WHERE %s", whereClause)
//	db.Query(query, args...)
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the WHERE clause with "WHERE " prefix.
// Useful for direct SQL construction without manual prefix addition.
//
// Returns:
//   - string: Complete WHERE clause with "WHERE " prefix
//   - []interface{}: Arguments to bind to placeholders
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of clauses added to the builder.
// Useful for conditional logic based on filter complexity.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty returns true if no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
