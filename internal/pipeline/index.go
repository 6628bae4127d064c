// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tomtom215/recensus/internal/models"
)

// contextCheckInterval is how many metadata records are indexed between
// context cancellation checks.
const contextCheckInterval = 1000

// productSource yields product metadata records until io.EOF. Satisfied by
// dataset.ProductReader.
type productSource interface {
	Next() (*models.RawProduct, error)
}

// MetaIndex maps parent_asin to product metadata for one category. The
// metadata file is orders of magnitude smaller than the review file, so a
// single category's index fits the pipeline's memory bound.
type MetaIndex struct {
	products map[string]models.RawProduct
	skipped  int64
}

// BuildMetaIndex streams an entire metadata file into an index. Records
// without a parent_asin are skipped and counted; on a duplicate parent_asin
// the first record wins, consistent with the keep-first policy everywhere
// else in the pipeline.
func BuildMetaIndex(ctx context.Context, reader productSource) (*MetaIndex, error) {
	index := &MetaIndex{products: make(map[string]models.RawProduct)}

	var n int64
	for {
		if n%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		product, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				return index, nil
			}
			return nil, fmt.Errorf("read metadata: %w", err)
		}
		n++

		key := strings.TrimSpace(product.ParentASIN)
		if key == "" {
			index.skipped++
			continue
		}
		if _, exists := index.products[key]; exists {
			index.skipped++
			continue
		}
		index.products[key] = *product
	}
}

// Lookup returns the metadata for a parent_asin.
func (ix *MetaIndex) Lookup(parentASIN string) (*models.RawProduct, bool) {
	product, ok := ix.products[parentASIN]
	if !ok {
		return nil, false
	}
	return &product, true
}

// Len returns the number of indexed products.
func (ix *MetaIndex) Len() int {
	return len(ix.products)
}

// Skipped returns the number of metadata records dropped while indexing
// (no parent_asin, or a duplicate of an earlier record).
func (ix *MetaIndex) Skipped() int64 {
	return ix.skipped
}
