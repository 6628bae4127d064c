// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/recensus/internal/logging"
	"github.com/tomtom215/recensus/internal/metrics"
	"github.com/tomtom215/recensus/internal/models"
)

// ExportOptions controls the output format of snapshot exports.
// Format and Compression are validated against allowlists before being
// spliced into the COPY statement; the output path is always bound as a
// parameter.
type ExportOptions struct {
	Format              string // "parquet" or "csv"
	Compression         string // "zstd", "snappy", "gzip", or "uncompressed"
	PartitionByCategory bool   // write one Hive-style partition per category
}

// copyCompressionCodecs maps accepted compression names to DuckDB codec
// identifiers per format.
var copyCompressionCodecs = map[string]map[string]string{
	"parquet": {
		"zstd":         "ZSTD",
		"snappy":       "SNAPPY",
		"gzip":         "GZIP",
		"uncompressed": "UNCOMPRESSED",
	},
	"csv": {
		"zstd":         "zstd",
		"gzip":         "gzip",
		"uncompressed": "none",
	},
}

// buildCopyOptions renders the parenthesized COPY option list for the
// requested format, or an error naming the unsupported value.
func buildCopyOptions(opts ExportOptions) (string, error) {
	format := strings.ToLower(opts.Format)
	compression := strings.ToLower(opts.Compression)
	if compression == "" {
		compression = "zstd"
	}

	codecs, ok := copyCompressionCodecs[format]
	if !ok {
		return "", fmt.Errorf("unsupported export format %q (want parquet or csv)", opts.Format)
	}
	codec, ok := codecs[compression]
	if !ok {
		return "", fmt.Errorf("unsupported compression %q for %s export", opts.Compression, format)
	}

	var clauses []string
	switch format {
	case "parquet":
		clauses = []string{
			"FORMAT PARQUET",
			fmt.Sprintf("COMPRESSION '%s'", codec),
			"ROW_GROUP_SIZE 100000",
		}
	case "csv":
		clauses = []string{
			"FORMAT CSV",
			"HEADER true",
			fmt.Sprintf("COMPRESSION '%s'", codec),
		}
	}

	if opts.PartitionByCategory {
		clauses = append(clauses, "PARTITION_BY (category)", "OVERWRITE_OR_IGNORE true")
	}

	return strings.Join(clauses, ", "), nil
}

// ExportReviews writes the filtered snapshot to outputPath via DuckDB COPY.
// With partitioning enabled the path is a directory that receives one
// category=<name> subdirectory per category; otherwise it is a single file.
//
// Returns the number of rows exported.
func (db *DB) ExportReviews(ctx context.Context, outputPath string, q models.ReviewsQuery, opts ExportOptions) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	copyOptions, err := buildCopyOptions(opts)
	if err != nil {
		return 0, err
	}

	where, args := reviewsWhere(q)

	start := time.Now()

	// Count first so the caller can report progress even though COPY
	// itself does not expose a row count through database/sql.
	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM cleaned_reviews WHERE %s`, where)
	if err := db.conn.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count exportable rows: %w", err)
	}

	exportQuery := fmt.Sprintf(`
	COPY (
		SELECT
			reviewer_id, product_id, rating, review_title, review_text, ts,
			helpful_votes, verified_purchase, category, brand, price,
			avg_product_rating, review_length, year, sentiment
		FROM cleaned_reviews
		WHERE %s
		ORDER BY ingest_seq
	) TO ? (%s)`, where, copyOptions)

	exportArgs := append(args, outputPath)

	_, err = db.conn.ExecContext(ctx, exportQuery, exportArgs...)
	metrics.RecordDBQuery("export", "cleaned_reviews", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to export reviews to %s: %w", outputPath, err)
	}

	logging.Info().
		Str("path", outputPath).
		Str("format", strings.ToLower(opts.Format)).
		Bool("partitioned", opts.PartitionByCategory).
		Int64("rows", total).
		Dur("duration", time.Since(start)).
		Msg("Exported cleaned reviews")

	return total, nil
}
