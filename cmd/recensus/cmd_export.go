// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/recensus/internal/config"
	"github.com/tomtom215/recensus/internal/database"
	"github.com/tomtom215/recensus/internal/models"
)

var (
	exportOutput      string
	exportFormat      string
	exportCompression string
	exportCategory    string
	exportFlat        bool
)

// exportCmd writes the cleaned snapshot to Parquet or CSV.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the cleaned snapshot as Parquet or CSV",
	Long: `Export copies the cleaned_reviews table out of DuckDB via COPY. The
default writes zstd-compressed Parquet with one Hive-style category=<name>
partition per category; --flat produces a single file instead, and
--category restricts the export to one category.`,
	Example: `  recensus export
  recensus export --format csv --flat --output reviews.csv
  recensus export --category Books --compression snappy`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output directory or file (default: configured export dir)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "parquet or csv (default: configured)")
	exportCmd.Flags().StringVar(&exportCompression, "compression", "", "zstd, snappy, gzip, or uncompressed (default: configured)")
	exportCmd.Flags().StringVar(&exportCategory, "category", "", "Export a single category")
	exportCmd.Flags().BoolVar(&exportFlat, "flat", false, "Write a single file instead of category partitions")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	opts := database.ExportOptions{
		Format:              cfg.Export.Format,
		Compression:         cfg.Export.Compression,
		PartitionByCategory: cfg.Export.PartitionByCategory,
	}
	if exportFormat != "" {
		opts.Format = exportFormat
	}
	if exportCompression != "" {
		opts.Compression = exportCompression
	}
	if exportFlat {
		opts.PartitionByCategory = false
	}

	outputPath := resolveExportPath(cfg, opts)

	var query models.ReviewsQuery
	if exportCategory != "" {
		query.Category = exportCategory
	}

	rows, err := db.ExportReviews(ctx, outputPath, query, opts)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "exported %d rows to %s\n", rows, outputPath)
	return nil
}

// resolveExportPath picks the COPY target: the --output flag verbatim when
// given, the export directory for partitioned output, or a single
// cleaned_reviews.<ext> file inside it otherwise.
func resolveExportPath(cfg *config.Config, opts database.ExportOptions) string {
	if exportOutput != "" {
		return exportOutput
	}
	if opts.PartitionByCategory {
		return cfg.Export.Dir
	}

	ext := "parquet"
	if strings.EqualFold(opts.Format, "csv") {
		ext = "csv"
	}
	return filepath.Join(cfg.Export.Dir, "cleaned_reviews."+ext)
}
