// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/recensus/internal/eda"
)

var (
	reportCategory string
	reportOutput   string
)

// reportCmd computes the exploratory data report.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute the exploratory data report",
	Long: `Report runs the EDA queries against the cleaned snapshot — dataset
overview, rating and review-length histograms, reviews per year, the
length/rating correlation, top brands, per-category stats, and the sentiment
breakdown — and emits the assembled report as JSON.

The independent queries are fanned out concurrently; chart data (histogram
buckets, yearly series) is emitted as numbers, not rendered images.`,
	Example: `  recensus report
  recensus report --category Books --output books_report.json`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportCategory, "category", "", "Restrict the report to one category")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Write the report to a file instead of stdout")
}

func runReport(cmd *cobra.Command, args []string) error {
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

	builder := eda.NewBuilder(&cfg.EDA, db)
	report, err := builder.BuildReport(ctx, reportCategory)
	if err != nil {
		return fmt.Errorf("report failed: %w", err)
	}

	return writeJSON(reportOutput, report)
}
