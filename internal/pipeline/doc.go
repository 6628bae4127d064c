// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

// Package pipeline merges raw review and product metadata files into the
// cleaned review snapshot stored in DuckDB.
//
// Categories are processed strictly one at a time so that only a single
// metadata index is resident in memory and the snapshot always has exactly
// one writer.
//
// # Data Flow
//
//	raw_review_<Category>.jsonl      raw_meta_<Category>.jsonl
//	       ↓                                 ↓
//	ReviewReader (internal/dataset)   MetaIndex (this package)
//	       ↓                                 ↓
//	       └────────── inner join ───────────┘
//	                       ↓
//	        Mapper (validate, derive columns)
//	                       ↓
//	        batched INSERT (internal/database)
//	                       ↓
//	        table-wide dedup, keep first loaded
//
// # Drop Accounting
//
// Every raw line is accounted for exactly once:
//
//   - malformed_lines: undecodable JSON, skipped by the readers
//   - join_misses: reviews whose parent_asin has no metadata record
//   - dropped_policy: missing identifiers, rating outside [1,5], absent
//     review text, or a non-positive timestamp
//   - duplicates: rows removed by the (reviewer_id, product_id, timestamp)
//     dedup pass
//
// A category whose file had rows but produced none after cleaning fails
// with ErrEmptyAfterFilter; a genuinely empty file is a valid empty result.
//
// # Progress Tracking
//
// Per-category progress is checkpointed in BadgerDB after every batch:
//
//   - Counters read so far (reviews, malformed, drops, staged rows)
//   - Start time, and end time once the category completes
//
// A checkpoint with a non-zero end time marks the category done and the
// pipeline skips it; one without resumes the load by skipping the raw
// lines already consumed.
//
// # Example Usage
//
//	checkpoints, err := pipeline.OpenBadgerCheckpoints(cfg.Pipeline.CheckpointDir)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer checkpoints.Close()
//
//	p := pipeline.New(&cfg.Pipeline, &cfg.Dataset, db, checkpoints)
//	results, err := p.Run(ctx, categories)
//	if err != nil {
//	    log.Printf("Ingest failed: %v", err)
//	}
//	for _, r := range results {
//	    log.Printf("%s: %d rows loaded", r.Category, r.Stats.RowsLoaded)
//	}
package pipeline
