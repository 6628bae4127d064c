// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/recensus/internal/models"
)

// insertTestRun starts a run through the production path and returns its ID
func insertTestRun(t *testing.T, db *DB, category string, startedAt time.Time) string {
	t.Helper()
	run := &models.IngestRun{
		ID:        uuid.NewString(),
		Category:  category,
		StartedAt: startedAt,
	}
	checkNoError(t, db.InsertIngestRun(context.Background(), run))
	return run.ID
}

func TestInsertIngestRun_AndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	id := insertTestRun(t, db, "Books", tsAt(2026, 1, 10, 9, 0))

	run, err := db.GetIngestRun(ctx, id)
	checkNoError(t, err)

	checkStringEqual(t, "id", run.ID, id)
	checkStringEqual(t, "category", run.Category, "Books")
	checkStringEqual(t, "status", run.Status, models.RunStatusRunning)
	if run.CompletedAt != nil {
		t.Errorf("Expected nil completed_at for a running run, got %v", *run.CompletedAt)
	}
	checkStringEqual(t, "error", run.Error, "")
	if !run.StartedAt.UTC().Equal(tsAt(2026, 1, 10, 9, 0)) {
		t.Errorf("StartedAt = %v, want %v", run.StartedAt.UTC(), tsAt(2026, 1, 10, 9, 0))
	}
}

func TestCompleteIngestRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	id := insertTestRun(t, db, "Books", time.Now().UTC())

	stats := &models.IngestStats{
		ReviewsRead:     100,
		ProductsIndexed: 40,
		MalformedLines:  3,
		JoinMisses:      10,
		DroppedPolicy:   7,
		RowsStaged:      80,
		Duplicates:      5,
		RowsLoaded:      75,
	}
	checkNoError(t, db.CompleteIngestRun(ctx, id, stats))

	run, err := db.GetIngestRun(ctx, id)
	checkNoError(t, err)

	checkStringEqual(t, "status", run.Status, models.RunStatusCompleted)
	if run.CompletedAt == nil {
		t.Fatal("Expected completed_at to be set")
	}
	checkInt64Equal(t, "reviews_read", run.Stats.ReviewsRead, 100)
	checkInt64Equal(t, "products_indexed", run.Stats.ProductsIndexed, 40)
	checkInt64Equal(t, "malformed_lines", run.Stats.MalformedLines, 3)
	checkInt64Equal(t, "join_misses", run.Stats.JoinMisses, 10)
	checkInt64Equal(t, "dropped_policy", run.Stats.DroppedPolicy, 7)
	checkInt64Equal(t, "rows_staged", run.Stats.RowsStaged, 80)
	checkInt64Equal(t, "duplicates", run.Stats.Duplicates, 5)
	checkInt64Equal(t, "rows_loaded", run.Stats.RowsLoaded, 75)
	checkStringEqual(t, "error", run.Error, "")
}

func TestFailIngestRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	id := insertTestRun(t, db, "Books", time.Now().UTC())

	stats := &models.IngestStats{ReviewsRead: 12, MalformedLines: 12}
	checkNoError(t, db.FailIngestRun(ctx, id, stats, fmt.Errorf("reviews file truncated")))

	run, err := db.GetIngestRun(ctx, id)
	checkNoError(t, err)

	checkStringEqual(t, "status", run.Status, models.RunStatusFailed)
	checkStringEqual(t, "error", run.Error, "reviews file truncated")
	checkInt64Equal(t, "reviews_read", run.Stats.ReviewsRead, 12)
	checkInt64Equal(t, "rows_loaded", run.Stats.RowsLoaded, 0)
}

func TestFinishIngestRun_UnknownID(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.CompleteIngestRun(context.Background(), uuid.NewString(), &models.IngestStats{})
	checkError(t, err)
}

func TestGetIngestRun_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetIngestRun(context.Background(), uuid.NewString())
	checkError(t, err)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows, got %v", err)
	}
}

func TestListIngestRuns(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	oldest := insertTestRun(t, db, "Books", tsAt(2026, 1, 1, 8, 0))
	middle := insertTestRun(t, db, "Video_Games", tsAt(2026, 1, 2, 8, 0))
	newest := insertTestRun(t, db, "Books", tsAt(2026, 1, 3, 8, 0))

	runs, err := db.ListIngestRuns(ctx, 10)
	checkNoError(t, err)
	checkSliceLen(t, "runs", len(runs), 3)

	checkStringEqual(t, "first run", runs[0].ID, newest)
	checkStringEqual(t, "second run", runs[1].ID, middle)
	checkStringEqual(t, "third run", runs[2].ID, oldest)

	limited, err := db.ListIngestRuns(ctx, 2)
	checkNoError(t, err)
	checkSliceLen(t, "limited runs", len(limited), 2)
	checkStringEqual(t, "limited first", limited[0].ID, newest)
}

func TestInsertIngestRun_DryRunFlag(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	run := &models.IngestRun{
		ID:        uuid.NewString(),
		Category:  "Books",
		StartedAt: time.Now().UTC(),
		Stats:     models.IngestStats{DryRun: true},
	}
	checkNoError(t, db.InsertIngestRun(ctx, run))

	got, err := db.GetIngestRun(ctx, run.ID)
	checkNoError(t, err)
	if !got.Stats.DryRun {
		t.Error("Expected dry_run flag to round-trip")
	}
}
