// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package dataset

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeLines writes a JSONL fixture, optionally gzip-compressed.
func writeLines(t *testing.T, dir, name string, lines []string, compress bool) string {
	t.Helper()

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()

	var w io.Writer = file
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(file)
		w = gz
	}

	for _, line := range lines {
		if _, err := w.Write([]byte(line + "\n")); err != nil {
			t.Fatalf("write line: %v", err)
		}
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			t.Fatalf("close gzip: %v", err)
		}
	}
	return path
}

func TestNormalizeCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"All_Beauty", "All_Beauty"},
		{"All Beauty", "All_Beauty"},
		{"  Video Games  ", "Video_Games"},
		{"Electronics", "Electronics"},
	}

	for _, tt := range tests {
		if got := NormalizeCategory(tt.input); got != tt.want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsKnownCategory(t *testing.T) {
	t.Parallel()

	if !IsKnownCategory("Electronics") {
		t.Error("Expected Electronics to be known")
	}
	if !IsKnownCategory("All Beauty") {
		t.Error("Expected normalized 'All Beauty' to be known")
	}
	if IsKnownCategory("Nonexistent_Category") {
		t.Error("Expected Nonexistent_Category to be unknown")
	}
}

func TestResolveReviewFile(t *testing.T) {
	t.Parallel()

	t.Run("plain file", func(t *testing.T) {
		dir := t.TempDir()
		writeLines(t, dir, "raw_review_Electronics.jsonl", []string{"{}"}, false)

		path, err := ResolveReviewFile(dir, "Electronics")
		if err != nil {
			t.Fatalf("ResolveReviewFile failed: %v", err)
		}
		if !strings.HasSuffix(path, "raw_review_Electronics.jsonl") {
			t.Errorf("Unexpected path %s", path)
		}
	})

	t.Run("gzip fallback", func(t *testing.T) {
		dir := t.TempDir()
		writeLines(t, dir, "raw_review_Electronics.jsonl.gz", []string{"{}"}, true)

		path, err := ResolveReviewFile(dir, "Electronics")
		if err != nil {
			t.Fatalf("ResolveReviewFile failed: %v", err)
		}
		if !strings.HasSuffix(path, ".jsonl.gz") {
			t.Errorf("Expected gzip path, got %s", path)
		}
	})

	t.Run("plain preferred over gzip", func(t *testing.T) {
		dir := t.TempDir()
		writeLines(t, dir, "raw_review_Electronics.jsonl", []string{"{}"}, false)
		writeLines(t, dir, "raw_review_Electronics.jsonl.gz", []string{"{}"}, true)

		path, err := ResolveReviewFile(dir, "Electronics")
		if err != nil {
			t.Fatalf("ResolveReviewFile failed: %v", err)
		}
		if strings.HasSuffix(path, ".gz") {
			t.Errorf("Expected plain file to win, got %s", path)
		}
	})

	t.Run("missing", func(t *testing.T) {
		dir := t.TempDir()
		_, err := ResolveReviewFile(dir, "Electronics")
		if !errors.Is(err, ErrFileNotFound) {
			t.Errorf("Expected ErrFileNotFound, got %v", err)
		}
	})
}

func TestListPresentCategories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeLines(t, dir, "raw_review_Electronics.jsonl", []string{"{}"}, false)
	writeLines(t, dir, "raw_review_Books.jsonl.gz", []string{"{}"}, true)
	writeLines(t, dir, "raw_review_Books.jsonl", []string{"{}"}, false)
	writeLines(t, dir, "raw_meta_Electronics.jsonl", []string{"{}"}, false)
	writeLines(t, dir, "notes.txt", []string{"x"}, false)

	categories, err := ListPresentCategories(dir)
	if err != nil {
		t.Fatalf("ListPresentCategories failed: %v", err)
	}

	want := []string{"Books", "Electronics"}
	if len(categories) != len(want) {
		t.Fatalf("Expected %v, got %v", want, categories)
	}
	for i := range want {
		if categories[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, categories)
			break
		}
	}
}

func TestLineReader(t *testing.T) {
	t.Parallel()

	t.Run("plain", func(t *testing.T) {
		dir := t.TempDir()
		path := writeLines(t, dir, "data.jsonl", []string{"a", "b", "c"}, false)

		reader, err := OpenLineReader(path)
		if err != nil {
			t.Fatalf("OpenLineReader failed: %v", err)
		}
		defer reader.Close()

		var lines []string
		for {
			line, err := reader.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("Next failed: %v", err)
			}
			lines = append(lines, string(line))
		}

		if len(lines) != 3 || lines[0] != "a" || lines[2] != "c" {
			t.Errorf("Unexpected lines %v", lines)
		}
		if reader.Line() != 3 {
			t.Errorf("Expected 3 lines read, got %d", reader.Line())
		}
	})

	t.Run("gzip", func(t *testing.T) {
		dir := t.TempDir()
		path := writeLines(t, dir, "data.jsonl.gz", []string{"x", "y"}, true)

		reader, err := OpenLineReader(path)
		if err != nil {
			t.Fatalf("OpenLineReader failed: %v", err)
		}
		defer reader.Close()

		line, err := reader.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if string(line) != "x" {
			t.Errorf("Expected x, got %s", line)
		}
	})

	t.Run("skip", func(t *testing.T) {
		dir := t.TempDir()
		path := writeLines(t, dir, "data.jsonl", []string{"a", "b", "c"}, false)

		reader, err := OpenLineReader(path)
		if err != nil {
			t.Fatalf("OpenLineReader failed: %v", err)
		}
		defer reader.Close()

		if err := reader.Skip(2); err != nil {
			t.Fatalf("Skip failed: %v", err)
		}
		line, err := reader.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if string(line) != "c" {
			t.Errorf("Expected c after skip, got %s", line)
		}
	})

	t.Run("skip past end", func(t *testing.T) {
		dir := t.TempDir()
		path := writeLines(t, dir, "data.jsonl", []string{"a"}, false)

		reader, err := OpenLineReader(path)
		if err != nil {
			t.Fatalf("OpenLineReader failed: %v", err)
		}
		defer reader.Close()

		if err := reader.Skip(10); err != nil {
			t.Fatalf("Skip past end should not error, got %v", err)
		}
		if _, err := reader.Next(); err != io.EOF {
			t.Errorf("Expected EOF after exhausting skip, got %v", err)
		}
	})

	t.Run("long line", func(t *testing.T) {
		dir := t.TempDir()
		long := strings.Repeat("x", 200*1024)
		path := writeLines(t, dir, "data.jsonl", []string{long}, false)

		reader, err := OpenLineReader(path)
		if err != nil {
			t.Fatalf("OpenLineReader failed: %v", err)
		}
		defer reader.Close()

		line, err := reader.Next()
		if err != nil {
			t.Fatalf("Next failed on long line: %v", err)
		}
		if len(line) != 200*1024 {
			t.Errorf("Expected 200 KiB line, got %d bytes", len(line))
		}
	})
}

func TestReviewReader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeLines(t, dir, "raw_review_Electronics.jsonl", []string{
		`{"rating": 5.0, "user_id": "u1", "parent_asin": "p1", "text": "good", "timestamp": 1589000000000}`,
		`not json at all`,
		``,
		`{"rating": 2.0, "user_id": "u2", "parent_asin": "p2", "text": "bad", "timestamp": 1589000000001}`,
	}, false)

	reader, err := OpenReviewFile(dir, "Electronics")
	if err != nil {
		t.Fatalf("OpenReviewFile failed: %v", err)
	}
	defer reader.Close()

	first, err := reader.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if first.UserID != "u1" || first.Rating != 5.0 {
		t.Errorf("Unexpected first review %+v", first)
	}

	second, err := reader.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if second.UserID != "u2" {
		t.Errorf("Expected u2 after skipping malformed line, got %s", second.UserID)
	}

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("Expected EOF, got %v", err)
	}
	if reader.Malformed() != 1 {
		t.Errorf("Expected 1 malformed line, got %d", reader.Malformed())
	}
}

func TestReviewReader_ReadBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	lines := []string{
		`{"rating": 5.0, "user_id": "u1", "parent_asin": "p1"}`,
		`{"rating": 4.0, "user_id": "u2", "parent_asin": "p2"}`,
		`{"rating": 3.0, "user_id": "u3", "parent_asin": "p3"}`,
	}
	writeLines(t, dir, "raw_review_Books.jsonl", lines, false)

	reader, err := OpenReviewFile(dir, "Books")
	if err != nil {
		t.Fatalf("OpenReviewFile failed: %v", err)
	}
	defer reader.Close()

	ctx := context.Background()

	batch, err := reader.ReadBatch(ctx, 2)
	if err != nil {
		t.Fatalf("ReadBatch failed: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("Expected batch of 2, got %d", len(batch))
	}

	batch, err = reader.ReadBatch(ctx, 2)
	if err != nil {
		t.Fatalf("ReadBatch failed: %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("Expected final batch of 1, got %d", len(batch))
	}

	batch, err = reader.ReadBatch(ctx, 2)
	if err != nil {
		t.Fatalf("ReadBatch failed: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("Expected empty batch at end of file, got %d", len(batch))
	}
}

func TestReviewReader_ReadBatchCancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeLines(t, dir, "raw_review_Books.jsonl", []string{`{"rating": 5.0}`}, false)

	reader, err := OpenReviewFile(dir, "Books")
	if err != nil {
		t.Fatalf("OpenReviewFile failed: %v", err)
	}
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := reader.ReadBatch(ctx, 10); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestProductReader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeLines(t, dir, "raw_meta_Electronics.jsonl.gz", []string{
		`{"parent_asin": "p1", "main_category": "Electronics", "store": "Acme", "average_rating": 4.5, "rating_number": 120, "price": "23.99"}`,
		`{"parent_asin": "p2", "main_category": "Electronics", "store": "Globex", "price": null}`,
	}, true)

	reader, err := OpenMetaFile(dir, "Electronics")
	if err != nil {
		t.Fatalf("OpenMetaFile failed: %v", err)
	}
	defer reader.Close()

	first, err := reader.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if first.ParentASIN != "p1" || first.Store != "Acme" {
		t.Errorf("Unexpected first product %+v", first)
	}
	if !first.Price.Valid || first.Price.Value != 23.99 {
		t.Errorf("Expected price 23.99, got %+v", first.Price)
	}

	second, err := reader.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if second.Price.Valid {
		t.Errorf("Expected null price, got %+v", second.Price)
	}

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("Expected EOF, got %v", err)
	}
}
