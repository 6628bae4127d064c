// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package dataset

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/recensus/internal/models"
)

// Scanner buffer sizing. Metadata lines carry image and video arrays that
// routinely exceed the default 64 KiB token limit.
const (
	initialLineBuffer = 64 * 1024
	maxLineSize       = 16 * 1024 * 1024
)

// LineReader streams newline-delimited records from a plain or gzip file.
// Compression is detected from the .gz suffix. Not safe for concurrent use.
type LineReader struct {
	path    string
	file    *os.File
	gz      *gzip.Reader
	scanner *bufio.Scanner
	line    int64
}

// OpenLineReader opens path for sequential line reading.
func OpenLineReader(path string) (*LineReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	reader := &LineReader{path: path, file: file}

	var src io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			file.Close() //nolint:errcheck // best-effort cleanup on error path
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		reader.gz = gz
		src = gz
	}

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, initialLineBuffer), maxLineSize)
	reader.scanner = scanner

	return reader, nil
}

// Next returns the next line, or io.EOF when the file is exhausted.
// The returned slice is only valid until the next call.
func (r *LineReader) Next() ([]byte, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", r.path, r.line+1, err)
		}
		return nil, io.EOF
	}
	r.line++
	return r.scanner.Bytes(), nil
}

// Line returns the number of lines read so far.
func (r *LineReader) Line() int64 {
	return r.line
}

// Skip advances past n lines, used to resume from a checkpoint. Reaching end
// of file early is not an error; the next Next call reports io.EOF.
func (r *LineReader) Skip(n int64) error {
	for i := int64(0); i < n; i++ {
		if _, err := r.Next(); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
	return nil
}

// Close releases the underlying file handles.
func (r *LineReader) Close() error {
	if r.gz != nil {
		if err := r.gz.Close(); err != nil {
			r.file.Close() //nolint:errcheck // best-effort cleanup on error path
			return fmt.Errorf("close gzip %s: %w", r.path, err)
		}
	}
	return r.file.Close()
}

// ReviewReader streams RawReview records from a category's review file.
// Lines that fail to decode are counted and skipped rather than aborting
// the read.
type ReviewReader struct {
	lr        *LineReader
	malformed int64
}

// OpenReviewFile resolves and opens the review file for a category.
func OpenReviewFile(dir, category string) (*ReviewReader, error) {
	path, err := ResolveReviewFile(dir, category)
	if err != nil {
		return nil, err
	}
	lr, err := OpenLineReader(path)
	if err != nil {
		return nil, err
	}
	return &ReviewReader{lr: lr}, nil
}

// Next returns the next well-formed review, or io.EOF at end of file.
func (r *ReviewReader) Next() (*models.RawReview, error) {
	for {
		line, err := r.lr.Next()
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			continue
		}

		var review models.RawReview
		if err := json.Unmarshal(line, &review); err != nil {
			r.malformed++
			continue
		}
		return &review, nil
	}
}

// ReadBatch reads up to limit reviews. An empty batch signals end of file.
func (r *ReviewReader) ReadBatch(ctx context.Context, limit int) ([]models.RawReview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := make([]models.RawReview, 0, limit)
	for len(batch) < limit {
		review, err := r.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		batch = append(batch, *review)
	}
	return batch, nil
}

// Malformed returns the number of undecodable lines skipped so far.
func (r *ReviewReader) Malformed() int64 {
	return r.malformed
}

// Lines returns the number of lines consumed, including malformed ones.
func (r *ReviewReader) Lines() int64 {
	return r.lr.Line()
}

// Skip advances past n lines without decoding, used for checkpoint resume.
func (r *ReviewReader) Skip(n int64) error {
	return r.lr.Skip(n)
}

// Close releases the underlying file handles.
func (r *ReviewReader) Close() error {
	return r.lr.Close()
}

// ProductReader streams RawProduct records from a category's metadata file,
// with the same malformed-line policy as ReviewReader.
type ProductReader struct {
	lr        *LineReader
	malformed int64
}

// OpenMetaFile resolves and opens the product metadata file for a category.
func OpenMetaFile(dir, category string) (*ProductReader, error) {
	path, err := ResolveMetaFile(dir, category)
	if err != nil {
		return nil, err
	}
	lr, err := OpenLineReader(path)
	if err != nil {
		return nil, err
	}
	return &ProductReader{lr: lr}, nil
}

// Next returns the next well-formed product, or io.EOF at end of file.
func (r *ProductReader) Next() (*models.RawProduct, error) {
	for {
		line, err := r.lr.Next()
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			continue
		}

		var product models.RawProduct
		if err := json.Unmarshal(line, &product); err != nil {
			r.malformed++
			continue
		}
		return &product, nil
	}
}

// Malformed returns the number of undecodable lines skipped so far.
func (r *ProductReader) Malformed() int64 {
	return r.malformed
}

// Lines returns the number of lines consumed, including malformed ones.
func (r *ProductReader) Lines() int64 {
	return r.lr.Line()
}

// Close releases the underlying file handles.
func (r *ProductReader) Close() error {
	return r.lr.Close()
}
