// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

// Package dataset locates and streams the raw Amazon Reviews 2023 category
// files (raw_review_<Category>.jsonl and raw_meta_<Category>.jsonl, plain or
// gzip-compressed).
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrFileNotFound indicates no review or metadata file exists for a category
// in the dataset directory, in either plain or gzip form.
var ErrFileNotFound = errors.New("dataset file not found")

// KnownCategories lists the Amazon Reviews 2023 category names, matching the
// file naming of the published dump.
var KnownCategories = []string{
	"All_Beauty",
	"Amazon_Fashion",
	"Appliances",
	"Arts_Crafts_and_Sewing",
	"Automotive",
	"Baby_Products",
	"Beauty_and_Personal_Care",
	"Books",
	"CDs_and_Vinyl",
	"Cell_Phones_and_Accessories",
	"Clothing_Shoes_and_Jewelry",
	"Digital_Music",
	"Electronics",
	"Gift_Cards",
	"Grocery_and_Gourmet_Food",
	"Handmade_Products",
	"Health_and_Household",
	"Health_and_Personal_Care",
	"Home_and_Kitchen",
	"Industrial_and_Scientific",
	"Kindle_Store",
	"Magazine_Subscriptions",
	"Movies_and_TV",
	"Musical_Instruments",
	"Office_Products",
	"Patio_Lawn_and_Garden",
	"Pet_Supplies",
	"Software",
	"Sports_and_Outdoors",
	"Subscription_Boxes",
	"Tools_and_Home_Improvement",
	"Toys_and_Games",
	"Unknown",
	"Video_Games",
}

// NormalizeCategory converts a user-supplied category name to the dump's
// underscore form, e.g. "All Beauty" becomes "All_Beauty".
func NormalizeCategory(category string) string {
	return strings.ReplaceAll(strings.TrimSpace(category), " ", "_")
}

// IsKnownCategory reports whether the (normalized) category appears in the
// published dump. Unknown categories are still ingestable when the files
// exist; this only drives warnings.
func IsKnownCategory(category string) bool {
	normalized := NormalizeCategory(category)
	for _, known := range KnownCategories {
		if known == normalized {
			return true
		}
	}
	return false
}

// ReviewFileName returns the base name of a category's review file without
// compression suffix.
func ReviewFileName(category string) string {
	return "raw_review_" + NormalizeCategory(category) + ".jsonl"
}

// MetaFileName returns the base name of a category's product metadata file
// without compression suffix.
func MetaFileName(category string) string {
	return "raw_meta_" + NormalizeCategory(category) + ".jsonl"
}

// ResolveReviewFile locates a category's review file in dir, preferring the
// uncompressed file when both plain and .gz exist.
func ResolveReviewFile(dir, category string) (string, error) {
	return resolveFile(dir, ReviewFileName(category))
}

// ResolveMetaFile locates a category's product metadata file in dir,
// preferring the uncompressed file when both plain and .gz exist.
func ResolveMetaFile(dir, category string) (string, error) {
	return resolveFile(dir, MetaFileName(category))
}

func resolveFile(dir, name string) (string, error) {
	for _, candidate := range []string{name, name + ".gz"} {
		path := filepath.Join(dir, candidate)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		return path, nil
	}
	return "", fmt.Errorf("%s in %s: %w", name, dir, ErrFileNotFound)
}

// ListPresentCategories scans dir for review files and returns the category
// names found, sorted and deduplicated across plain and gzip variants.
func ListPresentCategories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dataset dir %s: %w", dir, err)
	}

	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".gz")
		if !strings.HasPrefix(name, "raw_review_") || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		category := strings.TrimSuffix(strings.TrimPrefix(name, "raw_review_"), ".jsonl")
		if category == "" {
			continue
		}
		seen[category] = struct{}{}
	}

	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories, nil
}
