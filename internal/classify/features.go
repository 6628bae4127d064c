// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package classify

import (
	"hash/fnv"
	"sort"
	"strings"
)

// lengthScale is the token count at which the review-length feature
// saturates at 1.0.
const lengthScale = 500

// feature is one nonzero entry of a sparse feature vector.
type feature struct {
	idx int
	val float64
}

// tokenize lowercases the text and splits it on whitespace, the same token
// rule that defines review_length.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// hashToken maps a token to its weight bucket with FNV-1a.
func hashToken(token string, buckets uint32) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % buckets)
}

// featurize builds the sparse feature vector for one review: relative term
// frequencies over the hashed token buckets, plus the length feature in the
// slot just past them. Entries come back sorted by index so dot products
// accumulate in a fixed order and training stays reproducible.
func featurize(text string, reviewLength int, buckets uint32) []feature {
	tokens := tokenize(text)

	counts := make(map[int]float64, len(tokens))
	if len(tokens) > 0 {
		tf := 1.0 / float64(len(tokens))
		for _, tok := range tokens {
			counts[hashToken(tok, buckets)] += tf
		}
	}

	length := float64(reviewLength) / lengthScale
	if length > 1 {
		length = 1
	}

	features := make([]feature, 0, len(counts)+1)
	for idx, val := range counts {
		features = append(features, feature{idx: idx, val: val})
	}
	sort.Slice(features, func(i, j int) bool { return features[i].idx < features[j].idx })
	features = append(features, feature{idx: int(buckets), val: length})

	return features
}
