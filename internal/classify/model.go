// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package classify

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
)

// modelFile is the on-disk form of a trained classifier.
type modelFile struct {
	Algorithm string    `json:"algorithm"`
	Version   int       `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
	HashBits  int       `json:"hash_bits"`
	Bias      float64   `json:"bias"`
	Weights   []float64 `json:"weights"`
}

// Save writes the trained model as JSON, creating parent directories as
// needed.
func (c *Classifier) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.trained {
		return ErrNotTrained
	}

	data, err := json.Marshal(modelFile{
		Algorithm: c.Name(),
		Version:   c.version,
		TrainedAt: c.lastTrainedAt,
		HashBits:  c.config.HashBits,
		Bias:      c.bias,
		Weights:   c.weights,
	})
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// Load restores a persisted classifier for prediction.
func Load(path string) (*Classifier, error) {
	data, err := os.ReadFile(path) //nolint:gosec // model path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var m modelFile
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if m.HashBits <= 0 || len(m.Weights) != (1<<m.HashBits)+1 {
		return nil, fmt.Errorf("model file %s is corrupt: %d weights for %d hash bits",
			path, len(m.Weights), m.HashBits)
	}

	c := NewClassifier(ClassifierConfig{HashBits: m.HashBits})
	c.weights = m.Weights
	c.bias = m.Bias
	c.version = m.Version
	c.lastTrainedAt = m.TrainedAt
	c.trained = true
	return c, nil
}
