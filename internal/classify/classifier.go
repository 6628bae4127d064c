// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package classify

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/tomtom215/recensus/internal/models"
)

// ErrNotTrained is returned by Predict and Save before the first
// successful Train.
var ErrNotTrained = errors.New("classifier is not trained")

// ErrNoTrainingData is returned when no positive or negative rows are
// available to train on.
var ErrNoTrainingData = errors.New("no labeled rows available for training")

// ClassifierConfig contains hyperparameters for the sentiment classifier.
type ClassifierConfig struct {
	// HashBits is log2 of the token bucket count. Clamped to [8, 24].
	HashBits int

	// Epochs is the number of SGD passes over the training set.
	Epochs int

	// LearningRate is the SGD step size.
	LearningRate float64

	// L2 is the regularization strength applied to touched weights.
	L2 float64

	// Seed drives the per-epoch shuffle.
	Seed int64
}

// DefaultClassifierConfig returns default classifier configuration.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		HashBits:     18,
		Epochs:       5,
		LearningRate: 0.1,
		L2:           0.0001,
		Seed:         42,
	}
}

// Classifier is a binary logistic regression over hashed bag-of-words
// features. Positive sentiment is the positive class. It is safe for
// concurrent use; Train takes the write lock, Predict the read lock.
type Classifier struct {
	mu            sync.RWMutex
	trained       bool
	version       int
	lastTrainedAt time.Time

	config ClassifierConfig

	// weights holds one coefficient per token bucket, then the length
	// feature coefficient in the final slot.
	weights []float64
	bias    float64
}

// NewClassifier creates a classifier with the given configuration.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	if cfg.HashBits <= 0 {
		cfg.HashBits = 18
	}
	if cfg.HashBits < 8 {
		cfg.HashBits = 8
	}
	if cfg.HashBits > 24 {
		cfg.HashBits = 24
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 5
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.1
	}
	if cfg.L2 < 0 {
		cfg.L2 = 0
	}

	return &Classifier{config: cfg}
}

// Name returns the algorithm name.
func (c *Classifier) Name() string {
	return "logreg"
}

// buckets returns the token bucket count.
func (c *Classifier) buckets() uint32 {
	return uint32(1) << uint(c.config.HashBits)
}

// Train fits the model with SGD. Rows whose sentiment is neither positive
// nor negative are skipped. The per-epoch visiting order comes from the
// seeded shuffle, so identical inputs produce identical weights.
func (c *Classifier) Train(ctx context.Context, rows []models.LabeledReview) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	buckets := c.buckets()

	// Featurize once up front; epochs only reshuffle indices.
	vectors := make([][]feature, 0, len(rows))
	labels := make([]float64, 0, len(rows))
	for _, row := range rows {
		var y float64
		switch row.Sentiment {
		case models.SentimentPositive:
			y = 1
		case models.SentimentNegative:
			y = 0
		default:
			// Neutral rows carry no label.
			continue
		}
		vectors = append(vectors, featurize(row.ReviewText, row.ReviewLength, buckets))
		labels = append(labels, y)
	}

	if len(vectors) == 0 {
		return ErrNoTrainingData
	}

	weights := make([]float64, int(buckets)+1)
	var bias float64
	lr := c.config.LearningRate
	l2 := c.config.L2

	rng := rand.New(rand.NewSource(c.config.Seed)) //nolint:gosec // seeded shuffle, not crypto

	for epoch := 0; epoch < c.config.Epochs; epoch++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		for _, i := range rng.Perm(len(vectors)) {
			pred := sigmoid(dotSparse(weights, vectors[i]) + bias)
			g := pred - labels[i]

			// Lazy L2: only the weights this example touches decay.
			for _, f := range vectors[i] {
				w := weights[f.idx]
				weights[f.idx] = w - lr*(g*f.val+l2*w)
			}
			bias -= lr * g
		}
	}

	c.weights = weights
	c.bias = bias
	c.trained = true
	c.version++
	c.lastTrainedAt = time.Now()
	return nil
}

// Predict classifies one review. The score is the model's positive-class
// probability in [0, 1]; scores at or above 0.5 classify as positive.
func (c *Classifier) Predict(ctx context.Context, text string, reviewLength int) (models.Sentiment, float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.trained {
		return "", 0, ErrNotTrained
	}
	if ctx.Err() != nil {
		return "", 0, ctx.Err()
	}

	score := sigmoid(dotSparse(c.weights, featurize(text, reviewLength, c.buckets())) + c.bias)
	if score >= 0.5 {
		return models.SentimentPositive, score, nil
	}
	return models.SentimentNegative, score, nil
}

// IsTrained returns whether the model has been trained.
func (c *Classifier) IsTrained() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.trained
}

// Version returns the model version, incremented on each Train.
func (c *Classifier) Version() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// LastTrainedAt returns the wall time of the last successful Train.
func (c *Classifier) LastTrainedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastTrainedAt
}

// sigmoid maps a logit to a probability. Extreme logits short-circuit so
// the exponential cannot overflow.
func sigmoid(z float64) float64 {
	if z > 35 {
		return 1
	}
	if z < -35 {
		return 0
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

// dotSparse computes the inner product of a dense weight vector with a
// sparse feature vector.
func dotSparse(weights []float64, features []feature) float64 {
	var sum float64
	for _, f := range features {
		sum += weights[f.idx] * f.val
	}
	return sum
}
