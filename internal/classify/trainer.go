// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package classify

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/tomtom215/recensus/internal/config"
	"github.com/tomtom215/recensus/internal/logging"
	"github.com/tomtom215/recensus/internal/metrics"
	"github.com/tomtom215/recensus/internal/models"
)

// trainingColumns are the cleaned_reviews columns classifier training
// touches. Verified up front per the snapshot precheck rule.
var trainingColumns = []string{"review_text", "review_length", "sentiment"}

// modelFileName is the persisted classifier's file name inside ModelDir.
const modelFileName = "sentiment_classifier.json"

// Store is the read surface classifier training needs. Satisfied by
// database.DB.
type Store interface {
	VerifyColumns(ctx context.Context, table string, required []string) error
	GetLabeledReviews(ctx context.Context, maxRows int64) ([]models.LabeledReview, error)
}

// Trainer runs the full classifier training cycle against a snapshot.
type Trainer struct {
	cfg   *config.ClassifyConfig
	store Store
}

// NewTrainer creates a trainer.
func NewTrainer(cfg *config.ClassifyConfig, store Store) *Trainer {
	return &Trainer{cfg: cfg, store: store}
}

// Run trains the classifier on a seeded split of the labeled rows, scores
// it on the test split, persists the model when ModelDir is set, and
// returns the evaluation report.
func (t *Trainer) Run(ctx context.Context) (report *models.ClassifyReport, err error) {
	start := time.Now()
	defer func() { metrics.RecordStage(metrics.StageClassify, time.Since(start), err) }()

	if verifyErr := t.store.VerifyColumns(ctx, "cleaned_reviews", trainingColumns); verifyErr != nil {
		err = fmt.Errorf("snapshot precheck: %w", verifyErr)
		return nil, err
	}

	rows, err := t.store.GetLabeledReviews(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("load labeled reviews: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoTrainingData
	}

	trainRows, testRows := splitRows(rows, t.cfg.TestFraction, t.cfg.Seed)

	classifier := NewClassifier(ClassifierConfig{
		HashBits:     t.cfg.HashBits,
		Epochs:       t.cfg.Epochs,
		LearningRate: t.cfg.LearningRate,
		L2:           t.cfg.L2,
		Seed:         t.cfg.Seed,
	})
	if err = classifier.Train(ctx, trainRows); err != nil {
		return nil, fmt.Errorf("train classifier: %w", err)
	}

	confusion, err := evaluateRows(ctx, classifier, testRows)
	if err != nil {
		return nil, fmt.Errorf("evaluate classifier: %w", err)
	}
	accuracy, precision, recall, f1 := confusionMetrics(confusion)

	report = &models.ClassifyReport{
		TrainedAt: time.Now().UTC(),
		TrainRows: len(trainRows),
		TestRows:  len(testRows),
		Epochs:    classifier.config.Epochs,
		Accuracy:  accuracy,
		Precision: precision,
		Recall:    recall,
		F1:        f1,
		Confusion: confusion,
	}

	if t.cfg.ModelDir != "" {
		path := filepath.Join(t.cfg.ModelDir, modelFileName)
		if err = classifier.Save(path); err != nil {
			return nil, fmt.Errorf("persist model: %w", err)
		}
		report.ModelPath = path
	}

	metrics.ClassifierAccuracy.Set(accuracy)

	logging.Info().
		Int("train_rows", len(trainRows)).
		Int("test_rows", len(testRows)).
		Float64("accuracy", accuracy).
		Float64("f1", f1).
		Dur("duration", time.Since(start)).
		Msg("Sentiment classifier trained")

	return report, nil
}

// splitRows shuffles rows with the seed and takes the test split from the
// tail. A positive fraction with at least two rows keeps at least one row
// on each side; fewer rows than that all stay in train.
func splitRows(rows []models.LabeledReview, fraction float64, seed int64) (train, test []models.LabeledReview) {
	if fraction <= 0 || len(rows) < 2 {
		return rows, nil
	}

	shuffled := make([]models.LabeledReview, len(rows))
	copy(shuffled, rows)
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic split, not crypto
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nTest := int(float64(len(shuffled)) * fraction)
	if nTest == 0 {
		nTest = 1
	}
	if nTest >= len(shuffled) {
		nTest = len(shuffled) - 1
	}

	cut := len(shuffled) - nTest
	return shuffled[:cut], shuffled[cut:]
}

// evaluateRows scores the classifier against the test split. Neutral rows
// are skipped, matching training.
func evaluateRows(ctx context.Context, c *Classifier, rows []models.LabeledReview) (models.ConfusionMatrix, error) {
	var cm models.ConfusionMatrix
	for _, row := range rows {
		if row.Sentiment != models.SentimentPositive && row.Sentiment != models.SentimentNegative {
			continue
		}

		predicted, _, err := c.Predict(ctx, row.ReviewText, row.ReviewLength)
		if err != nil {
			return models.ConfusionMatrix{}, err
		}

		switch {
		case predicted == models.SentimentPositive && row.Sentiment == models.SentimentPositive:
			cm.TruePositives++
		case predicted == models.SentimentPositive && row.Sentiment == models.SentimentNegative:
			cm.FalsePositives++
		case predicted == models.SentimentNegative && row.Sentiment == models.SentimentNegative:
			cm.TrueNegatives++
		default:
			cm.FalseNegatives++
		}
	}
	return cm, nil
}

// confusionMetrics derives the summary metrics. Ratios with a zero
// denominator come back as zero rather than NaN.
func confusionMetrics(cm models.ConfusionMatrix) (accuracy, precision, recall, f1 float64) {
	total := cm.TruePositives + cm.TrueNegatives + cm.FalsePositives + cm.FalseNegatives
	if total > 0 {
		accuracy = float64(cm.TruePositives+cm.TrueNegatives) / float64(total)
	}
	if cm.TruePositives+cm.FalsePositives > 0 {
		precision = float64(cm.TruePositives) / float64(cm.TruePositives+cm.FalsePositives)
	}
	if cm.TruePositives+cm.FalseNegatives > 0 {
		recall = float64(cm.TruePositives) / float64(cm.TruePositives+cm.FalseNegatives)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return accuracy, precision, recall, f1
}
