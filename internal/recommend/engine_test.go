// Recensus - Review Dataset Analytics and Preprocessing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recensus

package recommend

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/recensus/internal/config"
	"github.com/tomtom215/recensus/internal/models"
)

// stubProvider implements DataProvider for testing.
type stubProvider struct {
	materialized    []models.RatingTriple
	sampled         []models.RatingTriple
	materializedErr error
	sampledErr      error

	mu          sync.Mutex
	sampleCalls int
	gotFraction float64
	gotSeed     int64
}

func (s *stubProvider) GetMaterializedSample(ctx context.Context) ([]models.RatingTriple, error) {
	if s.materializedErr != nil {
		return nil, s.materializedErr
	}
	return s.materialized, nil
}

func (s *stubProvider) GetSampleRatings(ctx context.Context, fraction float64, seed int64) ([]models.RatingTriple, error) {
	s.mu.Lock()
	s.sampleCalls++
	s.gotFraction = fraction
	s.gotSeed = seed
	s.mu.Unlock()

	if s.sampledErr != nil {
		return nil, s.sampledErr
	}
	return s.sampled, nil
}

// stubAlgorithm implements Algorithm for testing.
type stubAlgorithm struct {
	name     string
	trainErr error

	// predict is the fixed prediction returned for every pair.
	predict float64

	// topKItems is returned by PredictTopK; topKNil forces the nil
	// fallback signal instead.
	topKItems []models.RecommendedItem
	topKNil   bool

	// started is closed when Train begins; release blocks Train until
	// closed. Both optional.
	started chan struct{}
	release chan struct{}

	mu            sync.Mutex
	trained       bool
	version       int
	lastTrainedAt time.Time
	trainedWith   []models.RatingTriple
}

func (s *stubAlgorithm) Name() string { return s.name }

func (s *stubAlgorithm) Train(ctx context.Context, ratings []models.RatingTriple) error {
	if s.started != nil {
		close(s.started)
		s.started = nil
	}
	if s.release != nil {
		<-s.release
	}
	if s.trainErr != nil {
		return s.trainErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.trained = true
	s.version++
	s.lastTrainedAt = time.Now()
	s.trainedWith = ratings
	return nil
}

func (s *stubAlgorithm) Predict(ctx context.Context, reviewerID, productID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.trained {
		return 0, ErrNotTrained
	}
	return s.predict, nil
}

func (s *stubAlgorithm) PredictTopK(ctx context.Context, reviewerID string, k int) ([]models.RecommendedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.trained {
		return nil, ErrNotTrained
	}
	if s.topKNil {
		return nil, nil
	}
	if s.topKItems == nil {
		return []models.RecommendedItem{}, nil
	}
	if len(s.topKItems) > k {
		return s.topKItems[:k], nil
	}
	return s.topKItems, nil
}

func (s *stubAlgorithm) IsTrained() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trained
}

func (s *stubAlgorithm) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *stubAlgorithm) LastTrainedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTrainedAt
}

// stubSimilarAlgorithm adds similarity support to stubAlgorithm.
type stubSimilarAlgorithm struct {
	stubAlgorithm
	similarItems []models.RecommendedItem
}

func (s *stubSimilarAlgorithm) PredictSimilar(ctx context.Context, productID string, k int) ([]models.RecommendedItem, error) {
	if len(s.similarItems) > k {
		return s.similarItems[:k], nil
	}
	return s.similarItems, nil
}

func testEngine(cfg *config.RecommendConfig, sample *config.SampleConfig) *Engine {
	return NewEngine(cfg, sample, zerolog.Nop())
}

// flatRatings builds n reviewers with two identical ratings each, which
// makes holdout error independent of which rating is held out.
func flatRatings(n int, rating float64) []models.RatingTriple {
	ratings := make([]models.RatingTriple, 0, 2*n)
	for i := 0; i < n; i++ {
		id := string(rune('a' + i))
		ratings = append(ratings,
			models.RatingTriple{ReviewerID: "u" + id, ProductID: "p" + id + "1", Rating: rating},
			models.RatingTriple{ReviewerID: "u" + id, ProductID: "p" + id + "2", Rating: rating},
		)
	}
	return ratings
}

func TestEngine_Train(t *testing.T) {
	cfg := &config.RecommendConfig{
		Factors:         8,
		Iterations:      5,
		HoldoutFraction: 0.5,
		Seed:            42,
	}

	predictor := &stubAlgorithm{name: "als", predict: 3.0}
	baseline := &stubAlgorithm{name: "popularity", predict: 4.5}
	provider := &stubProvider{materialized: flatRatings(3, 4.0)}

	e := testEngine(cfg, nil)
	e.SetDataProvider(provider)
	e.RegisterPredictor(predictor)
	e.RegisterBaseline(baseline)

	if err := e.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	report := e.Report()
	if report == nil {
		t.Fatal("Report() = nil after training")
	}

	// Three reviewers with two ratings each and a 0.5 fraction hold out
	// exactly one rating per reviewer.
	if report.HoldoutSize != 3 {
		t.Errorf("HoldoutSize = %d, want 3", report.HoldoutSize)
	}
	if report.Interactions != 3 {
		t.Errorf("Interactions = %d, want 3", report.Interactions)
	}
	if report.Users != 3 {
		t.Errorf("Users = %d, want 3", report.Users)
	}
	if report.Factors != 8 || report.Iterations != 5 {
		t.Errorf("Factors/Iterations = %d/%d, want 8/5", report.Factors, report.Iterations)
	}

	// All ratings are 4.0: predicting 3.0 gives error 1.0, predicting
	// 4.5 gives error 0.5, on every holdout row.
	if math.Abs(report.RMSE-1.0) > 1e-9 || math.Abs(report.MAE-1.0) > 1e-9 {
		t.Errorf("RMSE/MAE = %f/%f, want 1.0/1.0", report.RMSE, report.MAE)
	}
	if math.Abs(report.BaselineRMSE-0.5) > 1e-9 || math.Abs(report.BaselineMAE-0.5) > 1e-9 {
		t.Errorf("BaselineRMSE/MAE = %f/%f, want 0.5/0.5", report.BaselineRMSE, report.BaselineMAE)
	}

	status := e.Status()
	if !status.Trained {
		t.Error("Status().Trained = false after training")
	}
	if status.Training {
		t.Error("Status().Training = true after training finished")
	}
	if status.ModelVersion != 1 {
		t.Errorf("Status().ModelVersion = %d, want 1", status.ModelVersion)
	}
	if status.LastError != "" {
		t.Errorf("Status().LastError = %q, want empty", status.LastError)
	}
}

func TestEngine_TrainFallsBackToDirectSample(t *testing.T) {
	provider := &stubProvider{
		materialized: nil, // no sample command has run
		sampled:      flatRatings(2, 3.0),
	}

	e := testEngine(&config.RecommendConfig{}, &config.SampleConfig{Fraction: 0.25, Seed: 7})
	e.SetDataProvider(provider)
	e.RegisterPredictor(&stubAlgorithm{name: "als", predict: 3.0})

	if err := e.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	if provider.sampleCalls != 1 {
		t.Fatalf("GetSampleRatings calls = %d, want 1", provider.sampleCalls)
	}
	if provider.gotFraction != 0.25 || provider.gotSeed != 7 {
		t.Errorf("sample drawn with fraction=%f seed=%d, want 0.25/7",
			provider.gotFraction, provider.gotSeed)
	}
}

func TestEngine_TrainErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(e *Engine)
		wantErr error
	}{
		{
			name:  "no predictor registered",
			setup: func(e *Engine) { e.SetDataProvider(&stubProvider{}) },
		},
		{
			name:  "no data provider",
			setup: func(e *Engine) { e.RegisterPredictor(&stubAlgorithm{name: "als"}) },
		},
		{
			name: "provider failure is recorded",
			setup: func(e *Engine) {
				e.RegisterPredictor(&stubAlgorithm{name: "als"})
				e.SetDataProvider(&stubProvider{materializedErr: errors.New("db closed")})
			},
		},
		{
			name: "empty sample",
			setup: func(e *Engine) {
				e.RegisterPredictor(&stubAlgorithm{name: "als"})
				e.SetDataProvider(&stubProvider{})
			},
			wantErr: ErrNoRatings,
		},
		{
			name: "all reviewers below min reviews",
			setup: func(e *Engine) {
				e.RegisterPredictor(&stubAlgorithm{name: "als"})
				e.SetDataProvider(&stubProvider{materialized: []models.RatingTriple{
					{ReviewerID: "u1", ProductID: "p1", Rating: 4},
					{ReviewerID: "u2", ProductID: "p2", Rating: 2},
				}})
			},
			wantErr: ErrNoRatings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEngine(&config.RecommendConfig{MinReviews: 5}, nil)
			tt.setup(e)

			err := e.Train(context.Background())
			if err == nil {
				t.Fatal("Train() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Train() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEngine_TrainAlreadyInProgress(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	predictor := &stubAlgorithm{name: "als", predict: 3.0, started: started, release: release}

	e := testEngine(&config.RecommendConfig{}, nil)
	e.SetDataProvider(&stubProvider{materialized: flatRatings(2, 4.0)})
	e.RegisterPredictor(predictor)

	errCh := make(chan error, 1)
	go func() { errCh <- e.Train(context.Background()) }()

	<-started

	if !e.Status().Training {
		t.Error("Status().Training = false while a cycle is running")
	}
	if err := e.Train(context.Background()); !errors.Is(err, ErrTrainingInProgress) {
		t.Errorf("concurrent Train() error = %v, want ErrTrainingInProgress", err)
	}

	close(release)
	if err := <-errCh; err != nil {
		t.Fatalf("first Train() error = %v", err)
	}
}

func TestEngine_TopK(t *testing.T) {
	items := []models.RecommendedItem{
		{ProductID: "p9", Score: 4.9},
		{ProductID: "p7", Score: 4.2},
	}
	fallback := []models.RecommendedItem{
		{ProductID: "p1", Score: 4.4},
	}

	tests := []struct {
		name       string
		predictor  *stubAlgorithm
		baseline   *stubAlgorithm
		wantSource string
		wantLen    int
		wantErr    error
	}{
		{
			name:       "predictor serves known reviewers",
			predictor:  &stubAlgorithm{name: "als", trained: true, topKItems: items},
			baseline:   &stubAlgorithm{name: "popularity", trained: true, topKItems: fallback},
			wantSource: "als",
			wantLen:    2,
		},
		{
			name:       "baseline serves unknown reviewers",
			predictor:  &stubAlgorithm{name: "als", trained: true, topKNil: true},
			baseline:   &stubAlgorithm{name: "popularity", trained: true, topKItems: fallback},
			wantSource: "popularity",
			wantLen:    1,
		},
		{
			name:       "no baseline yields empty ranking",
			predictor:  &stubAlgorithm{name: "als", trained: true, topKNil: true},
			wantSource: "als",
			wantLen:    0,
		},
		{
			name:      "untrained predictor",
			predictor: &stubAlgorithm{name: "als"},
			wantErr:   ErrNotTrained,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEngine(&config.RecommendConfig{}, nil)
			e.RegisterPredictor(tt.predictor)
			if tt.baseline != nil {
				e.RegisterBaseline(tt.baseline)
			}

			got, source, err := e.TopK(context.Background(), "u1", 10)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("TopK() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("TopK() error = %v", err)
			}
			if source != tt.wantSource {
				t.Errorf("source = %q, want %q", source, tt.wantSource)
			}
			if len(got) != tt.wantLen {
				t.Errorf("len(items) = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestEngine_Similar(t *testing.T) {
	similar := []models.RecommendedItem{
		{ProductID: "p2", Score: 0.98},
		{ProductID: "p5", Score: 0.61},
	}

	t.Run("predictor with similarity support", func(t *testing.T) {
		predictor := &stubSimilarAlgorithm{
			stubAlgorithm: stubAlgorithm{name: "als", trained: true},
			similarItems:  similar,
		}
		e := testEngine(&config.RecommendConfig{}, nil)
		e.RegisterPredictor(predictor)

		got, err := e.Similar(context.Background(), "p1", 10)
		if err != nil {
			t.Fatalf("Similar() error = %v", err)
		}
		if len(got) != 2 || got[0].ProductID != "p2" {
			t.Errorf("Similar() = %v, want %v", got, similar)
		}
	})

	t.Run("predictor without similarity support", func(t *testing.T) {
		e := testEngine(&config.RecommendConfig{}, nil)
		e.RegisterPredictor(&stubAlgorithm{name: "stub", trained: true})

		if _, err := e.Similar(context.Background(), "p1", 10); err == nil {
			t.Error("Similar() error = nil, want error")
		}
	})

	t.Run("untrained predictor", func(t *testing.T) {
		e := testEngine(&config.RecommendConfig{}, nil)
		e.RegisterPredictor(&stubAlgorithm{name: "als"})

		if _, err := e.Similar(context.Background(), "p1", 10); !errors.Is(err, ErrNotTrained) {
			t.Errorf("Similar() error = %v, want ErrNotTrained", err)
		}
	})
}

func TestSplitHoldout(t *testing.T) {
	ratings := []models.RatingTriple{
		{ReviewerID: "u1", ProductID: "p1", Rating: 5},
		{ReviewerID: "u1", ProductID: "p2", Rating: 4},
		{ReviewerID: "u1", ProductID: "p3", Rating: 3},
		{ReviewerID: "u1", ProductID: "p4", Rating: 2},
		{ReviewerID: "u2", ProductID: "p1", Rating: 5},
		{ReviewerID: "u2", ProductID: "p2", Rating: 1},
		{ReviewerID: "u3", ProductID: "p3", Rating: 4},
	}

	t.Run("zero fraction keeps everything in train", func(t *testing.T) {
		train, holdout := splitHoldout(ratings, 0, 42)
		if len(train) != len(ratings) {
			t.Errorf("len(train) = %d, want %d", len(train), len(ratings))
		}
		if holdout != nil {
			t.Errorf("holdout = %v, want nil", holdout)
		}
	})

	t.Run("stratified per reviewer", func(t *testing.T) {
		train, holdout := splitHoldout(ratings, 0.25, 42)

		if len(train)+len(holdout) != len(ratings) {
			t.Fatalf("partition lost rows: %d + %d != %d", len(train), len(holdout), len(ratings))
		}

		heldBy := make(map[string]int)
		for _, r := range holdout {
			heldBy[r.ReviewerID]++
		}
		// u1 has 4 ratings: floor(4*0.25) = 1. u2 has 2: floor is 0 but a
		// positive fraction holds at least one. u3 has 1: never held out.
		if heldBy["u1"] != 1 {
			t.Errorf("u1 held out %d, want 1", heldBy["u1"])
		}
		if heldBy["u2"] != 1 {
			t.Errorf("u2 held out %d, want 1", heldBy["u2"])
		}
		if heldBy["u3"] != 0 {
			t.Errorf("u3 held out %d, want 0 (single rating)", heldBy["u3"])
		}

		trainBy := make(map[string]int)
		for _, r := range train {
			trainBy[r.ReviewerID]++
		}
		for reviewer, n := range heldBy {
			if n > 0 && trainBy[reviewer] == 0 {
				t.Errorf("reviewer %s fully held out", reviewer)
			}
		}
	})

	t.Run("same seed reproduces the partition", func(t *testing.T) {
		train1, holdout1 := splitHoldout(ratings, 0.5, 99)
		train2, holdout2 := splitHoldout(ratings, 0.5, 99)

		if len(train1) != len(train2) || len(holdout1) != len(holdout2) {
			t.Fatal("partition sizes differ between identical calls")
		}
		for i := range holdout1 {
			if holdout1[i] != holdout2[i] {
				t.Fatalf("holdout[%d] differs: %v vs %v", i, holdout1[i], holdout2[i])
			}
		}
		for i := range train1 {
			if train1[i] != train2[i] {
				t.Fatalf("train[%d] differs: %v vs %v", i, train1[i], train2[i])
			}
		}
	})
}

func TestEvaluate(t *testing.T) {
	holdout := []models.RatingTriple{
		{ReviewerID: "u1", ProductID: "p1", Rating: 4},
		{ReviewerID: "u2", ProductID: "p2", Rating: 2},
	}

	alg := &stubAlgorithm{name: "stub", trained: true, predict: 3.0}

	rmse, mae, err := evaluate(context.Background(), alg, holdout)
	if err != nil {
		t.Fatalf("evaluate() error = %v", err)
	}
	// Errors are +1 and -1: RMSE = sqrt((1+1)/2) = 1, MAE = 1.
	if math.Abs(rmse-1.0) > 1e-9 {
		t.Errorf("rmse = %f, want 1.0", rmse)
	}
	if math.Abs(mae-1.0) > 1e-9 {
		t.Errorf("mae = %f, want 1.0", mae)
	}

	t.Run("empty holdout", func(t *testing.T) {
		rmse, mae, err := evaluate(context.Background(), alg, nil)
		if err != nil || rmse != 0 || mae != 0 {
			t.Errorf("evaluate(empty) = %f, %f, %v, want 0, 0, nil", rmse, mae, err)
		}
	})

	t.Run("prediction error propagates", func(t *testing.T) {
		untrained := &stubAlgorithm{name: "stub"}
		if _, _, err := evaluate(context.Background(), untrained, holdout); !errors.Is(err, ErrNotTrained) {
			t.Errorf("evaluate() error = %v, want ErrNotTrained", err)
		}
	})
}

func TestFilterMinReviews(t *testing.T) {
	ratings := []models.RatingTriple{
		{ReviewerID: "u1", ProductID: "p1", Rating: 5},
		{ReviewerID: "u1", ProductID: "p2", Rating: 4},
		{ReviewerID: "u2", ProductID: "p1", Rating: 3},
	}

	tests := []struct {
		name     string
		minCount int
		want     int
	}{
		{name: "threshold of one keeps everything", minCount: 1, want: 3},
		{name: "drops reviewers below threshold", minCount: 2, want: 2},
		{name: "can drop everything", minCount: 3, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterMinReviews(ratings, tt.minCount)
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
			for _, r := range got {
				if tt.minCount == 2 && r.ReviewerID == "u2" {
					t.Errorf("u2 should have been filtered out")
				}
			}
		})
	}
}
