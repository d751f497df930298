// Package model trains and serves the regression models behind campaign
// recommendations. Each pipeline couples a feature/target column selection
// with a ridge estimator; trained estimators round-trip through an opaque
// artifact store.
package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/adsctl/optimizer/internal/optimize/frame"
)

// splitSeed fixes the train/test shuffle so runs are reproducible.
const splitSeed = 42

// trainFraction is the share of rows used for fitting; the rest scores the
// fit on held-out data.
const trainFraction = 0.8

// ErrNotTrained is returned by Predict before a successful Train or Load.
var ErrNotTrained = errors.New("model not trained")

// InsufficientDataError reports a training set smaller than the configured
// floor. Training refuses to fit rather than produce an under-powered model.
type InsufficientDataError struct {
	Name string
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: have %d rows, need %d", e.Name, e.Have, e.Need)
}

// TrainResult reports a completed training run. Low scores are reported,
// never rejected; judging fit quality is the caller's concern.
type TrainResult struct {
	Name       string    `json:"name"`
	TrainedOn  int       `json:"trained_on"`
	TrainScore float64   `json:"train_score"`
	TestScore  float64   `json:"test_score"`
	TrainedAt  time.Time `json:"trained_at"`
}

// Pipeline trains and serves one named regression model. A pipeline belongs
// to a single account's engine and is not safe for concurrent training.
type Pipeline struct {
	spec   Spec
	est    *ridge
	result *TrainResult
}

// NewPipeline creates an untrained pipeline from a spec.
func NewPipeline(spec Spec) *Pipeline {
	return &Pipeline{spec: spec}
}

// Name returns the pipeline's model name.
func (p *Pipeline) Name() string {
	return p.spec.Name
}

// Trained reports whether the pipeline can predict.
func (p *Pipeline) Trained() bool {
	return p.est != nil
}

// Result returns the last train result, nil when untrained.
func (p *Pipeline) Result() *TrainResult {
	return p.result
}

// Train fits the estimator on the frame's rows after missing-value
// filtering, using a seeded 80/20 split for train/test scoring.
func (p *Pipeline) Train(f *frame.Frame, minDataPoints int) (*TrainResult, error) {
	cols := append(append([]string(nil), p.spec.Features...), p.spec.Target)
	sub, err := f.Select(cols...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.spec.Name, err)
	}
	clean, err := sub.DropMissing()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.spec.Name, err)
	}

	n := clean.Len()
	if n < minDataPoints {
		return nil, &InsufficientDataError{Name: p.spec.Name, Have: n, Need: minDataPoints}
	}

	X := make([][]float64, n)
	for i := range X {
		X[i] = make([]float64, len(p.spec.Features))
	}
	for j, name := range p.spec.Features {
		vals, err := clean.Column(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.spec.Name, err)
		}
		for i := 0; i < n; i++ {
			X[i][j] = vals[i]
		}
	}
	y, err := clean.Column(p.spec.Target)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.spec.Name, err)
	}

	trainIdx, testIdx := splitIndices(n)
	est := &ridge{Lambda: p.spec.Lambda}
	if err := est.fit(gather(X, trainIdx), gatherVec(y, trainIdx)); err != nil {
		return nil, fmt.Errorf("%s: %w", p.spec.Name, err)
	}

	p.est = est
	p.result = &TrainResult{
		Name:       p.spec.Name,
		TrainedOn:  n,
		TrainScore: scoreOn(est, gather(X, trainIdx), gatherVec(y, trainIdx)),
		TestScore:  scoreOn(est, gather(X, testIdx), gatherVec(y, testIdx)),
		TrainedAt:  time.Now().UTC(),
	}
	return p.result, nil
}

// Predict returns the target estimate for one feature vector keyed by
// column name.
func (p *Pipeline) Predict(features map[string]float64) (float64, error) {
	if p.est == nil {
		return 0, ErrNotTrained
	}

	x := make([]float64, len(p.spec.Features))
	for i, name := range p.spec.Features {
		v, ok := features[name]
		if !ok {
			return 0, fmt.Errorf("%s: missing feature %q", p.spec.Name, name)
		}
		x[i] = v
	}
	return p.est.predict(x), nil
}

// artifact is the serialized form of a trained pipeline. Callers treat the
// blob as opaque; only this package reads its structure.
type artifact struct {
	Name       string    `json:"name"`
	TrainedOn  int       `json:"trained_on"`
	TrainScore float64   `json:"train_score"`
	TestScore  float64   `json:"test_score"`
	TrainedAt  time.Time `json:"trained_at"`
	Estimator  *ridge    `json:"estimator"`
}

// Save persists the trained estimator under the given account scope.
func (p *Pipeline) Save(ctx context.Context, store ArtifactStore, scope string) error {
	if p.est == nil {
		return ErrNotTrained
	}

	blob, err := json.Marshal(artifact{
		Name:       p.result.Name,
		TrainedOn:  p.result.TrainedOn,
		TrainScore: p.result.TrainScore,
		TestScore:  p.result.TestScore,
		TrainedAt:  p.result.TrainedAt,
		Estimator:  p.est,
	})
	if err != nil {
		return fmt.Errorf("encode artifact %s: %w", p.spec.Name, err)
	}
	return store.SaveArtifact(ctx, scope, p.spec.Name, blob)
}

// Load restores a previously saved estimator from the store.
func (p *Pipeline) Load(ctx context.Context, store ArtifactStore, scope string) error {
	blob, err := store.LoadArtifact(ctx, scope, p.spec.Name)
	if err != nil {
		return err
	}

	var a artifact
	if err := json.Unmarshal(blob, &a); err != nil {
		return fmt.Errorf("decode artifact %s: %w", p.spec.Name, err)
	}
	if a.Estimator == nil {
		return fmt.Errorf("artifact %s holds no estimator", p.spec.Name)
	}

	p.est = a.Estimator
	p.result = &TrainResult{
		Name:       a.Name,
		TrainedOn:  a.TrainedOn,
		TrainScore: a.TrainScore,
		TestScore:  a.TestScore,
		TrainedAt:  a.TrainedAt,
	}
	return nil
}

// splitIndices shuffles row indices with the fixed seed and cuts them into
// train and test partitions.
func splitIndices(n int) (train, test []int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	r := rand.New(rand.NewSource(splitSeed))
	r.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	cut := int(float64(n) * trainFraction)
	return idx[:cut], idx[cut:]
}

func gather(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = X[j]
	}
	return out
}

func gatherVec(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

func scoreOn(est *ridge, X [][]float64, y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	preds := make([]float64, len(y))
	for i := range X {
		preds[i] = est.predict(X[i])
	}
	return rSquared(preds, y)
}
