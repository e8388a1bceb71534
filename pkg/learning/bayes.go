package learning

import (
	"errors"
	"fmt"
	"math"

	"github.com/zpam/sms-filter/pkg/label"
	"github.com/zpam/sms-filter/pkg/vectorizer"
)

var (
	ErrNotFitted         = errors.New("classifier is not fitted")
	ErrDimensionMismatch = errors.New("feature vector dimension mismatch")
)

// Config holds classifier configuration
type Config struct {
	// Additive (Laplace/Lidstone) smoothing applied to every feature count
	Alpha float64 `json:"alpha" yaml:"alpha"`

	// Learn class priors from the data; uniform priors otherwise
	FitPrior bool `json:"fit_prior" yaml:"fit_prior"`
}

// DefaultConfig returns default classifier configuration
func DefaultConfig() *Config {
	return &Config{
		Alpha:    1.0,
		FitPrior: true,
	}
}

// MultinomialNB is a two-class multinomial Naive Bayes model over tf-idf
// feature vectors. It is immutable once fitted.
type MultinomialNB struct {
	config Config

	// Per-class totals
	classCount    [label.Count]float64
	classLogPrior [label.Count]float64

	// Per-class, per-feature weighted counts and smoothed log probabilities
	featureCount   [label.Count][]float64
	featureLogProb [label.Count][]float64

	features int
}

// NewMultinomialNB creates an unfitted classifier
func NewMultinomialNB(config *Config) *MultinomialNB {
	if config == nil {
		config = DefaultConfig()
	}
	return &MultinomialNB{config: *config}
}

// Fit estimates class priors and feature log probabilities from X and y.
// Both classes must be present.
func (nb *MultinomialNB) Fit(X []vectorizer.Vector, y []label.Label) error {
	if nb.config.Alpha <= 0 || math.IsNaN(nb.config.Alpha) || math.IsInf(nb.config.Alpha, 0) {
		return fmt.Errorf("alpha must be a positive number, got %v", nb.config.Alpha)
	}
	if len(X) == 0 {
		return fmt.Errorf("no training samples")
	}
	if len(X) != len(y) {
		return fmt.Errorf("got %d samples but %d labels", len(X), len(y))
	}

	dim := X[0].Dim
	if dim <= 0 {
		return fmt.Errorf("feature vectors have no dimensions")
	}

	var classCount [label.Count]float64
	var featureCount [label.Count][]float64
	for c := range featureCount {
		featureCount[c] = make([]float64, dim)
	}

	for i, x := range X {
		if x.Dim != dim {
			return fmt.Errorf("%w: sample %d has %d features, expected %d", ErrDimensionMismatch, i, x.Dim, dim)
		}
		if !y[i].Valid() {
			return fmt.Errorf("sample %d has invalid label %d", i, int(y[i]))
		}
		c := int(y[i])
		classCount[c]++
		for j, idx := range x.Indices {
			if idx < 0 || idx >= dim {
				return fmt.Errorf("%w: sample %d has feature index %d", ErrDimensionMismatch, i, idx)
			}
			v := x.Values[j]
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("sample %d feature %d has invalid value %v", i, idx, v)
			}
			featureCount[c][idx] += v
		}
	}

	for _, l := range label.All {
		if classCount[l] == 0 {
			return fmt.Errorf("no %s samples in training data", l)
		}
	}

	nb.classCount = classCount
	nb.featureCount = featureCount
	nb.features = dim
	nb.computeLogProbabilities()
	return nil
}

// computeLogProbabilities derives priors and smoothed log probabilities from
// the raw counts.
func (nb *MultinomialNB) computeLogProbabilities() {
	total := 0.0
	for _, n := range nb.classCount {
		total += n
	}

	for c := range nb.classCount {
		if nb.config.FitPrior {
			nb.classLogPrior[c] = math.Log(nb.classCount[c]) - math.Log(total)
		} else {
			nb.classLogPrior[c] = -math.Log(float64(label.Count))
		}

		smoothedTotal := 0.0
		for _, n := range nb.featureCount[c] {
			smoothedTotal += n + nb.config.Alpha
		}
		logTotal := math.Log(smoothedTotal)

		nb.featureLogProb[c] = make([]float64, nb.features)
		for j, n := range nb.featureCount[c] {
			nb.featureLogProb[c][j] = math.Log(n+nb.config.Alpha) - logTotal
		}
	}
}

// Fitted reports whether the model has parameters
func (nb *MultinomialNB) Fitted() bool {
	return nb.features > 0
}

// Features returns the expected feature vector length
func (nb *MultinomialNB) Features() int {
	return nb.features
}

// JointLogLikelihood returns log P(c) + sum_j x_j log P(f_j|c) for each class.
func (nb *MultinomialNB) JointLogLikelihood(x vectorizer.Vector) ([label.Count]float64, error) {
	var jll [label.Count]float64
	if !nb.Fitted() {
		return jll, ErrNotFitted
	}
	if x.Dim != nb.features {
		return jll, fmt.Errorf("%w: got %d features, model expects %d", ErrDimensionMismatch, x.Dim, nb.features)
	}

	for c := range jll {
		score := nb.classLogPrior[c]
		for j, idx := range x.Indices {
			if idx < 0 || idx >= nb.features {
				return jll, fmt.Errorf("%w: feature index %d out of range", ErrDimensionMismatch, idx)
			}
			score += x.Values[j] * nb.featureLogProb[c][idx]
		}
		jll[c] = score
	}
	return jll, nil
}

// PredictProba returns the posterior probability of each class.
func (nb *MultinomialNB) PredictProba(x vectorizer.Vector) ([label.Count]float64, error) {
	jll, err := nb.JointLogLikelihood(x)
	if err != nil {
		return jll, err
	}

	// log-sum-exp around the maximum keeps exp() in range
	maxLL := math.Inf(-1)
	for _, v := range jll {
		maxLL = math.Max(maxLL, v)
	}
	var sum float64
	var proba [label.Count]float64
	for c, v := range jll {
		proba[c] = math.Exp(v - maxLL)
		sum += proba[c]
	}
	for c := range proba {
		proba[c] /= sum
	}
	return proba, nil
}

// Predict returns the most probable class and its posterior probability.
// Ties go to Ham.
func (nb *MultinomialNB) Predict(x vectorizer.Vector) (label.Label, float64, error) {
	proba, err := nb.PredictProba(x)
	if err != nil {
		return label.Ham, 0, err
	}

	best := label.Ham
	for _, l := range label.All {
		if proba[l] > proba[best] {
			best = l
		}
	}
	return best, proba[best], nil
}

// ClassCount returns the number of training samples per class
func (nb *MultinomialNB) ClassCount() [label.Count]float64 {
	return nb.classCount
}

// ClassLogPrior returns the log prior per class
func (nb *MultinomialNB) ClassLogPrior() [label.Count]float64 {
	return nb.classLogPrior
}

// FeatureLogProb returns a copy of log P(feature|class)
func (nb *MultinomialNB) FeatureLogProb(c label.Label) []float64 {
	if !c.Valid() {
		return nil
	}
	return append([]float64(nil), nb.featureLogProb[c]...)
}

// Config returns the classifier configuration
func (nb *MultinomialNB) Config() Config {
	return nb.config
}
