package learning

import (
	"fmt"
	"math"

	"github.com/zpam/sms-filter/pkg/label"
)

// State is the serializable form of a fitted MultinomialNB. Rows are indexed
// by label (ham = 0, spam = 1).
type State struct {
	Config         Config      `json:"config"`
	Features       int         `json:"features"`
	ClassCount     []float64   `json:"class_count"`
	ClassLogPrior  []float64   `json:"class_log_prior"`
	FeatureCount   [][]float64 `json:"feature_count"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"`
}

// State snapshots the fitted model
func (nb *MultinomialNB) State() State {
	s := State{
		Config:   nb.config,
		Features: nb.features,
	}
	for c := 0; c < label.Count; c++ {
		s.ClassCount = append(s.ClassCount, nb.classCount[c])
		s.ClassLogPrior = append(s.ClassLogPrior, nb.classLogPrior[c])
		s.FeatureCount = append(s.FeatureCount, append([]float64(nil), nb.featureCount[c]...))
		s.FeatureLogProb = append(s.FeatureLogProb, append([]float64(nil), nb.featureLogProb[c]...))
	}
	return s
}

// FromState rebuilds a fitted model, rejecting inconsistent shapes and
// non-finite parameters.
func FromState(s State) (*MultinomialNB, error) {
	if s.Features <= 0 {
		return nil, fmt.Errorf("model has no features")
	}
	if len(s.ClassCount) != label.Count || len(s.ClassLogPrior) != label.Count ||
		len(s.FeatureCount) != label.Count || len(s.FeatureLogProb) != label.Count {
		return nil, fmt.Errorf("model must describe exactly %d classes", label.Count)
	}

	nb := &MultinomialNB{config: s.Config, features: s.Features}
	for c := 0; c < label.Count; c++ {
		if len(s.FeatureCount[c]) != s.Features || len(s.FeatureLogProb[c]) != s.Features {
			return nil, fmt.Errorf("%w: class %s has %d/%d parameters, expected %d",
				ErrDimensionMismatch, label.Label(c), len(s.FeatureCount[c]), len(s.FeatureLogProb[c]), s.Features)
		}
		if !finite(s.ClassLogPrior[c]) || s.ClassLogPrior[c] > 0 {
			return nil, fmt.Errorf("invalid log prior %v for class %s", s.ClassLogPrior[c], label.Label(c))
		}
		for j, lp := range s.FeatureLogProb[c] {
			if !finite(lp) || lp > 0 {
				return nil, fmt.Errorf("invalid log probability %v for class %s feature %d", lp, label.Label(c), j)
			}
		}

		nb.classCount[c] = s.ClassCount[c]
		nb.classLogPrior[c] = s.ClassLogPrior[c]
		nb.featureCount[c] = append([]float64(nil), s.FeatureCount[c]...)
		nb.featureLogProb[c] = append([]float64(nil), s.FeatureLogProb[c]...)
	}
	return nb, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
