package vectorizer

import (
	"fmt"
	"math"
)

// State is the serializable form of a fitted TFIDF.
type State struct {
	Config Config    `json:"config"`
	Terms  []string  `json:"terms"`
	IDF    []float64 `json:"idf"`
}

// State snapshots the fitted transform.
func (v *TFIDF) State() State {
	return State{
		Config: v.config,
		Terms:  v.Terms(),
		IDF:    v.IDF(),
	}
}

// FromState rebuilds a fitted transform and checks it is self-consistent.
func FromState(s State) (*TFIDF, error) {
	if err := s.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vectorizer config: %w", err)
	}
	if len(s.Terms) == 0 {
		return nil, ErrEmptyVocabulary
	}
	if len(s.Terms) != len(s.IDF) {
		return nil, fmt.Errorf("vocabulary has %d terms but %d idf weights", len(s.Terms), len(s.IDF))
	}
	if s.Config.MaxFeatures > 0 && len(s.Terms) > s.Config.MaxFeatures {
		return nil, fmt.Errorf("vocabulary size %d exceeds max_features %d", len(s.Terms), s.Config.MaxFeatures)
	}

	vocabulary := make(map[string]int, len(s.Terms))
	for i, term := range s.Terms {
		if term == "" {
			return nil, fmt.Errorf("empty term at index %d", i)
		}
		if i > 0 && s.Terms[i-1] >= term {
			return nil, fmt.Errorf("vocabulary not strictly sorted at index %d (%q)", i, term)
		}
		if w := s.IDF[i]; math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			return nil, fmt.Errorf("invalid idf weight %v for %q", w, term)
		}
		vocabulary[term] = i
	}

	return &TFIDF{
		config:     s.Config,
		vocabulary: vocabulary,
		terms:      append([]string(nil), s.Terms...),
		idf:        append([]float64(nil), s.IDF...),
	}, nil
}
