// Package vectorizer implements the TF-IDF term weighting that turns a
// normalized message into a fixed-length feature vector.
//
// The weighting follows the classic smoothed formulation:
//
//	idf(t) = ln((1 + n) / (1 + df(t))) + 1
//	w(t, d) = tf(t, d) * idf(t), then the row is L2-normalized
//
// The vocabulary is capped at MaxFeatures terms chosen by corpus frequency and
// indexed alphabetically. Once fitted the vocabulary and weights never change.
package vectorizer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

var (
	ErrNotFitted       = errors.New("vectorizer is not fitted")
	ErrEmptyVocabulary = errors.New("empty vocabulary; documents contain no usable terms")
)

// Config holds the vectorizer parameters. They are persisted with the model.
type Config struct {
	MaxFeatures    int    `json:"max_features" yaml:"max_features"`
	MinTokenLength int    `json:"min_token_length" yaml:"min_token_length"`
	SmoothIDF      bool   `json:"smooth_idf" yaml:"smooth_idf"`
	SublinearTF    bool   `json:"sublinear_tf" yaml:"sublinear_tf"`
	Norm           string `json:"norm" yaml:"norm"` // l2, l1, none
}

// DefaultConfig returns the parameters the reference model was trained with.
func DefaultConfig() *Config {
	return &Config{
		MaxFeatures:    3000,
		MinTokenLength: 2,
		SmoothIDF:      true,
		SublinearTF:    false,
		Norm:           "l2",
	}
}

// Validate checks the parameters.
func (c *Config) Validate() error {
	if c.MaxFeatures < 0 {
		return fmt.Errorf("max_features must be >= 0 (0 = unlimited)")
	}
	if c.MinTokenLength < 1 {
		return fmt.Errorf("min_token_length must be >= 1")
	}
	switch c.Norm {
	case "l2", "l1", "none":
	default:
		return fmt.Errorf("invalid norm %q (want l2, l1 or none)", c.Norm)
	}
	return nil
}

// TFIDF is a fitted (or fittable) term weighting transform.
type TFIDF struct {
	config     Config
	vocabulary map[string]int
	terms      []string
	idf        []float64
}

// New creates an unfitted vectorizer. A nil config means DefaultConfig.
func New(config *Config) *TFIDF {
	if config == nil {
		config = DefaultConfig()
	}
	return &TFIDF{config: *config}
}

// Fit learns the vocabulary and idf weights from docs.
func (v *TFIDF) Fit(docs []string) error {
	_, err := v.FitTransform(docs)
	return err
}

// FitTransform fits on docs and returns one vector per document.
func (v *TFIDF) FitTransform(docs []string) ([]Vector, error) {
	if err := v.config.Validate(); err != nil {
		return nil, err
	}

	counts := make([]map[string]int, len(docs))
	docFreq := make(map[string]int)
	corpusFreq := make(map[string]int)

	for i, doc := range docs {
		counts[i] = v.countTerms(doc)
		for term, c := range counts[i] {
			docFreq[term]++
			corpusFreq[term] += c
		}
	}

	if len(corpusFreq) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(corpusFreq))
	for term := range corpusFreq {
		terms = append(terms, term)
	}

	// Most frequent first, alphabetical among equals, so the cut is reproducible.
	if v.config.MaxFeatures > 0 && len(terms) > v.config.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			fi, fj := corpusFreq[terms[i]], corpusFreq[terms[j]]
			if fi != fj {
				return fi > fj
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.config.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	vocabulary := make(map[string]int, len(terms))
	for i, term := range terms {
		df := float64(docFreq[term])
		if v.config.SmoothIDF {
			idf[i] = math.Log((1+n)/(1+df)) + 1
		} else {
			idf[i] = math.Log(n/df) + 1
		}
		vocabulary[term] = i
	}

	v.terms = terms
	v.idf = idf
	v.vocabulary = vocabulary

	vectors := make([]Vector, len(docs))
	for i, c := range counts {
		vectors[i] = v.weigh(c)
	}
	return vectors, nil
}

// Transform maps a normalized document to its feature vector. Terms outside
// the fitted vocabulary are ignored.
func (v *TFIDF) Transform(doc string) (Vector, error) {
	if !v.Fitted() {
		return Vector{}, ErrNotFitted
	}
	return v.weigh(v.countTerms(doc)), nil
}

// TransformAll is Transform over a slice.
func (v *TFIDF) TransformAll(docs []string) ([]Vector, error) {
	if !v.Fitted() {
		return nil, ErrNotFitted
	}
	vectors := make([]Vector, len(docs))
	for i, doc := range docs {
		vectors[i] = v.weigh(v.countTerms(doc))
	}
	return vectors, nil
}

// Fitted reports whether a vocabulary has been learned.
func (v *TFIDF) Fitted() bool {
	return len(v.terms) > 0
}

// Dim returns the feature vector length.
func (v *TFIDF) Dim() int {
	return len(v.terms)
}

// Config returns a copy of the parameters.
func (v *TFIDF) Config() Config {
	return v.config
}

// Index returns the feature index of term.
func (v *TFIDF) Index(term string) (int, bool) {
	i, ok := v.vocabulary[term]
	return i, ok
}

// Term returns the term at feature index i.
func (v *TFIDF) Term(i int) string {
	if i < 0 || i >= len(v.terms) {
		return ""
	}
	return v.terms[i]
}

// Terms returns a copy of the vocabulary in index order.
func (v *TFIDF) Terms() []string {
	return append([]string(nil), v.terms...)
}

// IDF returns a copy of the idf weights in index order.
func (v *TFIDF) IDF() []float64 {
	return append([]float64(nil), v.idf...)
}

// Fingerprint identifies this exact fitted transform. Classifiers record the
// fingerprint of the vectorizer they were trained against.
func (v *TFIDF) Fingerprint() string {
	h := xxhash.New()
	c := v.config
	fmt.Fprintf(h, "max=%d;min=%d;smooth=%t;sublinear=%t;norm=%s;dim=%d\n",
		c.MaxFeatures, c.MinTokenLength, c.SmoothIDF, c.SublinearTF, c.Norm, len(v.terms))

	var buf [8]byte
	for i, term := range v.terms {
		h.WriteString(term)
		h.WriteString("\x00")
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.idf[i]))
		h.Write(buf[:])
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// countTerms splits a normalized document into raw term counts.
func (v *TFIDF) countTerms(doc string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range strings.Fields(doc) {
		if len(tok) < v.config.MinTokenLength {
			continue
		}
		counts[tok]++
	}
	return counts
}

// weigh turns raw counts into a normalized sparse tf-idf vector.
func (v *TFIDF) weigh(counts map[string]int) Vector {
	vec := Vector{Dim: len(v.terms)}
	for term, c := range counts {
		idx, ok := v.vocabulary[term]
		if !ok {
			continue
		}
		tf := float64(c)
		if v.config.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		vec.Indices = append(vec.Indices, idx)
		vec.Values = append(vec.Values, tf*v.idf[idx])
	}
	vec.sortIndices()

	var norm float64
	switch v.config.Norm {
	case "l2":
		for _, x := range vec.Values {
			norm += x * x
		}
		norm = math.Sqrt(norm)
	case "l1":
		for _, x := range vec.Values {
			norm += math.Abs(x)
		}
	}
	if norm > 0 {
		for i := range vec.Values {
			vec.Values[i] /= norm
		}
	}
	return vec
}
