// Package text turns raw message text into the normalized token string that
// both training and inference feed to the vectorizer.
//
// The stopword set and the stemmer live together in a Resources value whose
// Version is recorded in every trained artifact. Loading a model built with
// different resources fails instead of silently degrading accuracy.
package text

import (
	_ "embed"
	"sort"
	"strings"
	"sync"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
)

// DefaultVersion identifies the embedded NLTK English stopword list paired
// with the Porter stemmer.
const DefaultVersion = "en-nltk179-porter"

//go:embed stopwords_english.txt
var englishStopwords string

// Resources is the linguistic configuration shared by training and inference.
// It is immutable once built.
type Resources struct {
	version   string
	stopwords map[string]struct{}
	stem      func(string) string
}

var (
	defaultOnce      sync.Once
	defaultResources *Resources
)

// DefaultResources returns the shared English resources.
func DefaultResources() *Resources {
	defaultOnce.Do(func() {
		defaultResources = NewResources(DefaultVersion, strings.Fields(englishStopwords), porterstemmer.StemString)
	})
	return defaultResources
}

// NewResources builds a Resources value. The version must change whenever the
// stopword list or stemmer changes.
func NewResources(version string, stopwords []string, stem func(string) string) *Resources {
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		set[w] = struct{}{}
	}
	if stem == nil {
		stem = func(s string) string { return s }
	}
	return &Resources{version: version, stopwords: set, stem: stem}
}

// Version returns the resources identifier written into artifacts.
func (r *Resources) Version() string {
	return r.version
}

// IsStopword reports whether word is dropped before stemming.
func (r *Resources) IsStopword(word string) bool {
	_, ok := r.stopwords[word]
	return ok
}

// Stopwords returns a sorted copy of the stopword set.
func (r *Resources) Stopwords() []string {
	words := make([]string, 0, len(r.stopwords))
	for w := range r.stopwords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Stem reduces a single lowercase token to its stem.
func (r *Resources) Stem(word string) string {
	return r.stem(word)
}

// Normalize is Normalize(r, s).
func (r *Resources) Normalize(s string) string {
	return Normalize(r, s)
}

// Normalize lowercases s, replaces everything outside a-z with spaces, drops
// stopwords, stems the remaining tokens and joins them with single spaces.
// Text without letters normalizes to "". A nil res means DefaultResources.
func Normalize(res *Resources, s string) string {
	if res == nil {
		res = DefaultResources()
	}

	cleaned := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return ' '
	}, strings.ToLower(s))

	tokens := strings.Fields(cleaned)
	stems := tokens[:0]
	for _, tok := range tokens {
		if res.IsStopword(tok) {
			continue
		}
		if stem := res.Stem(tok); stem != "" {
			stems = append(stems, stem)
		}
	}

	return strings.Join(stems, " ")
}
