package vectorizer

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

const tolerance = 1e-12

var corpus = []string{
	"free win cash",
	"free lunch",
	"lunch lunch meet",
}

func TestFitTransform(t *testing.T) {
	v := New(nil)
	vectors, err := v.FitTransform(corpus)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	wantTerms := []string{"cash", "free", "lunch", "meet", "win"}
	if !reflect.DeepEqual(v.Terms(), wantTerms) {
		t.Fatalf("Terms() = %v, expected %v", v.Terms(), wantTerms)
	}

	// idf = ln((1+n)/(1+df)) + 1 with n = 3
	idfOnce := math.Log(4.0/2.0) + 1
	idfTwice := math.Log(4.0/3.0) + 1
	wantIDF := []float64{idfOnce, idfTwice, idfTwice, idfOnce, idfOnce}
	for i, w := range v.IDF() {
		if math.Abs(w-wantIDF[i]) > tolerance {
			t.Errorf("idf[%s] = %v, expected %v", wantTerms[i], w, wantIDF[i])
		}
	}

	// doc 0: cash, free, win, l2-normalized
	norm := math.Sqrt(2*idfOnce*idfOnce + idfTwice*idfTwice)
	doc0 := vectors[0].Dense()
	want0 := []float64{idfOnce / norm, idfTwice / norm, 0, 0, idfOnce / norm}
	for i := range want0 {
		if math.Abs(doc0[i]-want0[i]) > tolerance {
			t.Errorf("doc0[%d] = %v, expected %v", i, doc0[i], want0[i])
		}
	}

	// doc 2: lunch twice, meet once
	norm2 := math.Sqrt(4*idfTwice*idfTwice + idfOnce*idfOnce)
	if got := vectors[2].At(2); math.Abs(got-2*idfTwice/norm2) > tolerance {
		t.Errorf("doc2 lunch = %v, expected %v", got, 2*idfTwice/norm2)
	}

	for i, vec := range vectors {
		if vec.Dim != 5 {
			t.Errorf("vector %d has Dim %d", i, vec.Dim)
		}
		var sq float64
		for _, x := range vec.Values {
			sq += x * x
		}
		if math.Abs(sq-1) > 1e-9 {
			t.Errorf("vector %d is not unit length: %v", i, sq)
		}
		for j := 1; j < len(vec.Indices); j++ {
			if vec.Indices[j-1] >= vec.Indices[j] {
				t.Errorf("vector %d indices not ascending: %v", i, vec.Indices)
			}
		}
	}
}

func TestMaxFeatures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFeatures = 2
	v := New(cfg)
	if err := v.Fit(corpus); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// lunch (3) and free (2) are the most frequent terms
	if want := []string{"free", "lunch"}; !reflect.DeepEqual(v.Terms(), want) {
		t.Errorf("Terms() = %v, expected %v", v.Terms(), want)
	}
	if v.Dim() != 2 {
		t.Errorf("Dim() = %d, expected 2", v.Dim())
	}
}

func TestMaxFeaturesTieBreak(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFeatures = 2
	v := New(cfg)
	if err := v.Fit([]string{"delta charlie bravo alpha"}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if want := []string{"alpha", "bravo"}; !reflect.DeepEqual(v.Terms(), want) {
		t.Errorf("ties should break alphabetically, got %v", v.Terms())
	}
}

func TestTransformIgnoresUnknownAndShortTerms(t *testing.T) {
	v := New(nil)
	if err := v.Fit(corpus); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	vec, err := v.Transform("totally unseen words")
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if !vec.IsZero() || vec.NNZ() != 0 || vec.Dim != v.Dim() {
		t.Errorf("expected empty vector of dim %d, got %+v", v.Dim(), vec)
	}

	empty, err := v.Transform("")
	if err != nil {
		t.Fatalf("Transform(\"\") failed: %v", err)
	}
	if !empty.IsZero() {
		t.Errorf("empty document should map to zero vector")
	}

	short := New(nil)
	if err := short.Fit([]string{"u r gr cash"}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if want := []string{"cash", "gr"}; !reflect.DeepEqual(short.Terms(), want) {
		t.Errorf("single-letter tokens should be dropped, got %v", short.Terms())
	}
}

func TestFitErrors(t *testing.T) {
	if err := New(nil).Fit([]string{"", "a b c"}); !errors.Is(err, ErrEmptyVocabulary) {
		t.Errorf("expected ErrEmptyVocabulary, got %v", err)
	}
	if _, err := New(nil).Transform("cash"); !errors.Is(err, ErrNotFitted) {
		t.Errorf("expected ErrNotFitted, got %v", err)
	}

	bad := DefaultConfig()
	bad.Norm = "l3"
	if err := New(bad).Fit(corpus); err == nil {
		t.Error("expected invalid norm to fail")
	}
}

func TestStateRoundTrip(t *testing.T) {
	v := New(nil)
	if err := v.Fit(corpus); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	restored, err := FromState(v.State())
	if err != nil {
		t.Fatalf("FromState failed: %v", err)
	}
	if restored.Fingerprint() != v.Fingerprint() {
		t.Errorf("fingerprint changed: %s != %s", restored.Fingerprint(), v.Fingerprint())
	}

	for _, doc := range append(corpus, "cash cash lunch", "nothing known") {
		a, _ := v.Transform(doc)
		b, _ := restored.Transform(doc)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Transform(%q) differs after round trip: %+v vs %+v", doc, a, b)
		}
	}
}

func TestFingerprintChangesWithVocabulary(t *testing.T) {
	a := New(nil)
	b := New(nil)
	if err := a.Fit(corpus); err != nil {
		t.Fatal(err)
	}
	if err := b.Fit(append(corpus, "brand new terms")); err != nil {
		t.Fatal(err)
	}
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("different vocabularies should not share a fingerprint")
	}

	c := New(nil)
	if err := c.Fit(corpus); err != nil {
		t.Fatal(err)
	}
	if a.Fingerprint() != c.Fingerprint() {
		t.Error("fitting the same corpus twice should give the same fingerprint")
	}
}

func TestFromStateValidation(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{"empty", State{Config: *DefaultConfig()}},
		{"length mismatch", State{Config: *DefaultConfig(), Terms: []string{"a", "b"}, IDF: []float64{1}}},
		{"unsorted", State{Config: *DefaultConfig(), Terms: []string{"b", "a"}, IDF: []float64{1, 1}}},
		{"bad weight", State{Config: *DefaultConfig(), Terms: []string{"a"}, IDF: []float64{math.NaN()}}},
		{"over cap", State{Config: Config{MaxFeatures: 1, MinTokenLength: 2, Norm: "l2"}, Terms: []string{"a", "b"}, IDF: []float64{1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromState(tt.state); err == nil {
				t.Error("expected error")
			}
		})
	}
}
