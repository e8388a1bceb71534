// Package model pairs a fitted vectorizer with the classifier trained on its
// output and persists the pair as two JSON artifacts.
package model

import (
	"encoding/json"
	"fmt"

	"github.com/zpam/sms-filter/pkg/errs"
	"github.com/zpam/sms-filter/pkg/learning"
	"github.com/zpam/sms-filter/pkg/vectorizer"
)

// FormatVersion is bumped whenever the artifact layout changes.
const FormatVersion = 1

// Artifact kinds
const (
	KindVectorizer = "vectorizer"
	KindClassifier = "classifier"
)

// Header is written at the top of both artifacts. Fingerprint always names
// the vectorizer, so a classifier header says which vectorizer it expects.
type Header struct {
	Format      int    `json:"format"`
	Kind        string `json:"kind"`
	Fingerprint string `json:"fingerprint"`
	Features    int    `json:"features"`
	Resources   string `json:"resources"`
}

type vectorizerArtifact struct {
	Header     Header           `json:"header"`
	Vectorizer vectorizer.State `json:"vectorizer"`
}

type classifierArtifact struct {
	Header     Header         `json:"header"`
	Classifier learning.State `json:"classifier"`
}

// Bundle is a paired vectorizer and classifier plus the version of the
// linguistic resources both were built with.
type Bundle struct {
	Vectorizer *vectorizer.TFIDF
	Classifier *learning.MultinomialNB
	Resources  string
}

// NewBundle pairs a fitted vectorizer and classifier.
func NewBundle(v *vectorizer.TFIDF, c *learning.MultinomialNB, resources string) (*Bundle, error) {
	b := &Bundle{Vectorizer: v, Classifier: c, Resources: resources}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks that both halves are fitted and agree on dimensions.
func (b *Bundle) Validate() error {
	const op = "model.Bundle.Validate"
	switch {
	case b == nil || b.Vectorizer == nil || b.Classifier == nil:
		return errs.Errorf(errs.KindModelLoad, op, "bundle is incomplete")
	case !b.Vectorizer.Fitted():
		return errs.E(errs.KindModelLoad, op, vectorizer.ErrNotFitted)
	case !b.Classifier.Fitted():
		return errs.E(errs.KindModelLoad, op, learning.ErrNotFitted)
	case b.Vectorizer.Dim() != b.Classifier.Features():
		return errs.Errorf(errs.KindModelLoad, op, "vectorizer has %d features but classifier expects %d",
			b.Vectorizer.Dim(), b.Classifier.Features())
	case b.Resources == "":
		return errs.Errorf(errs.KindModelLoad, op, "bundle has no resources version")
	}
	return nil
}

// Fingerprint identifies the bundle's vectorizer
func (b *Bundle) Fingerprint() string {
	return b.Vectorizer.Fingerprint()
}

func (b *Bundle) header(kind string) Header {
	return Header{
		Format:      FormatVersion,
		Kind:        kind,
		Fingerprint: b.Fingerprint(),
		Features:    b.Vectorizer.Dim(),
		Resources:   b.Resources,
	}
}

// Encode renders the two artifacts. The output is a pure function of the
// fitted parameters.
func (b *Bundle) Encode() (vec, cls []byte, err error) {
	if err := b.Validate(); err != nil {
		return nil, nil, err
	}

	vec, err = json.MarshalIndent(vectorizerArtifact{
		Header:     b.header(KindVectorizer),
		Vectorizer: b.Vectorizer.State(),
	}, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode vectorizer: %w", err)
	}

	cls, err = json.MarshalIndent(classifierArtifact{
		Header:     b.header(KindClassifier),
		Classifier: b.Classifier.State(),
	}, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode classifier: %w", err)
	}
	return vec, cls, nil
}

// Decode rebuilds a bundle from its two artifacts, rejecting corrupt,
// unpaired or incompatible pairs with errs.ErrModelLoad.
func Decode(vec, cls []byte) (*Bundle, error) {
	const op = "model.Decode"

	var va vectorizerArtifact
	if err := json.Unmarshal(vec, &va); err != nil {
		return nil, errs.Errorf(errs.KindModelLoad, op, "corrupt vectorizer artifact: %w", err)
	}
	var ca classifierArtifact
	if err := json.Unmarshal(cls, &ca); err != nil {
		return nil, errs.Errorf(errs.KindModelLoad, op, "corrupt classifier artifact: %w", err)
	}

	if err := checkHeader(va.Header, KindVectorizer); err != nil {
		return nil, errs.E(errs.KindModelLoad, op, err)
	}
	if err := checkHeader(ca.Header, KindClassifier); err != nil {
		return nil, errs.E(errs.KindModelLoad, op, err)
	}
	if va.Header.Fingerprint != ca.Header.Fingerprint {
		return nil, errs.Errorf(errs.KindModelLoad, op, "classifier was trained against vectorizer %s, found %s",
			ca.Header.Fingerprint, va.Header.Fingerprint)
	}
	if va.Header.Resources != ca.Header.Resources {
		return nil, errs.Errorf(errs.KindModelLoad, op, "artifacts built with different resources: %q and %q",
			va.Header.Resources, ca.Header.Resources)
	}
	if va.Header.Features != ca.Header.Features {
		return nil, errs.Errorf(errs.KindModelLoad, op, "vectorizer declares %d features, classifier %d",
			va.Header.Features, ca.Header.Features)
	}

	v, err := vectorizer.FromState(va.Vectorizer)
	if err != nil {
		return nil, errs.E(errs.KindModelLoad, op, err)
	}
	if v.Fingerprint() != va.Header.Fingerprint {
		return nil, errs.Errorf(errs.KindModelLoad, op, "vectorizer content does not match its fingerprint")
	}
	if v.Dim() != va.Header.Features {
		return nil, errs.Errorf(errs.KindModelLoad, op, "vectorizer has %d terms, header declares %d",
			v.Dim(), va.Header.Features)
	}

	c, err := learning.FromState(ca.Classifier)
	if err != nil {
		return nil, errs.E(errs.KindModelLoad, op, err)
	}

	b := &Bundle{Vectorizer: v, Classifier: c, Resources: va.Header.Resources}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func checkHeader(h Header, kind string) error {
	if h.Format != FormatVersion {
		return fmt.Errorf("unsupported %s format %d (expected %d)", kind, h.Format, FormatVersion)
	}
	if h.Kind != kind {
		return fmt.Errorf("expected a %s artifact, got %q", kind, h.Kind)
	}
	if h.Fingerprint == "" {
		return fmt.Errorf("%s artifact has no fingerprint", kind)
	}
	return nil
}
