// Package inference classifies single messages with a loaded model bundle.
package inference

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/zpam/sms-filter/pkg/errs"
	"github.com/zpam/sms-filter/pkg/label"
	"github.com/zpam/sms-filter/pkg/logging"
	"github.com/zpam/sms-filter/pkg/model"
	"github.com/zpam/sms-filter/pkg/profiler"
	"github.com/zpam/sms-filter/pkg/text"
)

// DefaultMaxInputLength bounds a message in bytes
const DefaultMaxInputLength = 10000

// Prediction is the outcome of classifying one message
type Prediction struct {
	Label      label.Label `json:"label"`
	Confidence float64     `json:"confidence"`

	// Posterior of the spam class, regardless of the predicted label
	SpamProbability float64 `json:"spam_probability"`

	// Token string the vectorizer saw
	Normalized string `json:"normalized"`
}

// IsSpam reports whether the message was classified as spam
func (p Prediction) IsSpam() bool {
	return p.Label == label.Spam
}

// Info describes the loaded model
type Info struct {
	Vocabulary   int     `json:"vocabulary"`
	Resources    string  `json:"resources"`
	Fingerprint  string  `json:"fingerprint"`
	SpamMessages int     `json:"spam_messages"`
	HamMessages  int     `json:"ham_messages"`
	SpamPrior    float64 `json:"spam_prior"`
	Alpha        float64 `json:"alpha"`
}

// Option configures a Service
type Option func(*Service)

// WithMaxInputLength rejects messages longer than n bytes. n <= 0 disables
// the check.
func WithMaxInputLength(n int) Option {
	return func(s *Service) { s.maxInputLength = n }
}

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNop(logger) }
}

// WithProfiler records per-stage latencies
func WithProfiler(p *profiler.Profiler) Option {
	return func(s *Service) { s.profiler = p }
}

// Service classifies messages. It never changes after New returns and is
// safe for concurrent use.
type Service struct {
	bundle         *model.Bundle
	resources      *text.Resources
	maxInputLength int
	logger         *zap.Logger
	profiler       *profiler.Profiler
}

// New builds a service around a fitted bundle. The bundle must have been
// trained with the same linguistic resources.
func New(bundle *model.Bundle, res *text.Resources, opts ...Option) (*Service, error) {
	const op = "inference.New"
	if res == nil {
		res = text.DefaultResources()
	}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	if bundle.Resources != res.Version() {
		return nil, errs.Errorf(errs.KindModelLoad, op,
			"model was built with resources %q but %q are loaded", bundle.Resources, res.Version())
	}

	s := &Service{
		bundle:         bundle,
		resources:      res,
		maxInputLength: DefaultMaxInputLength,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load reads a bundle from store and builds a service around it
func Load(ctx context.Context, store model.Store, res *text.Resources, opts ...Option) (*Service, error) {
	bundle, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	s, err := New(bundle, res, opts...)
	if err != nil {
		return nil, err
	}
	s.logger.Info("model loaded",
		zap.String("store", store.Describe()),
		zap.String("fingerprint", bundle.Fingerprint()),
		zap.Int("vocabulary", bundle.Vectorizer.Dim()))
	return s, nil
}

// Predict classifies a raw message
func (s *Service) Predict(raw string) (pred Prediction, err error) {
	const op = "inference.Predict"
	if s == nil || s.bundle == nil {
		return Prediction{}, errs.Errorf(errs.KindModelUnavailable, op, "no model loaded")
	}
	if s.maxInputLength > 0 && len(raw) > s.maxInputLength {
		return Prediction{}, errs.Errorf(errs.KindInvalidInput, op,
			"message is %d bytes, limit is %d", len(raw), s.maxInputLength)
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("classifier panicked", zap.Any("panic", r))
			pred, err = Prediction{}, errs.Errorf(errs.KindPrediction, op, "classifier panicked: %v", r)
		}
	}()

	timer := s.profiler.Start(profiler.StageNormalize)
	normalized := s.resources.Normalize(raw)
	timer.Stop()

	timer = s.profiler.Start(profiler.StageVectorize)
	x, err := s.bundle.Vectorizer.Transform(normalized)
	timer.Stop()
	if err != nil {
		return Prediction{}, errs.E(errs.KindPrediction, op, err)
	}

	timer = s.profiler.Start(profiler.StagePredict)
	proba, err := s.bundle.Classifier.PredictProba(x)
	timer.Stop()
	if err != nil {
		return Prediction{}, errs.E(errs.KindPrediction, op, err)
	}
	for _, p := range proba {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return Prediction{}, errs.Errorf(errs.KindPrediction, op, "classifier returned posterior %v", p)
		}
	}

	best := label.Ham
	if proba[label.Spam] > proba[label.Ham] {
		best = label.Spam
	}

	s.logger.Debug("classified message",
		zap.Stringer("label", best),
		zap.Float64("confidence", proba[best]),
		zap.Int("terms", x.NNZ()))

	return Prediction{
		Label:           best,
		Confidence:      proba[best],
		SpamProbability: proba[label.Spam],
		Normalized:      normalized,
	}, nil
}

// Info returns a summary of the loaded model
func (s *Service) Info() Info {
	mi := s.bundle.Classifier.GetModelInfo()
	return Info{
		Vocabulary:   s.bundle.Vectorizer.Dim(),
		Resources:    s.bundle.Resources,
		Fingerprint:  s.bundle.Fingerprint(),
		SpamMessages: mi.SpamMessages,
		HamMessages:  mi.HamMessages,
		SpamPrior:    mi.SpamPrior,
		Alpha:        mi.Config.Alpha,
	}
}

// Bundle returns the model the service classifies with
func (s *Service) Bundle() *model.Bundle {
	return s.bundle
}

// Resources returns the linguistic resources in use
func (s *Service) Resources() *text.Resources {
	return s.resources
}

func (i Info) String() string {
	return fmt.Sprintf("%d terms, %d spam / %d ham messages, resources %s, fingerprint %s",
		i.Vocabulary, i.SpamMessages, i.HamMessages, i.Resources, i.Fingerprint)
}
