// Package training fits a vectorizer and classifier pair from a labeled SMS
// dataset.
package training

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/zpam/sms-filter/pkg/config"
	"github.com/zpam/sms-filter/pkg/dataset"
	"github.com/zpam/sms-filter/pkg/errs"
	"github.com/zpam/sms-filter/pkg/evaluation"
	"github.com/zpam/sms-filter/pkg/label"
	"github.com/zpam/sms-filter/pkg/learning"
	"github.com/zpam/sms-filter/pkg/logging"
	"github.com/zpam/sms-filter/pkg/model"
	"github.com/zpam/sms-filter/pkg/profiler"
	"github.com/zpam/sms-filter/pkg/text"
	"github.com/zpam/sms-filter/pkg/vectorizer"
)

// Options controls a training run
type Options struct {
	Dataset    *dataset.Options
	Vectorizer *vectorizer.Config
	Classifier *learning.Config

	// Fraction of rows held out for evaluation; 0 trains on everything
	TestSize float64
	Seed     int64
}

// DefaultOptions returns the reference training setup: 3000 features,
// alpha 1.0, a 20% hold-out and seed 42.
func DefaultOptions() *Options {
	return &Options{
		Dataset:    dataset.DefaultOptions(),
		Vectorizer: vectorizer.DefaultConfig(),
		Classifier: learning.DefaultConfig(),
		TestSize:   0.2,
		Seed:       42,
	}
}

// OptionsFromConfig maps the training related config sections
func OptionsFromConfig(cfg *config.Config) *Options {
	ds := cfg.Dataset.Options
	vec := cfg.Vectorizer
	return &Options{
		Dataset:    &ds,
		Vectorizer: &vec,
		Classifier: &learning.Config{
			Alpha:    cfg.Training.Alpha,
			FitPrior: cfg.Training.FitPrior,
		},
		TestSize: cfg.Training.TestSize,
		Seed:     cfg.Training.Seed,
	}
}

// Report summarizes a finished training run
type Report struct {
	RunID       string
	Rows        int
	Skipped     int
	Spam        int
	Ham         int
	TrainSize   int
	TestSize    int
	Vocabulary  int
	Fingerprint string

	// Hold-out metrics, nil when nothing was held out
	Metrics  *evaluation.Metrics
	Duration time.Duration
}

// Pipeline runs training jobs. It holds no model state between runs.
type Pipeline struct {
	opts      Options
	resources *text.Resources
	logger    *zap.Logger
	profiler  *profiler.Profiler
}

// NewPipeline creates a pipeline. Nil options, resources or logger fall back
// to the defaults.
func NewPipeline(opts *Options, res *text.Resources, logger *zap.Logger) *Pipeline {
	if opts == nil {
		opts = DefaultOptions()
	}
	if res == nil {
		res = text.DefaultResources()
	}
	o := *opts
	if o.Dataset == nil {
		o.Dataset = dataset.DefaultOptions()
	}
	if o.Vectorizer == nil {
		o.Vectorizer = vectorizer.DefaultConfig()
	}
	if o.Classifier == nil {
		o.Classifier = learning.DefaultConfig()
	}
	return &Pipeline{
		opts:      o,
		resources: res,
		logger:    logging.OrNop(logger),
	}
}

// WithProfiler records stage timings into p
func (p *Pipeline) WithProfiler(prof *profiler.Profiler) *Pipeline {
	p.profiler = prof
	return p
}

// Train loads the dataset at path and fits a model bundle from it
func (p *Pipeline) Train(ctx context.Context, path string) (*model.Bundle, *Report, error) {
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID))
	log.Info("loading dataset", zap.String("path", path))

	timer := p.profiler.Start(profiler.StageLoad)
	result, err := dataset.LoadFile(path, p.opts.Dataset)
	timer.Stop()
	if err != nil {
		return nil, nil, err
	}
	if result.Skipped > 0 {
		log.Warn("skipped rows with unknown labels", zap.Int("skipped", result.Skipped))
	}

	bundle, report, err := p.train(ctx, runID, log, result.Examples)
	if err != nil {
		return nil, nil, err
	}
	report.Rows = result.Rows
	report.Skipped = result.Skipped
	log.Info("training complete",
		zap.Int("rows", report.Rows),
		zap.Int("vocabulary", report.Vocabulary),
		zap.String("fingerprint", report.Fingerprint),
		zap.Duration("duration", report.Duration))
	return bundle, report, nil
}

// TrainExamples fits a bundle from in-memory examples
func (p *Pipeline) TrainExamples(ctx context.Context, examples []dataset.Example) (*model.Bundle, *Report, error) {
	runID := uuid.NewString()
	bundle, report, err := p.train(ctx, runID, p.logger.With(zap.String("run_id", runID)), examples)
	if err != nil {
		return nil, nil, err
	}
	report.Rows = len(examples)
	return bundle, report, nil
}

func (p *Pipeline) train(ctx context.Context, runID string, log *zap.Logger, examples []dataset.Example) (*model.Bundle, *Report, error) {
	const op = "training.Train"
	start := time.Now()
	total := p.profiler.Start(profiler.StageTotal)
	defer total.Stop()

	if len(examples) == 0 {
		return nil, nil, errs.Errorf(errs.KindEmptyCorpus, op, "dataset has no labeled rows")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	timer := p.profiler.Start(profiler.StageNormalize)
	docs := make([]string, len(examples))
	labels := make([]label.Label, len(examples))
	for i, ex := range examples {
		docs[i] = p.resources.Normalize(ex.Text)
		labels[i] = ex.Label
	}
	timer.Stop()
	log.Debug("normalized messages", zap.Int("count", len(docs)))

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	timer = p.profiler.Start(profiler.StageFitVectorizer)
	vec := vectorizer.New(p.opts.Vectorizer)
	X, err := vec.FitTransform(docs)
	timer.Stop()
	if err != nil {
		if errors.Is(err, vectorizer.ErrEmptyVocabulary) {
			return nil, nil, errs.E(errs.KindEmptyCorpus, op, err)
		}
		return nil, nil, fmt.Errorf("%s: failed to fit vectorizer: %w", op, err)
	}
	log.Debug("fitted vectorizer", zap.Int("vocabulary", vec.Dim()))

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	trainIdx, testIdx := Split(len(examples), p.opts.TestSize, p.opts.Seed)
	trainX, trainY := subset(X, labels, trainIdx)
	for _, l := range label.All {
		if !lo.Contains(trainY, l) {
			return nil, nil, errs.Errorf(errs.KindEmptyCorpus, op, "training split has no %s messages", l)
		}
	}

	timer = p.profiler.Start(profiler.StageFitClassifier)
	nb := learning.NewMultinomialNB(p.opts.Classifier)
	err = nb.Fit(trainX, trainY)
	timer.Stop()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to fit classifier: %w", op, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	bundle, err := model.NewBundle(vec, nb, p.resources.Version())
	if err != nil {
		return nil, nil, err
	}

	report := &Report{
		RunID:       runID,
		Spam:        lo.Count(labels, label.Spam),
		Ham:         lo.Count(labels, label.Ham),
		TrainSize:   len(trainIdx),
		TestSize:    len(testIdx),
		Vocabulary:  vec.Dim(),
		Fingerprint: bundle.Fingerprint(),
	}

	if len(testIdx) > 0 {
		timer = p.profiler.Start(profiler.StageEvaluate)
		testX, testY := subset(X, labels, testIdx)
		predicted := make([]label.Label, len(testX))
		for i, x := range testX {
			predicted[i], _, err = nb.Predict(x)
			if err != nil {
				timer.Stop()
				return nil, nil, fmt.Errorf("%s: failed to score hold-out set: %w", op, err)
			}
		}
		report.Metrics, err = evaluation.Evaluate(testY, predicted)
		timer.Stop()
		if err != nil {
			return nil, nil, err
		}
		log.Info("hold-out evaluation",
			zap.Int("test_size", len(testIdx)),
			zap.Float64("accuracy", report.Metrics.Accuracy))
	}

	report.Duration = time.Since(start)
	return bundle, report, nil
}

// Split deterministically partitions n row indices into train and test sets.
// The test set has ceil(n*testSize) rows, but at least one row always stays in
// training.
func Split(n int, testSize float64, seed int64) (train, test []int) {
	if n <= 0 {
		return nil, nil
	}
	nTest := 0
	if testSize > 0 {
		nTest = int(math.Ceil(float64(n) * testSize))
	}
	if nTest > n-1 {
		nTest = n - 1
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest]
}

func subset(X []vectorizer.Vector, y []label.Label, idx []int) ([]vectorizer.Vector, []label.Label) {
	xs := make([]vectorizer.Vector, len(idx))
	ys := make([]label.Label, len(idx))
	for i, j := range idx {
		xs[i] = X[j]
		ys[i] = y[j]
	}
	return xs, ys
}

// Print writes the report in the CLI style
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "📊 Dataset: %d rows (%d spam, %d ham", r.Rows, r.Spam, r.Ham)
	if r.Skipped > 0 {
		fmt.Fprintf(w, ", %d skipped", r.Skipped)
	}
	fmt.Fprintf(w, ")\n")
	fmt.Fprintf(w, "✂️  Split: %d train / %d test\n", r.TrainSize, r.TestSize)
	fmt.Fprintf(w, "📚 Vocabulary: %d terms\n", r.Vocabulary)
	fmt.Fprintf(w, "🔑 Fingerprint: %s\n", r.Fingerprint)
	fmt.Fprintf(w, "⏱️  Time taken: %v\n", r.Duration.Round(time.Millisecond))
	if r.Metrics != nil {
		fmt.Fprintf(w, "\n")
		r.Metrics.Print(w)
	}
}
