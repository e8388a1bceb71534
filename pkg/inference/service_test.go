package inference

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zpam/sms-filter/pkg/dataset"
	"github.com/zpam/sms-filter/pkg/errs"
	"github.com/zpam/sms-filter/pkg/label"
	"github.com/zpam/sms-filter/pkg/model"
	"github.com/zpam/sms-filter/pkg/profiler"
	"github.com/zpam/sms-filter/pkg/text"
	"github.com/zpam/sms-filter/pkg/training"
)

var corpus = []dataset.Example{
	{Text: "Let's meet for lunch tomorrow", Label: label.Ham},
	{Text: "Call me when you get home", Label: label.Ham},
	{Text: "WIN a FREE prize now, click this link!!!", Label: label.Spam},
	{Text: "Congratulations you won $1000 cash, claim now", Label: label.Spam},
}

func trainBundle(t *testing.T) *model.Bundle {
	t.Helper()
	opts := training.DefaultOptions()
	opts.TestSize = 0
	b, _, err := training.NewPipeline(opts, nil, nil).TrainExamples(context.Background(), corpus)
	require.NoError(t, err)
	return b
}

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	s, err := New(trainBundle(t), nil, opts...)
	require.NoError(t, err)
	return s
}

func TestPredict(t *testing.T) {
	s := newService(t)

	tests := []struct {
		name       string
		input      string
		label      label.Label
		confidence float64
		normalized string
	}{
		{"spam", "You have won a FREE prize, click now!", label.Spam, 0.6499, "free prize click"},
		{"ham", "Are we still meeting for lunch?", label.Ham, 0.6436, "still meet lunch"},
		{"no known terms", "12345 !!!", label.Ham, 0.5, ""},
		{"empty", "", label.Ham, 0.5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := s.Predict(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.label, pred.Label)
			require.InDelta(t, tt.confidence, pred.Confidence, 1e-3)
			require.Equal(t, tt.normalized, pred.Normalized)
			require.Equal(t, tt.label == label.Spam, pred.IsSpam())
		})
	}
}

func TestPredictBoundsAndDeterminism(t *testing.T) {
	s := newService(t)
	inputs := []string{
		"FREE! Win cash NOW",
		"lunch lunch lunch lunch",
		"caf\xe9 \xff\xfe invalid utf-8",
		strings.Repeat("prize ", 500),
		"Ünïcödé text with ümlauts",
	}

	for _, in := range inputs {
		first, err := s.Predict(in)
		require.NoError(t, err)
		require.True(t, first.Label.Valid())
		require.GreaterOrEqual(t, first.Confidence, 0.5)
		require.LessOrEqual(t, first.Confidence, 1.0)
		require.GreaterOrEqual(t, first.SpamProbability, 0.0)
		require.LessOrEqual(t, first.SpamProbability, 1.0)

		second, err := s.Predict(in)
		require.NoError(t, err)
		require.Equal(t, first, second)
	}
}

func TestPredictErrors(t *testing.T) {
	s := newService(t, WithMaxInputLength(16))

	_, err := s.Predict(strings.Repeat("a", 17))
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	require.ErrorIs(t, err, errs.ErrPrediction)

	// a failed call leaves the service usable
	pred, err := s.Predict("free prize")
	require.NoError(t, err)
	require.Equal(t, label.Spam, pred.Label)

	var none *Service
	_, err = none.Predict("hello")
	require.ErrorIs(t, err, errs.ErrModelUnavailable)
}

func TestPredictRecoversFromPanic(t *testing.T) {
	b := trainBundle(t)
	broken := &Service{
		bundle:    &model.Bundle{Classifier: b.Classifier, Resources: b.Resources},
		resources: text.DefaultResources(),
		logger:    zap.NewNop(),
	}

	_, err := broken.Predict("free prize")
	require.ErrorIs(t, err, errs.ErrPrediction)
	require.Contains(t, err.Error(), "panicked")
}

func TestNewRejectsMismatchedResources(t *testing.T) {
	b := trainBundle(t)
	other := text.NewResources("en-custom", []string{"the"}, nil)

	_, err := New(b, other)
	require.ErrorIs(t, err, errs.ErrModelLoad)

	_, err = New(&model.Bundle{Resources: b.Resources}, nil)
	require.ErrorIs(t, err, errs.ErrModelLoad)
}

func TestLoadFromStore(t *testing.T) {
	ctx := context.Background()
	store := model.NewFileStore(t.TempDir(), "", "")

	_, err := Load(ctx, store, nil)
	require.ErrorIs(t, err, errs.ErrModelLoad)

	original := newService(t)
	require.NoError(t, store.Save(ctx, original.Bundle()))

	prof := profiler.NewProfiler()
	loaded, err := Load(ctx, store, nil, WithProfiler(prof))
	require.NoError(t, err)
	require.Equal(t, original.Info(), loaded.Info())

	for _, msg := range []string{"You have won a FREE prize, click now!", "Are we still meeting for lunch?", "12345"} {
		want, err := original.Predict(msg)
		require.NoError(t, err)
		got, err := loaded.Predict(msg)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	require.Equal(t, 3, prof.GetStats(profiler.StagePredict).Count)
}

func TestInfo(t *testing.T) {
	info := newService(t).Info()
	require.Equal(t, 15, info.Vocabulary)
	require.Equal(t, text.DefaultVersion, info.Resources)
	require.Equal(t, 2, info.SpamMessages)
	require.Equal(t, 2, info.HamMessages)
	require.InDelta(t, 0.5, info.SpamPrior, 1e-12)
	require.NotEmpty(t, info.Fingerprint)
	require.Contains(t, info.String(), "15 terms")
}

func TestPredictConcurrent(t *testing.T) {
	s := newService(t)
	want, err := s.Predict("claim your cash prize")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Prediction, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = s.Predict("claim your cash prize")
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		require.Equal(t, want, got)
	}
}
