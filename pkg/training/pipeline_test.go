package training

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zpam/sms-filter/pkg/dataset"
	"github.com/zpam/sms-filter/pkg/errs"
	"github.com/zpam/sms-filter/pkg/label"
	"github.com/zpam/sms-filter/pkg/model"
	"github.com/zpam/sms-filter/pkg/profiler"
	"github.com/zpam/sms-filter/pkg/text"
)

var smallCorpus = []dataset.Example{
	{Text: "Let's meet for lunch tomorrow", Label: label.Ham},
	{Text: "Call me when you get home", Label: label.Ham},
	{Text: "WIN a FREE prize now, click this link!!!", Label: label.Spam},
	{Text: "Congratulations you won $1000 cash, claim now", Label: label.Spam},
}

func writeDataset(t *testing.T, examples []dataset.Example) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, dataset.Write(&buf, examples))
	path := filepath.Join(t.TempDir(), "sms.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func classify(t *testing.T, b *model.Bundle, msg string) (label.Label, float64) {
	t.Helper()
	x, err := b.Vectorizer.Transform(text.Normalize(nil, msg))
	require.NoError(t, err)
	l, p, err := b.Classifier.Predict(x)
	require.NoError(t, err)
	return l, p
}

func TestTrainEndToEnd(t *testing.T) {
	opts := DefaultOptions()
	opts.TestSize = 0

	path := writeDataset(t, smallCorpus)
	b, report, err := NewPipeline(opts, nil, nil).Train(context.Background(), path)
	require.NoError(t, err)

	require.Equal(t, []string{
		"call", "cash", "claim", "click", "congratul", "free", "get", "home",
		"let", "link", "lunch", "meet", "prize", "tomorrow", "win",
	}, b.Vectorizer.Terms())
	require.Equal(t, text.DefaultVersion, b.Resources)

	l, p := classify(t, b, "You have won a FREE prize, click now!")
	require.Equal(t, label.Spam, l)
	require.InDelta(t, 0.6499, p, 1e-3)

	l, p = classify(t, b, "Are we still meeting for lunch?")
	require.Equal(t, label.Ham, l)
	require.InDelta(t, 0.6436, p, 1e-3)

	// nothing in the vocabulary: balanced priors, tie goes to ham
	l, p = classify(t, b, "12345 !!!")
	require.Equal(t, label.Ham, l)
	require.InDelta(t, 0.5, p, 1e-12)

	require.Equal(t, 4, report.Rows)
	require.Equal(t, 2, report.Spam)
	require.Equal(t, 2, report.Ham)
	require.Equal(t, 4, report.TrainSize)
	require.Zero(t, report.TestSize)
	require.Nil(t, report.Metrics)
	require.Equal(t, 15, report.Vocabulary)
	require.NotEmpty(t, report.RunID)
	require.Equal(t, b.Fingerprint(), report.Fingerprint)
}

func TestTrainWithHoldOut(t *testing.T) {
	var examples []dataset.Example
	for i := 0; i < 5; i++ {
		examples = append(examples, smallCorpus...)
	}

	prof := profiler.NewProfiler()
	b, report, err := NewPipeline(nil, nil, nil).WithProfiler(prof).TrainExamples(context.Background(), examples)
	require.NoError(t, err)

	require.Equal(t, 16, report.TrainSize)
	require.Equal(t, 4, report.TestSize)
	require.NotNil(t, report.Metrics)
	require.Equal(t, 4, report.Metrics.Total)
	require.Equal(t, 1.0, report.Metrics.Accuracy)

	l, _ := classify(t, b, "You have won a FREE prize, click now!")
	require.Equal(t, label.Spam, l)
	l, _ = classify(t, b, "Are we still meeting for lunch?")
	require.Equal(t, label.Ham, l)

	for _, stage := range []string{profiler.StageNormalize, profiler.StageFitVectorizer, profiler.StageFitClassifier, profiler.StageEvaluate} {
		require.Equal(t, 1, prof.GetStats(stage).Count, stage)
	}

	var out bytes.Buffer
	report.Print(&out)
	require.Contains(t, out.String(), "16 train / 4 test")
	require.Contains(t, out.String(), "Accuracy")
}

func TestTrainIsDeterministic(t *testing.T) {
	var examples []dataset.Example
	for i := 0; i < 3; i++ {
		examples = append(examples, smallCorpus...)
	}
	path := writeDataset(t, examples)

	encode := func() ([]byte, []byte) {
		b, _, err := NewPipeline(nil, nil, nil).Train(context.Background(), path)
		require.NoError(t, err)
		vec, cls, err := b.Encode()
		require.NoError(t, err)
		return vec, cls
	}

	vec1, cls1 := encode()
	vec2, cls2 := encode()
	require.Equal(t, vec1, vec2)
	require.Equal(t, cls1, cls2)
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		testSize  float64
		wantTrain int
		wantTest  int
	}{
		{"default", 100, 0.2, 80, 20},
		{"rounds up", 11, 0.2, 8, 3},
		{"no hold-out", 10, 0, 10, 0},
		{"keeps one training row", 2, 0.9, 1, 1},
		{"single row", 1, 0.5, 1, 0},
		{"empty", 0, 0.2, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train, test := Split(tt.n, tt.testSize, 42)
			require.Len(t, train, tt.wantTrain)
			require.Len(t, test, tt.wantTest)

			seen := make(map[int]bool)
			for _, i := range append(append([]int(nil), train...), test...) {
				require.False(t, seen[i], "index %d used twice", i)
				require.True(t, i >= 0 && i < tt.n)
				seen[i] = true
			}
		})
	}

	train1, test1 := Split(50, 0.2, 7)
	train2, test2 := Split(50, 0.2, 7)
	require.Equal(t, train1, train2)
	require.Equal(t, test1, test2)

	_, other := Split(50, 0.2, 8)
	require.NotEqual(t, test1, other)
}

func TestTrainErrors(t *testing.T) {
	ctx := context.Background()
	p := NewPipeline(nil, nil, nil)

	_, _, err := p.Train(ctx, filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, errs.ErrDataLoad)

	short := filepath.Join(t.TempDir(), "short.csv")
	require.NoError(t, os.WriteFile(short, []byte("ham\n"), 0644))
	_, _, err = p.Train(ctx, short)
	require.ErrorIs(t, err, errs.ErrDataLoad)

	headerOnly := filepath.Join(t.TempDir(), "header.csv")
	require.NoError(t, os.WriteFile(headerOnly, []byte("v1,v2\n"), 0644))
	_, _, err = p.Train(ctx, headerOnly)
	require.ErrorIs(t, err, errs.ErrEmptyCorpus)

	_, _, err = p.TrainExamples(ctx, []dataset.Example{
		{Text: "!!! 123", Label: label.Ham},
		{Text: "the and of", Label: label.Spam},
	})
	require.ErrorIs(t, err, errs.ErrEmptyCorpus)

	_, _, err = p.TrainExamples(ctx, []dataset.Example{
		{Text: "lunch tomorrow", Label: label.Ham},
		{Text: "see you at home", Label: label.Ham},
	})
	require.ErrorIs(t, err, errs.ErrEmptyCorpus)
	require.True(t, strings.Contains(err.Error(), "SPAM"))
}

func TestTrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewPipeline(nil, nil, nil).TrainExamples(ctx, smallCorpus)
	require.ErrorIs(t, err, context.Canceled)
}
