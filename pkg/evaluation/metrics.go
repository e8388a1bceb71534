// Package evaluation scores predictions against known labels. Spam is the
// positive class.
package evaluation

import (
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/zpam/sms-filter/pkg/label"
)

// ConfusionMatrix counts outcomes with spam as the positive class
type ConfusionMatrix struct {
	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	TrueNegatives  int `json:"true_negatives"`
	FalseNegatives int `json:"false_negatives"`
}

// Total returns the number of scored samples
func (cm ConfusionMatrix) Total() int {
	return cm.TruePositives + cm.FalsePositives + cm.TrueNegatives + cm.FalseNegatives
}

// Metrics summarizes classifier quality
type Metrics struct {
	Confusion   ConfusionMatrix `json:"confusion"`
	Total       int             `json:"total"`
	Correct     int             `json:"correct"`
	Accuracy    float64         `json:"accuracy"`
	Precision   float64         `json:"precision"`
	Recall      float64         `json:"recall"`
	Specificity float64         `json:"specificity"`
	F1          float64         `json:"f1"`
}

// Evaluate compares predicted labels with actual ones. Ratios whose
// denominator is zero are reported as 0.
func Evaluate(actual, predicted []label.Label) (*Metrics, error) {
	if len(actual) != len(predicted) {
		return nil, fmt.Errorf("got %d actual labels but %d predictions", len(actual), len(predicted))
	}

	pairs := lo.Zip2(actual, predicted)
	count := func(a, p label.Label) int {
		return lo.CountBy(pairs, func(pair lo.Tuple2[label.Label, label.Label]) bool {
			return pair.A == a && pair.B == p
		})
	}

	cm := ConfusionMatrix{
		TruePositives:  count(label.Spam, label.Spam),
		FalsePositives: count(label.Ham, label.Spam),
		TrueNegatives:  count(label.Ham, label.Ham),
		FalseNegatives: count(label.Spam, label.Ham),
	}
	return FromConfusion(cm), nil
}

// FromConfusion derives metrics from a confusion matrix
func FromConfusion(cm ConfusionMatrix) *Metrics {
	m := &Metrics{
		Confusion: cm,
		Total:     cm.Total(),
		Correct:   cm.TruePositives + cm.TrueNegatives,
	}
	m.Accuracy = ratio(m.Correct, m.Total)
	m.Precision = ratio(cm.TruePositives, cm.TruePositives+cm.FalsePositives)
	m.Recall = ratio(cm.TruePositives, cm.TruePositives+cm.FalseNegatives)
	m.Specificity = ratio(cm.TrueNegatives, cm.TrueNegatives+cm.FalsePositives)
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// Print writes the metrics in the CLI report style
func (m *Metrics) Print(w io.Writer) {
	fmt.Fprintf(w, "🎯 Classification Metrics:\n")
	fmt.Fprintf(w, "  Messages scored: %d\n", m.Total)
	fmt.Fprintf(w, "  Accuracy:    %6.2f%% (%d/%d)\n", m.Accuracy*100, m.Correct, m.Total)
	fmt.Fprintf(w, "  Precision:   %6.2f%%\n", m.Precision*100)
	fmt.Fprintf(w, "  Recall:      %6.2f%%\n", m.Recall*100)
	fmt.Fprintf(w, "  Specificity: %6.2f%%\n", m.Specificity*100)
	fmt.Fprintf(w, "  F1 score:    %6.3f\n", m.F1)
	fmt.Fprintf(w, "\n📋 Confusion Matrix:\n")
	fmt.Fprintf(w, "                 predicted SPAM  predicted HAM\n")
	fmt.Fprintf(w, "  actual SPAM    %14d  %13d\n", m.Confusion.TruePositives, m.Confusion.FalseNegatives)
	fmt.Fprintf(w, "  actual HAM     %14d  %13d\n", m.Confusion.FalsePositives, m.Confusion.TrueNegatives)
}
