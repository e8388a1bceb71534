package learning

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/zpam/sms-filter/pkg/label"
)

// TermStats describes how strongly one vocabulary term leans toward a class
type TermStats struct {
	Term       string  `json:"term"`
	Index      int     `json:"index"`
	SpamWeight float64 `json:"spam_weight"`
	HamWeight  float64 `json:"ham_weight"`

	// log P(term|spam) - log P(term|ham); positive leans spam
	Spamminess float64 `json:"spamminess"`
}

// ModelInfo summarizes a fitted classifier
type ModelInfo struct {
	Features     int     `json:"features"`
	SpamMessages int     `json:"spam_messages"`
	HamMessages  int     `json:"ham_messages"`
	SpamPrior    float64 `json:"spam_prior"`
	Config       Config  `json:"config"`
}

// GetModelInfo returns classifier statistics
func (nb *MultinomialNB) GetModelInfo() *ModelInfo {
	return &ModelInfo{
		Features:     nb.features,
		SpamMessages: int(nb.classCount[label.Spam]),
		HamMessages:  int(nb.classCount[label.Ham]),
		SpamPrior:    math.Exp(nb.classLogPrior[label.Spam]),
		Config:       nb.config,
	}
}

// TermStats returns statistics for feature i, named by terms[i]
func (nb *MultinomialNB) TermStats(terms []string, i int) *TermStats {
	if !nb.Fitted() || i < 0 || i >= nb.features {
		return nil
	}
	name := ""
	if i < len(terms) {
		name = terms[i]
	}
	return &TermStats{
		Term:       name,
		Index:      i,
		SpamWeight: nb.featureCount[label.Spam][i],
		HamWeight:  nb.featureCount[label.Ham][i],
		Spamminess: nb.featureLogProb[label.Spam][i] - nb.featureLogProb[label.Ham][i],
	}
}

// TopTerms returns the terms that lean furthest toward spam (or ham). Terms
// never seen in the requested class are skipped.
func (nb *MultinomialNB) TopTerms(terms []string, limit int, spam bool) []*TermStats {
	var out []*TermStats
	for i := 0; i < nb.features; i++ {
		stats := nb.TermStats(terms, i)
		if spam && stats.SpamWeight == 0 || !spam && stats.HamWeight == 0 {
			continue
		}
		out = append(out, stats)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if spam {
			return out[i].Spamminess > out[j].Spamminess
		}
		return out[i].Spamminess < out[j].Spamminess
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// PrintStats writes a human-readable model summary
func (nb *MultinomialNB) PrintStats(w io.Writer, terms []string) {
	info := nb.GetModelInfo()

	fmt.Fprintf(w, "🧠 Naive Bayes Model\n")
	fmt.Fprintf(w, "════════════════════════════════════════\n")
	fmt.Fprintf(w, "Training Data:\n")
	fmt.Fprintf(w, "  Spam messages: %d\n", info.SpamMessages)
	fmt.Fprintf(w, "  Ham messages: %d\n", info.HamMessages)
	fmt.Fprintf(w, "  Spam prior: %.3f\n", info.SpamPrior)
	fmt.Fprintf(w, "  Features: %d\n", info.Features)

	fmt.Fprintf(w, "\nConfiguration:\n")
	fmt.Fprintf(w, "  Alpha: %.2f\n", info.Config.Alpha)
	fmt.Fprintf(w, "  Fit prior: %v\n", info.Config.FitPrior)

	fmt.Fprintf(w, "\n📈 Top Spam Terms:\n")
	for i, t := range nb.TopTerms(terms, 10, true) {
		fmt.Fprintf(w, "  %2d. %-15s (%+.3f)\n", i+1, t.Term, t.Spamminess)
	}

	fmt.Fprintf(w, "\n📉 Top Ham Terms:\n")
	for i, t := range nb.TopTerms(terms, 10, false) {
		fmt.Fprintf(w, "  %2d. %-15s (%+.3f)\n", i+1, t.Term, t.Spamminess)
	}

	fmt.Fprintf(w, "\n")
}
