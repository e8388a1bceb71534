// Package batch classifies many messages concurrently against one shared
// inference service.
package batch

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/samber/lo"

	"github.com/zpam/sms-filter/pkg/inference"
)

// Predictor is the part of inference.Service a batch needs
type Predictor interface {
	Predict(raw string) (inference.Prediction, error)
}

var _ Predictor = (*inference.Service)(nil)

// Options configures a batch run
type Options struct {
	// Concurrent workers; <= 0 means 4
	Workers int

	// Entries in the per-batch memo; 0 disables it
	CacheSize int
}

// DefaultOptions returns the default batch settings
func DefaultOptions() *Options {
	return &Options{
		Workers:   4,
		CacheSize: 1024,
	}
}

// Result is the outcome for the message at Index
type Result struct {
	Index      int
	Message    string
	Prediction inference.Prediction
	Err        error

	// Answered from the memo instead of the classifier
	Cached bool
}

// Summary counts batch outcomes
type Summary struct {
	Total     int
	Spam      int
	Ham       int
	Failed    int
	CacheHits int
}

// Runner fans messages over a fixed worker pool
type Runner struct {
	predictor Predictor
	opts      Options
}

// NewRunner creates a runner. A nil opts means DefaultOptions.
func NewRunner(p Predictor, opts *Options) *Runner {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.CacheSize < 0 {
		o.CacheSize = 0
	}
	return &Runner{predictor: p, opts: o}
}

// Classify predicts every message and returns results in input order.
// Failures are reported per message. Cancelling ctx stops the workers and
// returns ctx.Err() with whatever was finished.
func (r *Runner) Classify(ctx context.Context, messages []string) ([]Result, error) {
	results := make([]Result, len(messages))
	if len(messages) == 0 {
		return results, nil
	}

	memo, err := r.newMemo()
	if err != nil {
		return nil, err
	}

	workers := min(r.opts.Workers, len(messages))
	workQueue := make(chan int, workers*2)
	var workerWG sync.WaitGroup

	for w := 0; w < workers; w++ {
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			for i := range workQueue {
				results[i] = r.classifyOne(i, messages[i], memo)
			}
		}()
	}

	dispatched := 0
dispatch:
	for i := range messages {
		select {
		case workQueue <- i:
			dispatched++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(workQueue)
	workerWG.Wait()

	if dispatched < len(messages) {
		for i := dispatched; i < len(messages); i++ {
			results[i] = Result{Index: i, Message: messages[i], Err: ctx.Err()}
		}
		return results, ctx.Err()
	}
	return results, nil
}

func (r *Runner) newMemo() (*lru.Cache[string, inference.Prediction], error) {
	if r.opts.CacheSize == 0 {
		return nil, nil
	}
	return lru.New[string, inference.Prediction](r.opts.CacheSize)
}

func (r *Runner) classifyOne(i int, msg string, memo *lru.Cache[string, inference.Prediction]) Result {
	res := Result{Index: i, Message: msg}
	if memo != nil {
		if pred, ok := memo.Get(msg); ok {
			res.Prediction = pred
			res.Cached = true
			return res
		}
	}

	pred, err := r.predictor.Predict(msg)
	if err != nil {
		res.Err = err
		return res
	}
	res.Prediction = pred
	if memo != nil {
		memo.Add(msg, pred)
	}
	return res
}

// Summarize counts spam, ham, failures and memo hits
func Summarize(results []Result) Summary {
	return Summary{
		Total:  len(results),
		Failed: lo.CountBy(results, func(r Result) bool { return r.Err != nil }),
		Spam: lo.CountBy(results, func(r Result) bool {
			return r.Err == nil && r.Prediction.IsSpam()
		}),
		Ham: lo.CountBy(results, func(r Result) bool {
			return r.Err == nil && !r.Prediction.IsSpam()
		}),
		CacheHits: lo.CountBy(results, func(r Result) bool { return r.Cached }),
	}
}
