package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/zpam/sms-filter/pkg/batch"
	"github.com/zpam/sms-filter/pkg/dataset"
	"github.com/zpam/sms-filter/pkg/evaluation"
	"github.com/zpam/sms-filter/pkg/inference"
	"github.com/zpam/sms-filter/pkg/label"
	"github.com/zpam/sms-filter/pkg/profiler"
)

var (
	benchmarkInput      string
	benchmarkRuns       int
	benchmarkConcurrent int
	benchmarkParallel   bool
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Accuracy and latency benchmark on a labeled dataset",
	Long: `Classify every message of a labeled dataset with the trained model, then
report accuracy metrics and per-stage latency (normalize, vectorize, predict).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if benchmarkInput == "" {
			benchmarkInput = cfg.Dataset.Path
		}
		if benchmarkRuns < 1 {
			return fmt.Errorf("runs must be at least 1")
		}
		if !cmd.Flags().Changed("concurrent") {
			benchmarkConcurrent = cfg.Performance.MaxConcurrent
		}

		examples, err := dataset.Load(benchmarkInput, &cfg.Dataset.Options)
		if err != nil {
			return fmt.Errorf("failed to load dataset: %w", err)
		}
		if len(examples) == 0 {
			return fmt.Errorf("no labeled messages found in %s", benchmarkInput)
		}

		prof := profiler.NewProfiler()
		svc, err := loadService(cmd.Context(), cfg, logger, prof)
		if err != nil {
			return err
		}

		fmt.Printf("🚀 ZSMS Benchmark\n")
		fmt.Printf("📁 Dataset: %s\n", benchmarkInput)
		fmt.Printf("📱 Messages: %d\n", len(examples))
		fmt.Printf("🔄 Benchmark runs: %d\n", benchmarkRuns)
		if benchmarkParallel {
			fmt.Printf("🔥 Parallel execution with %d workers\n", benchmarkConcurrent)
		} else {
			fmt.Printf("🐌 Sequential execution\n")
		}
		fmt.Printf("\n")

		result, err := runBenchmark(cmd.Context(), svc, prof, examples, benchmarkRuns, benchmarkParallel, benchmarkConcurrent)
		if err != nil {
			return err
		}
		result.Print(os.Stdout)
		prof.PrintReport(os.Stdout)
		return nil
	},
}

// BenchmarkResult holds the outcome of a benchmark
type BenchmarkResult struct {
	Messages   int
	Runs       int
	TotalTime  time.Duration
	Errors     int
	Metrics    *evaluation.Metrics
	Throughput float64
}

// runBenchmark classifies the examples runs times. Metrics come from the
// first run; predictions are deterministic so later runs only add timings.
func runBenchmark(ctx context.Context, svc batch.Predictor, prof *profiler.Profiler, examples []dataset.Example, runs int, parallel bool, workers int) (*BenchmarkResult, error) {
	messages := lo.Map(examples, func(ex dataset.Example, _ int) string { return ex.Text })
	actual := lo.Map(examples, func(ex dataset.Example, _ int) label.Label { return ex.Label })

	result := &BenchmarkResult{Messages: len(examples), Runs: runs}
	var predicted []label.Label

	start := time.Now()
	for run := 0; run < runs; run++ {
		var preds []inference.Prediction
		var errCount int

		if parallel {
			// no memo: every message must go through the classifier
			results, err := batch.NewRunner(svc, &batch.Options{Workers: workers}).Classify(ctx, messages)
			if err != nil {
				return nil, err
			}
			preds = lo.Map(results, func(r batch.Result, _ int) inference.Prediction { return r.Prediction })
			errCount = batch.Summarize(results).Failed
		} else {
			preds = make([]inference.Prediction, len(messages))
			for i, msg := range messages {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				timer := prof.Start(profiler.StageTotal)
				pred, err := svc.Predict(msg)
				timer.Stop()
				if err != nil {
					errCount++
					continue
				}
				preds[i] = pred
			}
		}

		if run == 0 {
			result.Errors = errCount
			predicted = lo.Map(preds, func(p inference.Prediction, _ int) label.Label { return p.Label })
		}
	}
	result.TotalTime = time.Since(start)

	metrics, err := evaluation.Evaluate(actual, predicted)
	if err != nil {
		return nil, err
	}
	result.Metrics = metrics
	if result.TotalTime > 0 {
		result.Throughput = float64(result.Messages*runs) / result.TotalTime.Seconds()
	}
	return result, nil
}

// Print writes the benchmark report
func (r *BenchmarkResult) Print(w io.Writer) {
	total := r.Messages * r.Runs

	fmt.Fprintf(w, "📊 Benchmark Results\n")
	fmt.Fprintf(w, "═══════════════════════════════════════\n\n")

	fmt.Fprintf(w, "⚡ Performance Metrics:\n")
	fmt.Fprintf(w, "  Total messages processed: %d\n", total)
	fmt.Fprintf(w, "  Total time: %v\n", r.TotalTime)
	if total > 0 {
		fmt.Fprintf(w, "  Average time per message: %.3f ms\n", float64(r.TotalTime.Nanoseconds())/float64(total)/1e6)
	}
	fmt.Fprintf(w, "  Messages per second: %.0f\n", r.Throughput)
	if r.Errors > 0 {
		fmt.Fprintf(w, "  Errors: %d (%.2f%%)\n", r.Errors, float64(r.Errors)/float64(r.Messages)*100)
	}
	fmt.Fprintf(w, "\n")

	r.Metrics.Print(w)
	fmt.Fprintf(w, "\n")
}

func init() {
	benchmarkCmd.Flags().StringVarP(&benchmarkInput, "input", "i", "", "Labeled dataset (default from config)")
	benchmarkCmd.Flags().IntVarP(&benchmarkRuns, "runs", "r", 1, "Number of benchmark runs")
	benchmarkCmd.Flags().IntVarP(&benchmarkConcurrent, "concurrent", "j", 4, "Concurrent workers for --parallel")
	benchmarkCmd.Flags().BoolVar(&benchmarkParallel, "parallel", false, "Classify with the worker pool")
}
