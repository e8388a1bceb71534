package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/zpam/sms-filter/pkg/batch"
	"github.com/zpam/sms-filter/pkg/dataset"
)

var (
	inputPath   string
	outputPath  string
	filterSpam  bool
	concurrency int
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Classify a file of messages",
	Long: `Classify every message in a CSV/TSV file (text column from config) or a
plain text file (one message per line) and write label,confidence,message rows
as CSV.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputPath == "" {
			return fmt.Errorf("input path is required")
		}

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if !cmd.Flags().Changed("concurrency") {
			concurrency = cfg.Performance.MaxConcurrent
		}

		messages, err := dataset.LoadMessages(inputPath, &cfg.Dataset.Options)
		if err != nil {
			return fmt.Errorf("failed to read messages: %w", err)
		}

		svc, err := loadService(cmd.Context(), cfg, logger, nil)
		if err != nil {
			return err
		}

		var out io.Writer = os.Stdout
		summaryOut := os.Stderr
		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			out = f
			summaryOut = os.Stdout
		}

		start := time.Now()
		runner := batch.NewRunner(svc, &batch.Options{Workers: concurrency, CacheSize: cfg.Performance.CacheSize})
		results, err := runner.Classify(cmd.Context(), messages)
		if err != nil {
			return fmt.Errorf("failed to classify messages: %w", err)
		}
		duration := time.Since(start)

		if err := writeResults(out, results, filterSpam); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}

		summary := batch.Summarize(results)
		fmt.Fprintf(summaryOut, "ZSMS Processing Complete!\n")
		fmt.Fprintf(summaryOut, "Messages processed: %d\n", summary.Total)
		fmt.Fprintf(summaryOut, "Spam detected: %d\n", summary.Spam)
		fmt.Fprintf(summaryOut, "Ham (clean): %d\n", summary.Ham)
		if summary.Failed > 0 {
			fmt.Fprintf(summaryOut, "Failed: %d\n", summary.Failed)
		}
		if summary.CacheHits > 0 {
			fmt.Fprintf(summaryOut, "Repeated messages: %d\n", summary.CacheHits)
		}
		if summary.Total > 0 {
			fmt.Fprintf(summaryOut, "Average processing time: %.3fms per message\n",
				float64(duration.Nanoseconds())/float64(summary.Total)/1e6)
		}
		fmt.Fprintf(summaryOut, "Total time: %v\n", duration)
		return nil
	},
}

// writeResults emits label,confidence,message rows. Failed messages get the
// label ERROR and an empty confidence.
func writeResults(w io.Writer, results []batch.Result, spamOnly bool) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"label", "confidence", "message"}); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{"ERROR", "", r.Message}
		if r.Err == nil {
			if spamOnly && !r.Prediction.IsSpam() {
				continue
			}
			row[0] = r.Prediction.Label.String()
			row[1] = strconv.FormatFloat(r.Prediction.Confidence, 'f', 4, 64)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func init() {
	filterCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input file (csv, tsv or one message per line)")
	filterCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output CSV file (default stdout)")
	filterCmd.Flags().BoolVarP(&filterSpam, "spam-only", "s", false, "Only write messages classified as spam")
	filterCmd.Flags().IntVarP(&concurrency, "concurrency", "j", 4, "Concurrent workers (default from config)")
}
