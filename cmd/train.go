package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zpam/sms-filter/pkg/profiler"
	"github.com/zpam/sms-filter/pkg/text"
	"github.com/zpam/sms-filter/pkg/training"
)

var (
	trainDataset     string
	trainMaxFeatures int
	trainTestSize    float64
	trainSeed        int64
	trainProfile     bool
	trainStats       bool
)

var trainCmd = &cobra.Command{
	Use:   "train [dataset]",
	Short: "Train the spam classifier from a labeled dataset",
	Long: `Train the TF-IDF vectorizer and Naive Bayes classifier from a labeled CSV
dataset (label column "ham"/"spam", text column) and save both artifacts.

The dataset path comes from the argument, --dataset, or the config file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		path := cfg.Dataset.Path
		if trainDataset != "" {
			path = trainDataset
		}
		if len(args) > 0 {
			path = args[0]
		}
		if cmd.Flags().Changed("max-features") {
			cfg.Vectorizer.MaxFeatures = trainMaxFeatures
		}
		if cmd.Flags().Changed("test-size") {
			cfg.Training.TestSize = trainTestSize
		}
		if cmd.Flags().Changed("seed") {
			cfg.Training.Seed = trainSeed
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid training options: %w", err)
		}

		store, closeStore, err := openStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open model store: %w", err)
		}
		defer closeStore()

		fmt.Printf("🧠 ZSMS Training\n")
		fmt.Printf("═══════════════════════════════════════\n")
		fmt.Printf("📁 Dataset: %s\n", path)
		fmt.Printf("🔤 Max features: %d\n", cfg.Vectorizer.MaxFeatures)
		fmt.Printf("🎲 Test size: %.2f (seed %d)\n", cfg.Training.TestSize, cfg.Training.Seed)
		fmt.Printf("💾 Model store: %s\n\n", store.Describe())

		var prof *profiler.Profiler
		if trainProfile {
			prof = profiler.NewProfiler()
		}

		pipeline := training.NewPipeline(training.OptionsFromConfig(cfg), text.DefaultResources(), logger).
			WithProfiler(prof)

		bundle, report, err := pipeline.Train(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("training failed: %w", err)
		}

		if err := store.Save(cmd.Context(), bundle); err != nil {
			return fmt.Errorf("failed to save model: %w", err)
		}

		fmt.Printf("🎉 Training Complete!\n")
		report.Print(os.Stdout)
		fmt.Printf("\n💾 Model saved to: %s\n", store.Describe())

		if trainStats {
			fmt.Printf("\n")
			bundle.Classifier.PrintStats(os.Stdout, bundle.Vectorizer.Terms())
		}
		if prof != nil {
			fmt.Printf("\n")
			prof.PrintReport(os.Stdout)
		}
		return nil
	},
}

func init() {
	trainCmd.Flags().StringVarP(&trainDataset, "dataset", "d", "", "Labeled dataset path (overrides config)")
	trainCmd.Flags().IntVar(&trainMaxFeatures, "max-features", 3000, "Vocabulary size cap (0 = unlimited)")
	trainCmd.Flags().Float64Var(&trainTestSize, "test-size", 0.2, "Fraction of rows held out for evaluation")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 42, "Random seed for the train/test split")
	trainCmd.Flags().BoolVarP(&trainProfile, "profile", "p", false, "Print per-stage timings")
	trainCmd.Flags().BoolVarP(&trainStats, "stats", "s", false, "Print model statistics after training")
}
