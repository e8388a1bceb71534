package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zpam/sms-filter/pkg/config"
	"github.com/zpam/sms-filter/pkg/dataset"
	"github.com/zpam/sms-filter/pkg/inference"
	"github.com/zpam/sms-filter/pkg/logging"
	"github.com/zpam/sms-filter/pkg/model"
	"github.com/zpam/sms-filter/pkg/text"
	"github.com/zpam/sms-filter/pkg/training"
)

var (
	quickstartDir   string
	quickstartForce bool
)

var quickstartCmd = &cobra.Command{
	Use:   "quickstart",
	Short: "Set up a working model in one step",
	Long: `Create a config file, a synthetic labeled dataset and a trained model in
a working directory, then classify a few sample messages with it.

Use a real dataset afterwards with: zsms train --config <dir>/config.yaml <dataset.csv>`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuickstart(cmd.Context(), quickstartDir, quickstartForce)
	},
}

// quickstartSamples are classified once the model is trained
var quickstartSamples = []string{
	"WINNER!! You have been selected to receive a free holiday. Call 87121 now!",
	"Hey Sam, are we still on for lunch tomorrow?",
	"URGENT! Your mobile number has won a £1000 cash prize. Reply YES",
	"Running late, see you at the station around 7pm",
}

func runQuickstart(ctx context.Context, dir string, force bool) error {
	fmt.Printf("📱 ZSMS Quickstart\n")
	fmt.Printf("════════════════════════════════════════════════\n\n")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	cfg := config.DefaultConfig()
	cfg.Dataset.Path = filepath.Join(dir, "synthetic_sms.csv")
	cfg.Model.Dir = filepath.Join(dir, "model")

	fmt.Printf("⚙️ Step 1: Writing configuration...\n")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := cfg.SaveConfig(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Printf("  ✅ Configuration saved: %s\n\n", configPath)

	fmt.Printf("🧪 Step 2: Generating a synthetic dataset...\n")
	f, err := os.Create(cfg.Dataset.Path)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	examples := NewSMSGenerator(cfg.Training.Seed).Generate(150, 350)
	err = dataset.Write(f, examples)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	fmt.Printf("  ✅ %d messages written to %s\n\n", len(examples), cfg.Dataset.Path)

	fmt.Printf("🧠 Step 3: Training...\n")
	logger, err := logging.New(config.LoggingConfig{Level: "warn", Format: "console"})
	if err != nil {
		return err
	}
	defer logger.Sync()

	bundle, report, err := training.NewPipeline(training.OptionsFromConfig(cfg), text.DefaultResources(), logger).
		Train(ctx, cfg.Dataset.Path)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	store := model.NewFileStore(cfg.Model.Dir, cfg.Model.VectorizerFile, cfg.Model.ClassifierFile)
	if err := store.Save(ctx, bundle); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	report.Print(os.Stdout)
	fmt.Printf("  ✅ Model saved to %s\n\n", cfg.Model.Dir)

	fmt.Printf("🔍 Step 4: Classifying sample messages...\n")
	svc, err := inference.New(bundle, text.DefaultResources(), inference.WithLogger(logger))
	if err != nil {
		return err
	}
	for _, msg := range quickstartSamples {
		pred, err := svc.Predict(msg)
		if err != nil {
			fmt.Printf("  ❌ %s: %v\n", msg, err)
			continue
		}
		fmt.Printf("  %-14s %5.1f%%  %s\n", verdict(cfg, pred), pred.Confidence*100, msg)
	}

	fmt.Printf("\n🚀 You're ready to go! Try:\n")
	fmt.Printf("  zsms check --config %s\n", configPath)
	fmt.Printf("  zsms stats --config %s\n", configPath)
	fmt.Printf("  zsms benchmark --config %s\n", configPath)
	return nil
}

func init() {
	quickstartCmd.Flags().StringVarP(&quickstartDir, "dir", "d", "zsms-quickstart", "Working directory")
	quickstartCmd.Flags().BoolVarP(&quickstartForce, "force", "f", false, "Overwrite an existing quickstart setup")
}
