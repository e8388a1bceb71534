package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zpam/sms-filter/pkg/config"
	"github.com/zpam/sms-filter/pkg/inference"
	"github.com/zpam/sms-filter/pkg/logging"
	"github.com/zpam/sms-filter/pkg/model"
	"github.com/zpam/sms-filter/pkg/profiler"
	"github.com/zpam/sms-filter/pkg/text"
)

var (
	configFile string
	modelDir   string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "zsms",
	Short: "ZSMS - SMS spam classifier",
	Long: `ZSMS classifies short text messages as SPAM or HAM.

It trains a TF-IDF + multinomial Naive Bayes model from a labeled CSV dataset,
stores the vectorizer and classifier as a paired set of artifacts, and uses
them to classify single messages or whole files.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ZSMS - SMS Spam Classifier")
		fmt.Println("Use 'zsms --help' for usage information")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&modelDir, "model-dir", "m", "", "Directory holding model artifacts (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(benchmarkCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(quickstartCmd)
}

// setup loads configuration, applies global flag overrides and builds the
// logger every command shares.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if modelDir != "" {
		cfg.Model.Dir = modelDir
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

// openStore returns the artifact store selected by the config. The returned
// close function is never nil.
func openStore(cfg *config.Config) (model.Store, func(), error) {
	switch cfg.Model.Backend {
	case "redis":
		rs, err := model.NewRedisStore(&cfg.Model.Redis)
		if err != nil {
			return nil, func() {}, err
		}
		return rs, func() { rs.Close() }, nil
	default:
		fs := model.NewFileStore(cfg.Model.Dir, cfg.Model.VectorizerFile, cfg.Model.ClassifierFile)
		return fs, func() {}, nil
	}
}

// loadService opens the configured store and loads the classifier from it
func loadService(ctx context.Context, cfg *config.Config, logger *zap.Logger, prof *profiler.Profiler) (*inference.Service, error) {
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open model store: %w", err)
	}
	defer closeStore()

	svc, err := inference.Load(ctx, store, text.DefaultResources(),
		inference.WithMaxInputLength(cfg.Inference.MaxInputLength),
		inference.WithLogger(logger),
		inference.WithProfiler(prof),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load model from %s: %w", store.Describe(), err)
	}
	return svc, nil
}

// verdict renders a prediction using the configured label texts
func verdict(cfg *config.Config, pred inference.Prediction) string {
	if pred.IsSpam() {
		return cfg.Inference.SpamLabelText
	}
	return cfg.Inference.HamLabelText
}

func describeModelDir(cfg *config.Config) string {
	if cfg.Model.Backend == "redis" {
		return cfg.Model.Redis.URL + " (" + cfg.Model.Redis.KeyPrefix + ")"
	}
	abs, err := filepath.Abs(cfg.Model.Dir)
	if err != nil {
		return cfg.Model.Dir
	}
	return abs
}
