package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zpam/sms-filter/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `Generate and manage ZSMS configuration files`,
}

var configGenCmd = &cobra.Command{
	Use:   "generate [config-file]",
	Short: "Generate default configuration file",
	Long:  `Generate a default configuration file with all options`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := "config.yaml"
		if len(args) > 0 {
			configPath = args[0]
		}

		if _, err := os.Stat(configPath); err == nil {
			overwrite, _ := cmd.Flags().GetBool("force")
			if !overwrite {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
			}
		}

		if err := config.DefaultConfig().SaveConfig(configPath); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("✅ Configuration file generated: %s\n", configPath)
		fmt.Printf("📝 Edit the file to point at your dataset and model directory\n")
		fmt.Printf("🚀 Use 'zsms train --config %s' to use the configuration\n", configPath)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Long:  `Validate a configuration file for syntax and logical errors`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := args[0]

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("❌ Configuration validation failed: %w", err)
		}

		warnings := validateConfigLogic(cfg)

		fmt.Printf("✅ Configuration is valid: %s\n", configPath)
		if len(warnings) > 0 {
			fmt.Printf("\n⚠️  Warnings:\n")
			for _, warning := range warnings {
				fmt.Printf("  - %s\n", warning)
			}
		}

		printConfigSummary(cfg)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show [config-file]",
	Short: "Show current configuration",
	Long:  `Display the effective configuration, defaults and environment overrides included`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFile
		if len(args) > 0 {
			path = args[0]
		}
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if path != "" {
			fmt.Printf("Configuration: %s\n", path)
		} else {
			fmt.Printf("Default Configuration:\n")
		}
		printConfigSummary(cfg)
		return nil
	},
}

func printConfigSummary(cfg *config.Config) {
	fmt.Printf("\n📊 Configuration Summary:\n")
	fmt.Printf("  Dataset: %s (label %q, text %q, encoding %s)\n",
		cfg.Dataset.Path, cfg.Dataset.LabelColumn, cfg.Dataset.TextColumn, cfg.Dataset.Encoding)
	fmt.Printf("  Max features: %d\n", cfg.Vectorizer.MaxFeatures)
	fmt.Printf("  Test size: %.2f (seed %d)\n", cfg.Training.TestSize, cfg.Training.Seed)
	fmt.Printf("  Alpha: %.2f\n", cfg.Training.Alpha)
	fmt.Printf("  Model backend: %s\n", cfg.Model.Backend)
	fmt.Printf("  Model location: %s\n", describeModelDir(cfg))

	fmt.Printf("\n⚡ Performance:\n")
	fmt.Printf("  Max concurrent: %d\n", cfg.Performance.MaxConcurrent)
	fmt.Printf("  Cache size: %d\n", cfg.Performance.CacheSize)

	fmt.Printf("\n📝 Logging: level %s, format %s", cfg.Logging.Level, cfg.Logging.Format)
	if cfg.Logging.File != "" {
		fmt.Printf(", file %s", cfg.Logging.File)
	}
	fmt.Printf("\n")
}

// validateConfigLogic reports settings that are valid but probably unintended
func validateConfigLogic(cfg *config.Config) []string {
	var warnings []string

	if cfg.Training.TestSize == 0 {
		warnings = append(warnings, "Test size is 0 - no hold-out evaluation will be reported")
	}
	if cfg.Training.TestSize > 0.5 {
		warnings = append(warnings, "More than half of the dataset is held out from training")
	}
	if cfg.Vectorizer.MaxFeatures == 0 {
		warnings = append(warnings, "Vocabulary is unlimited - model size grows with the dataset")
	}
	if !cfg.Training.FitPrior {
		warnings = append(warnings, "Class priors are uniform - ties between classes become more frequent")
	}
	if cfg.Performance.MaxConcurrent > 64 {
		warnings = append(warnings, "High concurrency setting might not improve throughput")
	}
	if _, err := os.Stat(cfg.Dataset.Path); err != nil {
		warnings = append(warnings, fmt.Sprintf("Dataset %s is not readable: %v", cfg.Dataset.Path, err))
	}

	return warnings
}

func init() {
	configCmd.AddCommand(configGenCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configGenCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
