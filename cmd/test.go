package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/zpam/sms-filter/pkg/config"
	"github.com/zpam/sms-filter/pkg/inference"
)

var (
	testFile string
	testJSON bool
)

var testCmd = &cobra.Command{
	Use:   "test [message]",
	Short: "Classify a single message",
	Long: `Classify one message and print its label and confidence.

The message is taken from the argument or read from --file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var message string
		switch {
		case len(args) > 0:
			message = args[0]
		case testFile != "":
			data, err := os.ReadFile(testFile)
			if err != nil {
				return fmt.Errorf("failed to read message: %w", err)
			}
			message = strings.TrimRight(string(data), "\r\n")
		default:
			return fmt.Errorf("a message argument or --file is required")
		}

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		svc, err := loadService(cmd.Context(), cfg, logger, nil)
		if err != nil {
			return err
		}

		start := time.Now()
		pred, err := svc.Predict(message)
		if err != nil {
			return fmt.Errorf("failed to classify message: %w", err)
		}
		duration := time.Since(start)

		if testJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Message string `json:"message"`
				inference.Prediction
				Verdict string `json:"verdict"`
			}{message, pred, verdict(cfg, pred)})
		}

		fmt.Printf("ZSMS Test Results:\n")
		fmt.Printf("Message: %s\n", message)
		fmt.Printf("Classification: %s\n", colorVerdict(cfg, pred))
		fmt.Printf("Confidence: %.1f%%\n", pred.Confidence*100)
		fmt.Printf("Spam probability: %.4f\n", pred.SpamProbability)
		fmt.Printf("Normalized: %q\n", pred.Normalized)
		fmt.Printf("Processing time: %.2fms\n", float64(duration.Nanoseconds())/1e6)
		return nil
	},
}

// colorVerdict renders the verdict red for spam and green for ham
func colorVerdict(cfg *config.Config, pred inference.Prediction) string {
	text := verdict(cfg, pred)
	if pred.IsSpam() {
		return color.New(color.FgRed, color.OpBold).Render(text)
	}
	return color.New(color.FgGreen, color.OpBold).Render(text)
}

func init() {
	testCmd.Flags().StringVarP(&testFile, "file", "f", "", "Read the message from a file")
	testCmd.Flags().BoolVar(&testJSON, "json", false, "Print the result as JSON")
}
