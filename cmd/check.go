package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/zpam/sms-filter/pkg/batch"
	"github.com/zpam/sms-filter/pkg/config"
)

// smsSegment is the length of a single-part SMS
const smsSegment = 160

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Interactively classify messages",
	Long: `Read messages from standard input, one per line, and classify each one.

Type 'quit' or send EOF (Ctrl+D) to exit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		svc, err := loadService(cmd.Context(), cfg, logger, nil)
		if err != nil {
			return err
		}

		fmt.Printf("📱 ZSMS Spam Checker\n")
		fmt.Printf("═══════════════════════════════════════\n")
		fmt.Printf("Model: %s\n", svc.Info())
		fmt.Printf("Enter a message and press Enter ('quit' to exit)\n\n")

		return runCheck(os.Stdin, os.Stdout, cfg, svc)
	},
}

// runCheck is the read-classify-print loop behind the check command
func runCheck(in io.Reader, out io.Writer, cfg *config.Config, svc batch.Predictor) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		message := strings.TrimSpace(scanner.Text())
		if message == "quit" || message == "exit" {
			return nil
		}
		if message == "" {
			fmt.Fprintf(out, "%s\n", color.New(color.FgYellow).Render("⚠️  Please enter a message"))
			fmt.Fprintf(out, "   Enter some text to analyze\n\n")
			continue
		}

		chars := utf8.RuneCountInString(message)
		if chars > smsSegment {
			parts := (chars + smsSegment - 1) / smsSegment
			fmt.Fprintf(out, "📏 %d characters (%d SMS parts)\n", chars, parts)
		} else {
			fmt.Fprintf(out, "📏 %d characters\n", chars)
		}

		fmt.Fprintf(out, "🔍 Analyzing...\n")
		pred, err := svc.Predict(message)
		if err != nil {
			fmt.Fprintf(out, "%s\n", color.New(color.FgRed).Render("❌ Error"))
			fmt.Fprintf(out, "   Could not analyze message: %v\n\n", err)
			continue
		}

		icon := "✅"
		if pred.IsSpam() {
			icon = "🚫"
		}
		fmt.Fprintf(out, "%s %s\n", icon, colorVerdict(cfg, pred))
		fmt.Fprintf(out, "   Confidence: %.1f%%\n\n", pred.Confidence*100)
	}
}
