package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/zpam/sms-filter/pkg/inference"
	"github.com/zpam/sms-filter/pkg/learning"
)

var (
	statsTop  int
	statsJSON bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show model information and the most telling terms",
	Args:  cobra.NoArgs,
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

		b := svc.Bundle()
		terms := b.Vectorizer.Terms()
		spamTerms := b.Classifier.TopTerms(terms, statsTop, true)
		hamTerms := b.Classifier.TopTerms(terms, statsTop, false)

		if statsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Model     inference.Info        `json:"model"`
				SpamTerms []*learning.TermStats `json:"spam_terms"`
				HamTerms  []*learning.TermStats `json:"ham_terms"`
			}{svc.Info(), spamTerms, hamTerms})
		}

		info := svc.Info()
		fmt.Printf("🧠 ZSMS Model\n")
		fmt.Printf("═══════════════════════════════════════\n")
		fmt.Printf("💾 Store: %s\n", describeModelDir(cfg))
		fmt.Printf("📚 Vocabulary: %d terms\n", info.Vocabulary)
		fmt.Printf("📊 Training messages: %d spam, %d ham (spam prior %.3f)\n",
			info.SpamMessages, info.HamMessages, info.SpamPrior)
		fmt.Printf("⚙️  Alpha: %.2f\n", info.Alpha)
		fmt.Printf("🔤 Resources: %s\n", info.Resources)
		fmt.Printf("🔑 Fingerprint: %s\n", info.Fingerprint)

		fmt.Printf("\n📈 Top Spam Terms:\n")
		printTermTable(os.Stdout, spamTerms)
		fmt.Printf("\n📉 Top Ham Terms:\n")
		printTermTable(os.Stdout, hamTerms)
		return nil
	},
}

func printTermTable(w io.Writer, terms []*learning.TermStats) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Term", "Spam weight", "Ham weight", "Log ratio"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})
	table.SetBorder(false)

	for i, t := range terms {
		table.Append([]string{
			strconv.Itoa(i + 1),
			t.Term,
			strconv.FormatFloat(t.SpamWeight, 'f', 3, 64),
			strconv.FormatFloat(t.HamWeight, 'f', 3, 64),
			strconv.FormatFloat(t.Spamminess, 'f', 3, 64),
		})
	}
	table.Render()
}

func init() {
	statsCmd.Flags().IntVarP(&statsTop, "top", "n", 15, "Number of terms per class")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print as JSON")
}
