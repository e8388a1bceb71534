package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zpam/sms-filter/pkg/config"
	"github.com/zpam/sms-filter/pkg/model"
	"github.com/zpam/sms-filter/pkg/text"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show model store health",
	Long: `Display the state of the model store:
- Backend and artifact location
- Whether the artifact pair loads and is consistent
- Training data counts and vocabulary size
- Health recommendations`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		status := collectModelStatus(cmd.Context(), cfg)
		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		}
		printStatusDashboard(status)
		return nil
	},
}

// ArtifactStatus describes one stored artifact file
type ArtifactStatus struct {
	Path     string    `json:"path"`
	Present  bool      `json:"present"`
	Size     int64     `json:"size,omitempty"`
	Modified time.Time `json:"modified,omitempty"`
}

// ModelStatus is the state of the configured model store
type ModelStatus struct {
	Backend     string           `json:"backend"`
	Location    string           `json:"location"`
	Reachable   bool             `json:"reachable"`
	Loadable    bool             `json:"loadable"`
	LoadError   string           `json:"load_error,omitempty"`
	Artifacts   []ArtifactStatus `json:"artifacts,omitempty"`
	Vocabulary  int              `json:"vocabulary"`
	Spam        int              `json:"spam_messages"`
	Ham         int              `json:"ham_messages"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	Resources   string           `json:"resources,omitempty"`
	Health      HealthStatus     `json:"health"`
	Timestamp   time.Time        `json:"timestamp"`
}

// HealthStatus summarizes problems found
type HealthStatus struct {
	Overall         string   `json:"overall"`
	Issues          []string `json:"issues"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

func collectModelStatus(ctx context.Context, cfg *config.Config) *ModelStatus {
	status := &ModelStatus{
		Backend:   cfg.Model.Backend,
		Location:  describeModelDir(cfg),
		Timestamp: time.Now(),
	}

	if cfg.Model.Backend == "file" {
		fs := model.NewFileStore(cfg.Model.Dir, cfg.Model.VectorizerFile, cfg.Model.ClassifierFile)
		status.Reachable = true
		for _, path := range []string{fs.VectorizerPath(), fs.ClassifierPath()} {
			a := ArtifactStatus{Path: path}
			if info, err := os.Stat(path); err == nil {
				a.Present = true
				a.Size = info.Size()
				a.Modified = info.ModTime()
			}
			status.Artifacts = append(status.Artifacts, a)
		}
	}

	store, closeStore, err := openStore(cfg)
	defer closeStore()
	if err != nil {
		status.LoadError = err.Error()
		status.Health = assessHealth(status)
		return status
	}
	status.Reachable = true

	b, err := store.Load(ctx)
	if err != nil {
		status.LoadError = err.Error()
		status.Health = assessHealth(status)
		return status
	}

	info := b.Classifier.GetModelInfo()
	status.Loadable = true
	status.Vocabulary = b.Vectorizer.Dim()
	status.Spam = info.SpamMessages
	status.Ham = info.HamMessages
	status.Fingerprint = b.Fingerprint()
	status.Resources = b.Resources
	status.Health = assessHealth(status)
	return status
}

func assessHealth(status *ModelStatus) HealthStatus {
	health := HealthStatus{
		Issues:          []string{},
		Warnings:        []string{},
		Recommendations: []string{},
	}

	switch {
	case !status.Reachable:
		health.Issues = append(health.Issues, fmt.Sprintf("Model store %s is not reachable", status.Location))
		if status.Backend == "redis" {
			health.Recommendations = append(health.Recommendations, "Check the Redis URL or switch to the file backend")
		}
	case !status.Loadable:
		health.Issues = append(health.Issues, "Model artifacts cannot be loaded")
		health.Recommendations = append(health.Recommendations, "Train a model with: zsms train <dataset.csv>")
	}

	if status.Loadable {
		if status.Resources != text.DefaultVersion {
			health.Issues = append(health.Issues,
				fmt.Sprintf("Model was built with resources %q, this build uses %q", status.Resources, text.DefaultVersion))
			health.Recommendations = append(health.Recommendations, "Retrain the model with this version of zsms")
		}
		if status.Spam < 100 {
			health.Warnings = append(health.Warnings, "Low spam training data (< 100 messages)")
		}
		if status.Ham < 100 {
			health.Warnings = append(health.Warnings, "Low ham training data (< 100 messages)")
		}
		if len(health.Warnings) > 0 {
			health.Recommendations = append(health.Recommendations, "Train on a larger labeled dataset")
		}
	}

	if len(health.Issues) > 0 {
		health.Overall = "CRITICAL"
	} else if len(health.Warnings) > 0 {
		health.Overall = "WARNING"
	} else {
		health.Overall = "HEALTHY"
	}
	return health
}

func printStatusDashboard(status *ModelStatus) {
	fmt.Printf("📱 ZSMS Model Status\n")
	fmt.Printf("═══════════════════════════════════════\n\n")

	fmt.Printf("💾 Store\n")
	fmt.Printf("  Backend: %s\n", status.Backend)
	fmt.Printf("  Location: %s\n", status.Location)
	for _, a := range status.Artifacts {
		if a.Present {
			fmt.Printf("  ✅ %s (%.1f KB, modified %s)\n", a.Path, float64(a.Size)/1024, formatTimeAgo(a.Modified))
		} else {
			fmt.Printf("  ❌ %s (missing)\n", a.Path)
		}
	}
	fmt.Printf("\n")

	fmt.Printf("🧠 Model\n")
	if status.Loadable {
		fmt.Printf("  Status: ✅ Loaded\n")
		fmt.Printf("  Vocabulary: %d terms\n", status.Vocabulary)
		fmt.Printf("  Spam Learned: %d\n", status.Spam)
		fmt.Printf("  Ham Learned: %d\n", status.Ham)
		fmt.Printf("  Resources: %s\n", status.Resources)
		fmt.Printf("  Fingerprint: %s\n", status.Fingerprint)
	} else {
		fmt.Printf("  Status: ❌ Not loadable\n")
		if status.LoadError != "" {
			fmt.Printf("  Error: %s\n", status.LoadError)
		}
	}
	fmt.Printf("\n")

	healthIcon := "✅"
	switch status.Health.Overall {
	case "WARNING":
		healthIcon = "⚠️"
	case "CRITICAL":
		healthIcon = "❌"
	}
	fmt.Printf("🏥 Health Assessment: %s %s\n", healthIcon, status.Health.Overall)

	if len(status.Health.Issues) > 0 {
		fmt.Printf("\n❌ Issues:\n")
		for _, issue := range status.Health.Issues {
			fmt.Printf("  • %s\n", issue)
		}
	}

	if len(status.Health.Warnings) > 0 {
		fmt.Printf("\n⚠️  Warnings:\n")
		for _, warning := range status.Health.Warnings {
			fmt.Printf("  • %s\n", warning)
		}
	}

	if len(status.Health.Recommendations) > 0 {
		fmt.Printf("\n💡 Recommendations:\n")
		for _, rec := range status.Health.Recommendations {
			fmt.Printf("  • %s\n", rec)
		}
	}

	fmt.Printf("\nLast updated: %s\n", status.Timestamp.Format("2006-01-02 15:04:05"))
}

func formatTimeAgo(t time.Time) string {
	duration := time.Since(t)
	if duration < time.Minute {
		return "just now"
	}
	if duration < time.Hour {
		return fmt.Sprintf("%d minutes ago", int(duration.Minutes()))
	}
	if duration < 24*time.Hour {
		return fmt.Sprintf("%d hours ago", int(duration.Hours()))
	}
	return fmt.Sprintf("%d days ago", int(duration.Hours()/24))
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output status in JSON format")
}
