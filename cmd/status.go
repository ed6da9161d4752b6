package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check which credentials and integrations are configured",
	Long:  `Report the fal API key source, Google Cloud settings, and the loaded config file.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Println(infoStyle.Render("\nFalgen Status:\n"))

	switch {
	case cfg.FalAPIKey != "":
		fmt.Println(successStyle.Render("✓ fal: API key configured"))
	case cfg.GCPProject != "" && cfg.Secrets.FalKeySecret != "":
		fmt.Println(successStyle.Render(fmt.Sprintf("✓ fal: API key from Secret Manager (%s in %s)", cfg.Secrets.FalKeySecret, cfg.GCPProject)))
	default:
		fmt.Println(errorStyle.Render("✗ fal: missing FAL_API_KEY"))
		fmt.Println(infoStyle.Render("  Run: falgen setup"))
	}

	if cfg.GCPProject != "" {
		fmt.Println(successStyle.Render("✓ Google Cloud: project " + cfg.GCPProject))
	} else {
		fmt.Println(infoStyle.Render("○ Google Cloud: not configured (optional)"))
	}

	switch {
	case cfg.GCS.Enabled && cfg.GCS.Bucket != "":
		fmt.Println(successStyle.Render(fmt.Sprintf("✓ GCS mirror: gs://%s/%s", cfg.GCS.Bucket, cfg.GCS.Prefix)))
	case cfg.GCS.Enabled:
		fmt.Println(errorStyle.Render("✗ GCS mirror: enabled but no bucket set"))
	default:
		fmt.Println(infoStyle.Render("○ GCS mirror: disabled (optional)"))
	}

	if cfg.Path != "" {
		fmt.Println(successStyle.Render("✓ Config: " + cfg.Path))
	} else {
		fmt.Println(infoStyle.Render("○ Config: none found, using defaults"))
	}
	fmt.Println(dimStyle.Render("  Queue: " + cfg.Fal.QueueURL))
	fmt.Println(dimStyle.Render("  Output: " + cfg.Output.Dir))

	fmt.Println()
	return nil
}
