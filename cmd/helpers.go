package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"falgen/internal/app"
	"falgen/internal/catalog"
	"falgen/internal/pricing"
	"falgen/pkg/config"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// buildService loads config and checks for the fal key before any other work
// happens.
func buildService(ctx context.Context) (*app.BuildResult, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	apiKey, err := app.ResolveAPIKey(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return app.BuildService(ctx, cfg, apiKey), nil
}

func joinArgs(args []string, what string) (string, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return "", fmt.Errorf("%s is required", what)
	}
	return text, nil
}

// modelFlag prefers an explicit --model over the configured default.
func modelFlag(cmd *cobra.Command, value, configured string) string {
	if cmd.Flags().Changed("model") || configured == "" {
		return value
	}
	return configured
}

// runWithProgress shows a spinner while fn runs when stdout is a terminal.
func runWithProgress(ctx context.Context, title string, fn func(context.Context) error) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		fmt.Println(infoStyle.Render(title + "..."))
		return fn(ctx)
	}
	return withSpinner(ctx, spinner.New().Title(title), fn)
}

// withSpinner runs fn in its own goroutine and waits for it to return even
// when the spinner stops early, so fn's writes are visible to the caller.
func withSpinner(ctx context.Context, s *spinner.Spinner, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- fn(ctx) }()

	_ = s.Context(ctx).
		ActionWithErr(func(spinCtx context.Context) error {
			select {
			case err := <-result:
				result <- err
				return nil
			case <-spinCtx.Done():
				return spinCtx.Err()
			}
		}).
		Run()

	cancel()
	return <-result
}

func openArtifact(path string) {
	if path == "" {
		return
	}
	_ = browser.OpenFile(path)
}

func printArtifact(label string, a app.Artifact) {
	if a.URL == "" {
		return
	}
	if a.Err != nil {
		fmt.Println(errorStyle.Render("✗ " + label + " download failed"))
		fmt.Println(infoStyle.Render("  URL: " + a.URL))
		return
	}
	fmt.Println(successStyle.Render("✓ " + label + " saved: " + a.Path))
	if a.Remote != "" {
		fmt.Println(dimStyle.Render("  Mirrored to: " + a.Remote))
	}
}

func printSeed(seed *int64) {
	if seed != nil {
		fmt.Println(dimStyle.Render(fmt.Sprintf("  Seed: %d", *seed)))
	}
}

func printEstimate(est *pricing.Estimate) {
	if est == nil {
		fmt.Println(dimStyle.Render("  Cost estimate unavailable"))
		return
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf("  Estimated cost: $%.4f (%s)", est.Cost, est.Breakdown)))
}

func printModels(category catalog.Category, defaultName string) {
	fmt.Println(titleStyle.Render(category.Title() + " models"))
	for _, entry := range catalog.Models(category) {
		marker := "  "
		if entry.Name == defaultName {
			marker = "* "
		}
		line := fmt.Sprintf("%s%-20s %-48s %s", marker, entry.Name, entry.ID, priceLabel(category, entry.ID))
		fmt.Println(strings.TrimRight(line, " "))
	}
	fmt.Println()
}

// priceLabel renders the unit price for a model. Text-to-video models are
// quoted for a default-length clip.
func priceLabel(category catalog.Category, modelID string) string {
	if category == catalog.TextVideo {
		if est, ok := pricing.EstimateVideo(modelID, 5); ok {
			return fmt.Sprintf("~$%.2f/5s", est.Cost)
		}
		return "pricing N/A"
	}

	entry, ok := pricing.Lookup(modelID)
	if !ok {
		return "pricing N/A"
	}
	return fmt.Sprintf("$%s/%s", trimFloat(entry.UnitPrice), unitLabel(entry.Unit))
}

func unitLabel(u pricing.Unit) string {
	switch u {
	case pricing.Megapixels:
		return "MP"
	case pricing.Images:
		return "image"
	case pricing.Seconds:
		return "second"
	case pricing.ComputeSeconds:
		return "compute second"
	case pricing.Videos:
		return "video"
	case pricing.Characters1000:
		return "1K chars"
	case pricing.Minutes:
		return "minute"
	case pricing.PerRequest:
		return "request"
	default:
		return string(u)
	}
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.5f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
