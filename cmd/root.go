package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"falgen/internal/app"
	"falgen/internal/apperr"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "falgen",
	Short: "Generate images, video, and speech with fal.ai",
	Long: `Falgen submits generation jobs to fal.ai, waits for them to finish,
and saves the results locally, optionally mirroring them to Google Cloud Storage.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default config.yaml or $FALGEN_CONFIG)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogger()
	}
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError(err)
	}
	return err
}

func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func printError(err error) {
	_, _ = fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+err.Error()))
	if apperr.Is(err, apperr.MissingCredential) {
		_, _ = fmt.Fprintln(os.Stderr, infoStyle.Render("  "+app.MissingKeyHint))
	}
}
