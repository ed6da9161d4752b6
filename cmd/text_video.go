package cmd

import (
	"context"
	"fmt"

	"falgen/internal/app"
	"falgen/internal/catalog"
	"falgen/internal/request"

	"github.com/spf13/cobra"
)

var (
	t2vModel      string
	t2vAspect     string
	t2vResolution string
	t2vDuration   float64
	t2vSeed       int
	t2vOutput     string
	t2vOpen       bool
	t2vListModels bool
)

var textVideoCmd = &cobra.Command{
	Use:   "text-video <prompt>",
	Short: "Generate a video from a text prompt",
	Long:  `Generate a video with a fal.ai text-to-video model and save the resulting MP4.`,
	RunE:  runTextVideo,
}

func init() {
	textVideoCmd.Flags().StringVarP(&t2vModel, "model", "m", catalog.DefaultT2VModel, "Model shortname or fal endpoint id")
	textVideoCmd.Flags().StringVarP(&t2vAspect, "aspect", "a", request.DefaultT2VAspect, "Aspect ratio")
	textVideoCmd.Flags().StringVarP(&t2vResolution, "resolution", "r", request.DefaultT2VResolution, "Resolution")
	textVideoCmd.Flags().Float64VarP(&t2vDuration, "duration", "d", 0, "Duration in seconds (model default when unset)")
	textVideoCmd.Flags().IntVarP(&t2vSeed, "seed", "s", 0, "Random seed")
	textVideoCmd.Flags().StringVarP(&t2vOutput, "output", "o", "", "Output file")
	textVideoCmd.Flags().BoolVar(&t2vOpen, "open", false, "Open the video after download")
	textVideoCmd.Flags().BoolVar(&t2vListModels, "list-models", false, "List available models with the cost of a 5s clip")
	rootCmd.AddCommand(textVideoCmd)
}

func runTextVideo(cmd *cobra.Command, args []string) error {
	if t2vListModels {
		return listModels(catalog.TextVideo)
	}

	prompt, err := joinArgs(args, "prompt")
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	built, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer built.Close()

	svc := built.Service
	params := request.TextVideoParams{
		Prompt:     prompt,
		Model:      modelFlag(cmd, t2vModel, svc.Config().Models.TextVideo),
		Aspect:     t2vAspect,
		Resolution: t2vResolution,
	}
	if cmd.Flags().Changed("duration") {
		params.Duration = &t2vDuration
	}
	if cmd.Flags().Changed("seed") {
		params.Seed = &t2vSeed
	}

	var outcome *app.MediaOutcome
	title := fmt.Sprintf("Generating video with %s", catalog.Resolve(catalog.TextVideo, params.Model))
	err = runWithProgress(ctx, title, func(ctx context.Context) error {
		var genErr error
		outcome, genErr = svc.GenerateTextVideo(ctx, params, t2vOutput)
		return genErr
	})

	printMediaOutcome("Video", outcome, t2vOpen)
	return err
}
