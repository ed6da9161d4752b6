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
	videoPrompt     string
	videoModel      string
	videoDuration   float64
	videoAspect     string
	videoOutput     string
	videoOpen       bool
	videoListModels bool
)

var videoCmd = &cobra.Command{
	Use:   "video <image>",
	Short: "Animate a still image into a video",
	Long:  `Send a local image to a fal.ai image-to-video model and save the resulting MP4.`,
	RunE:  runVideo,
}

func init() {
	videoCmd.Flags().StringVarP(&videoPrompt, "prompt", "p", "", "Motion prompt")
	videoCmd.Flags().StringVarP(&videoModel, "model", "m", catalog.DefaultVideoModel, "Model shortname or fal endpoint id")
	videoCmd.Flags().Float64VarP(&videoDuration, "duration", "d", request.DefaultVideoDuration, "Duration in seconds")
	videoCmd.Flags().StringVarP(&videoAspect, "aspect", "a", "", "Aspect ratio")
	videoCmd.Flags().StringVarP(&videoOutput, "output", "o", "", "Output file")
	videoCmd.Flags().BoolVar(&videoOpen, "open", false, "Open the video after download")
	videoCmd.Flags().BoolVar(&videoListModels, "list-models", false, "List available models and exit")
	rootCmd.AddCommand(videoCmd)
}

func runVideo(cmd *cobra.Command, args []string) error {
	if videoListModels {
		return listModels(catalog.Video)
	}

	imagePath, err := joinArgs(args, "image path")
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
	params := request.VideoParams{
		ImagePath: imagePath,
		Prompt:    videoPrompt,
		Model:     modelFlag(cmd, videoModel, svc.Config().Models.Video),
		Duration:  videoDuration,
		Aspect:    videoAspect,
	}

	var outcome *app.MediaOutcome
	title := fmt.Sprintf("Generating video with %s", catalog.Resolve(catalog.Video, params.Model))
	err = runWithProgress(ctx, title, func(ctx context.Context) error {
		var genErr error
		outcome, genErr = svc.GenerateVideo(ctx, params, videoOutput)
		return genErr
	})

	printMediaOutcome("Video", outcome, videoOpen)
	return err
}

func printMediaOutcome(label string, outcome *app.MediaOutcome, open bool) {
	if outcome == nil || outcome.Artifact.URL == "" {
		return
	}
	printArtifact(label, outcome.Artifact)
	printSeed(outcome.Seed)
	printEstimate(outcome.Estimate)
	if open {
		openArtifact(outcome.Artifact.Path)
	}
}
