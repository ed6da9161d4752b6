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
	imageModel      string
	imageAspect     string
	imageNum        int
	imageSeed       int
	imageNegative   string
	imageOutput     string
	imageNoSafety   bool
	imageOpen       bool
	imageListModels bool
)

var imageCmd = &cobra.Command{
	Use:   "image <prompt>",
	Short: "Generate images from a text prompt",
	Long:  `Generate one to four images with a fal.ai text-to-image model and save them as PNG files.`,
	RunE:  runImage,
}

func init() {
	imageCmd.Flags().StringVarP(&imageModel, "model", "m", catalog.DefaultImageModel, "Model shortname or fal endpoint id")
	imageCmd.Flags().StringVarP(&imageAspect, "aspect", "a", catalog.DefaultAspect, "Aspect ratio")
	imageCmd.Flags().IntVarP(&imageNum, "num", "n", 1, "Number of images (1-4)")
	imageCmd.Flags().IntVarP(&imageSeed, "seed", "s", 0, "Random seed")
	imageCmd.Flags().StringVar(&imageNegative, "negative", "", "Negative prompt")
	imageCmd.Flags().StringVarP(&imageOutput, "output", "o", ".", "Output directory")
	imageCmd.Flags().BoolVar(&imageNoSafety, "no-safety", false, "Disable the safety checker")
	imageCmd.Flags().BoolVar(&imageOpen, "open", false, "Open images after download")
	imageCmd.Flags().BoolVar(&imageListModels, "list-models", false, "List available models and exit")
	rootCmd.AddCommand(imageCmd)
}

func runImage(cmd *cobra.Command, args []string) error {
	if imageListModels {
		if err := listModels(catalog.Image); err != nil {
			return err
		}
		fmt.Println(dimStyle.Render(fmt.Sprintf("Aspect ratios: %v", catalog.AspectRatios())))
		return nil
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
	params := request.ImageParams{
		Prompt:         prompt,
		Model:          modelFlag(cmd, imageModel, svc.Config().Models.Image),
		Aspect:         imageAspect,
		NumImages:      imageNum,
		DisableSafety:  imageNoSafety,
		NegativePrompt: imageNegative,
	}
	if cmd.Flags().Changed("seed") {
		params.Seed = &imageSeed
	}

	outputDir := ""
	if cmd.Flags().Changed("output") {
		outputDir = imageOutput
	}

	var outcome *app.ImageOutcome
	title := fmt.Sprintf("Generating %d image(s) with %s", request.ClampImages(imageNum), catalog.Resolve(catalog.Image, params.Model))
	err = runWithProgress(ctx, title, func(ctx context.Context) error {
		var genErr error
		outcome, genErr = svc.GenerateImages(ctx, params, outputDir)
		return genErr
	})

	if outcome != nil {
		for i, image := range outcome.Images {
			printArtifact(fmt.Sprintf("Image %d", i+1), image)
		}
		printSeed(outcome.Seed)
		if len(outcome.Images) > 0 {
			printEstimate(outcome.Estimate)
		}
		if imageOpen {
			for _, image := range outcome.Images {
				openArtifact(image.Path)
			}
		}
	}

	return err
}
