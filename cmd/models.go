package cmd

import (
	"falgen/internal/catalog"
	"falgen/pkg/config"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models [category]",
	Short: "List models and prices",
	Long: `List every known model shortname, its fal endpoint id, and its unit price.
Categories: image, video, text-to-video, tts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	categories := catalog.Categories()
	if len(args) == 1 {
		category, err := catalog.ParseCategory(args[0])
		if err != nil {
			return err
		}
		categories = []catalog.Category{category}
	}

	return listModels(categories...)
}

// listModels prints each category, marking the default from config.
func listModels(categories ...catalog.Category) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	for _, category := range categories {
		printModels(category, defaultModel(cfg.Models, category))
	}
	return nil
}

func defaultModel(models config.ModelsConfig, category catalog.Category) string {
	switch category {
	case catalog.Image:
		return models.Image
	case catalog.Video:
		return models.Video
	case catalog.TextVideo:
		return models.TextVideo
	case catalog.Speech:
		return models.Speech
	default:
		return ""
	}
}
