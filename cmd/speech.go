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
	speechModel      string
	speechReference  string
	speechVoice      string
	speechSpeed      float64
	speechOutput     string
	speechOpen       bool
	speechListModels bool
)

var speechCmd = &cobra.Command{
	Use:   "speech <text>",
	Short: "Synthesize speech from text",
	Long:  `Synthesize speech with a fal.ai text-to-speech model, optionally cloning a reference voice.`,
	RunE:  runSpeech,
}

func init() {
	speechCmd.Flags().StringVarP(&speechModel, "model", "m", catalog.DefaultSpeechModel, "Model shortname or fal endpoint id")
	speechCmd.Flags().StringVarP(&speechReference, "reference", "r", "", "Reference audio for voice cloning")
	speechCmd.Flags().StringVar(&speechVoice, "voice", "", "Voice name")
	speechCmd.Flags().Float64VarP(&speechSpeed, "speed", "s", request.DefaultSpeed, "Speech speed")
	speechCmd.Flags().StringVarP(&speechOutput, "output", "o", "", "Output file")
	speechCmd.Flags().BoolVar(&speechOpen, "open", false, "Open the audio after download")
	speechCmd.Flags().BoolVar(&speechListModels, "list-models", false, "List available models and exit")
	rootCmd.AddCommand(speechCmd)
}

func runSpeech(cmd *cobra.Command, args []string) error {
	if speechListModels {
		return listModels(catalog.Speech)
	}

	text, err := joinArgs(args, "text")
	if err != nil {
		return err
	}
	if speechSpeed <= 0 {
		return fmt.Errorf("speed must be greater than 0, got %g", speechSpeed)
	}

	ctx := cmd.Context()

	built, err := buildService(ctx)
	if err != nil {
		return err
	}
	defer built.Close()

	svc := built.Service
	params := request.SpeechParams{
		Text:           text,
		Model:          modelFlag(cmd, speechModel, svc.Config().Models.Speech),
		Voice:          speechVoice,
		ReferenceAudio: speechReference,
		Speed:          speechSpeed,
	}

	var outcome *app.MediaOutcome
	title := fmt.Sprintf("Synthesizing speech with %s", catalog.Resolve(catalog.Speech, params.Model))
	err = runWithProgress(ctx, title, func(ctx context.Context) error {
		var genErr error
		outcome, genErr = svc.GenerateSpeech(ctx, params, speechOutput)
		return genErr
	})

	printMediaOutcome("Audio", outcome, speechOpen)
	return err
}
