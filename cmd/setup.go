package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"falgen/internal/catalog"
	"falgen/pkg/config"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
)

const defaultSecretName = "fal-api-key"

var envOrder = []string{"FAL_API_KEY", "GOOGLE_CLOUD_PROJECT"}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for falgen",
	Long:  `Configure the fal API key, default models, and the optional Google Cloud Storage mirror.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

type setupState struct {
	env map[string]string
	cfg *config.Config
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("🎨 falgen Setup"))

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	state := &setupState{env: map[string]string{}, cfg: cfg}

	steps := []struct {
		name string
		fn   func(*setupState) error
	}{
		{"Configuring fal API key", configureFalKey},
		{"Configuring Google Cloud", configureGCP},
		{"Choosing defaults", configureDefaults},
		{"Writing configuration", writeSetup},
	}

	for _, step := range steps {
		if err := step.fn(state); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	printNextSteps()
	return nil
}

func configureFalKey(state *setupState) error {
	var key string
	if err := huh.NewInput().
		Title("fal API Key").
		Description("https://fal.ai/dashboard/keys").
		EchoMode(huh.EchoModePassword).
		Value(&key).
		Validate(required("fal API Key")).
		Run(); err != nil {
		return err
	}

	state.env["FAL_API_KEY"] = strings.TrimSpace(key)
	return nil
}

func configureGCP(state *setupState) error {
	var setupGCP bool
	if err := huh.NewConfirm().
		Title("Setup Google Cloud?").
		Description("Mirror results to Cloud Storage and keep the fal key in Secret Manager (optional)").
		Value(&setupGCP).
		Run(); err != nil {
		return err
	}

	if !setupGCP {
		return nil
	}

	if !commandExists("gcloud") {
		fmt.Println(warnStyle.Render("gcloud CLI not found - install from https://cloud.google.com/sdk/docs/install"))
		return nil
	}

	project, err := chooseGCPProject()
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("GCP setup skipped: %v", err)))
		return nil
	}
	if project == "" {
		fmt.Println(warnStyle.Render("GCP setup skipped: no project selected"))
		return nil
	}
	state.env["GOOGLE_CLOUD_PROJECT"] = project

	if err := enableGCPAPIs(project); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
	}

	if err := setupMirror(state, project); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("GCS mirror skipped: %v", err)))
	}

	if err := storeKeyInSecretManager(state, project); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Secret Manager skipped: %v", err)))
	}

	return nil
}

func chooseGCPProject() (string, error) {
	existing := getActiveProject()

	var choice string
	options := []huh.Option[string]{
		huh.NewOption("Enter project ID manually", "manual"),
	}
	if existing != "" {
		options = append([]huh.Option[string]{
			huh.NewOption(fmt.Sprintf("Use current: %s", existing), existing),
		}, options...)
	}

	if err := huh.NewSelect[string]().
		Title("Google Cloud Project").
		Options(options...).
		Value(&choice).
		Run(); err != nil {
		return "", err
	}

	if choice != "manual" {
		return choice, nil
	}

	var projectID string
	if err := huh.NewInput().
		Title("Project ID").
		Value(&projectID).
		Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(projectID), nil
}

func getActiveProject() string {
	out, err := exec.Command("gcloud", "config", "get-value", "project").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func enableGCPAPIs(project string) error {
	apis := []string{
		"storage.googleapis.com",
		"secretmanager.googleapis.com",
	}

	return runWithSpinner("Enabling APIs", func() error {
		args := append([]string{"services", "enable"}, apis...)
		args = append(args, "--project", project)
		return runSetupCmd(nil, "gcloud", args...)
	})
}

func setupMirror(state *setupState, project string) error {
	var enable bool
	if err := huh.NewConfirm().
		Title("Mirror generated files to Cloud Storage?").
		Value(&enable).
		Run(); err != nil || !enable {
		return err
	}

	gcs := &state.cfg.GCS
	var create bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Bucket name").
				Value(&gcs.Bucket).
				Validate(required("Bucket name")),
			huh.NewInput().
				Title("Object prefix").
				Value(&gcs.Prefix),
			huh.NewConfirm().
				Title("Create the bucket now?").
				Value(&create),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	gcs.Bucket = strings.TrimSpace(gcs.Bucket)
	gcs.Prefix = strings.Trim(strings.TrimSpace(gcs.Prefix), "/")
	gcs.Enabled = true

	if create {
		return runWithSpinner("Creating bucket gs://"+gcs.Bucket, func() error {
			return runSetupCmd(nil, "gcloud", "storage", "buckets", "create", "gs://"+gcs.Bucket, "--project", project)
		})
	}
	return nil
}

// storeKeyInSecretManager moves the fal key out of .env into a secret.
func storeKeyInSecretManager(state *setupState, project string) error {
	var store bool
	if err := huh.NewConfirm().
		Title("Store the fal key in Secret Manager?").
		Description("The key is then left out of .env").
		Value(&store).
		Run(); err != nil || !store {
		return err
	}

	name := defaultSecretName
	if err := huh.NewInput().
		Title("Secret name").
		Value(&name).
		Validate(required("Secret name")).
		Run(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)

	key := strings.NewReader(state.env["FAL_API_KEY"])
	err := runWithSpinner("Storing secret "+name, func() error {
		if runSetupCmd(nil, "gcloud", "secrets", "describe", name, "--project", project) == nil {
			return runSetupCmd(key, "gcloud", "secrets", "versions", "add", name, "--data-file=-", "--project", project)
		}
		return runSetupCmd(key, "gcloud", "secrets", "create", name, "--data-file=-", "--project", project)
	})
	if err != nil {
		return err
	}

	state.cfg.Secrets.FalKeySecret = name
	delete(state.env, "FAL_API_KEY")
	return nil
}

func configureDefaults(state *setupState) error {
	models := &state.cfg.Models
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default image model").
				Options(modelOptions(catalog.Image)...).
				Value(&models.Image),
			huh.NewSelect[string]().
				Title("Default image-to-video model").
				Options(modelOptions(catalog.Video)...).
				Value(&models.Video),
			huh.NewSelect[string]().
				Title("Default text-to-video model").
				Options(modelOptions(catalog.TextVideo)...).
				Value(&models.TextVideo),
			huh.NewSelect[string]().
				Title("Default speech model").
				Options(modelOptions(catalog.Speech)...).
				Value(&models.Speech),
			huh.NewInput().
				Title("Output directory").
				Value(&state.cfg.Output.Dir),
		),
	)
	return form.Run()
}

func modelOptions(category catalog.Category) []huh.Option[string] {
	entries := catalog.Models(category)
	options := make([]huh.Option[string], 0, len(entries))
	for _, entry := range entries {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", entry.Name, priceLabel(category, entry.ID)), entry.Name))
	}
	return options
}

func writeSetup(state *setupState) error {
	if err := confirmOverwrite(config.DefaultEnvPath); err != nil {
		return err
	}
	if err := config.WriteEnv(config.DefaultEnvPath, state.env, envOrder); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Created .env file"))

	path := state.cfg.Path
	if path == "" {
		path = config.DefaultConfigPath
	}
	if err := config.Save(state.cfg, path); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Wrote " + path))
	return nil
}

func confirmOverwrite(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	var overwrite bool
	if err := huh.NewConfirm().
		Title(fmt.Sprintf("Found existing %s file", path)).
		Description("Overwrite?").
		Value(&overwrite).
		Run(); err != nil {
		return err
	}
	if !overwrite {
		return fmt.Errorf("kept existing %s", path)
	}
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Check your setup: falgen status")
	fmt.Println("  2. Browse models: falgen models")
	fmt.Println("  3. Run: falgen image \"a lighthouse at dusk\"")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(stdin io.Reader, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = stdin
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func runWithSpinner(title string, fn func() error) error {
	err := withSpinner(context.Background(), spinner.New().Title(title), func(context.Context) error {
		return fn()
	})
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
