package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"falgen/internal/catalog"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config.yaml"
	DefaultEnvPath    = ".env"

	defaultQueueURL       = "https://queue.fal.run"
	defaultPollInterval   = time.Second
	defaultRequestTimeout = 300 * time.Second
	defaultOutputDir      = "."
	defaultGCSPrefix      = "falgen"
)

type Config struct {
	FalAPIKey  string `yaml:"-"`
	GCPProject string `yaml:"-"`
	// Path is the config file that was read, empty when none was found.
	Path string `yaml:"-"`

	Fal     FalConfig     `yaml:"fal"`
	Models  ModelsConfig  `yaml:"models"`
	Output  OutputConfig  `yaml:"output"`
	GCS     GCSConfig     `yaml:"gcs"`
	Secrets SecretsConfig `yaml:"secrets"`
}

type FalConfig struct {
	QueueURL       string        `yaml:"queue_url"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	PollRetries    int           `yaml:"poll_retries"`
}

// ModelsConfig holds the default shortname per category.
type ModelsConfig struct {
	Image     string `yaml:"image"`
	Video     string `yaml:"video"`
	TextVideo string `yaml:"text_video"`
	Speech    string `yaml:"speech"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type GCSConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

type SecretsConfig struct {
	FalKeySecret string `yaml:"fal_key_secret"`
}

// Load reads .env, then the YAML file at path. An empty path means
// FALGEN_CONFIG or config.yaml, and a missing default file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		FalAPIKey:  getEnvOrDefault("FAL_API_KEY", os.Getenv("FAL_KEY")),
		GCPProject: os.Getenv("GOOGLE_CLOUD_PROJECT"),
	}

	if err := loadYAMLConfig(cfg, path); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	return cfg, nil
}

func loadYAMLConfig(cfg *Config, path string) error {
	explicit := path != ""
	if !explicit {
		path = getEnvOrDefault("FALGEN_CONFIG", DefaultConfigPath)
		explicit = path != DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			slog.Debug("No config.yaml found, using defaults")
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Path = path

	return nil
}

func applyDefaults(cfg *Config) {
	applyFalDefaults(cfg)
	applyModelsDefaults(cfg)
	applyOutputDefaults(cfg)
	applyGCSDefaults(cfg)
}

func applyFalDefaults(cfg *Config) {
	if cfg.Fal.QueueURL == "" {
		cfg.Fal.QueueURL = defaultQueueURL
	}
	cfg.Fal.QueueURL = strings.TrimRight(cfg.Fal.QueueURL, "/")
	if cfg.Fal.PollInterval <= 0 {
		cfg.Fal.PollInterval = defaultPollInterval
	}
	if cfg.Fal.RequestTimeout <= 0 {
		cfg.Fal.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Fal.PollRetries < 0 {
		cfg.Fal.PollRetries = 0
	}
}

func applyModelsDefaults(cfg *Config) {
	if cfg.Models.Image == "" {
		cfg.Models.Image = catalog.DefaultImageModel
	}
	if cfg.Models.Video == "" {
		cfg.Models.Video = catalog.DefaultVideoModel
	}
	if cfg.Models.TextVideo == "" {
		cfg.Models.TextVideo = catalog.DefaultT2VModel
	}
	if cfg.Models.Speech == "" {
		cfg.Models.Speech = catalog.DefaultSpeechModel
	}
}

func applyOutputDefaults(cfg *Config) {
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = defaultOutputDir
	}
}

func applyGCSDefaults(cfg *Config) {
	if cfg.GCS.Prefix == "" {
		cfg.GCS.Prefix = defaultGCSPrefix
	}
}

// Save writes cfg as YAML to path.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// WriteEnv writes the non-empty values of env to path as KEY=value lines in
// the given key order.
func WriteEnv(path string, env map[string]string, order []string) error {
	var b strings.Builder
	for _, key := range order {
		if val, ok := env[key]; ok && val != "" {
			_, _ = fmt.Fprintf(&b, "%s=%s\n", key, val)
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
