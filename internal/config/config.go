package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the training, batch and server
// commands. The single-shot predictor reads none of it.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Training  TrainingConfig  `yaml:"training"`
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
	Registry  RegistryConfig  `yaml:"registry"`
}

// DataConfig points at the review files.
type DataConfig struct {
	Labeled   string `yaml:"labeled"`   // TSV with review and sentiment
	Unlabeled string `yaml:"unlabeled"` // TSV with review only
}

// ArtifactsConfig names where the fitted vectorizer and classifier live.
type ArtifactsConfig struct {
	Dir        string `yaml:"dir"`
	Vectorizer string `yaml:"vectorizer"`
	Model      string `yaml:"model"`
}

// VectorizerPath joins Dir and Vectorizer.
func (a ArtifactsConfig) VectorizerPath() string {
	return filepath.Join(a.Dir, a.Vectorizer)
}

// ModelPath joins Dir and Model.
func (a ArtifactsConfig) ModelPath() string {
	return filepath.Join(a.Dir, a.Model)
}

// TrainingConfig holds the fitting hyperparameters.
type TrainingConfig struct {
	Seed               uint64  `yaml:"seed"`
	ValidationFraction float64 `yaml:"validation_fraction"`
	MaxFeatures        int     `yaml:"max_features"`
	MaxIter            int     `yaml:"max_iter"`
	C                  float64 `yaml:"c"`
	Threshold          float64 `yaml:"threshold"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// ServerConfig configures the persistent HTTP mode.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	AllowOrigin string `yaml:"allow_origin"`
}

// RegistryConfig locates the SQLite run registry. An empty path disables it.
type RegistryConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the reference settings.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Labeled:   "kaggledata/labeledTrainData.tsv",
			Unlabeled: "kaggledata/testData.tsv",
		},
		Artifacts: ArtifactsConfig{
			Dir:        "gob_models",
			Vectorizer: "tfidf_vectorizer.gob",
			Model:      "logreg_model.gob",
		},
		Training: TrainingConfig{
			Seed:               42,
			ValidationFraction: 0.2,
			MaxFeatures:        20000,
			MaxIter:            200,
			C:                  1.0,
			Threshold:          0.5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr:        "localhost:8080",
			AllowOrigin: "http://localhost:5173",
		},
		Registry: RegistryConfig{
			Path: "data/runs.db",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; keys absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	t := c.Training
	if t.ValidationFraction <= 0 || t.ValidationFraction >= 1 {
		return fmt.Errorf("training.validation_fraction must be in (0, 1), got %v", t.ValidationFraction)
	}
	if t.MaxFeatures < 0 {
		return fmt.Errorf("training.max_features must not be negative, got %d", t.MaxFeatures)
	}
	if t.MaxIter <= 0 {
		return fmt.Errorf("training.max_iter must be positive, got %d", t.MaxIter)
	}
	if t.C <= 0 {
		return fmt.Errorf("training.c must be positive, got %v", t.C)
	}
	if t.Threshold <= 0 || t.Threshold >= 1 {
		return fmt.Errorf("training.threshold must be in (0, 1), got %v", t.Threshold)
	}
	if c.Artifacts.Vectorizer == "" || c.Artifacts.Model == "" {
		return fmt.Errorf("artifacts.vectorizer and artifacts.model must be set")
	}
	if c.Artifacts.Vectorizer == c.Artifacts.Model {
		return fmt.Errorf("artifacts.vectorizer and artifacts.model must differ")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
