// Package config holds the pipeline settings and their layered sources:
// built-in defaults, an optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the pipeline settings.
type Config struct {
	InputPath  string `yaml:"input_path"`  // Source table (.csv, .tsv or .xlsx)
	OutputPath string `yaml:"output_path"` // Destination CSV
	ModelID    string `yaml:"model_id"`    // "en", "ipa" or a path to a kagome dictionary archive
	Workers    int    `yaml:"workers"`
	TopK       int    `yaml:"top_k"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		InputPath:  "data/bbc_news.csv",
		OutputPath: "data/bbc_news_tagged.csv",
		ModelID:    "en",
		Workers:    1,
		TopK:       5,
	}
}

// LoadFile overlays the YAML file at path on the defaults. Keys absent from
// the file keep their default value. An empty path returns the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Environment variables read by ApplyEnv.
const (
	EnvInput   = "HEADLINER_INPUT"
	EnvOutput  = "HEADLINER_OUTPUT"
	EnvModel   = "HEADLINER_MODEL"
	EnvWorkers = "HEADLINER_WORKERS"
	EnvTopK    = "HEADLINER_TOP_K"
)

// ApplyEnv overlays non-empty environment values. lookup is usually
// os.LookupEnv; tests pass a map-backed function.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) string {
		if v, ok := lookup(key); ok {
			return strings.TrimSpace(v)
		}
		return ""
	}
	if v := get(EnvInput); v != "" {
		c.InputPath = v
	}
	if v := get(EnvOutput); v != "" {
		c.OutputPath = v
	}
	if v := get(EnvModel); v != "" {
		c.ModelID = v
	}
	if v := get(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if v := get(EnvTopK); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTopK, err)
		}
		c.TopK = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.InputPath) == "":
		return errors.New("input path must be non-empty")
	case strings.TrimSpace(c.OutputPath) == "":
		return errors.New("output path must be non-empty")
	case c.Workers < 1:
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	case c.TopK < 1:
		return fmt.Errorf("top_k must be at least 1, got %d", c.TopK)
	}
	return nil
}
