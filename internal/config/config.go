package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/anyparse/anyparse/internal/detect"
	"github.com/anyparse/anyparse/internal/models"
)

// Config represents the complete configuration for anyparse
type Config struct {
	Parse     ParseConfig    `yaml:"parse"`
	Encode    EncodeConfig   `yaml:"encode"`
	Detection detect.Weights `yaml:"detection"`
	Dev       DevConfig      `yaml:"dev"`
}

// ParseConfig controls parsing behaviour across all input formats
type ParseConfig struct {
	Strict           bool   `yaml:"strict"`
	Recovery         bool   `yaml:"recovery"`
	Delimiter        string `yaml:"delimiter"`
	SnakeCaseHeaders bool   `yaml:"snake_case_headers"`
}

// EncodeConfig controls TOON output
type EncodeConfig struct {
	Indent       int    `yaml:"indent"`
	Delimiter    string `yaml:"delimiter"`
	LengthMarker bool   `yaml:"length_marker"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Verbose bool `yaml:"verbose"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Parse: ParseConfig{
			Strict:    false,
			Recovery:  true,
			Delimiter: ",",
		},
		Encode: EncodeConfig{
			Indent:    2,
			Delimiter: ",",
		},
		Detection: detect.DefaultWeights(),
	}
}

// LoadConfig loads configuration from a YAML file, layered over the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".anyparse.yml", ".anyparse.yaml", "anyparse.yml", "anyparse.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

func (c *Config) validate() error {
	if _, err := models.ParseDelimiter(c.Parse.Delimiter); err != nil {
		return fmt.Errorf("parse.delimiter: %w", err)
	}
	if _, err := models.ParseDelimiter(c.Encode.Delimiter); err != nil {
		return fmt.Errorf("encode.delimiter: %w", err)
	}
	if c.Encode.Indent < 1 {
		return fmt.Errorf("encode.indent must be at least 1, got %d", c.Encode.Indent)
	}
	return nil
}

// ParseOptions converts the parse section into the options the parsers take
func (c *Config) ParseOptions() models.ParseOptions {
	d, _ := models.ParseDelimiter(c.Parse.Delimiter)
	return models.ParseOptions{
		Strict:           c.Parse.Strict,
		DisableRecovery:  !c.Parse.Recovery,
		Delimiter:        d,
		SnakeCaseHeaders: c.Parse.SnakeCaseHeaders,
	}
}

// EncodeOptions converts the encode section into the options the encoders take
func (c *Config) EncodeOptions() models.EncodeOptions {
	d, _ := models.ParseDelimiter(c.Encode.Delimiter)
	return models.EncodeOptions{
		Indent:       c.Encode.Indent,
		Delimiter:    d,
		LengthMarker: c.Encode.LengthMarker,
	}
}
