package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"sidecar/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig
	Ingest   IngestConfig
	Paths    PathConfig
	Plot     PlotConfig
	LogLevel string
}

// AnalysisConfig holds CDF computation defaults
type AnalysisConfig struct {
	NumSteps      int
	Normalization string
	Columns       []string
}

// IngestConfig holds CSV ingestion defaults
type IngestConfig struct {
	LabelScheme string
	SchemeFile  string
}

// PathConfig holds file system paths
type PathConfig struct {
	OutputDir string
}

// PlotConfig holds chart rendering settings
type PlotConfig struct {
	WidthInches  float64
	HeightInches float64
}

// Load reads configuration from environment variables and validates it.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// LoadFile reads configuration after loading the given env file
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, errors.Wrapf(err, "failed to load env file %s", path)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only
func FromEnv() (*Config, error) {
	config := &Config{
		Analysis: *loadAnalysisConfig(),
		Ingest:   *loadIngestConfig(),
		Paths:    *loadPathConfig(),
		Plot:     *loadPlotConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration with every default applied
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{NumSteps: 100, Normalization: "grid", Columns: []string{"change"}},
		Ingest:   IngestConfig{LabelScheme: "yahoo_finance"},
		Paths:    PathConfig{OutputDir: "."},
		Plot:     PlotConfig{WidthInches: 10, HeightInches: 4},
		LogLevel: "INFO",
	}
}

func loadAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		NumSteps:      getEnvIntOrDefault("SIDECAR_NUM_STEPS", 100),
		Normalization: getEnvOrDefault("SIDECAR_NORMALIZATION", "grid"),
		Columns:       getEnvListOrDefault("SIDECAR_COLUMNS", []string{"change"}),
	}
}

func loadIngestConfig() *IngestConfig {
	return &IngestConfig{
		LabelScheme: getEnvOrDefault("SIDECAR_LABEL_SCHEME", "yahoo_finance"),
		SchemeFile:  getEnvOrDefault("SIDECAR_SCHEME_FILE", ""),
	}
}

func loadPathConfig() *PathConfig {
	return &PathConfig{
		OutputDir: getEnvOrDefault("SIDECAR_OUTPUT_DIR", "."),
	}
}

func loadPlotConfig() *PlotConfig {
	return &PlotConfig{
		WidthInches:  getEnvFloatOrDefault("SIDECAR_PLOT_WIDTH_IN", 10),
		HeightInches: getEnvFloatOrDefault("SIDECAR_PLOT_HEIGHT_IN", 4),
	}
}

func validateConfig(config *Config) error {
	if config.Analysis.NumSteps < 1 {
		return errors.ConfigInvalid("SIDECAR_NUM_STEPS must be a positive integer")
	}
	switch config.Analysis.Normalization {
	case "grid", "sample":
	default:
		return errors.ConfigInvalid("SIDECAR_NORMALIZATION must be grid or sample")
	}
	for _, col := range config.Analysis.Columns {
		if col != "close" && col != "change" {
			return errors.ConfigInvalid("SIDECAR_COLUMNS may only contain close and change")
		}
	}
	if len(config.Analysis.Columns) == 0 {
		return errors.ConfigInvalid("SIDECAR_COLUMNS must name at least one column")
	}
	if config.Plot.WidthInches <= 0 || config.Plot.HeightInches <= 0 {
		return errors.ConfigInvalid("plot dimensions must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}
