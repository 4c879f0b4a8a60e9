package config

import (
	"os"
	"strconv"
	"strings"

	"gridworth/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig
	Analysis AnalysisConfig
	Database DatabaseConfig
	Server   ServerConfig
}

// DataConfig holds data directory settings
type DataConfig struct {
	DataDir    string
	ResultsDir string
	StartYear  int
	EndYear    int
}

// AnalysisConfig holds outlier filtering settings
type AnalysisConfig struct {
	FilterExtremes  bool
	LowerPercentile float64
	UpperPercentile float64
	MetricsToFilter []string
	Workers         int
}

// DatabaseConfig holds optional run-history database settings
type DatabaseConfig struct {
	URL string // empty disables run persistence
}

// ServerConfig holds API server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// Supported history bounds for the gridded products.
const (
	minYear = 1980
	maxYear = 2024
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Data: DataConfig{
			DataDir:    getEnvOrDefault("DATA_DIR", "data"),
			ResultsDir: getEnvOrDefault("RESULTS_DIR", "results"),
			StartYear:  getEnvIntOrDefault("START_YEAR", minYear),
			EndYear:    getEnvIntOrDefault("END_YEAR", maxYear),
		},
		Analysis: AnalysisConfig{
			FilterExtremes:  getEnvBoolOrDefault("FILTER_EXTREMES", false),
			LowerPercentile: getEnvFloatOrDefault("LOWER_PERCENTILE", 1),
			UpperPercentile: getEnvFloatOrDefault("UPPER_PERCENTILE", 99),
			MetricsToFilter: splitList(os.Getenv("METRICS_TO_FILTER")),
			Workers:         getEnvIntOrDefault("ANALYSIS_WORKERS", 1),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
	}

	if err := validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validate(c *Config) error {
	if c.Data.DataDir == "" {
		return errors.ConfigInvalid("DATA_DIR must not be empty")
	}
	if c.Data.ResultsDir == "" {
		return errors.ConfigInvalid("RESULTS_DIR must not be empty")
	}
	if c.Data.EndYear < c.Data.StartYear {
		return errors.ConfigInvalid("END_YEAR must not precede START_YEAR")
	}
	if c.Data.StartYear < minYear || c.Data.EndYear > maxYear {
		return errors.ConfigInvalid("years must lie between 1980 and 2024")
	}
	if c.Analysis.Workers < 1 {
		return errors.ConfigInvalid("ANALYSIS_WORKERS must be at least 1")
	}
	// Percentile validation happens again in stats.NewAnalysisConfig; failing
	// here keeps bad values out of the run entirely.
	if c.Analysis.LowerPercentile < 0 || c.Analysis.UpperPercentile > 100 ||
		c.Analysis.LowerPercentile >= c.Analysis.UpperPercentile {
		return errors.ConfigInvalid("percentiles must satisfy 0 <= lower < upper <= 100")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBoolOrDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
