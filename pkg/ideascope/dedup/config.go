package dedup

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds configuration for the deduplication pass
type Config struct {
	// Threshold is the similarity above which a later idea is filtered as a
	// duplicate of an earlier one. Equality does not filter.
	// Default: 0.8
	Threshold float64

	// MatchTitles also filters later ideas whose title is identical to a kept
	// idea, regardless of similarity.
	// Default: true
	MatchTitles bool
}

// DefaultConfig returns the default deduplication configuration
func DefaultConfig() Config {
	return Config{
		Threshold:   0.8,
		MatchTitles: true,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.Threshold < 0.0 || c.Threshold > 1.0 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0 (got %.2f)", c.Threshold)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf("Config{Threshold: %.2f, MatchTitles: %t}", c.Threshold, c.MatchTitles)
}

// ConfigFromEnv creates a Config from environment variables, falling back to defaults
//
// Environment variables:
//   - IDEASCOPE_DEDUP_THRESHOLD: similarity threshold (0.0-1.0) (default: 0.8)
//   - IDEASCOPE_DEDUP_MATCH_TITLES: filter identical titles (default: true)
func ConfigFromEnv() (Config, error) {
	return applyEnv(DefaultConfig())
}

// applyEnv overrides fields of cfg that are set in the environment.
func applyEnv(cfg Config) (Config, error) {
	if err := parseEnvFloat("IDEASCOPE_DEDUP_THRESHOLD", &cfg.Threshold); err != nil {
		return cfg, err
	}
	if err := parseEnvBool("IDEASCOPE_DEDUP_MATCH_TITLES", &cfg.MatchTitles); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}
	return cfg, nil
}

// WithEnv returns cfg with any environment overrides applied.
func WithEnv(cfg Config) (Config, error) {
	return applyEnv(cfg)
}

func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
