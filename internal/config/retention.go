package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// RetentionConfig holds configuration for event retention and cleanup.
// The event log grows with every keystroke of output; without a sweep
// it eats the disk.
type RetentionConfig struct {
	// RetentionDays is how long captured events are kept.
	// Default: 14, Range: 1-365
	RetentionDays int

	// GlobalLimitEvents caps the total number of stored events. Oldest
	// events beyond the cap are trimmed regardless of age.
	// Default: 200000, Range: 1000-1000000
	GlobalLimitEvents int

	// CleanupIntervalHours is how often the sweep runs.
	// Default: 24, Range: 1-168
	CleanupIntervalHours int

	// CleanupEnabled controls whether the automatic sweep runs at all.
	// Default: true
	CleanupEnabled bool
}

// DefaultRetentionConfig returns the default retention configuration.
//
// Terminal output is bulkier than it looks: a verbose build can emit
// thousands of chunk events, so the defaults keep two weeks of history
// under a hard global cap.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		RetentionDays:        14,
		GlobalLimitEvents:    200000,
		CleanupIntervalHours: 24,
		CleanupEnabled:       true,
	}
}

// Validate checks if the configuration has valid values
func (c RetentionConfig) Validate() error {
	if c.RetentionDays < 1 || c.RetentionDays > 365 {
		return fmt.Errorf("retention_days must be between 1 and 365 (got %d)", c.RetentionDays)
	}
	if c.GlobalLimitEvents < 1000 {
		return fmt.Errorf("global_limit_events must be at least 1000 (got %d)", c.GlobalLimitEvents)
	}
	if c.GlobalLimitEvents > 1000000 {
		return fmt.Errorf("global_limit_events too large (got %d, max 1000000)", c.GlobalLimitEvents)
	}
	if c.CleanupIntervalHours < 1 {
		return fmt.Errorf("cleanup_interval_hours must be at least 1 (got %d)", c.CleanupIntervalHours)
	}
	if c.CleanupIntervalHours > 168 {
		return fmt.Errorf("cleanup_interval_hours too large (got %d, max 168)", c.CleanupIntervalHours)
	}
	return nil
}

// Cutoff returns the deletion cutoff implied by RetentionDays, relative
// to now.
func (c RetentionConfig) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -c.RetentionDays)
}

// String returns a human-readable representation of the config
func (c RetentionConfig) String() string {
	return fmt.Sprintf("RetentionConfig{RetentionDays: %d, GlobalLimit: %d, CleanupInterval: %dh, Enabled: %t}",
		c.RetentionDays, c.GlobalLimitEvents, c.CleanupIntervalHours, c.CleanupEnabled)
}

// RetentionConfigFromEnv creates a RetentionConfig from environment
// variables, falling back to defaults.
//
// Environment variables:
//   - AMBIENT_RETENTION_DAYS: Retention period in days (default: 14)
//   - AMBIENT_EVENT_GLOBAL_LIMIT: Maximum total events (default: 200000)
//   - AMBIENT_CLEANUP_INTERVAL_HOURS: How often the sweep runs (default: 24)
//   - AMBIENT_CLEANUP_ENABLED: Enable the automatic sweep (default: true)
//
// Returns an error if any environment variable has an invalid value.
func RetentionConfigFromEnv() (RetentionConfig, error) {
	cfg := DefaultRetentionConfig()

	if err := parseEnvInt("AMBIENT_RETENTION_DAYS", &cfg.RetentionDays); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("AMBIENT_EVENT_GLOBAL_LIMIT", &cfg.GlobalLimitEvents); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("AMBIENT_CLEANUP_INTERVAL_HOURS", &cfg.CleanupIntervalHours); err != nil {
		return cfg, err
	}
	if err := parseEnvBool("AMBIENT_CLEANUP_ENABLED", &cfg.CleanupEnabled); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid retention configuration from environment: %w", err)
	}
	return cfg, nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
