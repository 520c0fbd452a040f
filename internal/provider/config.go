package provider

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// SafetyConfig gates what an analysis call may do with command data.
type SafetyConfig struct {
	// RequireReview blocks provider calls until the operator has
	// inspected the sanitized context that would be sent.
	RequireReview bool `yaml:"require_review"`

	// MaxContextLength caps the bytes of any single field transmitted
	// to a backend. Applied identically by every backend.
	MaxContextLength int `yaml:"max_context_length"`

	// CacheEnabled turns on response caching keyed by the sanitized
	// input fingerprint.
	CacheEnabled bool `yaml:"cache_enabled"`

	// CacheTTL bounds how long a cached response stays fresh.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Config selects and tunes the analysis backend.
type Config struct {
	Enabled   bool          `yaml:"enabled"`
	Kind      Kind          `yaml:"kind"`
	Model     string        `yaml:"model"`
	Endpoint  string        `yaml:"endpoint"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout"`
	Safety    SafetyConfig  `yaml:"safety"`
}

// DefaultConfig returns the provider configuration used when no config
// file exists: disabled, with conservative safety settings so enabling
// a backend never starts with review off.
func DefaultConfig() *Config {
	return &Config{
		Enabled:   false,
		Kind:      KindStub,
		Endpoint:  "http://localhost:11434",
		APIKeyEnv: "ANTHROPIC_API_KEY",
		Timeout:   30 * time.Second,
		Safety: SafetyConfig{
			RequireReview:    true,
			MaxContextLength: 8192,
			CacheEnabled:     true,
			CacheTTL:         15 * time.Minute,
		},
	}
}

// LoadConfig reads the provider config from path, falling back to
// defaults when the file does not exist, then applies environment
// overrides. AMBIENT_PROVIDER selects the kind, AMBIENT_PROVIDER_ENABLED
// toggles it, AMBIENT_PROVIDER_MODEL and AMBIENT_PROVIDER_ENDPOINT
// override the backend tuning.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid provider config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read provider config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AMBIENT_PROVIDER"); v != "" {
		cfg.Kind = Kind(v)
	}
	if v := os.Getenv("AMBIENT_PROVIDER_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Enabled = enabled
		}
	}
	if v := os.Getenv("AMBIENT_PROVIDER_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("AMBIENT_PROVIDER_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("AMBIENT_PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
}

// Validate checks configuration consistency. An unrecognized kind is NOT
// an error here: the factory treats it as "no provider" so a typo in a
// config file degrades to heuristics instead of breaking capture.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive (got %v)", ErrConfigInvalid, c.Timeout)
	}
	if c.Safety.MaxContextLength < 0 {
		return fmt.Errorf("%w: max_context_length must not be negative (got %d)", ErrConfigInvalid, c.Safety.MaxContextLength)
	}
	if c.Safety.CacheEnabled && c.Safety.CacheTTL <= 0 {
		return fmt.Errorf("%w: cache_ttl must be positive when caching is enabled (got %v)", ErrConfigInvalid, c.Safety.CacheTTL)
	}
	return nil
}
