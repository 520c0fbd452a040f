// Package config holds the agent's runtime configuration: where its
// data lives, whether it is enabled, and how long captured events are
// retained.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const enabledFileName = "enabled"

// DataDir resolves the agent's data directory. AMBIENT_DATA_DIR wins;
// otherwise everything lives under ~/.ambient.
func DataDir() (string, error) {
	if dir := os.Getenv("AMBIENT_DATA_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".ambient"), nil
}

// DatabasePath returns the event store location under dataDir.
func DatabasePath(dataDir string) string {
	return filepath.Join(dataDir, "events.db")
}

// ProviderConfigPath returns the provider config file location under
// dataDir.
func ProviderConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "provider.yaml")
}

// StatusDir returns where the status surface files are published.
func StatusDir(dataDir string) string {
	return filepath.Join(dataDir, "status")
}

// IsEnabled reports whether observation is switched on. The agent ships
// disabled: nothing is captured until the operator opts in.
func IsEnabled(dataDir string) bool {
	data, err := os.ReadFile(filepath.Join(dataDir, enabledFileName))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "true"
}

// SetEnabled flips the observation switch.
func SetEnabled(dataDir string, enabled bool) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	value := "false"
	if enabled {
		value = "true"
	}
	path := filepath.Join(dataDir, enabledFileName)
	if err := os.WriteFile(path, []byte(value+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write enabled marker: %w", err)
	}
	return nil
}
