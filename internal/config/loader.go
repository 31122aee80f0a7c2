package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aristath/asyncweather/internal/weather"
)

// APIKeyEnv overrides weather.api_key when set.
const APIKeyEnv = "ACCUWEATHER_API_KEY"

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): environment, project config, global config, defaults.
// Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	if key := os.Getenv(APIKeyEnv); key != "" {
		cfg.Weather.APIKey = key
	}

	return cfg, nil
}

// LoadDefault loads configuration from conventional paths.
// Global: ~/.asyncweather/config.json
// Project: .asyncweather/config.json (relative to cwd)
func LoadDefault() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}

	globalPath := filepath.Join(homeDir, ".asyncweather", "config.json")
	projectPath := filepath.Join(".asyncweather", "config.json")

	return Load(globalPath, projectPath)
}

// mergeConfigFile reads a JSON config file and merges it into the base config.
// Fields present in the file replace the base value; absent fields keep it.
// Lists are replaced as a whole, fixture maps are merged by city.
func mergeConfigFile(base *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Missing file is not an error
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	// Decode into a copy so a malformed file leaves base untouched.
	merged := *base
	merged.Weather.Static = cloneFixtures(base.Weather.Static)
	merged.Weather.Cities = slices.Clone(base.Weather.Cities)
	merged.Group.Durations = slices.Clone(base.Group.Durations)
	if err := json.Unmarshal(data, &merged); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	*base = merged
	return nil
}

// ExpandPath replaces a leading "~/" with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}

func cloneFixtures(in map[string]weather.Conditions) map[string]weather.Conditions {
	if in == nil {
		return nil
	}
	out := make(map[string]weather.Conditions, len(in))
	for city, c := range in {
		out[city] = c
	}
	return out
}
