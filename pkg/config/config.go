package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flanksource/vstscan/pkg/types"
	"github.com/flanksource/vstscan/pkg/utils"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFile     = "vstscan.yaml"
	DefaultOutput  = "plugins.txt"
	DefaultWorkers = 8
)

// LoadConfig loads and parses a vstscan.yaml configuration file
func LoadConfig(path string) (*types.Config, error) {
	if path == "" {
		path = ConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config types.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyVendorDefaults(&config)
	return &config, nil
}

// applyVendorDefaults trims entries and makes every canonical label an alias of itself
func applyVendorDefaults(config *types.Config) {
	for i, v := range config.Vendors {
		v.Name = utils.CollapseSpaces(v.Name)
		v.Aliases = cleanList(append([]string{v.Name}, v.Aliases...))
		v.Prefixes = cleanPrefixes(v.Prefixes)
		v.Fragments = cleanList(v.Fragments)
		config.Vendors[i] = v
	}
	config.ShortFragments = cleanList(config.ShortFragments)
	config.UnknownAliases = cleanList(config.UnknownAliases)
	config.CorporateSuffixes = cleanList(config.CorporateSuffixes)
}

func cleanList(values []string) []string {
	var out []string
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = utils.CollapseSpaces(v)
		if v == "" || seen[strings.ToLower(v)] {
			continue
		}
		seen[strings.ToLower(v)] = true
		out = append(out, v)
	}
	return out
}

// cleanPrefixes keeps significant trailing spaces ("psp " must not match "pspx")
func cleanPrefixes(values []string) []string {
	var out []string
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimLeft(v, " \t"))
		if strings.TrimSpace(v) == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(config *types.Config, path string) error {
	if path == "" {
		path = ConfigFile
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// FindConfigFile searches for vstscan.yaml in the current and parent directories
func FindConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		configPath := filepath.Join(dir, ConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in current directory or any parent directory", ConfigFile)
}

// ValidateConfig validates the configuration for common errors
func ValidateConfig(config *types.Config) error {
	if config == nil {
		return fmt.Errorf("configuration is nil")
	}

	unknown := make(map[string]bool, len(config.UnknownAliases))
	for _, u := range config.UnknownAliases {
		unknown[utils.Key(u)] = true
	}

	labels := make(map[string]string)
	aliases := make(map[string]string)
	for i, v := range config.Vendors {
		if strings.TrimSpace(v.Name) == "" {
			return fmt.Errorf("vendor #%d has no name", i+1)
		}
		key := utils.Key(v.Name)
		if key == "" {
			return fmt.Errorf("vendor %q has no letters or digits", v.Name)
		}
		if other, exists := labels[key]; exists {
			return fmt.Errorf("vendor %q duplicates %q", v.Name, other)
		}
		if unknown[key] {
			return fmt.Errorf("vendor %q is also listed as an unknown placeholder", v.Name)
		}
		labels[key] = v.Name

		for _, alias := range v.Aliases {
			aliasKey := utils.Key(alias)
			if aliasKey == "" {
				continue
			}
			if owner, exists := aliases[aliasKey]; exists && owner != v.Name {
				return fmt.Errorf("alias %q of %s is already an alias of %s", alias, v.Name, owner)
			}
			if unknown[aliasKey] {
				return fmt.Errorf("alias %q of %s is also listed as an unknown placeholder", alias, v.Name)
			}
			aliases[aliasKey] = v.Name
		}
	}

	if config.Settings.Workers < 0 {
		return fmt.Errorf("settings.workers must not be negative, got %d", config.Settings.Workers)
	}
	if d := config.Settings.FuzzyDistance; d != nil && *d < 0 {
		return fmt.Errorf("settings.fuzzy_distance must not be negative, got %d", *d)
	}
	for _, f := range config.Settings.Formats {
		if !IsKnownFormat(f) {
			return fmt.Errorf("unknown report format %q (expected one of %s)", f, strings.Join(ReportFormats, ", "))
		}
	}

	return nil
}

// ReportFormats lists the serializers understood by the scan command
var ReportFormats = []string{"txt", "json", "yaml", "csv"}

func IsKnownFormat(format string) bool {
	format = strings.ToLower(strings.TrimSpace(format))
	for _, f := range ReportFormats {
		if f == format {
			return true
		}
	}
	return format == "text" || format == "yml"
}
