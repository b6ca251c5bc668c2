package config

import (
	_ "embed"
	"fmt"

	"github.com/flanksource/vstscan/pkg/types"
	"github.com/flanksource/vstscan/pkg/utils"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultConfigYAML []byte

// LoadDefaultConfig loads the embedded default configuration
func LoadDefaultConfig() (*types.Config, error) {
	var config types.Config
	if err := yaml.Unmarshal(defaultConfigYAML, &config); err != nil {
		return nil, fmt.Errorf("failed to parse embedded default config: %w", err)
	}

	applyVendorDefaults(&config)
	return &config, nil
}

// mergeVendor adds the user's aliases, prefixes and fragments to a default vendor entry
func mergeVendor(defaultVendor, userVendor types.VendorEntry) types.VendorEntry {
	merged := defaultVendor
	merged.Aliases = lo.Uniq(append(append([]string{}, defaultVendor.Aliases...), userVendor.Aliases...))
	merged.Prefixes = lo.Uniq(append(append([]string{}, defaultVendor.Prefixes...), userVendor.Prefixes...))
	merged.Fragments = lo.Uniq(append(append([]string{}, defaultVendor.Fragments...), userVendor.Fragments...))
	return merged
}

// MergeWithDefaults merges the default config with a user config.
// User vendors extend matching default labels or add new ones; an alias claimed by a user
// vendor is removed from any other label so the user can re-home it.
func MergeWithDefaults(defaultConfig, userConfig *types.Config) *types.Config {
	merged := &types.Config{
		Vendors:           append([]types.VendorEntry{}, defaultConfig.Vendors...),
		ShortFragments:    append([]string{}, defaultConfig.ShortFragments...),
		UnknownAliases:    append([]string{}, defaultConfig.UnknownAliases...),
		CorporateSuffixes: append([]string{}, defaultConfig.CorporateSuffixes...),
		Settings:          defaultConfig.Settings,
	}

	if userConfig == nil {
		return merged
	}

	for _, userVendor := range userConfig.Vendors {
		claimed := lo.SliceToMap(userVendor.Aliases, func(a string) (string, bool) {
			return utils.Key(a), true
		})
		for i, v := range merged.Vendors {
			if utils.Key(v.Name) == utils.Key(userVendor.Name) {
				continue
			}
			merged.Vendors[i].Aliases = lo.Reject(v.Aliases, func(a string, _ int) bool {
				return claimed[utils.Key(a)] && utils.Key(a) != utils.Key(v.Name)
			})
		}

		_, index, found := lo.FindIndexOf(merged.Vendors, func(v types.VendorEntry) bool {
			return utils.Key(v.Name) == utils.Key(userVendor.Name)
		})
		if found {
			merged.Vendors[index] = mergeVendor(merged.Vendors[index], userVendor)
		} else {
			merged.Vendors = append(merged.Vendors, userVendor)
		}
	}

	merged.ShortFragments = lo.Uniq(append(merged.ShortFragments, userConfig.ShortFragments...))
	merged.UnknownAliases = lo.Uniq(append(merged.UnknownAliases, userConfig.UnknownAliases...))
	merged.CorporateSuffixes = lo.Uniq(append(merged.CorporateSuffixes, userConfig.CorporateSuffixes...))

	// Merge settings (user settings override defaults)
	user := userConfig.Settings
	if user.Workers > 0 {
		merged.Settings.Workers = user.Workers
	}
	if user.Output != "" {
		merged.Settings.Output = user.Output
	}
	if len(user.Formats) > 0 {
		merged.Settings.Formats = user.Formats
	}
	if len(user.Extensions) > 0 {
		merged.Settings.Extensions = user.Extensions
	}
	if user.UnknownVendor != "" {
		merged.Settings.UnknownVendor = user.UnknownVendor
	}
	if user.FuzzyDistance != nil {
		merged.Settings.FuzzyDistance = user.FuzzyDistance
	}
	if user.FuzzyMinLength > 0 {
		merged.Settings.FuzzyMinLength = user.FuzzyMinLength
	}
	if user.LineTemplate != "" {
		merged.Settings.LineTemplate = user.LineTemplate
	}
	if user.IncludeDefaultPaths {
		merged.Settings.IncludeDefaultPaths = true
	}

	return merged
}

// LoadMergedConfig loads the default config and merges it with the user config.
// An empty path searches for vstscan.yaml; a missing file means defaults only,
// but an explicit path that cannot be read or parsed is an error.
func LoadMergedConfig(userConfigPath string) (*types.Config, error) {
	defaultConfig, err := LoadDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	explicit := userConfigPath != ""
	if !explicit {
		found, err := FindConfigFile()
		if err != nil {
			return applySettingDefaults(defaultConfig), nil
		}
		userConfigPath = found
	}

	userConfig, err := LoadConfig(userConfigPath)
	if err != nil {
		if explicit {
			return nil, err
		}
		return applySettingDefaults(defaultConfig), nil
	}

	merged := MergeWithDefaults(defaultConfig, userConfig)
	applyVendorDefaults(merged)
	if err := ValidateConfig(merged); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", userConfigPath, err)
	}
	return applySettingDefaults(merged), nil
}

func applySettingDefaults(config *types.Config) *types.Config {
	if config.Settings.Workers <= 0 {
		config.Settings.Workers = DefaultWorkers
	}
	if config.Settings.Output == "" {
		config.Settings.Output = DefaultOutput
	}
	if len(config.Settings.Formats) == 0 {
		config.Settings.Formats = []string{"txt"}
	}
	if len(config.Settings.Extensions) == 0 {
		config.Settings.Extensions = []string{".vst3", ".vst", ".dll"}
	}
	if config.Settings.UnknownVendor == "" {
		config.Settings.UnknownVendor = types.UnknownVendor
	}
	if config.Settings.FuzzyDistance == nil {
		config.Settings.FuzzyDistance = lo.ToPtr(1)
	}
	if config.Settings.FuzzyMinLength <= 0 {
		config.Settings.FuzzyMinLength = 6
	}
	return config
}
