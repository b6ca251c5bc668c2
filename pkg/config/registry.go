package config

import (
	"sync"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/vstscan/pkg/types"
)

var (
	globalConfig     *types.Config
	globalConfigPath string
	globalConfigOnce sync.Once
)

// SetConfigPath selects the user config file used by GetGlobalConfig; call before first use
func SetConfigPath(path string) {
	globalConfigPath = path
}

// GetGlobalConfig returns the merged global configuration (defaults + user config)
func GetGlobalConfig() *types.Config {
	globalConfigOnce.Do(func() {
		var err error
		globalConfig, err = LoadMergedConfig(globalConfigPath)
		if err != nil {
			logger.Warnf("Ignoring user config: %v", err)
			// Fallback to defaults only if there's an error
			defaults, _ := LoadDefaultConfig()
			globalConfig = applySettingDefaults(defaults)
		}
	})
	return globalConfig
}

// SetGlobalConfig replaces the global configuration, e.g. with one loaded from --config
func SetGlobalConfig(config *types.Config) {
	globalConfigOnce.Do(func() {})
	globalConfig = config
}

// ListVendors returns the canonical vendor labels of the global configuration
func ListVendors() []string {
	var names []string
	for _, v := range GetGlobalConfig().Vendors {
		names = append(names, v.Name)
	}
	return names
}

// ResetGlobalConfig resets the global configuration cache (useful for testing)
func ResetGlobalConfig() {
	globalConfigOnce = sync.Once{}
	globalConfig = nil
	globalConfigPath = ""
}
