package cmd

import (
	"fmt"
	"runtime"

	"github.com/flanksource/clicky"
	"github.com/flanksource/commons/logger"
	"github.com/flanksource/vstscan/pkg/config"
	"github.com/flanksource/vstscan/pkg/platform"
	"github.com/flanksource/vstscan/pkg/types"
	"github.com/spf13/cobra"
)

var (
	osOverride       string
	archOverride     string
	platformOverride string
	configFile       string
	scanConfig       *types.Config
)

var rootCmd = &cobra.Command{
	Use:   "vstscan",
	Short: "Inventory installed VST2 and VST3 plugins grouped by vendor",
	Long: `vstscan finds the VST2 and VST3 plugins installed on a machine, reads their metadata,
normalizes vendor names, merges duplicate copies and writes a report grouped by vendor.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Apply clicky flags after command line parsing
		clicky.Flags.UseFlags()

		// Default plugin folders depend on the target OS
		target, err := targetPlatform()
		if err != nil {
			return err
		}
		platform.SetGlobalOverrides(target.OS, target.Arch)

		// init creates the config file, so there is nothing to load yet
		if cmd == initCmd {
			return nil
		}

		scanConfig, err = config.LoadMergedConfig(configFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		config.SetGlobalConfig(scanConfig)

		logger.V(3).Infof("Using %d vendors (%s)", len(scanConfig.Vendors), platform.Current())
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// targetPlatform resolves --platform, falling back to --os and --arch
func targetPlatform() (platform.Platform, error) {
	if platformOverride == "" {
		return platform.Platform{OS: osOverride, Arch: archOverride}.Normalize(), nil
	}
	p, err := platform.Parse(platformOverride)
	if err != nil {
		return platform.Platform{}, fmt.Errorf("invalid --platform: %w", err)
	}
	return p.Normalize(), nil
}

// GetConfig returns the configuration loaded for the running command
func GetConfig() *types.Config {
	if scanConfig == nil {
		return config.GetGlobalConfig()
	}
	return scanConfig
}

func init() {
	clicky.BindAllFlags(rootCmd.PersistentFlags(), "tasks", "!format")

	rootCmd.PersistentFlags().StringVar(&osOverride, "os", runtime.GOOS, "Target OS for default plugin folders (linux, darwin, windows)")
	rootCmd.PersistentFlags().StringVar(&archOverride, "arch", runtime.GOARCH, "Target architecture (amd64, arm64, etc.)")
	rootCmd.PersistentFlags().StringVar(&platformOverride, "platform", "", "Target platform as os-arch (e.g. macos-arm64, win64-x64), overrides --os and --arch")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to vstscan.yaml config file")
}
