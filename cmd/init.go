package cmd

import (
	"fmt"
	"os"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/vstscan/pkg/config"
	"github.com/flanksource/vstscan/pkg/types"
	"github.com/flanksource/vstscan/pkg/utils"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a vstscan.yaml with the default settings",
	Long: `Create a vstscan.yaml with the default settings.

The file is merged over the built-in vendor table, so vendors added to it extend
or override the defaults. Run 'vstscan vendors' to see the built-in table.

Examples:
  # Create vstscan.yaml in the current directory
  vstscan init

  # Write to another path, replacing an existing file
  vstscan init -c ~/vstscan.yaml --force
`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

// starterConfig holds the settings a new vstscan.yaml starts with
func starterConfig() *types.Config {
	return &types.Config{
		Vendors: []types.VendorEntry{},
		Settings: types.Settings{
			Workers: config.DefaultWorkers,
			Output:  config.DefaultOutput,
			Formats: []string{"txt"},
		},
	}
}

// writeStarterConfig writes starterConfig to path (vstscan.yaml when empty) and returns the path written
func writeStarterConfig(path string, force bool) (string, error) {
	if path == "" {
		path = config.ConfigFile
	}
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	return path, config.SaveConfig(starterConfig(), path)
}

func runInit(cmd *cobra.Command, args []string) error {
	path, err := writeStarterConfig(configFile, initForce)
	if err != nil {
		return err
	}
	logger.Infof("Created %s", utils.LogPath(path))

	cmd.Println("\nNext steps:")
	cmd.Println("  1. Add vendors or aliases to the config file")
	cmd.Println("  2. Run 'vstscan scan --include-default-paths' to write the report")
	return nil
}
