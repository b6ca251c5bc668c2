package cmd

import (
	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/flanksource/clicky/api/icons"
	"github.com/flanksource/vstscan/pkg/vendor"
	"github.com/spf13/cobra"
)

var normalizePlugin string

// NormalizeResult explains how a raw vendor was normalized
type NormalizeResult struct {
	Raw     string      `json:"raw"`
	Plugin  string      `json:"plugin,omitempty"`
	Vendor  string      `json:"vendor"`
	Tier    vendor.Tier `json:"tier"`
	Matched string      `json:"matched,omitempty"`
}

func (r NormalizeResult) Pretty() api.Text {
	icon := icons.Success
	if r.Tier == vendor.TierUnknown {
		icon = icons.Warning
	} else if r.Tier == vendor.TierFallback {
		icon = icons.Skip
	}

	text := clicky.Text("").Add(icon).Append(" "+r.Vendor, "bold").Append(" ("+string(r.Tier), "text-muted")
	if r.Matched != "" {
		text = text.Append(": "+r.Matched, "text-muted")
	}
	return text.Append(")", "text-muted")
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize <vendor>",
	Short: "Show the canonical vendor for a raw vendor string",
	Long: `Show the canonical vendor for a raw vendor string and which rule matched it.

Examples:
  vstscan normalize "Brainworx GmbH"
  vstscan normalize "" --plugin "bx_console 9000"`,
	Args: cobra.ExactArgs(1),
	RunE: runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().StringVar(&normalizePlugin, "plugin", "", "Plugin name, used when the vendor alone is not enough")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	m := vendor.New(GetConfig()).Match(args[0], normalizePlugin)

	result, err := clicky.Format(NormalizeResult{
		Raw:     args[0],
		Plugin:  normalizePlugin,
		Vendor:  m.Vendor,
		Tier:    m.Tier,
		Matched: m.Matched,
	})
	if err != nil {
		return err
	}

	cmd.Println(result)
	return nil
}
