package cmd

import (
	"strings"

	"github.com/flanksource/clicky"
	"github.com/flanksource/vstscan/pkg/vendor"
	"github.com/spf13/cobra"
)

// VendorInfo is one row of the vendor table
type VendorInfo struct {
	Name      string `json:"name" pretty:"label=Vendor"`
	Aliases   int    `json:"aliases" pretty:"label=Aliases"`
	Prefixes  string `json:"prefixes,omitempty" pretty:"label=Prefixes"`
	Fragments int    `json:"fragments" pretty:"label=Fragments"`
}

// VendorList represents the vendor table for display
type VendorList struct {
	Vendors []VendorInfo `json:"vendors" pretty:"table"`
}

var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "List the canonical vendors and how many aliases map to each",
	RunE:  runVendors,
}

func init() {
	rootCmd.AddCommand(vendorsCmd)
}

func runVendors(cmd *cobra.Command, args []string) error {
	n := vendor.New(GetConfig())

	var list VendorList
	for _, v := range n.Vendors() {
		list.Vendors = append(list.Vendors, VendorInfo{
			Name:      v.Name,
			Aliases:   len(v.Aliases),
			Prefixes:  strings.Join(v.Prefixes, ", "),
			Fragments: len(v.Fragments),
		})
	}

	result, err := clicky.Format(list)
	if err != nil {
		return err
	}

	cmd.Println(result)
	return nil
}
