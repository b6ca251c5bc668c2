package report

import (
	"fmt"
	"sort"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/flanksource/clicky/api/icons"
	"github.com/flanksource/vstscan/pkg/types"
	"github.com/samber/lo"
)

// TopVendors is how many vendors the statistics rank
const TopVendors = 25

// VendorCount is one row of the vendor ranking
type VendorCount struct {
	Vendor  string `json:"vendor" yaml:"vendor" pretty:"label=Vendor"`
	Plugins int    `json:"plugins" yaml:"plugins" pretty:"label=Plugins"`
}

// Stats summarizes a report
type Stats struct {
	Total          int            `json:"total" yaml:"total"`
	Vendors        int            `json:"vendors" yaml:"vendors"`
	VST3           int            `json:"vst3" yaml:"vst3"`
	VST2           int            `json:"vst2" yaml:"vst2"`
	Duplicates     int            `json:"duplicates" yaml:"duplicates"`
	Unknown        int            `json:"unknown" yaml:"unknown"`
	UnknownPercent float64        `json:"unknown_percent" yaml:"unknown_percent"`
	Arch           map[string]int `json:"arch,omitempty" yaml:"arch,omitempty"`
	Top            []VendorCount  `json:"top" yaml:"top" pretty:"table"`
}

// Summarize computes plugin counts per format, architecture and vendor
func Summarize(r types.Report, sentinel string) Stats {
	if sentinel == "" {
		sentinel = types.UnknownVendor
	}
	records := r.Records()
	formats := lo.CountValuesBy(records, func(p types.Record) types.Format { return p.Format })
	arch := lo.CountValuesBy(lo.Filter(records, func(p types.Record, _ int) bool { return p.Arch != "" }),
		func(p types.Record) string { return p.Arch })

	stats := Stats{
		Total: len(records),
		VST3:  formats[types.FormatVST3],
		VST2:  formats[types.FormatVST2],
		Arch:  arch,
		Duplicates: lo.SumBy(records, func(p types.Record) int {
			return max(p.Copies-1, 0)
		}),
	}

	for _, g := range r.Groups {
		if g.Vendor == sentinel {
			stats.Unknown += len(g.Plugins)
			continue
		}
		stats.Vendors++
		stats.Top = append(stats.Top, VendorCount{Vendor: g.Vendor, Plugins: len(g.Plugins)})
	}
	if stats.Total > 0 {
		stats.UnknownPercent = float64(stats.Unknown) * 100 / float64(stats.Total)
	}

	sort.SliceStable(stats.Top, func(i, j int) bool { return stats.Top[i].Plugins > stats.Top[j].Plugins })
	if len(stats.Top) > TopVendors {
		stats.Top = stats.Top[:TopVendors]
	}
	return stats
}

func (s Stats) Pretty() api.Text {
	text := clicky.Text("").Add(icons.InfoAlt).Append(fmt.Sprintf(" %d plugins", s.Total), "bold").
		Append(fmt.Sprintf(" from %d vendors (VST3: %d, VST2: %d)", s.Vendors, s.VST3, s.VST2), "text-muted")

	if s.Duplicates > 0 {
		text = text.Append("\n").Add(icons.Skip).Append(fmt.Sprintf(" %d duplicate copies merged", s.Duplicates), "text-muted")
	}
	if s.Unknown > 0 {
		text = text.Append("\n").Add(icons.Warning).
			Append(fmt.Sprintf(" %d plugins without a known vendor (%.1f%%)", s.Unknown, s.UnknownPercent), "text-yellow-500")
	}
	if len(s.Arch) > 0 {
		archs := lo.Keys(s.Arch)
		sort.Strings(archs)
		text = text.Append("\n  arch:", "text-muted")
		for _, a := range archs {
			text = text.Append(fmt.Sprintf(" %s=%d", a, s.Arch[a]), "text-muted")
		}
	}
	for i, v := range s.Top {
		text = text.Append(fmt.Sprintf("\n  %2d. ", i+1), "text-muted").Append(v.Vendor, "bold").
			Append(fmt.Sprintf(" %d", v.Plugins))
	}
	return text
}
