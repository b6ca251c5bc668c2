package report

import (
	"sort"

	"github.com/flanksource/vstscan/pkg/types"
	"github.com/flanksource/vstscan/pkg/utils"
	"github.com/samber/lo"
)

// Build groups records by canonical vendor and orders groups and plugins for presentation.
// Vendors that differ only by case or spacing share one group, labelled with the byte-wise
// smallest spelling. Groups sort case-insensitively by vendor; plugins by name, then VST3
// before VST2. The input is not modified.
func Build(records []types.Record) types.Report {
	byVendor := lo.GroupBy(records, func(r types.Record) string { return utils.Fold(r.Vendor) })

	groups := make([]types.Group, 0, len(byVendor))
	for _, plugins := range byVendor {
		label := lo.MinBy(plugins, func(a, b types.Record) bool { return a.Vendor < b.Vendor }).Vendor
		plugins = lo.Map(plugins, func(r types.Record, _ int) types.Record {
			r.Vendor = label
			return r
		})
		sort.SliceStable(plugins, func(i, j int) bool { return lessPlugin(plugins[i], plugins[j]) })
		groups = append(groups, types.Group{Vendor: label, Plugins: plugins})
	}

	sort.Slice(groups, func(i, j int) bool { return lessFold(groups[i].Vendor, groups[j].Vendor) })

	return types.Report{Groups: groups, Total: len(records)}
}

func lessFold(a, b string) bool {
	fa, fb := utils.Fold(a), utils.Fold(b)
	if fa != fb {
		return fa < fb
	}
	return a < b
}

func lessPlugin(a, b types.Record) bool {
	fa, fb := utils.Fold(a.Name), utils.Fold(b.Name)
	if fa != fb {
		return fa < fb
	}
	if a.Format.Rank() != b.Format.Rank() {
		return a.Format.Rank() < b.Format.Rank()
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Version < b.Version
}
