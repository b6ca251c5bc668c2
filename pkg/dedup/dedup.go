package dedup

import (
	"sort"
	"strings"

	"github.com/flanksource/vstscan/pkg/types"
	"github.com/flanksource/vstscan/pkg/version"
	"github.com/samber/lo"
)

// Collapse describes physical copies merged into one logical plugin
type Collapse struct {
	Key   types.Key `json:"key" yaml:"key"`
	Paths []string  `json:"paths" yaml:"paths"`
}

// Deduplicate merges records that share vendor, name and format into one record each
func Deduplicate(records []types.Record) []types.Record {
	merged, _ := DeduplicateWithCollapses(records)
	return merged
}

// group accumulates the copies of one logical plugin in input order
type group struct {
	record types.Record
	paths  []string
}

// DeduplicateWithCollapses merges duplicate records and reports every key that had more than one copy.
// Output is ordered by key; the input slice is not modified.
func DeduplicateWithCollapses(records []types.Record) ([]types.Record, []Collapse) {
	groups := make(map[types.Key]*group, len(records))
	var keys []types.Key

	for _, r := range records {
		key := r.Key()
		g, exists := groups[key]
		if !exists {
			first := r
			first.Paths = nil
			first.Copies = 0
			g = &group{record: first}
			groups[key] = g
			keys = append(keys, key)
		} else {
			merge(g, r)
		}
		g.record.Copies += copies(r)
		g.paths = append(g.paths, sourcePaths(r)...)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := make([]types.Record, 0, len(keys))
	var collapses []Collapse
	for _, key := range keys {
		g := groups[key]
		r := g.record
		paths := lo.Uniq(lo.Compact(g.paths))
		sort.Strings(paths)
		r.SourcePath = ""
		if r.Copies > 1 {
			collapses = append(collapses, Collapse{Key: key, Paths: paths})
		}
		r.Paths = paths
		out = append(out, r)
	}
	return out, collapses
}

// merge folds a later copy into the accumulated record
func merge(g *group, r types.Record) {
	current := &g.record

	// a parseable version beats an unparseable one; the highest parseable version wins;
	// equal versions keep the first copy
	if better(r.Version, current.Version) {
		current.Version = r.Version
		if r.Identifier != "" {
			current.Identifier = r.Identifier
		}
		if r.Arch != "" {
			current.Arch = r.Arch
		}
	}
	if current.Identifier == "" {
		current.Identifier = r.Identifier
	}
	if current.Arch == "" {
		current.Arch = r.Arch
	}
	if r.RawVendor != "" && (current.RawVendor == "" || r.RawVendor < current.RawVendor) {
		current.RawVendor = r.RawVendor
	}

	// spelling variants that fold to the same key keep the byte-wise smallest form
	if r.Name < current.Name {
		current.Name = r.Name
	}
	if r.Vendor < current.Vendor {
		current.Vendor = r.Vendor
	}
}

// better reports whether candidate should replace current as the merged version
func better(candidate, current string) bool {
	candidate, current = strings.TrimSpace(candidate), strings.TrimSpace(current)
	if candidate == "" || candidate == current {
		return false
	}
	return version.Newer(current, candidate) == candidate
}

func copies(r types.Record) int {
	if r.Copies > 0 {
		return r.Copies
	}
	return 1
}

func sourcePaths(r types.Record) []string {
	if len(r.Paths) > 0 {
		return r.Paths
	}
	return []string{r.SourcePath}
}
