package types

import (
	"fmt"
	"strings"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/flanksource/clicky/api/icons"
	"github.com/flanksource/vstscan/pkg/utils"
)

// UnknownVendor is the canonical vendor assigned when nothing identifies the manufacturer
const UnknownVendor = "Unknown Vendor"

// Format identifies the plugin binary format
type Format string

const (
	FormatVST2 Format = "VST2"
	FormatVST3 Format = "VST3"
)

// ParseFormat accepts "vst2", "VST3", "vst 3", etc.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "VST2", "VST":
		return FormatVST2, nil
	case "VST3":
		return FormatVST3, nil
	}
	return "", fmt.Errorf("unknown plugin format %q (expected VST2 or VST3)", s)
}

func (f Format) Valid() bool {
	return f == FormatVST2 || f == FormatVST3
}

// Rank orders formats within a report: VST3 carries richer metadata and is listed first
func (f Format) Rank() int {
	switch f {
	case FormatVST3:
		return 0
	case FormatVST2:
		return 1
	default:
		return 2
	}
}

// Record is a single plugin discovered on disk, or the merge of several copies of one plugin
type Record struct {
	// RawVendor is the manufacturer exactly as read from the plugin metadata (may be empty)
	RawVendor string `json:"raw_vendor,omitempty" yaml:"raw_vendor,omitempty"`
	// Vendor is the canonical vendor assigned by the normalizer
	Vendor string `json:"vendor" yaml:"vendor"`
	// Name is the plugin name
	Name string `json:"name" yaml:"name"`
	// Format is VST2 or VST3
	Format Format `json:"format" yaml:"format"`
	// Version is the plugin version when the metadata provides one
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	// Identifier is the bundle identifier, e.g. com.sonible.smarteq
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	// Arch is the binary architecture (x64, x86, arm64, universal)
	Arch string `json:"arch,omitempty" yaml:"arch,omitempty"`
	// SourcePath is where the plugin was found; cleared once copies are merged
	SourcePath string `json:"path,omitempty" yaml:"path,omitempty"`
	// Copies is the number of physical copies merged into this record
	Copies int `json:"copies,omitempty" yaml:"copies,omitempty"`
	// Paths lists the source paths of all merged copies when diagnostics are enabled
	Paths []string `json:"paths,omitempty" yaml:"paths,omitempty"`
}

// Validate checks the invariants every record must satisfy before entering the pipeline
func (r Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("plugin at %s has no name", r.SourcePath)
	}
	if !r.Format.Valid() {
		return fmt.Errorf("plugin %s has invalid format %q", r.Name, r.Format)
	}
	return nil
}

// Key returns the deduplication identity of the record
func (r Record) Key() Key {
	return NewKey(r.Vendor, r.Name, r.Format)
}

// DisplayVersion returns the version with a single leading "v", or "" when absent
func (r Record) DisplayVersion() string {
	v := strings.TrimSpace(r.Version)
	if v == "" {
		return ""
	}
	if len(v) > 1 && (v[0] == 'v' || v[0] == 'V') && v[1] >= '0' && v[1] <= '9' {
		v = v[1:]
	}
	return "v" + v
}

// String renders the record as a report line, e.g. "bx_digital V3 (VST3, v3.0)"
func (r Record) String() string {
	if v := r.DisplayVersion(); v != "" {
		return fmt.Sprintf("%s (%s, %s)", r.Name, r.Format, v)
	}
	return fmt.Sprintf("%s (%s)", r.Name, r.Format)
}

func (r Record) Pretty() api.Text {
	text := clicky.Text("").Append(r.Name, "bold").Append(" (", "text-muted").Append(string(r.Format))
	if v := r.DisplayVersion(); v != "" {
		text = text.Append(", ", "text-muted").Append(v, "text-green-500")
	}
	text = text.Append(")", "text-muted")
	if r.Arch != "" {
		text = text.Append(" "+r.Arch, "text-muted")
	}
	if r.Copies > 1 {
		text = text.Append(fmt.Sprintf(" ×%d", r.Copies), "text-yellow-500")
	}
	return text
}

// Key is the identity of a logical plugin: canonical vendor, plugin name and format.
// Vendor and name are folded so spelling differences in case and spacing collapse.
type Key struct {
	Vendor string `json:"vendor" yaml:"vendor"`
	Name   string `json:"name" yaml:"name"`
	Format Format `json:"format" yaml:"format"`
}

func NewKey(vendor, name string, format Format) Key {
	return Key{
		Vendor: utils.Fold(vendor),
		Name:   utils.Fold(name),
		Format: format,
	}
}

// Less orders keys by vendor, then name, then VST3 before VST2
func (k Key) Less(o Key) bool {
	if k.Vendor != o.Vendor {
		return k.Vendor < o.Vendor
	}
	if k.Name != o.Name {
		return k.Name < o.Name
	}
	return k.Format.Rank() < o.Format.Rank()
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Vendor, k.Name, k.Format)
}

// Group holds the plugins of a single canonical vendor
type Group struct {
	Vendor  string   `json:"vendor" yaml:"vendor"`
	Plugins []Record `json:"plugins" yaml:"plugins"`
}

// Report is the grouped, ordered result handed to serializers
type Report struct {
	Groups []Group `json:"groups" yaml:"groups"`
	Total  int     `json:"total" yaml:"total"`
}

// Records flattens the report back into report order
func (r Report) Records() []Record {
	records := make([]Record, 0, r.Total)
	for _, g := range r.Groups {
		records = append(records, g.Plugins...)
	}
	return records
}

func (r Report) Empty() bool {
	return r.Total == 0
}

func (r Report) Pretty() api.Text {
	if r.Empty() {
		return clicky.Text("").Add(icons.Skip).Append(" No plugins found", "text-yellow-500")
	}

	text := clicky.Text("")
	for i, g := range r.Groups {
		if i > 0 {
			text = text.Append("\n")
		}
		style := "bold"
		if g.Vendor == UnknownVendor {
			style = "text-yellow-500"
		}
		text = text.Append("["+g.Vendor+"]", style).Append(fmt.Sprintf(" %d\n", len(g.Plugins)), "text-muted")
		for _, p := range g.Plugins {
			text = text.Append("  - ").Add(p.Pretty()).Append("\n")
		}
	}
	return text
}
