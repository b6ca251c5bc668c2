package vstscan

import (
	"context"
	"fmt"

	"github.com/flanksource/clicky/task"
	"github.com/flanksource/commons/logger"
	"github.com/flanksource/vstscan/pkg/config"
	"github.com/flanksource/vstscan/pkg/dedup"
	"github.com/flanksource/vstscan/pkg/filter"
	"github.com/flanksource/vstscan/pkg/platform"
	"github.com/flanksource/vstscan/pkg/report"
	"github.com/flanksource/vstscan/pkg/scanner"
	"github.com/flanksource/vstscan/pkg/types"
	"github.com/flanksource/vstscan/pkg/vendor"
)

// Re-export commonly used types for public API
type (
	Record    = types.Record
	Report    = types.Report
	Group     = types.Group
	Format    = types.Format
	Config    = types.Config
	Stats     = report.Stats
	Collapse  = dedup.Collapse
	FileError = scanner.FileError
)

const (
	FormatVST2    = types.FormatVST2
	FormatVST3    = types.FormatVST3
	UnknownVendor = types.UnknownVendor
)

type options struct {
	config       *types.Config
	workers      int
	filter       string
	defaultPaths bool
	diagnostics  bool
	task         *task.Task
}

// Option configures Process and Scan
type Option func(*options)

// WithConfig uses cfg instead of the global configuration
func WithConfig(cfg *types.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithWorkers bounds how many plugins are read concurrently
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithFilter keeps only the plugins matching a CEL expression, e.g. `format == "VST3"`
func WithFilter(expression string) Option {
	return func(o *options) { o.filter = expression }
}

// WithDefaultPaths adds the conventional plugin folders of the current platform to the scan
func WithDefaultPaths(enabled bool) Option {
	return func(o *options) { o.defaultPaths = enabled }
}

// WithDiagnostics keeps the source paths of every merged copy in the report
func WithDiagnostics(enabled bool) Option {
	return func(o *options) { o.diagnostics = enabled }
}

// WithTask reports scan progress on a clicky task
func WithTask(t *task.Task) Option {
	return func(o *options) { o.task = t }
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.config == nil {
		o.config = config.GetGlobalConfig()
	}
	return o
}

// Result is a finished scan
type Result struct {
	Report    types.Report        `json:"report" yaml:"report"`
	Stats     report.Stats        `json:"stats" yaml:"stats"`
	Collapses []dedup.Collapse    `json:"collapses,omitempty" yaml:"collapses,omitempty"`
	Errors    []scanner.FileError `json:"errors,omitempty" yaml:"errors,omitempty"`
	Roots     []string            `json:"roots" yaml:"roots"`
	// Sentinel is the vendor label of plugins without a known vendor
	Sentinel string `json:"sentinel" yaml:"sentinel"`
}

// Process turns raw records into the grouped report: invalid records are dropped, vendors are
// normalized, copies are merged, the filter is applied and the rest is grouped by vendor.
// The input is not modified. Only an invalid filter expression is an error.
//
// Example:
//
//	r, err := vstscan.Process([]vstscan.Record{
//	    {RawVendor: "brainworx", Name: "bx_digital V3", Format: vstscan.FormatVST3, Version: "3.0"},
//	    {RawVendor: "Brainworx GmbH", Name: "bx_digital V3", Format: vstscan.FormatVST3, Version: "2.5"},
//	})
//	// r.Groups[0].Vendor == "Brainworx", r.Groups[0].Plugins[0].String() == "bx_digital V3 (VST3, v3.0)"
func Process(records []types.Record, opts ...Option) (types.Report, error) {
	o := newOptions(opts)
	res, err := process(records, vendor.New(o.config), o)
	if err != nil {
		return types.Report{}, err
	}
	return res.Report, nil
}

func process(records []types.Record, n *vendor.Normalizer, o *options) (*Result, error) {
	f, err := filter.Compile(o.filter)
	if err != nil {
		return nil, err
	}

	normalized := make([]types.Record, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			logger.Warnf("Skipping plugin: %v", err)
			continue
		}
		raw := r.RawVendor
		if raw == "" {
			raw = r.Vendor
		}
		m := n.Match(raw, r.Name)
		logger.V(4).Infof("%s: %q -> %s (%s)", r.Name, raw, m.Vendor, m.Tier)
		r.Vendor = m.Vendor
		normalized = append(normalized, r)
	}

	merged, collapses := dedup.DeduplicateWithCollapses(normalized)
	for _, c := range collapses {
		logger.V(3).Infof("Merged %d copies of %s", len(c.Paths), c.Key)
	}

	kept, err := f.Apply(merged)
	if err != nil {
		return nil, err
	}
	if f.String() != "" {
		logger.V(2).Infof("Filter %q kept %d of %d plugins", f.String(), len(kept), len(merged))
	}

	if !o.diagnostics {
		for i := range kept {
			kept[i].Paths = nil
		}
	}

	r := report.Build(kept)
	return &Result{
		Report:    r,
		Stats:     report.Summarize(r, n.Sentinel()),
		Collapses: collapses,
		Sentinel:  n.Sentinel(),
	}, nil
}

// Roots returns the folders a scan of paths would visit: the given paths plus, when enabled
// by option or configuration, the default plugin folders of the platform
func Roots(paths []string, opts ...Option) []string {
	return roots(paths, newOptions(opts))
}

func roots(paths []string, o *options) []string {
	out := append([]string{}, paths...)
	if o.defaultPaths || o.config.Settings.IncludeDefaultPaths {
		defaults := platform.DefaultPluginPaths(platform.Current())
		logger.V(2).Infof("Adding %d default plugin folders for %s", len(defaults), platform.Current())
		out = append(out, defaults...)
	}
	return out
}

// Scan discovers the plugins under paths and builds the grouped report.
// Unreadable plugins are reported in Result.Errors and do not fail the scan.
func Scan(ctx context.Context, paths []string, opts ...Option) (*Result, error) {
	o := newOptions(opts)

	scanRoots := roots(paths, o)
	if len(scanRoots) == 0 {
		return nil, fmt.Errorf("no plugin paths to scan: pass a path or enable the default plugin paths")
	}

	workers := o.workers
	if workers <= 0 {
		workers = o.config.Settings.Workers
	}
	if workers <= 0 {
		workers = scanner.DefaultWorkers
	}

	n := vendor.New(o.config)
	s := scanner.New(n,
		scanner.WithWorkers(workers),
		scanner.WithExtensions(o.config.Settings.Extensions...),
		scanner.WithTask(o.task))

	scanned, err := s.Scan(ctx, scanRoots)
	if err != nil {
		return nil, err
	}

	res, err := process(scanned.Records, n, o)
	if err != nil {
		return nil, err
	}
	res.Errors = scanned.Errors
	res.Roots = scanRoots
	return res, nil
}
