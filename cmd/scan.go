package cmd

import (
	"fmt"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/task"
	flanksourceContext "github.com/flanksource/commons/context"
	"github.com/flanksource/vstscan"
	"github.com/flanksource/vstscan/pkg/report"
	"github.com/flanksource/vstscan/pkg/types"
	"github.com/flanksource/vstscan/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	scanOutput       string
	scanFormats      []string
	scanDefaultPaths bool
	scanUnknown      bool
	scanStats        bool
	scanPaths        bool
	scanFilter       string
	scanWorkers      int
	scanTemplate     string
)

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Scan plugin folders and write a report grouped by vendor",
	Long: `Scan plugin folders and write a report grouped by vendor.

Without paths the default plugin folders of the platform are scanned.

Examples:
  vstscan scan                                   # scan the default plugin folders
  vstscan scan ~/VST3 /mnt/backup/VST -o out.txt # scan specific folders
  vstscan scan --format txt --format json        # write plugins.txt and plugins.json
  vstscan scan --unknown --paths                 # also write plugins_unknown.txt
  vstscan scan --filter 'vendor == "FabFilter"'  # only FabFilter plugins
  vstscan scan --template '{{.vendor}};{{.name}};{{.format}}'`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Report file; other formats reuse its name (default: plugins.txt)")
	scanCmd.Flags().StringSliceVar(&scanFormats, "format", nil, "Report formats: txt, json, yaml, csv (repeatable)")
	scanCmd.Flags().BoolVar(&scanDefaultPaths, "include-default-paths", false, "Scan the default plugin folders in addition to the given paths")
	scanCmd.Flags().BoolVar(&scanUnknown, "unknown", false, "Write plugins without a known vendor to <output>_unknown.txt")
	scanCmd.Flags().BoolVar(&scanStats, "stats", false, "Print statistics after the scan")
	scanCmd.Flags().BoolVar(&scanPaths, "paths", false, "Append the source paths to every report line")
	scanCmd.Flags().StringVar(&scanFilter, "filter", "", "CEL expression selecting the plugins to report, e.g. 'format == \"VST3\"'")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Plugins read concurrently (default from config)")
	scanCmd.Flags().StringVar(&scanTemplate, "template", "", "Template for text report lines, e.g. '{{.name}} by {{.vendor}}'")
}

// scanPlan is the resolved set of outputs for one scan
type scanPlan struct {
	output   string
	formats  []report.Format
	template string
	options  []vstscan.Option
}

func newScanPlan(cfg *types.Config, args []string) (*scanPlan, error) {
	plan := &scanPlan{
		output:   scanOutput,
		template: scanTemplate,
	}
	if plan.output == "" {
		plan.output = cfg.Settings.Output
	}
	if plan.output == "" {
		plan.output = "plugins.txt"
	}
	if plan.template == "" {
		plan.template = cfg.Settings.LineTemplate
	}

	formats := scanFormats
	if len(formats) == 0 {
		formats = cfg.Settings.Formats
	}
	if len(formats) == 0 {
		formats = []string{string(report.FormatText)}
	}
	seen := map[report.Format]bool{}
	for _, f := range formats {
		format, err := report.ParseFormat(f)
		if err != nil {
			return nil, err
		}
		if !seen[format] {
			seen[format] = true
			plan.formats = append(plan.formats, format)
		}
	}

	plan.options = []vstscan.Option{
		vstscan.WithConfig(cfg),
		vstscan.WithWorkers(scanWorkers),
		vstscan.WithFilter(scanFilter),
		vstscan.WithDefaultPaths(scanDefaultPaths || len(args) == 0),
		vstscan.WithDiagnostics(scanPaths || scanUnknown),
	}
	return plan, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	plan, err := newScanPlan(GetConfig(), args)
	if err != nil {
		return err
	}

	var result *vstscan.Result
	var scanErr error

	task.StartTask("scan", func(ctx flanksourceContext.Context, t *task.Task) (interface{}, error) {
		result, scanErr = vstscan.Scan(ctx, args, append(plan.options, vstscan.WithTask(t))...)
		if scanErr != nil {
			return nil, scanErr
		}
		scanErr = writeReports(t, result, plan)
		return result.Stats, scanErr
	})

	exitCode := clicky.WaitForGlobalCompletion()
	if scanErr != nil {
		return scanErr
	}
	if exitCode != 0 {
		return fmt.Errorf("scan failed with exit code %d", exitCode)
	}

	if scanStats {
		out, err := clicky.Format(result.Stats)
		if err != nil {
			return err
		}
		cmd.Println(out)
	}
	return nil
}

func writeReports(t *task.Task, result *vstscan.Result, plan *scanPlan) error {
	if result.Report.Empty() {
		t.Warnf("No plugins found in %d locations", len(result.Roots))
	}

	opts := report.Options{Paths: scanPaths, LineTemplate: plan.template}
	for _, format := range plan.formats {
		path := report.OutputPath(plan.output, format, "")
		err := utils.LogOperation(t, "Writing", utils.LogPath(path), func() error {
			return report.Write(path, format, result.Report, opts)
		})
		if err != nil {
			return err
		}
	}

	if scanUnknown {
		path := report.OutputPath(plan.output, report.FormatText, "_unknown")
		err := utils.LogOperation(t, "Writing", utils.LogPath(path), func() error {
			return report.WriteUnknownFile(path, result.Report, result.Sentinel)
		})
		if err != nil {
			return err
		}
	}

	t.Infof("%d plugins from %d vendors", result.Stats.Total, result.Stats.Vendors)
	return nil
}
