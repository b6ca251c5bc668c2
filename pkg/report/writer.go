package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/flanksource/vstscan/pkg/template"
	"github.com/flanksource/vstscan/pkg/types"
	"gopkg.in/yaml.v3"
)

// Format is a report serialization
type Format string

const (
	FormatText Format = "txt"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts txt/text, json, yaml/yml and csv
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown report format %q (expected txt, json, yaml or csv)", s)
}

// Extension returns the file extension for the format, including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// Options control the text serializer
type Options struct {
	// Paths appends " :: path" to every line
	Paths bool
	// LineTemplate replaces the default "- Name (VST3, v3.0)" line
	LineTemplate string
}

// WriteText writes the "[Vendor]" grouped report with a blank line between groups
func WriteText(w io.Writer, r types.Report, opts Options) error {
	for i, g := range r.Groups {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "[%s]\n", g.Vendor); err != nil {
			return err
		}
		for _, p := range g.Plugins {
			line, err := textLine(p, opts)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func textLine(p types.Record, opts Options) (string, error) {
	if opts.LineTemplate != "" {
		line, err := template.RenderRecord(opts.LineTemplate, p)
		if err != nil {
			return "", fmt.Errorf("failed to render line for %s: %w", p.Name, err)
		}
		return line, nil
	}

	line := "- " + p.String()
	if opts.Paths {
		if paths := recordPaths(p); len(paths) > 0 {
			line += " :: " + strings.Join(paths, ", ")
		}
	}
	return line, nil
}

func recordPaths(p types.Record) []string {
	if len(p.Paths) > 0 {
		return p.Paths
	}
	if p.SourcePath != "" {
		return []string{p.SourcePath}
	}
	return nil
}

// WriteJSON writes the grouped report as indented JSON
func WriteJSON(w io.Writer, r types.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report as JSON: %w", err)
	}
	return nil
}

// WriteYAML writes the grouped report as YAML
func WriteYAML(w io.Writer, r types.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report as YAML: %w", err)
	}
	return enc.Close()
}

var csvHeader = []string{"Vendor", "Name", "Format", "Version", "Arch", "Identifier", "Copies", "Paths"}

// WriteCSV writes one row per plugin in report order
func WriteCSV(w io.Writer, r types.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range r.Records() {
		row := []string{
			p.Vendor, p.Name, string(p.Format), p.Version, p.Arch, p.Identifier,
			strconv.Itoa(p.Copies), strings.Join(recordPaths(p), ";"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteUnknown lists plugins whose vendor could not be determined, with their paths,
// so the vendor table can be extended
func WriteUnknown(w io.Writer, r types.Report, sentinel string) error {
	if sentinel == "" {
		sentinel = types.UnknownVendor
	}
	var unknown []types.Record
	for _, g := range r.Groups {
		if g.Vendor == sentinel {
			unknown = append(unknown, g.Plugins...)
		}
	}

	if _, err := fmt.Fprintf(w, "# %d plugins without a known vendor\n", len(unknown)); err != nil {
		return err
	}
	for _, p := range unknown {
		line := "- " + p.String()
		if p.RawVendor != "" {
			line += fmt.Sprintf(" [raw vendor: %s]", p.RawVendor)
		}
		if paths := recordPaths(p); len(paths) > 0 {
			line += " :: " + strings.Join(paths, ", ")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Encode writes the report in the given format
func Encode(w io.Writer, format Format, r types.Report, opts Options) error {
	switch format {
	case FormatText:
		return WriteText(w, r, opts)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	case FormatCSV:
		return WriteCSV(w, r)
	}
	return fmt.Errorf("unknown report format %q", format)
}

// Write creates path (and its parent directories) and writes the report into it
func Write(path string, format Format, r types.Report, opts Options) error {
	return writeFile(path, func(w io.Writer) error {
		return Encode(w, format, r, opts)
	})
}

// OutputPath derives the file for a format from the base output path:
// plugins.txt -> plugins.json, plugins.txt -> plugins_unknown.txt
func OutputPath(base string, format Format, suffix string) string {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return stem + suffix + format.Extension()
}

func writeFile(path string, fn func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteUnknownFile writes the unknown-vendor report next to the main report
func WriteUnknownFile(path string, r types.Report, sentinel string) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteUnknown(w, r, sentinel)
	})
}
