package template

import (
	"fmt"
	"strings"

	"github.com/flanksource/gomplate/v3"
	"github.com/flanksource/vstscan/pkg/types"
)

// RenderTemplate renders a template string using flanksource/gomplate
func RenderTemplate(templateStr string, data map[string]interface{}) (string, error) {
	result, err := gomplate.RunTemplate(data, gomplate.Template{
		Template: templateStr,
	})
	if err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return result, nil
}

// RenderCELExpression renders a CEL expression using flanksource/gomplate
func RenderCELExpression(expression string, data map[string]interface{}) (string, error) {
	result, err := gomplate.RunTemplate(data, gomplate.Template{
		Expression: expression,
	})
	if err != nil {
		return "", fmt.Errorf("CEL expression execution failed: %w", err)
	}

	return result, nil
}

// isCELExpression checks if a string looks like a CEL expression rather than a Go template
func isCELExpression(expr string) bool {
	if strings.Contains(expr, "{{") {
		return false
	}
	return strings.Contains(expr, " ? ") ||
		strings.Contains(expr, " + ") ||
		strings.Contains(expr, "==") ||
		strings.Contains(expr, "!=")
}

// RecordData exposes a plugin record to templates and expressions
func RecordData(r types.Record) map[string]interface{} {
	return map[string]interface{}{
		"vendor":     r.Vendor,
		"raw_vendor": r.RawVendor,
		"name":       r.Name,
		"format":     string(r.Format),
		"version":    r.Version,
		"display":    r.DisplayVersion(),
		"identifier": r.Identifier,
		"arch":       r.Arch,
		"copies":     r.Copies,
		"paths":      r.Paths,
		"path":       strings.Join(r.Paths, ", "),
	}
}

// RenderRecord renders one report line for a record, e.g. "{{.name}} [{{.format}}] {{.display}}"
// or the CEL form `name + " " + display`
func RenderRecord(expr string, r types.Record) (string, error) {
	data := RecordData(r)
	if isCELExpression(expr) {
		return RenderCELExpression(expr, data)
	}
	return RenderTemplate(expr, data)
}
