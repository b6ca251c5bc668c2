package filter

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	vsttypes "github.com/flanksource/vstscan/pkg/types"
	"github.com/flanksource/vstscan/pkg/utils"
	"github.com/flanksource/vstscan/pkg/version"
)

// Filter is a compiled CEL predicate over plugin records, e.g.
// `vendor == "Brainworx" && format == "VST3"` or `newer(version, "2.0")`
type Filter struct {
	expression string
	program    cel.Program
}

// Compile parses and type-checks a filter expression. An empty expression matches everything.
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return &Filter{}, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("vendor", cel.StringType),
		cel.Variable("raw_vendor", cel.StringType),
		cel.Variable("name", cel.StringType),
		cel.Variable("format", cel.StringType),
		cel.Variable("version", cel.StringType),
		cel.Variable("arch", cel.StringType),
		cel.Variable("identifier", cel.StringType),
		cel.Variable("copies", cel.IntType),
		cel.Variable("paths", cel.ListType(cel.StringType)),
		cel.Function("newer",
			cel.Overload("newer_string_string", []*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
				cel.BinaryBinding(newerCEL))),
		cel.Function("fold",
			cel.Overload("fold_string", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(foldCEL))),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expression, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter %q must evaluate to a bool, got %s", expression, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to plan filter %q: %w", expression, err)
	}

	return &Filter{expression: expression, program: program}, nil
}

func (f *Filter) String() string {
	return f.expression
}

// Match evaluates the filter against one record
func (f *Filter) Match(r vsttypes.Record) (bool, error) {
	if f == nil || f.program == nil {
		return true, nil
	}

	paths := r.Paths
	if paths == nil {
		paths = []string{}
	}
	result, _, err := f.program.Eval(map[string]interface{}{
		"vendor":     r.Vendor,
		"raw_vendor": r.RawVendor,
		"name":       r.Name,
		"format":     string(r.Format),
		"version":    r.Version,
		"arch":       r.Arch,
		"identifier": r.Identifier,
		"copies":     int64(r.Copies),
		"paths":      paths,
	})
	if err != nil {
		return false, fmt.Errorf("filter %q failed on %s: %w", f.expression, r.Name, err)
	}

	matched, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T, expected bool", f.expression, result.Value())
	}
	return matched, nil
}

// Apply keeps the records the filter matches, preserving order
func (f *Filter) Apply(records []vsttypes.Record) ([]vsttypes.Record, error) {
	if f == nil || f.program == nil {
		return records, nil
	}

	out := make([]vsttypes.Record, 0, len(records))
	for _, r := range records {
		ok, err := f.Match(r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func newerCEL(lhs, rhs ref.Val) ref.Val {
	c, ok := version.Compare(string(lhs.(types.String)), string(rhs.(types.String)))
	return types.Bool(ok && c > 0)
}

func foldCEL(val ref.Val) ref.Val {
	return types.String(utils.Fold(string(val.(types.String))))
}
