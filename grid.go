package pingboard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// NewTargetGrid creates multiple targets from an address template and
// dimensions using cartesian product expansion.
//
// The address template uses Go's text/template syntax. Missing template keys
// cause an error (fail-fast).
//
// Each target name includes dimension values in the format
// "Base Name (val1/val2)" (values from alphabetically sorted keys).
//
// Example:
//
//	targets, err := NewTargetGrid("Rack",
//	    WithAddressTemplate("10.{{.row}}.0.{{.host}}"),
//	    WithDimensions(map[string][]string{
//	        "row":  {"1", "2"},
//	        "host": {"10", "11"},
//	    }),
//	)
//	// Returns 4 targets, usable with WithTargets(targets...)
func NewTargetGrid(baseName string, opts ...GridOption) ([]Target, error) {
	if strings.TrimSpace(baseName) == "" {
		return nil, errors.New("base name cannot be empty")
	}

	cfg := &gridConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.addressTemplate == "" {
		return nil, errors.New("address template required")
	}
	if len(cfg.dimensions) == 0 {
		return nil, errors.New("at least one dimension required")
	}

	// parse template with missingkey=error for fail-fast behaviour
	tmpl, err := template.New("address").Option("missingkey=error").Parse(cfg.addressTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid address template: %w", err)
	}

	combinations := cartesianProduct(cfg.dimensions)
	if len(combinations) == 0 {
		return nil, nil
	}

	targets := make([]Target, 0, len(combinations))
	for _, combo := range combinations {
		address, err := executeTemplate(tmpl, combo)
		if err != nil {
			return nil, fmt.Errorf("template execution failed: %w", err)
		}

		name := formatTargetName(baseName, combo)
		t, err := NewTarget(address, name)
		if err != nil {
			return nil, fmt.Errorf("failed to create target '%s': %w", name, err)
		}
		targets = append(targets, t)
	}

	return targets, nil
}

// cartesianProduct generates all combinations of dimension values.
//
// Keys are walked in sorted order, so the first key varies slowest and the
// last key fastest. Values keep their slice order. Returns nil if dims is
// empty or any dimension has no values.
//
// Example:
//
//	Input:  {"x": ["a","b"], "y": ["1","2"]}
//	Output: [{"x":"a","y":"1"}, {"x":"a","y":"2"}, {"x":"b","y":"1"}, {"x":"b","y":"2"}]
func cartesianProduct(dims map[string][]string) []map[string]string {
	if len(dims) == 0 {
		return nil
	}

	keys := make([]string, 0, len(dims))
	for k := range dims {
		if len(dims[k]) == 0 {
			return nil
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	combos := []map[string]string{{}}
	for _, key := range keys {
		next := make([]map[string]string, 0, len(combos)*len(dims[key]))
		for _, prefix := range combos {
			for _, v := range dims[key] {
				combo := make(map[string]string, len(prefix)+1)
				for pk, pv := range prefix {
					combo[pk] = pv
				}
				combo[key] = v
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos
}

// GridSize returns how many targets a grid with dims expands to.
func GridSize(dims map[string][]string) int {
	if len(dims) == 0 {
		return 0
	}
	size := 1
	for _, vals := range dims {
		size *= len(vals)
	}
	return size
}

func executeTemplate(tmpl *template.Template, data map[string]string) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatTargetName creates a name in the format "Base (v1/v2)".
// Values are ordered by sorted keys for consistent naming.
func formatTargetName(baseName string, combo map[string]string) string {
	keys := make([]string, 0, len(combo))
	for k := range combo {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = combo[k]
	}
	return fmt.Sprintf("%s (%s)", baseName, strings.Join(parts, "/"))
}
