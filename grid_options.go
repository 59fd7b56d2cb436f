package pingboard

import (
	"errors"
	"fmt"
	"strconv"
)

// gridConfig holds configuration during target grid construction.
type gridConfig struct {
	addressTemplate string
	dimensions      map[string][]string
}

// GridOption configures target grid generation.
// GridOption implements the functional options pattern for [NewTargetGrid].
type GridOption func(*gridConfig) error

// WithAddressTemplate sets the address template for target generation.
// The template uses Go's text/template syntax with dimension keys as variables.
//
// Example:
//
//	WithAddressTemplate("{{.host}}.{{.site}}.example.net")
//
// Returns an error if the template string is empty.
func WithAddressTemplate(tmpl string) GridOption {
	return func(cfg *gridConfig) error {
		if tmpl == "" {
			return errors.New("address template required")
		}
		cfg.addressTemplate = tmpl
		return nil
	}
}

// WithDimensions sets the dimension values for cartesian product expansion.
// Each key in the map becomes a template variable, and the cartesian product
// of all values generates the target combinations.
//
// Example:
//
//	WithDimensions(map[string][]string{
//	    "site": {"ams", "fra"},
//	    "host": {"edge1", "edge2"},
//	})
//
// Can be combined with [WithRange]; a key set twice keeps the last values.
//
// Returns an error if the map is empty, any dimension has no values,
// or any value is an empty string.
func WithDimensions(dims map[string][]string) GridOption {
	return func(cfg *gridConfig) error {
		if len(dims) == 0 {
			return errors.New("at least one dimension required")
		}
		for k, vals := range dims {
			if len(vals) == 0 {
				return fmt.Errorf("dimension '%s' has no values", k)
			}
			for i, v := range vals {
				if v == "" {
					return fmt.Errorf("dimension '%s' contains empty value at index %d", k, i)
				}
			}
		}
		if cfg.dimensions == nil {
			cfg.dimensions = make(map[string][]string, len(dims))
		}
		for k, vals := range dims {
			cfg.dimensions[k] = append([]string(nil), vals...)
		}
		return nil
	}
}

// WithRange adds a numeric dimension holding every integer from first to
// last inclusive, which suits host octets and port blocks.
//
// Example:
//
//	WithRange("host", 1, 254) // {{.host}} takes "1" through "254"
//
// Returns an error if key is empty or last is below first.
func WithRange(key string, first, last int) GridOption {
	return func(cfg *gridConfig) error {
		if key == "" {
			return errors.New("range dimension name required")
		}
		if last < first {
			return fmt.Errorf("range '%s' ends before it starts (%d > %d)", key, first, last)
		}
		vals := make([]string, 0, last-first+1)
		for n := first; n <= last; n++ {
			vals = append(vals, strconv.Itoa(n))
		}
		if cfg.dimensions == nil {
			cfg.dimensions = make(map[string][]string)
		}
		cfg.dimensions[key] = vals
		return nil
	}
}
