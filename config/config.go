// Package config provides YAML configuration parsing for Pingboard.
//
// This package enables running Pingboard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
// JSON target lists such as ips.json are valid input too.
//
// Example configuration:
//
//	title: Office Network
//	port: 8080
//	poll_interval: 10s
//	max_concurrency: 4
//
//	probe:
//	  http_timeout: 3s
//	  tcp_timeout: 2s
//	  tcp_ports: [80, 443]
//
//	targets:
//	  - name: Router
//	    address: 192.168.1.1
//	  - name: NAS
//	    address: ${NAS_HOST:-nas.local}:5000
//
//	grids:
//	  - name: Switch
//	    address_template: "10.0.{{.rack}}.{{.unit}}"
//	    dimensions:
//	      rack: ["1", "2"]
//	      unit: ["10", "11"]
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"text/template"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/pingboard"
)

const (
	defaultPort           = 8080
	defaultPollInterval   = 10 * time.Second
	defaultMaxConcurrency = 1

	// minPollInterval keeps a misconfigured file from hammering targets.
	minPollInterval = 1 * time.Second
)

// ErrNoUsableTargets is wrapped by [Error] when a file yields no target.
var ErrNoUsableTargets = errors.New("no usable targets")

// Error reports a configuration that could not be loaded.
//
// Use errors.As to detect it:
//
//	var cfgErr *config.Error
//	if errors.As(err, &cfgErr) {
//	    log.Printf("bad config %s: %v", cfgErr.Path, cfgErr.Err)
//	}
type Error struct {
	// Path is the file that failed. Empty when parsing raw bytes.
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return "config: " + e.Err.Error()
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config is the root configuration structure for Pingboard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "Pingboard" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// PollInterval is the time between the starts of two probing cycles.
	// Accepts duration strings like "10s", "1m". Defaults to 10s.
	PollInterval Duration `yaml:"poll_interval"`

	// MaxConcurrency bounds how many targets are probed at once.
	// Defaults to 1.
	MaxConcurrency int `yaml:"max_concurrency"`

	// Probe tunes the layered prober. Zero values keep the SDK defaults.
	Probe ProbeConfig `yaml:"probe"`

	// Targets lists individual targets. After parsing it holds only the
	// usable entries, with addresses expanded.
	Targets []TargetConfig `yaml:"targets"`

	// Grids defines target grids that expand via cartesian product.
	Grids []GridConfig `yaml:"grids"`

	// Warnings describes entries that were skipped as unusable.
	Warnings []string `yaml:"-"`
}

// ProbeConfig holds prober settings.
type ProbeConfig struct {
	HTTPTimeout Duration `yaml:"http_timeout"`
	TCPTimeout  Duration `yaml:"tcp_timeout"`
	TCPPorts    []int    `yaml:"tcp_ports"`
	UserAgent   string   `yaml:"user_agent"`
}

// TargetConfig defines a single target.
type TargetConfig struct {
	// Name is the display name. Defaults to the address.
	Name string `yaml:"name"`

	// Address is a bare host, IP or host:port, without scheme.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Address string `yaml:"address"`

	// IP is the legacy spelling of Address, used when Address is empty.
	IP string `yaml:"ip"`
}

// GridConfig defines a target grid that expands via cartesian product.
//
// For example, with dimensions {rack: [1, 2], unit: [10, 11]}, the grid
// expands to 4 targets.
type GridConfig struct {
	// Name is the base name for generated targets.
	Name string `yaml:"name"`

	// AddressTemplate is a Go template for generating addresses.
	// Dimension keys are available as template variables: {{.rack}}
	AddressTemplate string `yaml:"address_template"`

	// Dimensions maps dimension names to their possible values.
	Dimensions map[string][]string `yaml:"dimensions"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a configuration file.
//
// Every failure is returned as an [*Error] carrying path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return cfg, nil
}

// Parse parses YAML or JSON configuration data.
//
// Environment variables are expanded in target addresses and address
// templates. Defaults are applied for Port (8080), PollInterval (10s) and
// MaxConcurrency (1). Every validation problem is reported, combined into
// one [*Error].
func Parse(data []byte) (*Config, error) {
	cfg, err := parse(data)
	if err != nil {
		return nil, &Error{Err: err}
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(defaultPollInterval)
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = defaultMaxConcurrency
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables, drops unusable targets
// into Warnings and collects every hard error.
func (c *Config) expandAndValidate() error {
	var errs error

	if c.PollInterval.Duration() < minPollInterval {
		errs = multierr.Append(errs, fmt.Errorf("poll_interval must be at least %s, got %s",
			minPollInterval, c.PollInterval.Duration()))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
	}
	if c.MaxConcurrency < 0 {
		errs = multierr.Append(errs, fmt.Errorf("max_concurrency must be positive, got %d", c.MaxConcurrency))
	}
	errs = multierr.Append(errs, c.Probe.validate())

	usable := c.Targets[:0]
	for i, tc := range c.Targets {
		address := tc.Address
		if address == "" {
			address = tc.IP
		}

		expanded, err := expandEnvVars(strings.TrimSpace(address))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("targets[%d] (%s): address: %w", i, tc.Name, err))
			continue
		}

		if _, err := pingboard.NewTarget(expanded, tc.Name); err != nil {
			c.Warnings = append(c.Warnings, fmt.Sprintf("targets[%d] (%s): skipped: %v", i, tc.Name, err))
			continue
		}

		tc.Address = expanded
		tc.IP = ""
		usable = append(usable, tc)
	}
	c.Targets = usable

	for i := range c.Grids {
		errs = multierr.Append(errs, c.Grids[i].expandAndValidate(i))
	}

	if errs != nil {
		return errs
	}

	if len(c.Targets) == 0 && len(c.Grids) == 0 {
		return ErrNoUsableTargets
	}
	return nil
}

func (p ProbeConfig) validate() error {
	var errs error
	if p.HTTPTimeout < 0 {
		errs = multierr.Append(errs, fmt.Errorf("probe.http_timeout cannot be negative, got %s", p.HTTPTimeout.Duration()))
	}
	if p.TCPTimeout < 0 {
		errs = multierr.Append(errs, fmt.Errorf("probe.tcp_timeout cannot be negative, got %s", p.TCPTimeout.Duration()))
	}
	for _, port := range p.TCPPorts {
		if port < 1 || port > 65535 {
			errs = multierr.Append(errs, fmt.Errorf("probe.tcp_ports: port must be between 1 and 65535, got %d", port))
		}
	}
	return errs
}

func (g *GridConfig) expandAndValidate(i int) error {
	if g.Name == "" {
		return fmt.Errorf("grids[%d]: name is required", i)
	}
	if g.AddressTemplate == "" {
		return fmt.Errorf("grids[%d] (%s): address_template is required", i, g.Name)
	}

	var errs error

	expanded, err := expandEnvVars(g.AddressTemplate)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("grids[%d] (%s): address_template: %w", i, g.Name, err))
	} else {
		g.AddressTemplate = expanded
		// fail fast before the SDK tries to use an invalid template
		if _, err := template.New("").Parse(g.AddressTemplate); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("grids[%d] (%s): invalid address_template: %w", i, g.Name, err))
		}
	}

	if len(g.Dimensions) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("grids[%d] (%s): at least one dimension is required", i, g.Name))
	}
	for dimName, dimValues := range g.Dimensions {
		if len(dimValues) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("grids[%d] (%s): dimension %q has no values", i, g.Name, dimName))
			continue
		}
		seen := make(map[string]struct{}, len(dimValues))
		for _, v := range dimValues {
			if _, exists := seen[v]; exists {
				errs = multierr.Append(errs, fmt.Errorf("grids[%d] (%s): dimension %q has duplicate value %q", i, g.Name, dimName, v))
			}
			seen[v] = struct{}{}
		}
	}

	return errs
}
