package config

import (
	"errors"
	"fmt"

	"github.com/jpalmerr/pingboard"
)

// BuildTargets converts parsed configuration into SDK Target values.
//
// Direct targets come first in file order, followed by each grid's
// expansion in grid order.
func BuildTargets(cfg *Config) ([]pingboard.Target, error) {
	targets := make([]pingboard.Target, 0, len(cfg.Targets))

	for i, tc := range cfg.Targets {
		t, err := pingboard.NewTarget(tc.Address, tc.Name)
		if err != nil {
			return nil, fmt.Errorf("targets[%d] (%s): %w", i, tc.Name, err)
		}
		targets = append(targets, t)
	}

	for i, gc := range cfg.Grids {
		gridTargets, err := pingboard.NewTargetGrid(gc.Name,
			pingboard.WithAddressTemplate(gc.AddressTemplate),
			pingboard.WithDimensions(gc.Dimensions),
		)
		if err != nil {
			return nil, fmt.Errorf("grids[%d] (%s): %w", i, gc.Name, err)
		}
		targets = append(targets, gridTargets...)
	}

	return targets, nil
}

// BuildOptions converts parsed configuration into SDK options, targets
// included. Probe settings left at zero keep the SDK defaults.
func BuildOptions(cfg *Config) ([]pingboard.Option, error) {
	targets, err := BuildTargets(cfg)
	if err != nil {
		return nil, err
	}

	opts := []pingboard.Option{
		pingboard.WithTargets(targets...),
		pingboard.WithPort(cfg.Port),
		pingboard.WithPollingInterval(cfg.PollInterval.Duration()),
		pingboard.WithMaxConcurrency(cfg.MaxConcurrency),
	}
	if cfg.Title != "" {
		opts = append(opts, pingboard.WithTitle(cfg.Title))
	}
	if cfg.Probe.HTTPTimeout != 0 {
		opts = append(opts, pingboard.WithHTTPTimeout(cfg.Probe.HTTPTimeout.Duration()))
	}
	if cfg.Probe.TCPTimeout != 0 {
		opts = append(opts, pingboard.WithTCPTimeout(cfg.Probe.TCPTimeout.Duration()))
	}
	if len(cfg.Probe.TCPPorts) > 0 {
		opts = append(opts, pingboard.WithTCPPorts(cfg.Probe.TCPPorts...))
	}
	if cfg.Probe.UserAgent != "" {
		opts = append(opts, pingboard.WithUserAgent(cfg.Probe.UserAgent))
	}

	return opts, nil
}

// LoadRegistry reads path and returns its targets as a registry.
//
// It fails with an [*Error] when the file is missing or malformed, or when
// it yields no usable target. Unusable entries alone do not fail the load.
func LoadRegistry(path string) (pingboard.Registry, error) {
	cfg, err := Load(path)
	if err != nil {
		return pingboard.Registry{}, err
	}

	targets, err := BuildTargets(cfg)
	if err != nil {
		return pingboard.Registry{}, &Error{Path: path, Err: err}
	}

	reg, err := pingboard.NewRegistry(targets...)
	if errors.Is(err, pingboard.ErrNoTargets) {
		return pingboard.Registry{}, &Error{Path: path, Err: ErrNoUsableTargets}
	}
	if err != nil {
		return pingboard.Registry{}, &Error{Path: path, Err: err}
	}
	return reg, nil
}
