package pingboard

import "errors"

// ErrNoTargets is returned when a registry would contain no targets.
var ErrNoTargets = errors.New("at least one target is required")

// Registry is the ordered, immutable list of targets a monitor probes.
// Each cycle walks the registry in order.
type Registry struct {
	targets []Target
}

// NewRegistry builds a [Registry] from targets, preserving their order.
// Duplicate addresses are kept.
//
// Returns [ErrNoTargets] if targets is empty.
func NewRegistry(targets ...Target) (Registry, error) {
	if len(targets) == 0 {
		return Registry{}, ErrNoTargets
	}
	for _, t := range targets {
		if err := validateAddress(t.address); err != nil {
			return Registry{}, err
		}
	}
	return Registry{targets: append([]Target(nil), targets...)}, nil
}

// Targets returns a copy of the registry's targets in order.
func (r Registry) Targets() []Target {
	return append([]Target(nil), r.targets...)
}

// Len returns the number of targets.
func (r Registry) Len() int {
	return len(r.targets)
}

// Lookup returns the first target with the given address.
func (r Registry) Lookup(address string) (Target, bool) {
	for _, t := range r.targets {
		if t.address == address {
			return t, true
		}
	}
	return Target{}, false
}
