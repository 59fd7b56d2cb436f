package pingboard

import (
	"errors"
	"fmt"
	"strings"
)

// Target is a network endpoint to probe for reachability.
//
// Target is immutable after creation via [NewTarget]. Its identity is the
// address; two targets with the same address are probed separately but
// share one status entry, the last written wins.
type Target struct {
	address string
	name    string
}

// Address returns the host, IP address or host:port that is probed.
func (t Target) Address() string {
	return t.address
}

// Name returns the target's display name.
func (t Target) Name() string {
	return t.name
}

// String implements fmt.Stringer.
func (t Target) String() string {
	if t.name == t.address {
		return t.address
	}
	return fmt.Sprintf("%s (%s)", t.name, t.address)
}

// NewTarget creates a [Target] for address with a display name.
//
// The address is a bare host or IP, optionally with a port; it must not carry
// a URL scheme since the prober chooses the scheme itself. An empty name
// defaults to the address.
//
// Example:
//
//	router, err := pingboard.NewTarget("192.168.1.1", "Core Router")
func NewTarget(address, name string) (Target, error) {
	address = strings.TrimSpace(address)
	if err := validateAddress(address); err != nil {
		return Target{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = address
	}
	return Target{address: address, name: name}, nil
}

func validateAddress(address string) error {
	if address == "" {
		return errors.New("target address cannot be empty")
	}
	if strings.Contains(address, "://") {
		return fmt.Errorf("target address %q must not include a scheme", address)
	}
	if strings.ContainsAny(address, " /?#") {
		return fmt.Errorf("target address %q must be a host, IP or host:port", address)
	}
	return nil
}
