package pingboard

import "time"

// Status is the reachability verdict of a target as shown in the API.
type Status string

const (
	// StatusOnline indicates the target answered on some tier.
	StatusOnline Status = "online"

	// StatusOffline indicates the target could not be reached, or answered
	// with an HTTP error or timed out.
	StatusOffline Status = "offline"
)

// String returns the string representation of the status.
// This implements the fmt.Stringer interface.
func (s Status) String() string {
	return string(s)
}

// Tier identifies the probing strategy that produced a verdict.
type Tier string

const (
	TierHTTP  Tier = "http"
	TierHTTPS Tier = "https"
	TierTCP   Tier = "tcp"

	// TierNone marks a verdict reached after every tier failed.
	TierNone Tier = "none"
)

// ProbeResult holds the outcome of probing a single target.
//
// ProbeResult is immutable after creation. Probe failures are data, not
// errors: an unreachable target yields a result with Status [StatusOffline]
// and a Detail explaining why.
type ProbeResult struct {
	// Address is the probed target address.
	Address string

	// Name is the target's display name.
	Name string

	// Status is [StatusOnline] when Reachable, otherwise [StatusOffline].
	Status Status

	// Reachable is the verdict of the probe.
	Reachable bool

	// Detail is the classification tag, for example "HTTP OK (200)",
	// "HTTPS Timeout" or "TCP Port 443 Open (No HTTP)".
	Detail string

	// ResponseTimeMs is the duration of the deciding tier in milliseconds,
	// rounded to two decimals. nil unless Reachable.
	ResponseTimeMs *float64

	// Tier is the tier that produced the verdict.
	Tier Tier

	// StatusCode is the HTTP status code. Zero if no HTTP response was received.
	StatusCode int

	// Latency is the wall time of the whole probe, every attempted tier included.
	Latency time.Duration

	// CheckedAt is the moment the verdict was produced.
	CheckedAt time.Time

	// CycleID identifies the probing cycle that produced this result.
	CycleID string
}
