package pingboard

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// pbConfig holds mutable state during PingBoard construction.
type pbConfig struct {
	title           string
	targets         []Target
	pollingInterval time.Duration
	port            int
	maxConcurrency  int
	httpTimeout     time.Duration
	tcpTimeout      time.Duration
	tcpPorts        []int
	userAgent       string
	version         string
	logger          *slog.Logger
	statusCallbacks []func(ProbeResult)
}

// Option is a function that configures a [PingBoard] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*pbConfig) error

// WithTarget adds a single [Target] to the registry.
//
// Can be called multiple times; targets are probed in the order added.
func WithTarget(t Target) Option {
	return func(cfg *pbConfig) error {
		if err := validateAddress(t.address); err != nil {
			return err
		}
		cfg.targets = append(cfg.targets, t)
		return nil
	}
}

// WithTargets adds multiple [Target] values to the registry.
//
// Example:
//
//	pb, err := pingboard.New(
//	    pingboard.WithTargets(router, nas, printer),
//	)
func WithTargets(targets ...Target) Option {
	return func(cfg *pbConfig) error {
		for _, t := range targets {
			if err := validateAddress(t.address); err != nil {
				return err
			}
		}
		cfg.targets = append(cfg.targets, targets...)
		return nil
	}
}

// WithRegistry adds every target of reg, in order.
//
// Example:
//
//	reg, err := config.LoadRegistry("/app/config/ips.json")
//	if err != nil {
//	    return err
//	}
//	pb, err := pingboard.New(pingboard.WithRegistry(reg))
func WithRegistry(reg Registry) Option {
	return WithTargets(reg.targets...)
}

// WithPollingInterval sets the time between the starts of two probing cycles.
//
// A cycle that takes longer than the interval is followed immediately by
// the next one. Defaults to 10 seconds if not specified.
//
// Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *pbConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard and API server.
//
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *pbConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithMaxConcurrency sets how many targets of one cycle may be probed at once.
//
// Defaults to 1, which probes targets one after another in registry order.
// Higher values shorten cycles over many slow targets.
//
// Returns an error if the value is zero or negative.
func WithMaxConcurrency(n int) Option {
	return func(cfg *pbConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithHTTPTimeout sets the timeout of each HTTP and HTTPS attempt.
// Defaults to 3 seconds.
func WithHTTPTimeout(d time.Duration) Option {
	return func(cfg *pbConfig) error {
		if d <= 0 {
			return errors.New("http timeout must be positive")
		}
		cfg.httpTimeout = d
		return nil
	}
}

// WithTCPTimeout sets the timeout of each TCP connect attempt.
// Defaults to 2 seconds.
func WithTCPTimeout(d time.Duration) Option {
	return func(cfg *pbConfig) error {
		if d <= 0 {
			return errors.New("tcp timeout must be positive")
		}
		cfg.tcpTimeout = d
		return nil
	}
}

// WithTCPPorts sets the ports tried, in order, by the TCP fallback tier.
// Defaults to 80 then 443.
func WithTCPPorts(ports ...int) Option {
	return func(cfg *pbConfig) error {
		if len(ports) == 0 {
			return errors.New("at least one tcp port is required")
		}
		for _, p := range ports {
			if p < 1 || p > 65535 {
				return fmt.Errorf("tcp port must be between 1 and 65535, got %d", p)
			}
		}
		cfg.tcpPorts = append([]int(nil), ports...)
		return nil
	}
}

// WithUserAgent sets the User-Agent header sent by HTTP and HTTPS probes.
func WithUserAgent(ua string) Option {
	return func(cfg *pbConfig) error {
		if ua == "" {
			return errors.New("user agent cannot be empty")
		}
		cfg.userAgent = ua
		return nil
	}
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(v string) Option {
	return func(cfg *pbConfig) error {
		cfg.version = v
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the PingBoard instance.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *pbConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithStatusCallback registers a function to be called after every probe.
//
// The callback receives the [ProbeResult] after it has been written to the
// status store, so API readers already see it. Multiple callbacks run in
// registration order.
//
// Callbacks must be non-blocking; they run on the probing goroutine and
// delay the rest of the cycle. Panics within callbacks are recovered and
// logged.
//
// Example:
//
//	pb, err := pingboard.New(
//	    pingboard.WithTarget(router),
//	    pingboard.WithStatusCallback(func(r pingboard.ProbeResult) {
//	        if r.Status == pingboard.StatusOffline {
//	            log.Printf("%s is offline: %s", r.Name, r.Detail)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithStatusCallback(cb func(ProbeResult)) Option {
	return func(cfg *pbConfig) error {
		if cb == nil {
			return nil
		}
		cfg.statusCallbacks = append(cfg.statusCallbacks, cb)
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "Pingboard".
func WithTitle(title string) Option {
	return func(cfg *pbConfig) error {
		cfg.title = title
		return nil
	}
}
