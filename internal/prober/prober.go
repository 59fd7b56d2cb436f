package prober

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultHTTPTimeout bounds each HTTP and HTTPS attempt.
	DefaultHTTPTimeout = 3 * time.Second

	// DefaultTCPTimeout bounds each TCP connect attempt.
	DefaultTCPTimeout = 2 * time.Second

	// DefaultUserAgent identifies probe requests to the monitored services.
	DefaultUserAgent = "Pingboard-Monitor/1.0"

	detailConnectionFailed = "Connection Failed"
)

// DefaultTCPPorts is the ordered list of ports tried by the TCP tier.
var DefaultTCPPorts = []int{80, 443}

// Tier identifies the probing strategy that produced a verdict.
type Tier string

const (
	TierHTTP  Tier = "http"
	TierHTTPS Tier = "https"
	TierTCP   Tier = "tcp"

	// TierNone marks a verdict reached after every tier failed.
	TierNone Tier = "none"
)

// Result is the final verdict of a probe.
type Result struct {
	// Reachable is true for a 2xx/3xx answer or an open TCP port.
	Reachable bool

	// Detail is the classification tag, e.g. "HTTP OK (200)" or
	// "Connection Failed". Always set.
	Detail string

	// ResponseTimeMs is the duration of the tier that produced the verdict,
	// in milliseconds rounded to two decimals. nil unless Reachable.
	ResponseTimeMs *float64

	// Tier is the tier that produced the verdict.
	Tier Tier

	// StatusCode is the HTTP status code, zero when no response was received.
	StatusCode int

	// CheckedAt is the moment the verdict was produced.
	CheckedAt time.Time
}

// Dialer opens raw network connections for the TCP tier.
// *net.Dialer satisfies this interface.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Prober runs the layered reachability check. A Prober is safe for
// concurrent use.
type Prober struct {
	client      *http.Client
	dialer      Dialer
	httpTimeout time.Duration
	tcpTimeout  time.Duration
	tcpPorts    []int
	userAgent   string
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a [Prober].
type Option func(*Prober)

// WithHTTPClient replaces the client used by the HTTP and HTTPS tiers.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Prober) {
		if c != nil {
			p.client = c
		}
	}
}

// WithDialer replaces the dialer used by the TCP tier.
func WithDialer(d Dialer) Option {
	return func(p *Prober) {
		if d != nil {
			p.dialer = d
		}
	}
}

// WithHTTPTimeout sets the per-attempt timeout of the HTTP and HTTPS tiers.
func WithHTTPTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.httpTimeout = d
		}
	}
}

// WithTCPTimeout sets the per-port timeout of the TCP tier.
func WithTCPTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.tcpTimeout = d
		}
	}
}

// WithTCPPorts sets the ordered ports tried by the TCP tier.
func WithTCPPorts(ports ...int) Option {
	return func(p *Prober) {
		if len(ports) > 0 {
			p.tcpPorts = append([]int(nil), ports...)
		}
	}
}

// WithUserAgent sets the User-Agent header sent by the HTTP tiers.
func WithUserAgent(ua string) Option {
	return func(p *Prober) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithLogger sets the logger used for tier transitions and recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the source of CheckedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Prober) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a [Prober] with the given options applied over the defaults.
func New(opts ...Option) *Prober {
	p := &Prober{
		client:      NewHTTPClient(),
		dialer:      &net.Dialer{},
		httpTimeout: DefaultHTTPTimeout,
		tcpTimeout:  DefaultTCPTimeout,
		tcpPorts:    append([]int(nil), DefaultTCPPorts...),
		userAgent:   DefaultUserAgent,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe checks address and returns its classified verdict.
//
// address is a host, optionally with a port ("10.0.0.1", "example.com",
// "127.0.0.1:8080"). Probe never panics and never returns an error; a
// cancelled ctx ends the probe early with a "Connection Failed" verdict.
func (p *Prober) Probe(ctx context.Context, address string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			p.logger.Error("probe panic",
				"correlation_id", correlationID,
				"address", address,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			result = p.failed()
		}
	}()

	for _, tier := range []struct {
		tier   Tier
		scheme string
		label  string
	}{
		{TierHTTP, "http", "HTTP"},
		{TierHTTPS, "https", "HTTPS"},
	} {
		if ctx.Err() != nil {
			return p.failed()
		}

		outcome := get(ctx, p.client, tier.scheme+"://"+address, p.userAgent, p.httpTimeout)
		if outcome.fallsThrough() {
			p.logger.Debug("probe tier fell through",
				"address", address,
				"tier", tier.tier,
				"outcome", outcome.Kind.String(),
				"error", outcome.Err,
			)
			continue
		}

		res := Result{
			Reachable: outcome.Kind == OutcomeSuccess,
			Detail:    outcome.detail(tier.label),
			Tier:      tier.tier,
			CheckedAt: p.now(),
		}
		if outcome.answered() {
			res.StatusCode = outcome.StatusCode
		}
		if res.Reachable {
			res.ResponseTimeMs = milliseconds(outcome.Elapsed)
		}
		return res
	}

	if ctx.Err() != nil {
		return p.failed()
	}
	if res, ok := p.probeTCP(ctx, address); ok {
		return res
	}
	return p.failed()
}

// probeTCP tries each configured port in order. The tier timer starts once,
// before the first port, so the reported time covers all attempts made.
func (p *Prober) probeTCP(ctx context.Context, address string) (Result, bool) {
	host := hostOnly(address)
	start := time.Now()

	for _, port := range p.tcpPorts {
		if ctx.Err() != nil {
			return Result{}, false
		}
		if p.dial(ctx, net.JoinHostPort(host, strconv.Itoa(port))) {
			return Result{
				Reachable:      true,
				Detail:         fmt.Sprintf("TCP Port %d Open (No HTTP)", port),
				ResponseTimeMs: milliseconds(time.Since(start)),
				Tier:           TierTCP,
				CheckedAt:      p.now(),
			}, true
		}
	}
	return Result{}, false
}

func (p *Prober) dial(ctx context.Context, hostport string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.tcpTimeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", hostport)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func (p *Prober) failed() Result {
	return Result{
		Detail:    detailConnectionFailed,
		Tier:      TierNone,
		CheckedAt: p.now(),
	}
}

// Close releases idle connections held by the HTTP client.
func (p *Prober) Close() {
	if p == nil {
		return
	}
	closeIdle(p.client)
}

// hostOnly strips an optional port and IPv6 brackets from address.
func hostOnly(address string) string {
	if host, _, err := net.SplitHostPort(address); err == nil {
		return host
	}
	return strings.TrimSuffix(strings.TrimPrefix(address, "["), "]")
}

func milliseconds(d time.Duration) *float64 {
	ms := math.Round(float64(d)/float64(time.Millisecond)*100) / 100
	return &ms
}
