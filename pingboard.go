package pingboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jpalmerr/pingboard/dashboard"
	"github.com/jpalmerr/pingboard/internal/metrics"
	"github.com/jpalmerr/pingboard/internal/poller"
	"github.com/jpalmerr/pingboard/internal/prober"
	"github.com/jpalmerr/pingboard/internal/query"
	"github.com/jpalmerr/pingboard/internal/server"
	"github.com/jpalmerr/pingboard/internal/store"
)

const (
	defaultPollingInterval = 10 * time.Second
	defaultPort            = 8080
	defaultMaxConcurrency  = 1

	// DefaultVersion is reported by the health endpoint unless overridden
	// with [WithVersion].
	DefaultVersion = "2.0.0"
)

// PingBoard is the main orchestrator for target probing and dashboard serving.
//
// PingBoard probes every target of its registry once per cycle, keeps the
// latest verdict per address, and serves the results over a JSON API, live
// streams, Prometheus metrics and an embedded dashboard. It is created using
// [New] with functional options and started with [PingBoard.Start].
//
// The typical lifecycle is:
//
//	router, _ := pingboard.NewTarget("192.168.1.1", "Router")
//	pb, err := pingboard.New(pingboard.WithTarget(router))
//	if err != nil {
//	    slog.Error("failed to create pingboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	pb.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context. Cancel the context to
// trigger graceful shutdown.
type PingBoard struct {
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

// New creates a new [PingBoard] instance with the given options.
//
// Defaults:
//   - Polling interval: 10 seconds
//   - Port: 8080
//   - Max concurrency: 1 (sequential probing)
//   - Probe timeouts: 3 seconds per HTTP/HTTPS attempt, 2 seconds per TCP port
//   - TCP fallback ports: 80, 443
//
// A PingBoard without targets is valid; it serves empty views and probes
// nothing until restarted with a registry.
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*PingBoard, error) {
	cfg := &pbConfig{
		pollingInterval: defaultPollingInterval,
		port:            defaultPort,
		maxConcurrency:  defaultMaxConcurrency,
		httpTimeout:     prober.DefaultHTTPTimeout,
		tcpTimeout:      prober.DefaultTCPTimeout,
		tcpPorts:        append([]int(nil), prober.DefaultTCPPorts...),
		userAgent:       prober.DefaultUserAgent,
		version:         DefaultVersion,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PingBoard{
		title:           cfg.title,
		targets:         cfg.targets,
		pollingInterval: cfg.pollingInterval,
		port:            cfg.port,
		maxConcurrency:  cfg.maxConcurrency,
		httpTimeout:     cfg.httpTimeout,
		tcpTimeout:      cfg.tcpTimeout,
		tcpPorts:        cfg.tcpPorts,
		userAgent:       cfg.userAgent,
		version:         cfg.version,
		logger:          logger,
		statusCallbacks: cfg.statusCallbacks,
	}, nil
}

// Start begins probing targets and serving the dashboard.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - The HTTP server starts on the configured port
//   - All targets are probed immediately, then once per polling interval
//   - Each verdict is written to the status store as soon as it is known
//   - Verdicts are logged, recorded as metrics and passed to status callbacks
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails to start.
func (pb *PingBoard) Start(ctx context.Context) error {
	pb.logger.Info("pingboard starting", "target_count", len(pb.targets))
	pb.logger.Info("probing configured",
		"interval", pb.pollingInterval.String(),
		"max_concurrency", pb.maxConcurrency,
	)

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	statusStore := store.NewMemoryStore()
	recorder := metrics.NewRecorder()
	recorder.SetTargets(len(pb.targets))

	p := pb.newProber()
	defer p.Close()

	scheduler := pb.newScheduler(p, statusStore, recorder)

	surface := query.New(statusStore, pb.queryTargets(), pb.version)
	httpServer := server.NewServer(statusStore, surface, server.Config{
		Port:    pb.port,
		Assets:  dashboard.Assets,
		Title:   pb.title,
		Metrics: recorder.Handler(),
		Logger:  pb.logger,
	})
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	pb.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", pb.port))

	scheduler.Start(ctx)

	<-ctx.Done()
	scheduler.Stop()
	pb.logger.Info("pingboard stopped")
	return nil
}

// Check runs a single probing cycle over every target without starting the
// HTTP server, and returns the results in registry order.
//
// Status callbacks fire as in [PingBoard.Start]. If ctx is cancelled
// mid-cycle, the results gathered so far are returned along with ctx.Err().
func (pb *PingBoard) Check(ctx context.Context) ([]ProbeResult, error) {
	p := pb.newProber()
	defer p.Close()

	var mu sync.Mutex
	results := make([]ProbeResult, 0, len(pb.targets))
	collect := func(r ProbeResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	scheduler := poller.NewScheduler(poller.Config{
		Targets:        pb.pollerTargets(),
		Interval:       pb.pollingInterval,
		MaxConcurrency: pb.maxConcurrency,
		Prober:         p,
		Writer:         store.NewMemoryStore(),
		OnResult: func(r poller.Result) {
			public := toProbeResult(r)
			pb.dispatch(public)
			collect(public)
		},
		Logger: pb.logger,
	})

	stats := scheduler.RunOnce(ctx)

	// fan-out completes out of order; restore registry order
	order := make(map[string]int, len(pb.targets))
	for i := len(pb.targets) - 1; i >= 0; i-- {
		order[pb.targets[i].address] = i
	}
	sort.SliceStable(results, func(i, j int) bool {
		return order[results[i].Address] < order[results[j].Address]
	})

	if stats.Interrupted {
		return results, ctx.Err()
	}
	return results, nil
}

func (pb *PingBoard) newProber() *prober.Prober {
	return prober.New(
		prober.WithHTTPTimeout(pb.httpTimeout),
		prober.WithTCPTimeout(pb.tcpTimeout),
		prober.WithTCPPorts(pb.tcpPorts...),
		prober.WithUserAgent(pb.userAgent),
		prober.WithLogger(pb.logger),
	)
}

func (pb *PingBoard) newScheduler(p poller.Prober, w store.Writer, recorder *metrics.Recorder) *poller.Scheduler {
	return poller.NewScheduler(poller.Config{
		Targets:        pb.pollerTargets(),
		Interval:       pb.pollingInterval,
		MaxConcurrency: pb.maxConcurrency,
		Prober:         p,
		Writer:         w,
		OnResult: func(r poller.Result) {
			recorder.ObserveProbe(r.Target.Address, r.Target.Name, string(r.Probe.Tier),
				r.Probe.Reachable, r.Probe.ResponseTimeMs, r.Elapsed)
			pb.dispatch(toProbeResult(r))
		},
		OnCycle: func(c poller.CycleStats) {
			recorder.ObserveCycle(c.Duration, c.Started.Add(c.Duration))
		},
		Logger: pb.logger,
	})
}

// dispatch logs a result and hands it to the status callbacks.
func (pb *PingBoard) dispatch(result ProbeResult) {
	// log probe results (DEBUG level for online to reduce noise)
	logAttrs := []any{
		"status", result.Status,
		"target", result.Name,
		"address", result.Address,
		"detail", result.Detail,
		"tier", result.Tier,
		"cycle_id", result.CycleID,
	}
	if result.Reachable {
		if result.ResponseTimeMs != nil {
			logAttrs = append(logAttrs, "response_time_ms", *result.ResponseTimeMs)
		}
		pb.logger.Debug("probe completed", logAttrs...)
	} else {
		pb.logger.Warn("target unreachable", logAttrs...)
	}

	for _, cb := range pb.statusCallbacks {
		invokeCallbackSafe(cb, result, pb.logger)
	}
}

// Targets returns a copy of the configured targets in probing order.
func (pb *PingBoard) Targets() []Target {
	return append([]Target(nil), pb.targets...)
}

// Port returns the configured HTTP port for the dashboard server.
func (pb *PingBoard) Port() int {
	return pb.port
}

// PollingInterval returns the configured interval between cycle starts.
func (pb *PingBoard) PollingInterval() time.Duration {
	return pb.pollingInterval
}

// MaxConcurrency returns how many targets of one cycle may be probed at once.
func (pb *PingBoard) MaxConcurrency() int {
	return pb.maxConcurrency
}

func (pb *PingBoard) pollerTargets() []poller.Target {
	out := make([]poller.Target, len(pb.targets))
	for i, t := range pb.targets {
		out[i] = poller.Target{Address: t.address, Name: t.name}
	}
	return out
}

func (pb *PingBoard) queryTargets() []query.Target {
	out := make([]query.Target, len(pb.targets))
	for i, t := range pb.targets {
		out[i] = query.Target{Address: t.address, Name: t.name}
	}
	return out
}

// toProbeResult converts an internal scheduler result to the public API type.
func toProbeResult(r poller.Result) ProbeResult {
	status := StatusOffline
	if r.Probe.Reachable {
		status = StatusOnline
	}

	var rt *float64
	if r.Probe.ResponseTimeMs != nil {
		v := *r.Probe.ResponseTimeMs
		rt = &v
	}

	return ProbeResult{
		Address:        r.Target.Address,
		Name:           r.Target.Name,
		Status:         status,
		Reachable:      r.Probe.Reachable,
		Detail:         r.Probe.Detail,
		ResponseTimeMs: rt,
		Tier:           Tier(r.Probe.Tier),
		StatusCode:     r.Probe.StatusCode,
		Latency:        r.Elapsed,
		CheckedAt:      r.Probe.CheckedAt,
		CycleID:        r.CycleID,
	}
}

// invokeCallbackSafe calls a status callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(ProbeResult), result ProbeResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("status callback panicked",
				"panic", r,
				"target", result.Name,
				"address", result.Address,
			)
		}
	}()
	cb(result)
}
