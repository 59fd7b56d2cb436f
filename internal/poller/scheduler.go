package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/pingboard/internal/prober"
	"github.com/jpalmerr/pingboard/internal/store"
)

// DefaultInterval is the time between cycle starts when none is configured.
const DefaultInterval = 10 * time.Second

// Target is the poller-internal representation of a probed endpoint,
// decoupled from the public pingboard.Target type.
type Target struct {
	// Address is the host (optionally host:port) handed to the prober.
	Address string

	// Name is the display name stored alongside the verdict.
	Name string
}

// Prober checks a single address. *prober.Prober satisfies this interface.
type Prober interface {
	Probe(ctx context.Context, address string) prober.Result
}

// Result is one verdict, handed to the result observer after it has been
// written to the store.
type Result struct {
	// CycleID identifies the cycle that produced the verdict.
	CycleID string

	// Target is the probed target.
	Target Target

	// Probe is the prober's verdict.
	Probe prober.Result

	// Elapsed is the duration of the whole probe, all tiers included.
	Elapsed time.Duration
}

// CycleStats summarizes one probing cycle.
type CycleStats struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Probed   int
	Online   int
	Offline  int

	// Interrupted is true when shutdown cut the cycle short. Probes cut
	// short are not written and not counted.
	Interrupted bool
}

// Config configures a [Scheduler].
type Config struct {
	// Targets are probed in order on every cycle.
	Targets []Target

	// Interval is the time between cycle starts. Defaults to 10s.
	Interval time.Duration

	// MaxConcurrency bounds how many targets of one cycle are probed at
	// once. Values below 2 probe sequentially.
	MaxConcurrency int

	// Prober checks each target. Required.
	Prober Prober

	// Writer receives every verdict immediately after its probe. Required.
	Writer store.Writer

	// OnResult, if set, is called after each verdict has been written.
	// Panics are recovered and logged.
	OnResult func(Result)

	// OnCycle, if set, is called after each completed cycle.
	// Panics are recovered and logged.
	OnCycle func(CycleStats)

	// Logger receives cycle summaries. Defaults to slog.Default().
	Logger *slog.Logger
}

// Scheduler manages periodic probing of the configured targets.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	targets        []Target
	interval       time.Duration
	maxConcurrency int
	prober         Prober
	writer         store.Writer
	onResult       func(Result)
	onCycle        func(CycleStats)
	logger         *slog.Logger

	// inflight serializes probes of the same address so duplicate registry
	// entries never overlap under fan-out
	inflight map[string]*sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewScheduler creates a new [Scheduler]. It panics if cfg.Prober or
// cfg.Writer is nil.
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop], or driven manually with [Scheduler.RunOnce].
func NewScheduler(cfg Config) *Scheduler {
	if cfg.Prober == nil || cfg.Writer == nil {
		panic("poller: Prober and Writer are required")
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	concurrency := cfg.MaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	targets := append([]Target(nil), cfg.Targets...)
	inflight := make(map[string]*sync.Mutex, len(targets))
	for _, t := range targets {
		if _, ok := inflight[t.Address]; !ok {
			inflight[t.Address] = &sync.Mutex{}
		}
	}

	return &Scheduler{
		targets:        targets,
		interval:       interval,
		maxConcurrency: concurrency,
		prober:         cfg.Prober,
		writer:         cfg.Writer,
		onResult:       cfg.OnResult,
		onCycle:        cfg.OnCycle,
		logger:         logger,
		inflight:       inflight,
	}
}

// Start begins the probing loop in a background goroutine.
//
// Start is non-blocking. The first cycle begins immediately; later cycles
// begin one interval after the previous cycle started, or right after it
// finished if it overran. With no targets the loop idles until stopped.
//
// If ctx is nil, context.Background() is used as the parent context.
// Start is idempotent; subsequent calls after the first are no-ops.
// If Stop was called before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx // capture under lock to avoid race
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.run(runCtx)
	}()
}

// Stop halts the scheduler and waits for the probing goroutine to exit.
//
// An in-flight probe is cut short through its context; its verdict is
// discarded rather than written. Stop is idempotent and safe to call before
// Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	if len(s.targets) == 0 {
		s.logger.Warn("no targets configured, probing idle")
		<-ctx.Done()
		return
	}

	for {
		started := time.Now()
		s.RunOnce(ctx)
		if ctx.Err() != nil {
			return
		}

		wait := s.interval - time.Since(started)
		if wait <= 0 {
			s.logger.Warn("probing cycle overran interval",
				"interval", s.interval.String(),
				"overrun", (-wait).String(),
			)
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// RunOnce performs a single cycle over every target and returns its stats.
// It blocks until the cycle completes or ctx is cancelled.
func (s *Scheduler) RunOnce(ctx context.Context) CycleStats {
	stats := CycleStats{
		ID:      uuid.NewString(),
		Started: time.Now(),
	}
	logger := s.logger.With("cycle_id", stats.ID)
	logger.Debug("cycle started", "targets", len(s.targets))

	var mu sync.Mutex
	record := func(reachable bool) {
		mu.Lock()
		defer mu.Unlock()
		stats.Probed++
		if reachable {
			stats.Online++
		} else {
			stats.Offline++
		}
	}

	if s.maxConcurrency <= 1 {
		for _, t := range s.targets {
			if ctx.Err() != nil {
				break
			}
			if res, ok := s.probeTarget(ctx, stats.ID, t); ok {
				record(res.Reachable)
			}
		}
	} else {
		g := new(errgroup.Group)
		g.SetLimit(s.maxConcurrency)
		for _, t := range s.targets {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if res, ok := s.probeTarget(ctx, stats.ID, t); ok {
					record(res.Reachable)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	stats.Duration = time.Since(stats.Started)
	stats.Interrupted = ctx.Err() != nil

	if stats.Interrupted {
		logger.Info("cycle interrupted by shutdown", "probed", stats.Probed, "targets", len(s.targets))
		return stats
	}

	logger.Info("cycle completed",
		"online", stats.Online,
		"offline", stats.Offline,
		"duration_ms", stats.Duration.Milliseconds(),
	)
	if s.onCycle != nil {
		s.safeNotify(stats.ID, func() { s.onCycle(stats) })
	}
	return stats
}

// probeTarget probes one target and writes its verdict. It reports false
// when shutdown interrupted the probe and nothing was written.
func (s *Scheduler) probeTarget(ctx context.Context, cycleID string, t Target) (prober.Result, bool) {
	lock := s.inflight[t.Address]
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	res := s.prober.Probe(ctx, t.Address)
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		s.logger.Debug("discarding probe interrupted by shutdown", "address", t.Address)
		return res, false
	}

	s.writer.Write(toEntry(t, res))

	if s.onResult != nil {
		s.safeNotify(cycleID, func() {
			s.onResult(Result{CycleID: cycleID, Target: t, Probe: res, Elapsed: elapsed})
		})
	}
	return res, true
}

// safeNotify runs fn with panic recovery. A panic is logged with its stack
// under a correlation ID and does not stop the cycle.
func (s *Scheduler) safeNotify(cycleID string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("result observer panic",
				"correlation_id", uuid.NewString(),
				"cycle_id", cycleID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}

// toEntry converts a verdict into its storage representation.
func toEntry(t Target, res prober.Result) store.Entry {
	return store.Entry{
		Address:        t.Address,
		Name:           t.Name,
		Reachable:      res.Reachable,
		Detail:         res.Detail,
		ResponseTimeMs: res.ResponseTimeMs,
		Tier:           string(res.Tier),
		CheckedAt:      res.CheckedAt,
	}
}
