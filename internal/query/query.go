package query

import (
	"time"

	"github.com/jpalmerr/pingboard/internal/store"
)

// TimeLayout is the format of StatusView.LastCheck, in server local time.
const TimeLayout = "2006-01-02 15:04:05"

// processStart is the default origin of HealthView.Uptime.
var processStart = time.Now()

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	HealthHealthy = "healthy"
)

// Target is a registry entry as listed by the targets view.
type Target struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// StatusView is the public rendering of one stored verdict.
type StatusView struct {
	Name         string   `json:"name"`
	Status       string   `json:"status"`
	StatusDetail string   `json:"status_detail"`
	LastCheck    string   `json:"last_check"`
	ResponseTime *float64 `json:"response_time"`
	Tier         string   `json:"tier,omitempty"`
}

// TargetsView lists the configured targets in registry order.
type TargetsView struct {
	Targets []Target `json:"targets"`
	Count   int      `json:"count"`
}

// HealthView reports liveness of the monitor itself.
type HealthView struct {
	Status         string  `json:"status"`
	TargetsTotal   int     `json:"targets_total"`
	TargetsOnline  int     `json:"targets_online"`
	TargetsOffline int     `json:"targets_offline"`
	Uptime         float64 `json:"uptime"`
	Version        string  `json:"version"`
}

// Surface answers read-only questions about the monitor.
type Surface struct {
	reader  store.Reader
	targets []Target
	version string
	started time.Time
	now     func() time.Time
}

// Option configures a [Surface].
type Option func(*Surface)

// WithClock overrides the time source used for uptime.
func WithClock(now func() time.Time) Option {
	return func(s *Surface) {
		s.now = now
	}
}

// WithStartTime overrides the moment uptime is measured from. The default
// is process start.
func WithStartTime(t time.Time) Option {
	return func(s *Surface) {
		s.started = t
	}
}

// New creates a [Surface] over reader. targets is copied.
func New(reader store.Reader, targets []Target, version string, opts ...Option) *Surface {
	s := &Surface{
		reader:  reader,
		targets: append([]Target(nil), targets...),
		version: version,
		started: processStart,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the latest verdict of every probed target keyed by
// address. Before the first write it is an empty, non-nil map.
func (s *Surface) Snapshot() map[string]StatusView {
	entries := s.reader.ReadAll()
	out := make(map[string]StatusView, len(entries))
	for addr, e := range entries {
		out[addr] = Render(e)
	}
	return out
}

// Status returns the verdict for one address.
func (s *Surface) Status(address string) (StatusView, bool) {
	e, ok := s.reader.ReadOne(address)
	if !ok {
		return StatusView{}, false
	}
	return Render(e), true
}

// Targets lists the registry.
func (s *Surface) Targets() TargetsView {
	targets := append([]Target{}, s.targets...)
	return TargetsView{Targets: targets, Count: len(targets)}
}

// Health summarizes the monitor. Totals count the registry; online and
// offline count stored verdicts, so targets not yet probed are in neither.
func (s *Surface) Health() HealthView {
	entries := s.reader.ReadAll()
	online := 0
	for _, e := range entries {
		if e.Reachable {
			online++
		}
	}
	return HealthView{
		Status:         HealthHealthy,
		TargetsTotal:   len(s.targets),
		TargetsOnline:  online,
		TargetsOffline: len(entries) - online,
		Uptime:         s.now().Sub(s.started).Seconds(),
		Version:        s.version,
	}
}

// Render converts a stored entry into its public view.
func Render(e store.Entry) StatusView {
	v := StatusView{
		Name:         e.Name,
		Status:       StatusOffline,
		StatusDetail: e.Detail,
		Tier:         e.Tier,
	}
	if !e.CheckedAt.IsZero() {
		v.LastCheck = e.CheckedAt.Local().Format(TimeLayout)
	}
	if e.Reachable {
		v.Status = StatusOnline
		if e.ResponseTimeMs != nil {
			rt := *e.ResponseTimeMs
			v.ResponseTime = &rt
		}
	}
	return v
}
