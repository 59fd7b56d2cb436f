// Package metrics exposes probe activity as Prometheus metrics.
//
// This package is internal to Pingboard. A [Recorder] owns its own
// prometheus.Registry (never the global default) so several instances can
// coexist in one process and in tests. The HTTP server mounts
// [Recorder.Handler] at /metrics.
package metrics
