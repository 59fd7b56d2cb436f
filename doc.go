// Package pingboard provides an embeddable reachability monitor with a live
// status dashboard.
//
// A PingBoard probes a fixed registry of network targets on a schedule. Each
// target is a bare address (IP or hostname, optionally with a port) and a
// display name. A probe tries plain HTTP first, then HTTPS, then raw TCP
// connects, and stops at the first tier that yields a verdict. The latest
// verdict per address is kept in memory and served as JSON, as Server-Sent
// Events, over a WebSocket, as Prometheus metrics and as an HTML dashboard.
//
// # Quick Start
//
//	router, _ := pingboard.NewTarget("192.168.1.1", "Router")
//	nas, _ := pingboard.NewTarget("nas.local:5000", "NAS")
//	pb, _ := pingboard.New(pingboard.WithTargets(router, nas))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	pb.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// PingBoard uses the functional options pattern:
//
//	pb, err := pingboard.New(
//	    pingboard.WithTargets(router, nas),
//	    pingboard.WithPollingInterval(30 * time.Second),
//	    pingboard.WithPort(9090),
//	    pingboard.WithMaxConcurrency(5),
//	    pingboard.WithTCPPorts(22, 80, 443),
//	)
//
// Registries with many similar targets can be generated with
// [NewTargetGrid]:
//
//	targets, err := pingboard.NewTargetGrid("Switch",
//	    pingboard.WithAddressTemplate("10.0.{{.rack}}.{{.unit}}"),
//	    pingboard.WithDimensions(map[string][]string{
//	        "rack": {"1", "2"},
//	        "unit": {"10", "11", "12"},
//	    }),
//	)
//
// File-based registries are loaded by the config package.
//
// # Verdicts
//
// A target is online when an HTTP or HTTPS request returns a status below
// 400, or when a TCP connect succeeds on one of the fallback ports. Client
// and server errors, timeouts and exhausted tiers are offline. The verdict
// detail names the deciding outcome, for example "HTTP OK (200)",
// "HTTPS Client Error (403)", "TCP Port 443 Open (No HTTP)" or "Connection Failed".
//
// # Architecture
//
//   - internal/prober: the layered HTTP, HTTPS and TCP probe
//   - internal/poller: cycle scheduling and bounded fan-out
//   - internal/store: latest verdict per address with pub/sub
//   - internal/query: read-only views over the store
//   - internal/server: JSON API, SSE, WebSocket and dashboard serving
//   - internal/metrics: Prometheus collectors
//   - dashboard: embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package pingboard
