package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/pingboard"
)

func main() {
	// start mock devices (see mock_server.go)
	for _, port := range []string{"9901", "9902", "9903", "9904"} {
		go StartMockDevice("127.0.0.1:" + port)
	}
	go StartMockTCPService("127.0.0.1:9910")
	time.Sleep(100 * time.Millisecond)

	// grid API: 4 targets from one declaration
	targets, err := pingboard.NewTargetGrid("Device",
		pingboard.WithAddressTemplate("127.0.0.1:990{{.unit}}"),
		pingboard.WithDimensions(map[string][]string{
			"unit": {"1", "2", "3", "4"},
		}),
	)
	if err != nil {
		slog.Error("failed to create target grid", "error", err)
		os.Exit(1)
	}

	// reachable only through the TCP fallback tier
	tcpOnly, _ := pingboard.NewTarget("127.0.0.1:9910", "TCP-only service")
	targets = append(targets, tcpOnly)

	pb, err := pingboard.New(
		pingboard.WithTargets(targets...),
		pingboard.WithPollingInterval(5*time.Second),
		pingboard.WithPort(8080),
		pingboard.WithMaxConcurrency(4),
		pingboard.WithTCPPorts(80, 443, 9910),
		pingboard.WithStatusCallback(func(r pingboard.ProbeResult) {
			if r.Status == pingboard.StatusOffline {
				slog.Info("offline", "target", r.Name, "detail", r.Detail)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create pingboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Pingboard Demo                                      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Targets:                                            ║")
	fmt.Println("  ║   • 4 mock HTTP devices (via Grid)                    ║")
	fmt.Println("  ║   • 1 TCP-only service                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := pb.Start(ctx); err != nil {
		slog.Error("pingboard error", "error", err)
		os.Exit(1)
	}
}
