// Standalone mock network for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/pingboard serve -c example/config.yaml
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"os"
	"sync"
	"time"
)

var codes = []int{http.StatusOK, http.StatusNotFound, http.StatusServiceUnavailable}

func main() {
	fmt.Println("Mock network starting")
	fmt.Println("  HTTP devices on 127.0.0.1:9901-9904 cycle through: 200 → 404 → 503")
	fmt.Println("  TCP-only service on 127.0.0.1:9910")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	for _, port := range []int{9901, 9902, 9903, 9904} {
		go serveDevice(fmt.Sprintf("127.0.0.1:%d", port))
	}

	ln, err := net.Listen("tcp", "127.0.0.1:9910")
	if err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	for {
		conn, err := ln.Accept()
		if err != nil {
			slog.Error("accept error", "error", err)
			os.Exit(1)
		}
		_ = conn.Close()
	}
}

func serveDevice(addr string) {
	var (
		mu           sync.Mutex
		idx          int
		nextChangeAt = time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second)
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(20+rand.Intn(120)) * time.Millisecond)

		mu.Lock()
		if time.Now().After(nextChangeAt) {
			from := codes[idx]
			idx = (idx + 1) % len(codes)
			nextChangeAt = time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second)
			slog.Info("status change", "device", addr, "from", from, "to", codes[idx])
		}
		code := codes[idx]
		mu.Unlock()

		w.WriteHeader(code)
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server error", "device", addr, "error", err)
		os.Exit(1)
	}
}
