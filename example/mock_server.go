package main

import (
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"
)

// mockCodes is the status cycle of a mock device: online, then client
// error, then server error.
var mockCodes = []int{http.StatusOK, http.StatusNotFound, http.StatusServiceUnavailable}

// mockState tracks status and next change time for a single device.
type mockState struct {
	codeIdx      int
	nextChangeAt time.Time
}

// StartMockDevice runs an HTTP device on addr whose status code cycles
// every 20-60 seconds. Call this in a goroutine before starting Pingboard.
func StartMockDevice(addr string) {
	var (
		state = &mockState{nextChangeAt: nextChange()}
		mu    sync.Mutex
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// simulate small latency variance
		time.Sleep(time.Duration(20+rand.Intn(120)) * time.Millisecond)

		mu.Lock()
		if time.Now().After(state.nextChangeAt) {
			from := mockCodes[state.codeIdx]
			state.codeIdx = (state.codeIdx + 1) % len(mockCodes)
			state.nextChangeAt = nextChange()
			slog.Info("status change", "device", addr, "from", from, "to", mockCodes[state.codeIdx])
		}
		code := mockCodes[state.codeIdx]
		mu.Unlock()

		w.WriteHeader(code)
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock device error", "device", addr, "error", err)
	}
}

// StartMockTCPService accepts TCP connections on addr and closes them
// without speaking HTTP, so only the TCP tier sees it as online.
func StartMockTCPService(addr string) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Error("mock tcp service error", "addr", addr, "error", err)
		return
	}
	for {
		conn, err := ln.Accept()
		if err != nil {
			slog.Error("mock tcp accept error", "addr", addr, "error", err)
			return
		}
		_ = conn.Close()
	}
}

// nextChange schedules a status change 20-60 seconds from now.
func nextChange() time.Time {
	return time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second)
}
