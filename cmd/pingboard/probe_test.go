package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/jpalmerr/pingboard"
)

func init() {
	color.NoColor = true
}

func hostPort(ts *httptest.Server) string {
	return strings.TrimPrefix(ts.URL, "http://")
}

func TestProbeOptions(t *testing.T) {
	configPath := writeTestConfig(t, "config.yaml", "targets:\n  - address: 10.0.0.1\n")

	tests := []struct {
		name      string
		config    string
		addresses []string
		wantErr   string
	}{
		{"config file", configPath, nil, ""},
		{"addresses", "", []string{"10.0.0.1", "nas.local:5000"}, ""},
		{"both", configPath, []string{"10.0.0.1"}, "not both"},
		{"neither", "", nil, "no targets"},
		{"bad address", "", []string{"http://10.0.0.1"}, "scheme"},
		{"missing config", "/nonexistent.yaml", nil, "failed to load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := probeOptions(tt.config, tt.addresses)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("probeOptions() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("probeOptions() error = %v", err)
			}
			if _, err := pingboard.New(opts...); err != nil {
				t.Errorf("pingboard.New() error = %v", err)
			}
		})
	}
}

func TestProbeOnce(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	upTarget, _ := pingboard.NewTarget(hostPort(up), "Web")
	downTarget, _ := pingboard.NewTarget(hostPort(down), "")

	pb, err := pingboard.New(
		pingboard.WithTargets(upTarget, downTarget),
		pingboard.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("pingboard.New() error = %v", err)
	}

	var out bytes.Buffer
	err = probeOnce(context.Background(), pb, &out)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 targets offline") {
		t.Errorf("probeOnce() error = %v, want offline count", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) < 2 {
		t.Fatalf("output = %q, want one line per target", out.String())
	}
	if !strings.HasPrefix(lines[0], "ONLINE") || !strings.Contains(lines[0], "Web ("+hostPort(up)+")") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[0], "HTTP OK (200)") || !strings.Contains(lines[0], "ms") {
		t.Errorf("line 0 = %q, want detail and timing", lines[0])
	}
	if !strings.HasPrefix(lines[1], "OFFLINE") || !strings.Contains(lines[1], "HTTP Server Error (503)") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.Contains(out.String(), "1 online, 1 offline") {
		t.Errorf("output missing summary: %q", out.String())
	}
}

func TestProbeOnce_AllOnline(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer up.Close()

	target, _ := pingboard.NewTarget(hostPort(up), "Web")
	pb, err := pingboard.New(
		pingboard.WithTarget(target),
		pingboard.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("pingboard.New() error = %v", err)
	}

	var out bytes.Buffer
	if err := probeOnce(context.Background(), pb, &out); err != nil {
		t.Errorf("probeOnce() error = %v", err)
	}
	if !strings.Contains(out.String(), "HTTP OK (204)") {
		t.Errorf("output = %q", out.String())
	}
}
