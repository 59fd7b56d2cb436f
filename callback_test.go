package pingboard

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWithStatusCallback_InvokedOnPoll(t *testing.T) {
	target, ts := serverTarget(t, "test", http.StatusOK)
	defer ts.Close()

	var callCount atomic.Int32

	pb, err := New(
		WithTarget(target),
		WithStatusCallback(func(r ProbeResult) { callCount.Add(1) }),
		WithPollingInterval(50*time.Millisecond),
		WithPort(19200),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = pb.Start(ctx)

	if callCount.Load() == 0 {
		t.Error("callback should have been invoked at least once")
	}
}

func TestWithStatusCallback_ReceivesCorrectFields(t *testing.T) {
	target, ts := serverTarget(t, "test-target", http.StatusOK)
	defer ts.Close()

	var (
		result ProbeResult
		once   sync.Once
	)
	done := make(chan struct{})

	pb, err := New(
		WithTarget(target),
		WithStatusCallback(func(r ProbeResult) {
			once.Do(func() {
				result = r
				close(done)
			})
		}),
		WithPollingInterval(50*time.Millisecond),
		WithPort(19201),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() { _ = pb.Start(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not invoked")
	}

	if result.Name != "test-target" {
		t.Errorf("Name = %q, want %q", result.Name, "test-target")
	}
	if result.Address != target.Address() {
		t.Errorf("Address = %q, want %q", result.Address, target.Address())
	}
	if result.Status != StatusOnline || !result.Reachable {
		t.Errorf("Status = %v, Reachable = %v, want online", result.Status, result.Reachable)
	}
	if result.Detail != "HTTP OK (200)" {
		t.Errorf("Detail = %q, want %q", result.Detail, "HTTP OK (200)")
	}
	if result.Tier != TierHTTP {
		t.Errorf("Tier = %q, want %q", result.Tier, TierHTTP)
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", result.StatusCode)
	}
	if result.ResponseTimeMs == nil || *result.ResponseTimeMs < 0 {
		t.Errorf("ResponseTimeMs = %v, want non-negative value", result.ResponseTimeMs)
	}
	if result.CheckedAt.IsZero() {
		t.Error("CheckedAt should be set")
	}
	if result.CycleID == "" {
		t.Error("CycleID should be set")
	}
}

func TestWithStatusCallback_OfflineResult(t *testing.T) {
	target, ts := serverTarget(t, "missing", http.StatusNotFound)
	defer ts.Close()

	pb, err := New(WithTarget(target), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	results, err := pb.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}

	r := results[0]
	if r.Status != StatusOffline || r.Reachable {
		t.Errorf("Status = %v, want offline", r.Status)
	}
	if r.Detail != "HTTP Client Error (404)" {
		t.Errorf("Detail = %q, want %q", r.Detail, "HTTP Client Error (404)")
	}
	if r.ResponseTimeMs != nil {
		t.Errorf("ResponseTimeMs = %v, want nil for offline", *r.ResponseTimeMs)
	}
}

func TestWithStatusCallback_MultipleCallbacksInOrder(t *testing.T) {
	target, ts := serverTarget(t, "test", http.StatusOK)
	defer ts.Close()

	var (
		mu    sync.Mutex
		order []int
	)
	record := func(n int) func(ProbeResult) {
		return func(ProbeResult) {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		}
	}

	pb, err := New(
		WithTarget(target),
		WithStatusCallback(record(1)),
		WithStatusCallback(record(2)),
		WithStatusCallback(record(3)),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := pb.Check(context.Background()); err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("callback order = %v, want [1 2 3]", order)
	}
}

func TestWithStatusCallback_PanicRecovery(t *testing.T) {
	target, ts := serverTarget(t, "test", http.StatusOK)
	defer ts.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var secondCalled atomic.Bool

	pb, err := New(
		WithTarget(target),
		WithStatusCallback(func(ProbeResult) { panic("intentional panic") }),
		WithStatusCallback(func(ProbeResult) { secondCalled.Store(true) }),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	results, err := pb.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("len(results) = %d, want 1", len(results))
	}
	if !secondCalled.Load() {
		t.Error("second callback should run after the first panicked")
	}
	if !strings.Contains(buf.String(), "status callback panicked") {
		t.Errorf("panic not logged, output = %q", buf.String())
	}
}

func TestCheck_RegistryOrder(t *testing.T) {
	a, tsA := serverTarget(t, "A", http.StatusOK)
	defer tsA.Close()
	b, tsB := serverTarget(t, "B", http.StatusNotFound)
	defer tsB.Close()
	c, tsC := serverTarget(t, "C", http.StatusOK)
	defer tsC.Close()

	pb, err := New(WithTargets(a, b, c), WithMaxConcurrency(3), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	results, err := pb.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for i, want := range []Target{a, b, c} {
		if results[i].Address != want.Address() {
			t.Errorf("results[%d].Address = %q, want %q", i, results[i].Address, want.Address())
		}
	}
	if results[1].Status != StatusOffline {
		t.Errorf("results[1].Status = %v, want offline", results[1].Status)
	}
}

func TestCheck_NoTargets(t *testing.T) {
	pb, err := New(WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	results, err := pb.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestCheck_CancelledContext(t *testing.T) {
	target, ts := serverTarget(t, "test", http.StatusOK)
	defer ts.Close()

	pb, err := New(WithTarget(target), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := pb.Check(ctx); err == nil {
		t.Error("Check() with cancelled context should return error")
	}
}
