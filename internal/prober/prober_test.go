package prober

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/http/httptrace"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func refusedErr() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
}

// mockTransport counts requests per scheme and delegates to handle.
type mockTransport struct {
	mu      sync.Mutex
	calls   map[string]int
	headers []http.Header
	handle  func(req *http.Request) (*http.Response, error)
}

func newMockTransport(handle func(req *http.Request) (*http.Response, error)) *mockTransport {
	return &mockTransport{calls: make(map[string]int), handle: handle}
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.calls[req.URL.Scheme]++
	m.headers = append(m.headers, req.Header.Clone())
	m.mu.Unlock()
	return m.handle(req)
}

func (m *mockTransport) count(scheme string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[scheme]
}

// markConnected reports an open connection to the request's trace, as a real
// transport does before it waits for the response.
func markConnected(req *http.Request) {
	if trace := httptrace.ContextClientTrace(req.Context()); trace != nil && trace.GotConn != nil {
		trace.GotConn(httptrace.GotConnInfo{})
	}
}

// stallConnect blocks like a connect to a host that drops packets.
func stallConnect(req *http.Request) (*http.Response, error) {
	<-req.Context().Done()
	return nil, req.Context().Err()
}

// stallResponse accepts the connection and then never answers.
func stallResponse(req *http.Request) (*http.Response, error) {
	markConnected(req)
	<-req.Context().Done()
	return nil, req.Context().Err()
}

func respond(req *http.Request, code int) *http.Response {
	return &http.Response{
		StatusCode: code,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}
}

// bySchemeTransport answers each scheme with a fixed status code or error.
func bySchemeTransport(httpCode int, httpErr error, httpsCode int, httpsErr error) *mockTransport {
	return newMockTransport(func(req *http.Request) (*http.Response, error) {
		if req.URL.Scheme == "http" {
			if httpErr != nil {
				return nil, httpErr
			}
			return respond(req, httpCode), nil
		}
		if httpsErr != nil {
			return nil, httpsErr
		}
		return respond(req, httpsCode), nil
	})
}

// fakeDialer accepts connections only on the listed ports.
type fakeDialer struct {
	mu       sync.Mutex
	open     map[string]bool
	attempts []string
}

func newFakeDialer(openPorts ...string) *fakeDialer {
	d := &fakeDialer{open: make(map[string]bool)}
	for _, p := range openPorts {
		d.open[p] = true
	}
	return d
}

func (d *fakeDialer) DialContext(_ context.Context, _, address string) (net.Conn, error) {
	d.mu.Lock()
	d.attempts = append(d.attempts, address)
	d.mu.Unlock()

	_, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}
	if d.open[port] {
		client, server := net.Pipe()
		_ = server.Close()
		return client, nil
	}
	return nil, refusedErr()
}

// stallDialer never completes a connection before the deadline.
type stallDialer struct{}

func (stallDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	<-ctx.Done()
	return nil, &net.OpError{Op: "dial", Net: network, Err: ctx.Err()}
}

func (d *fakeDialer) dialed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.attempts...)
}

func newTestProber(transport http.RoundTripper, dialer Dialer, opts ...Option) *Prober {
	base := []Option{
		WithHTTPClient(&http.Client{Transport: transport}),
		WithDialer(dialer),
		WithLogger(testLogger()),
	}
	return New(append(base, opts...)...)
}

func TestProbe_HTTPSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	p := New(WithLogger(testLogger()))
	defer p.Close()

	before := time.Now()
	res := p.Probe(context.Background(), strings.TrimPrefix(ts.URL, "http://"))

	assert.True(t, res.Reachable)
	assert.Equal(t, "HTTP OK (200)", res.Detail)
	assert.Equal(t, TierHTTP, res.Tier)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	require.NotNil(t, res.ResponseTimeMs)
	assert.GreaterOrEqual(t, *res.ResponseTimeMs, 0.0)
	assert.False(t, res.CheckedAt.Before(before))
}

func TestProbe_HTTPSuccessCodes(t *testing.T) {
	for _, code := range []int{200, 204, 301, 304, 399} {
		transport := bySchemeTransport(code, nil, 0, nil)
		p := newTestProber(transport, newFakeDialer())

		res := p.Probe(context.Background(), "10.0.0.1")

		assert.True(t, res.Reachable, "code %d", code)
		assert.True(t, strings.HasPrefix(res.Detail, "HTTP OK"), "code %d: detail %q", code, res.Detail)
		assert.NotNil(t, res.ResponseTimeMs, "code %d", code)
		assert.Equal(t, 0, transport.count("https"), "code %d", code)
	}
}

func TestProbe_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/landing", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	p := New(WithLogger(testLogger()))
	res := p.Probe(context.Background(), strings.TrimPrefix(ts.URL, "http://"))

	assert.True(t, res.Reachable)
	assert.Equal(t, "HTTP OK (200)", res.Detail)
}

func TestProbe_HTTPClientErrorStops(t *testing.T) {
	transport := bySchemeTransport(http.StatusNotFound, nil, http.StatusOK, nil)
	dialer := newFakeDialer("80", "443")
	p := newTestProber(transport, dialer)

	res := p.Probe(context.Background(), "10.0.0.1")

	assert.False(t, res.Reachable)
	assert.Equal(t, "HTTP Client Error (404)", res.Detail)
	assert.Nil(t, res.ResponseTimeMs)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, 1, transport.count("http"))
	assert.Equal(t, 0, transport.count("https"), "no HTTPS attempt after a client error")
	assert.Empty(t, dialer.dialed(), "no TCP attempt after a client error")
}

func TestProbe_HTTPServerErrorStops(t *testing.T) {
	transport := bySchemeTransport(http.StatusServiceUnavailable, nil, http.StatusOK, nil)
	dialer := newFakeDialer("80", "443")
	p := newTestProber(transport, dialer)

	res := p.Probe(context.Background(), "10.0.0.1")

	assert.False(t, res.Reachable)
	assert.Equal(t, "HTTP Server Error (503)", res.Detail)
	assert.Equal(t, 0, transport.count("https"))
	assert.Empty(t, dialer.dialed())
}

func TestProbe_HTTPTimeoutStops(t *testing.T) {
	transport := newMockTransport(stallResponse)
	dialer := newFakeDialer("80")
	p := newTestProber(transport, dialer, WithHTTPTimeout(30*time.Millisecond))

	res := p.Probe(context.Background(), "10.0.0.1")

	assert.False(t, res.Reachable)
	assert.Equal(t, "HTTP Timeout", res.Detail)
	assert.Nil(t, res.ResponseTimeMs)
	assert.Equal(t, 0, transport.count("https"), "no HTTPS attempt after a timeout")
	assert.Empty(t, dialer.dialed())
}

func TestProbe_HTTPRefusedHTTPSSuccess(t *testing.T) {
	transport := bySchemeTransport(0, refusedErr(), http.StatusOK, nil)
	p := newTestProber(transport, newFakeDialer())

	res := p.Probe(context.Background(), "10.0.0.1")

	assert.True(t, res.Reachable)
	assert.Equal(t, "HTTPS OK (200)", res.Detail)
	assert.Equal(t, TierHTTPS, res.Tier)
	assert.NotNil(t, res.ResponseTimeMs)
	assert.Equal(t, 1, transport.count("http"))
	assert.Equal(t, 1, transport.count("https"))
}

func TestProbe_HTTPOtherFailureFallsThrough(t *testing.T) {
	transport := bySchemeTransport(0, errors.New("malformed HTTP response"), http.StatusOK, nil)
	p := newTestProber(transport, newFakeDialer())

	res := p.Probe(context.Background(), "10.0.0.1")

	assert.True(t, res.Reachable)
	assert.Equal(t, "HTTPS OK (200)", res.Detail)
}

func TestProbe_HTTPSErrorsStop(t *testing.T) {
	tests := []struct {
		name       string
		httpsCode  int
		wantDetail string
	}{
		{name: "client error", httpsCode: http.StatusForbidden, wantDetail: "HTTPS Client Error (403)"},
		{name: "server error", httpsCode: http.StatusBadGateway, wantDetail: "HTTPS Server Error (502)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := bySchemeTransport(0, refusedErr(), tt.httpsCode, nil)
			dialer := newFakeDialer("80", "443")
			p := newTestProber(transport, dialer)

			res := p.Probe(context.Background(), "10.0.0.1")

			assert.False(t, res.Reachable)
			assert.Equal(t, tt.wantDetail, res.Detail)
			assert.Empty(t, dialer.dialed())
		})
	}
}

func TestProbe_HTTPSTimeoutStops(t *testing.T) {
	transport := newMockTransport(func(req *http.Request) (*http.Response, error) {
		if req.URL.Scheme == "http" {
			return nil, refusedErr()
		}
		return stallResponse(req)
	})
	dialer := newFakeDialer("80")
	p := newTestProber(transport, dialer, WithHTTPTimeout(30*time.Millisecond))

	res := p.Probe(context.Background(), "10.0.0.1")

	assert.False(t, res.Reachable)
	assert.Equal(t, "HTTPS Timeout", res.Detail)
	assert.Empty(t, dialer.dialed())
}

func TestProbe_HTTPConnectTimeoutFallsThrough(t *testing.T) {
	transport := newMockTransport(func(req *http.Request) (*http.Response, error) {
		if req.URL.Scheme == "http" {
			return stallConnect(req)
		}
		return respond(req, http.StatusOK), nil
	})
	p := newTestProber(transport, newFakeDialer(), WithHTTPTimeout(30*time.Millisecond))

	res := p.Probe(context.Background(), "10.0.0.1")

	assert.True(t, res.Reachable)
	assert.Equal(t, "HTTPS OK (200)", res.Detail)
	assert.Equal(t, TierHTTPS, res.Tier)
	assert.Equal(t, 1, transport.count("https"))
}

func TestProbe_ConnectTimeoutsReachTCP(t *testing.T) {
	transport := newMockTransport(stallConnect)
	dialer := newFakeDialer("443")
	p := newTestProber(transport, dialer, WithHTTPTimeout(30*time.Millisecond))

	res := p.Probe(context.Background(), "10.0.0.1")

	assert.True(t, res.Reachable)
	assert.Equal(t, "TCP Port 443 Open (No HTTP)", res.Detail)
	assert.Equal(t, 1, transport.count("http"))
	assert.Equal(t, 1, transport.count("https"))
}

func TestProbe_UnresponsiveHostFails(t *testing.T) {
	p := newTestProber(newMockTransport(stallConnect), &stallDialer{},
		WithHTTPTimeout(30*time.Millisecond),
		WithTCPTimeout(20*time.Millisecond),
	)

	res := p.Probe(context.Background(), "10.0.0.1")

	assert.False(t, res.Reachable)
	assert.Equal(t, "Connection Failed", res.Detail)
	assert.Equal(t, TierNone, res.Tier)
}

func TestProbe_BlockedPlainPortFallsThroughToTLS(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	released := make(chan struct{})
	defer close(released)

	tlsDialer := &tls.Dialer{Config: &tls.Config{InsecureSkipVerify: true}} //nolint:gosec // test server
	client := &http.Client{Transport: &http.Transport{
		// plain connections hang like a firewalled port
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			select {
			case <-ctx.Done():
			case <-released:
			}
			return nil, errors.New("connect stalled")
		},
		DialTLSContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
			return tlsDialer.DialContext(ctx, network, ts.Listener.Addr().String())
		},
	}}
	defer client.CloseIdleConnections()

	p := New(
		WithLogger(testLogger()),
		WithHTTPClient(client),
		WithDialer(newFakeDialer()),
		WithHTTPTimeout(200*time.Millisecond),
	)

	res := p.Probe(context.Background(), strings.TrimPrefix(ts.URL, "https://"))

	assert.True(t, res.Reachable)
	assert.Equal(t, "HTTPS OK (200)", res.Detail)
	assert.Equal(t, TierHTTPS, res.Tier)
}

func TestProbe_TCPFallback(t *testing.T) {
	transport := bySchemeTransport(0, refusedErr(), 0, refusedErr())
	dialer := newFakeDialer("443")
	p := newTestProber(transport, dialer)

	res := p.Probe(context.Background(), "10.0.0.1")

	assert.True(t, res.Reachable)
	assert.Equal(t, "TCP Port 443 Open (No HTTP)", res.Detail)
	assert.Equal(t, TierTCP, res.Tier)
	assert.Zero(t, res.StatusCode)
	assert.NotNil(t, res.ResponseTimeMs)
	assert.Equal(t, []string{"10.0.0.1:80", "10.0.0.1:443"}, dialer.dialed())
}

func TestProbe_TCPFallbackPrefersFirstPort(t *testing.T) {
	transport := bySchemeTransport(0, refusedErr(), 0, refusedErr())
	dialer := newFakeDialer("80", "443")
	p := newTestProber(transport, dialer)

	res := p.Probe(context.Background(), "10.0.0.1")

	assert.Equal(t, "TCP Port 80 Open (No HTTP)", res.Detail)
	assert.Equal(t, []string{"10.0.0.1:80"}, dialer.dialed())
}

func TestProbe_TCPStripsAddressPort(t *testing.T) {
	transport := bySchemeTransport(0, refusedErr(), 0, refusedErr())
	dialer := newFakeDialer("22")
	p := newTestProber(transport, dialer, WithTCPPorts(22))

	res := p.Probe(context.Background(), "[2001:db8::1]:8080")

	assert.Equal(t, "TCP Port 22 Open (No HTTP)", res.Detail)
	assert.Equal(t, []string{"[2001:db8::1]:22"}, dialer.dialed())
}

func TestProbe_AllTiersFail(t *testing.T) {
	transport := bySchemeTransport(0, refusedErr(), 0, refusedErr())
	p := newTestProber(transport, newFakeDialer())

	res := p.Probe(context.Background(), "10.0.0.1")

	assert.False(t, res.Reachable)
	assert.Equal(t, "Connection Failed", res.Detail)
	assert.Equal(t, TierNone, res.Tier)
	assert.Nil(t, res.ResponseTimeMs)
	assert.False(t, res.CheckedAt.IsZero())
}

func TestProbe_RealRefusedConnection(t *testing.T) {
	// grab a free port then close it so nothing is listening
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	_ = ln.Close()

	_, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	p := New(
		WithLogger(testLogger()),
		WithHTTPTimeout(time.Second),
		WithTCPTimeout(200*time.Millisecond),
		WithTCPPorts(portNum),
	)

	res := p.Probe(context.Background(), addr)

	assert.False(t, res.Reachable)
	assert.Equal(t, "Connection Failed", res.Detail)
}

func TestProbe_SendsUserAgent(t *testing.T) {
	transport := bySchemeTransport(http.StatusOK, nil, 0, nil)
	p := newTestProber(transport, newFakeDialer())

	_ = p.Probe(context.Background(), "10.0.0.1")

	require.Len(t, transport.headers, 1)
	assert.Equal(t, DefaultUserAgent, transport.headers[0].Get("User-Agent"))

	custom := bySchemeTransport(http.StatusOK, nil, 0, nil)
	p = newTestProber(custom, newFakeDialer(), WithUserAgent("custom/2.0"))
	_ = p.Probe(context.Background(), "10.0.0.1")
	assert.Equal(t, "custom/2.0", custom.headers[0].Get("User-Agent"))
}

func TestProbe_Idempotent(t *testing.T) {
	transport := bySchemeTransport(http.StatusOK, nil, 0, nil)
	p := newTestProber(transport, newFakeDialer())

	first := p.Probe(context.Background(), "10.0.0.1")
	second := p.Probe(context.Background(), "10.0.0.1")

	assert.Equal(t, first.Reachable, second.Reachable)
	assert.Equal(t, first.Detail, second.Detail)
}

func TestProbe_RecoversPanic(t *testing.T) {
	transport := newMockTransport(func(req *http.Request) (*http.Response, error) {
		panic("boom")
	})
	p := newTestProber(transport, newFakeDialer())

	var res Result
	require.NotPanics(t, func() {
		res = p.Probe(context.Background(), "10.0.0.1")
	})
	assert.False(t, res.Reachable)
	assert.Equal(t, "Connection Failed", res.Detail)
}

func TestProbe_CancelledContext(t *testing.T) {
	transport := bySchemeTransport(http.StatusOK, nil, 0, nil)
	dialer := newFakeDialer("80")
	p := newTestProber(transport, dialer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := p.Probe(ctx, "10.0.0.1")

	assert.False(t, res.Reachable)
	assert.Equal(t, "Connection Failed", res.Detail)
	assert.Equal(t, 0, transport.count("http"))
	assert.Empty(t, dialer.dialed())
}

func TestProbe_UsesClock(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	transport := bySchemeTransport(http.StatusOK, nil, 0, nil)
	p := newTestProber(transport, newFakeDialer(), WithClock(func() time.Time { return fixed }))

	res := p.Probe(context.Background(), "10.0.0.1")

	assert.Equal(t, fixed, res.CheckedAt)
}

func TestHostOnly(t *testing.T) {
	tests := map[string]string{
		"10.0.0.1":        "10.0.0.1",
		"10.0.0.1:8080":   "10.0.0.1",
		"example.com":     "example.com",
		"example.com:443": "example.com",
		"[::1]:80":        "::1",
		"[::1]":           "::1",
		"2001:db8::1":     "2001:db8::1",
	}
	for in, want := range tests {
		assert.Equal(t, want, hostOnly(in), "hostOnly(%q)", in)
	}
}

func TestMilliseconds_RoundsToTwoDecimals(t *testing.T) {
	ms := milliseconds(1234567 * time.Nanosecond)
	require.NotNil(t, ms)
	assert.InDelta(t, 1.23, *ms, 1e-9)
}
