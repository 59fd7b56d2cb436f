package prober

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"sync/atomic"
	"time"
)

// maxDrainBytes bounds how much of a response body is read before the
// connection is returned to the pool. The body content is never inspected.
const maxDrainBytes = 64 << 10

// connection pooling limits; a probe makes at most two HTTP requests per
// target per cycle so the pool stays small
const (
	defaultMaxIdleConns        = 50
	defaultMaxIdleConnsPerHost = 2
	defaultIdleConnTimeout     = 30 * time.Second
)

// NewHTTPClient creates the HTTP client used by the HTTP and HTTPS tiers.
//
// The client follows redirects (Go's default limit of 10) and has no global
// timeout: each attempt is bounded through its context instead. TLS
// certificate verification is disabled because the HTTPS tier checks
// connectivity, not trust.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // connectivity probe only
			MaxIdleConns:        defaultMaxIdleConns,
			MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
			IdleConnTimeout:     defaultIdleConnTimeout,
		},
	}
}

// connectTrace records whether a request got past opening its connection.
type connectTrace struct {
	connected atomic.Bool
}

func (c *connectTrace) clientTrace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		ConnectDone: func(_, _ string, err error) {
			if err == nil {
				c.connected.Store(true)
			}
		},
		TLSHandshakeStart: func() { c.connected.Store(true) },
		GotConn:           func(httptrace.GotConnInfo) { c.connected.Store(true) },
	}
}

// get issues a single GET request and classifies the result.
//
// The timeout covers the whole exchange including redirects and draining
// the body. A timeout before the connection is open counts as a failed
// connection, not a timeout. get always returns an Outcome; transport errors
// are captured in Outcome.Err.
func get(ctx context.Context, client *http.Client, url, userAgent string, timeout time.Duration) Outcome {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	trace := &connectTrace{}
	ctx = httptrace.WithClientTrace(ctx, trace.clientTrace())

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Outcome{
			Kind:    OutcomeOtherFailure,
			Elapsed: time.Since(start),
			Err:     fmt.Errorf("failed to create request: %w", err),
		}
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		kind := classifyError(err)
		if kind == OutcomeTimeout && !trace.connected.Load() {
			kind = OutcomeConnectionRefused
		}
		return Outcome{
			Kind:    kind,
			Elapsed: time.Since(start),
			Err:     fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	// drain so keep-alive connections can be reused; read errors after the
	// status line do not change the verdict
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	return Outcome{
		Kind:       classifyStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Elapsed:    time.Since(start),
	}
}

// closeIdle releases pooled connections held by client, if its transport
// supports it.
func closeIdle(client *http.Client) {
	if client == nil {
		return
	}
	client.CloseIdleConnections()
}
