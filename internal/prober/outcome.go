package prober

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
)

// OutcomeKind tags the result of a single HTTP or HTTPS attempt.
type OutcomeKind int

const (
	// OutcomeSuccess is a response with a status code in [200, 400).
	OutcomeSuccess OutcomeKind = iota

	// OutcomeClientError is a response with a status code in [400, 500).
	OutcomeClientError

	// OutcomeServerError is any other response status code.
	OutcomeServerError

	// OutcomeTimeout means the attempt ran out of time after the
	// connection was open.
	OutcomeTimeout

	// OutcomeConnectionRefused covers refused, reset, unroutable and
	// timed-out connections as well as name resolution failures.
	OutcomeConnectionRefused

	// OutcomeOtherFailure is any other transport-level failure (TLS
	// handshake, protocol errors, redirect loops).
	OutcomeOtherFailure
)

// String returns a short lowercase name for the kind, used in logs and metrics.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeClientError:
		return "client_error"
	case OutcomeServerError:
		return "server_error"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeConnectionRefused:
		return "connection_refused"
	case OutcomeOtherFailure:
		return "other_failure"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of one HTTP or HTTPS attempt.
type Outcome struct {
	// Kind is the classification of the attempt.
	Kind OutcomeKind

	// StatusCode is set for Success, ClientError and ServerError.
	StatusCode int

	// Elapsed is the wall-clock duration of the attempt.
	Elapsed time.Duration

	// Err is the transport error for Timeout, ConnectionRefused and
	// OtherFailure. nil otherwise.
	Err error
}

// answered reports whether the server produced an HTTP response.
func (o Outcome) answered() bool {
	switch o.Kind {
	case OutcomeSuccess, OutcomeClientError, OutcomeServerError:
		return true
	default:
		return false
	}
}

// fallsThrough reports whether the next tier should be attempted.
func (o Outcome) fallsThrough() bool {
	return o.Kind == OutcomeConnectionRefused || o.Kind == OutcomeOtherFailure
}

// detail renders the classification tag for a terminal outcome.
// label is "HTTP" or "HTTPS".
func (o Outcome) detail(label string) string {
	switch o.Kind {
	case OutcomeSuccess:
		return fmt.Sprintf("%s OK (%d)", label, o.StatusCode)
	case OutcomeClientError:
		return fmt.Sprintf("%s Client Error (%d)", label, o.StatusCode)
	case OutcomeServerError:
		return fmt.Sprintf("%s Server Error (%d)", label, o.StatusCode)
	case OutcomeTimeout:
		return label + " Timeout"
	default:
		return detailConnectionFailed
	}
}

// classifyStatus maps an HTTP status code to an outcome kind.
// Codes outside [200, 500) are server errors, including 1xx and >= 600.
func classifyStatus(code int) OutcomeKind {
	switch {
	case code >= 200 && code < 400:
		return OutcomeSuccess
	case code >= 400 && code < 500:
		return OutcomeClientError
	default:
		return OutcomeServerError
	}
}

// classifyError maps a transport error to an outcome kind.
//
// A dial that ran out of time is a failed connection. Only timeouts after
// the connection is open end the probe.
func classifyError(err error) OutcomeKind {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return OutcomeConnectionRefused
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return OutcomeConnectionRefused
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return OutcomeTimeout
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return OutcomeConnectionRefused
	}

	return OutcomeOtherFailure
}
