package api

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
)

// ErrTooManyRedirects is wrapped by the NetworkError returned when a redirect
// chain reaches the configured limit.
var ErrTooManyRedirects = errors.New("too many redirects when trying to follow location")

// Code classifies a network-level failure.
type Code string

const (
	// CodeUnknown is used when the failure could not be classified.
	CodeUnknown Code = "unknown"
	// CodeTimeout indicates a connect or request timeout.
	CodeTimeout Code = "timeout"
	// CodeCanceled indicates the caller's context was canceled.
	CodeCanceled Code = "canceled"
	// CodeDNS indicates the host name could not be resolved.
	CodeDNS Code = "dns"
	// CodeConnectionRefused indicates the remote end refused the connection.
	CodeConnectionRefused Code = "connection_refused"
	// CodeTLS indicates a TLS handshake or certificate failure.
	CodeTLS Code = "tls"
	// CodeMalformedURL indicates the request or redirect URL could not be parsed.
	CodeMalformedURL Code = "malformed_url"
	// CodeTooManyRedirects indicates the redirect limit was reached.
	CodeTooManyRedirects Code = "too_many_redirects"
)

// NetworkError represents a transport-level failure. It is never retried.
type NetworkError struct {
	Code   Code
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error (%s): %v", e.Code, e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RateLimitError is returned when the server keeps asking for a retry after
// the replay budget is spent, when it asks for a wait longer than allowed,
// or when the wait itself is interrupted.
type RateLimitError struct {
	Attempts   int
	RetryAfter time.Duration
	Method     string
	URL        string
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rate limited after %d replays: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("rate limited after %d replays (retry after %v)", e.Attempts, e.RetryAfter)
}

// Unwrap returns the underlying error.
func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// classify maps a transport error to a Code.
func classify(err error) Code {
	var (
		dnsErr     *net.DNSError
		certErr    *tls.CertificateVerificationError
		recordErr  tls.RecordHeaderError
		unknownCA  x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
		netErr     net.Error
	)

	switch {
	case errors.Is(err, context.Canceled):
		return CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.As(err, &dnsErr):
		return CodeDNS
	case errors.Is(err, syscall.ECONNREFUSED):
		return CodeConnectionRefused
	case errors.As(err, &certErr), errors.As(err, &recordErr),
		errors.As(err, &unknownCA), errors.As(err, &hostErr), errors.As(err, &invalidErr):
		return CodeTLS
	case errors.As(err, &netErr) && netErr.Timeout():
		return CodeTimeout
	}
	return CodeUnknown
}
