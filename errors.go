package bigcommerce

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bigcommerce/bigcommerce-api-go/internal/api"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrConnectionClosed is returned when a request is attempted on a closed connection.
	ErrConnectionClosed = errors.New("connection has been closed")

	// ErrNoResponse is returned by Decode before any response was received.
	ErrNoResponse = errors.New("no response received")

	// ErrClientError matches every *ClientError.
	ErrClientError = errors.New("client error")

	// ErrServerError matches every *ServerError.
	ErrServerError = errors.New("server error")

	// ErrUnauthorized is returned when the credentials are missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the credentials lack the required scope.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when the resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited is returned when the API rate limit is exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrTooManyRedirects is returned when a redirect chain reaches the limit.
	ErrTooManyRedirects = api.ErrTooManyRedirects
)

// Error is implemented by all errors returned by the request methods of a
// Connection (Get, Post, Put, Delete and Head).
type Error interface {
	error
	BigcommerceError() // marker method
}

// NetworkErrorCode classifies a transport-level failure.
type NetworkErrorCode = api.Code

// Network error codes.
const (
	CodeUnknown           = api.CodeUnknown
	CodeTimeout           = api.CodeTimeout
	CodeCanceled          = api.CodeCanceled
	CodeDNS               = api.CodeDNS
	CodeConnectionRefused = api.CodeConnectionRefused
	CodeTLS               = api.CodeTLS
	CodeMalformedURL      = api.CodeMalformedURL
	CodeTooManyRedirects  = api.CodeTooManyRedirects
)

// NetworkError represents a transport-level failure or an exceeded redirect
// limit. It is always returned, whatever the fail-on-error mode.
type NetworkError struct {
	Code    NetworkErrorCode
	Message string
	Method  string
	URL     string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error (%s): %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// BigcommerceError implements the Error interface.
func (e *NetworkError) BigcommerceError() {}

// RequestError represents a failure to prepare or send a request that is not
// a transport failure: an unencodable query or payload, a body store that
// could not be created, or a closed connection.
type RequestError struct {
	Method string
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request error (%s %s): %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// BigcommerceError implements the Error interface.
func (e *RequestError) BigcommerceError() {}

// ClientError represents a 4xx response.
type ClientError struct {
	StatusCode int
	// Status is the response status line.
	Status string
	// Body is the decoded response body.
	Body    any
	RawBody []byte
}

func (e *ClientError) Error() string {
	return statusErrorString("client error", e.StatusCode, e.Body)
}

// Is implements errors.Is for sentinel error matching.
func (e *ClientError) Is(target error) bool {
	if target == ErrClientError {
		return true
	}
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return target == ErrUnauthorized
	case http.StatusForbidden:
		return target == ErrForbidden
	case http.StatusNotFound:
		return target == ErrNotFound
	case http.StatusTooManyRequests:
		return target == ErrRateLimited
	}
	return false
}

// BigcommerceError implements the Error interface.
func (e *ClientError) BigcommerceError() {}

// ServerError represents a 5xx response.
type ServerError struct {
	StatusCode int
	// Status is the response status line.
	Status string
	// Body is the decoded response body.
	Body    any
	RawBody []byte
}

func (e *ServerError) Error() string {
	return statusErrorString("server error", e.StatusCode, e.Body)
}

// Is implements errors.Is for sentinel error matching.
func (e *ServerError) Is(target error) bool {
	return target == ErrServerError
}

// BigcommerceError implements the Error interface.
func (e *ServerError) BigcommerceError() {}

// RateLimitError is returned when the server keeps rate limiting a request
// after the replay budget is spent, asks for a longer wait than allowed, or
// when the context ends during a wait.
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

// Is implements errors.Is for sentinel error matching.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// BigcommerceError implements the Error interface.
func (e *RateLimitError) BigcommerceError() {}

func statusErrorString(kind string, code int, body any) string {
	if msg := errorMessage(body); msg != "" {
		return fmt.Sprintf("%s %d: %s", kind, code, msg)
	}
	return fmt.Sprintf("%s %d", kind, code)
}

// errorMessage extracts a human-readable message from a decoded error body.
// The v2 API answers with a list of {"status", "message"} objects, v3 with a
// single object carrying "title".
func errorMessage(body any) string {
	switch b := body.(type) {
	case map[string]any:
		for _, key := range []string{"message", "title", "error"} {
			if s, ok := b[key].(string); ok && s != "" {
				return s
			}
		}
	case []any:
		if len(b) > 0 {
			return errorMessage(b[0])
		}
	}
	return ""
}

// classifyStatus returns the error for a 4xx or 5xx response, or nil.
func classifyStatus(resp *api.Response, body any) error {
	switch {
	case resp.StatusCode >= 400 && resp.StatusCode <= 499:
		return &ClientError{StatusCode: resp.StatusCode, Status: resp.StatusLine, Body: body, RawBody: resp.Body}
	case resp.StatusCode >= 500 && resp.StatusCode <= 599:
		return &ServerError{StatusCode: resp.StatusCode, Status: resp.StatusLine, Body: body, RawBody: resp.Body}
	}
	return nil
}

// wrapError converts internal API errors to public errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		msg := string(netErr.Code)
		if netErr.Err != nil {
			msg = netErr.Err.Error()
		}
		return &NetworkError{
			Code:    netErr.Code,
			Message: msg,
			Method:  netErr.Method,
			URL:     netErr.URL,
			Err:     netErr.Err,
		}
	}

	var rlErr *api.RateLimitError
	if errors.As(err, &rlErr) {
		return &RateLimitError{
			Attempts:   rlErr.Attempts,
			RetryAfter: rlErr.RetryAfter,
			Method:     rlErr.Method,
			URL:        rlErr.URL,
			Err:        rlErr.Err,
		}
	}

	return err
}

// wrapRequestError converts an engine error and wraps anything that is not
// already an Error in a *RequestError.
func wrapRequestError(method, url string, err error) error {
	err = wrapError(err)
	var bcErr Error
	if errors.As(err, &bcErr) {
		return err
	}
	return &RequestError{Method: method, URL: url, Err: err}
}
