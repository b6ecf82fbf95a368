package api

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"
)

// RetryAfterHeader is the response header the API uses to signal that the
// caller must pause before repeating the request.
const RetryAfterHeader = "X-Retry-After"

// RateLimitPolicy configures the replay of rate-limited requests.
type RateLimitPolicy struct {
	// MaxRetries is the maximum number of replays of one logical call.
	// A negative value removes the limit.
	MaxRetries int
	// MaxWait is the longest single wait the client accepts. A server asking
	// for more fails the call instead. Zero means no limit.
	MaxWait time.Duration
	// Unit is the length of one X-Retry-After unit. Defaults to one second.
	Unit time.Duration
}

// DefaultRateLimitPolicy returns the default rate-limit policy.
func DefaultRateLimitPolicy() RateLimitPolicy {
	return RateLimitPolicy{
		MaxRetries: 5,
		MaxWait:    5 * time.Minute,
		Unit:       time.Second,
	}
}

func (p RateLimitPolicy) unit() time.Duration {
	if p.Unit <= 0 {
		return time.Second
	}
	return p.Unit
}

// RetryAfter reports whether resp asks for a replay and how long to wait
// first: the header value plus one unit. Values that are not numbers, and
// negative values, count as zero.
func (p RateLimitPolicy) RetryAfter(resp *Response) (time.Duration, bool) {
	v, ok := resp.Get(RetryAfterHeader)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(n) || n < 0 {
		n = 0
	}
	wait := (n + 1) * float64(p.unit())
	if wait >= math.MaxInt64 {
		return time.Duration(math.MaxInt64), true
	}
	return time.Duration(wait), true
}

// ShouldRetry reports whether another replay is allowed after attempt
// replays, for a requested wait.
func (p RateLimitPolicy) ShouldRetry(attempt int, wait time.Duration) bool {
	if p.MaxRetries >= 0 && attempt >= p.MaxRetries {
		return false
	}
	if p.MaxWait > 0 && wait > p.MaxWait {
		return false
	}
	return true
}

// Wait blocks for d or until ctx is done.
func (p RateLimitPolicy) Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
