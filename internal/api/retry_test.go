package api

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestDefaultRateLimitPolicy(t *testing.T) {
	p := DefaultRateLimitPolicy()

	if p.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", p.MaxRetries)
	}
	if p.MaxWait != 5*time.Minute {
		t.Errorf("MaxWait = %v, want 5m", p.MaxWait)
	}
	if p.Unit != time.Second {
		t.Errorf("Unit = %v, want 1s", p.Unit)
	}
}

func TestRateLimitPolicy_RetryAfter(t *testing.T) {
	p := DefaultRateLimitPolicy()

	tests := []struct {
		name   string
		header map[string]string
		want   time.Duration
		wantOK bool
	}{
		{"absent", map[string]string{}, 0, false},
		{"zero", map[string]string{RetryAfterHeader: "0"}, time.Second, true},
		{"seconds", map[string]string{RetryAfterHeader: "2"}, 3 * time.Second, true},
		{"fractional", map[string]string{RetryAfterHeader: "0.5"}, 1500 * time.Millisecond, true},
		{"whitespace", map[string]string{RetryAfterHeader: " 4 "}, 5 * time.Second, true},
		{"not a number", map[string]string{RetryAfterHeader: "soon"}, time.Second, true},
		{"negative", map[string]string{RetryAfterHeader: "-7"}, time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.RetryAfter(&Response{Header: tt.header})
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("RetryAfter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRateLimitPolicy_RetryAfterOverflow(t *testing.T) {
	p := DefaultRateLimitPolicy()

	got, ok := p.RetryAfter(&Response{Header: map[string]string{RetryAfterHeader: "1e300"}})
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if got != time.Duration(math.MaxInt64) {
		t.Errorf("RetryAfter() = %v, want max duration", got)
	}
}

func TestRateLimitPolicy_ShouldRetry(t *testing.T) {
	tests := []struct {
		name    string
		policy  RateLimitPolicy
		attempt int
		wait    time.Duration
		want    bool
	}{
		{"first replay", DefaultRateLimitPolicy(), 0, time.Second, true},
		{"last replay", DefaultRateLimitPolicy(), 4, time.Second, true},
		{"budget spent", DefaultRateLimitPolicy(), 5, time.Second, false},
		{"wait too long", DefaultRateLimitPolicy(), 0, 6 * time.Minute, false},
		{"wait at limit", DefaultRateLimitPolicy(), 0, 5 * time.Minute, true},
		{"unlimited replays", RateLimitPolicy{MaxRetries: -1}, 1000, time.Hour, true},
		{"no replays", RateLimitPolicy{MaxRetries: 0}, 0, time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.ShouldRetry(tt.attempt, tt.wait); got != tt.want {
				t.Errorf("ShouldRetry(%d, %v) = %v, want %v", tt.attempt, tt.wait, got, tt.want)
			}
		})
	}
}

func TestRateLimitPolicy_Wait(t *testing.T) {
	p := DefaultRateLimitPolicy()

	start := time.Now()
	if err := p.Wait(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("Wait() returned after %v, want >= 10ms", elapsed)
	}
}

func TestRateLimitPolicy_WaitCanceled(t *testing.T) {
	p := DefaultRateLimitPolicy()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Wait(ctx, time.Hour); err != context.Canceled {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}
