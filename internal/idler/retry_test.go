package idler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Philipp15b/go-steam/v3/protocol/steamlang"
)

// ///////////////////////////////////////////////
// Delay Schedule Tests
// ///////////////////////////////////////////////

func TestDelaySchedule(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name    string
		code    steamlang.EResult
		attempt int
		want    time.Duration
	}{
		{"rate limit attempt 1", steamlang.EResult_RateLimitExceeded, 1, 60 * time.Second},
		{"rate limit attempt 2", steamlang.EResult_RateLimitExceeded, 2, 120 * time.Second},
		{"rate limit attempt 3", steamlang.EResult_RateLimitExceeded, 3, 240 * time.Second},
		{"transient attempt 1", steamlang.EResult_Fail, 1, 30 * time.Second},
		{"transient attempt 2", steamlang.EResult_Fail, 2, 60 * time.Second},
		{"transient attempt 4", steamlang.EResult_Fail, 4, 240 * time.Second},
		{"bad password is still transient", steamlang.EResult_InvalidPassword, 1, 30 * time.Second},
		{"no connection attempt 6", steamlang.EResult_NoConnection, 6, 960 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Delay(tt.code, tt.attempt); got != tt.want {
				t.Errorf("Delay(%v, %d) = %v, want %v", tt.code, tt.attempt, got, tt.want)
			}
		})
	}
}

// TestDelayFailureSequence walks the schedule through two rate-limit failures
// followed by a generic transient one: 60s, 120s, then 30s doubled twice.
func TestDelayFailureSequence(t *testing.T) {
	p := DefaultPolicy()
	codes := []steamlang.EResult{
		steamlang.EResult_RateLimitExceeded,
		steamlang.EResult_RateLimitExceeded,
		steamlang.EResult_Fail,
	}
	want := []time.Duration{60 * time.Second, 120 * time.Second, 120 * time.Second}

	for i, code := range codes {
		attempt := i + 1
		if got := p.Delay(code, attempt); got != want[i] {
			t.Errorf("attempt %d (code %v): delay = %v, want %v", attempt, code, got, want[i])
		}
	}
}

// ///////////////////////////////////////////////
// Classification Tests
// ///////////////////////////////////////////////

func TestIsChallenge(t *testing.T) {
	tests := []struct {
		code steamlang.EResult
		want bool
	}{
		{steamlang.EResult_AccountLogonDenied, true},
		{steamlang.EResult_AccountLoginDeniedNeedTwoFactor, true},
		{steamlang.EResult_TwoFactorCodeMismatch, false},
		{steamlang.EResult_RateLimitExceeded, false},
		{steamlang.EResult_InvalidPassword, false},
		{steamlang.EResult_Fail, false},
		{steamlang.EResult_NoConnection, false},
	}

	for _, tt := range tests {
		if got := IsChallenge(tt.code); got != tt.want {
			t.Errorf("IsChallenge(%v) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestIsRateLimited(t *testing.T) {
	if !IsRateLimited(steamlang.EResult_RateLimitExceeded) {
		t.Error("RateLimitExceeded should classify as rate limited")
	}
	if IsRateLimited(steamlang.EResult_Fail) {
		t.Error("Fail should not classify as rate limited")
	}
}

// ///////////////////////////////////////////////
// Backoff Ceiling Tests
// ///////////////////////////////////////////////

// fastPolicy keeps the production ceiling but collapses delays so tests
// complete instantly.
func fastPolicy() Policy {
	return Policy{MaxAttempts: 6, BaseDelay: time.Microsecond, RateLimitDelay: time.Microsecond}
}

func TestBackoffCeiling(t *testing.T) {
	c := newTestController(t)
	c.policy = fastPolicy()
	ctx := context.Background()

	// Failures 1 through 6 schedule a retry.
	for i := 1; i <= 6; i++ {
		if err := c.backoff(ctx, steamlang.EResult_Fail); err != nil {
			t.Fatalf("failure %d: backoff = %v, want retry", i, err)
		}
	}

	// The 7th failure terminates without scheduling another attempt.
	err := c.backoff(ctx, steamlang.EResult_Fail)
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("failure 7: backoff = %v, want ErrRetriesExhausted", err)
	}
}

func TestBackoffCanceledContext(t *testing.T) {
	c := newTestController(t)
	c.policy = Policy{MaxAttempts: 6, BaseDelay: time.Hour, RateLimitDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := c.backoff(ctx, steamlang.EResult_Fail)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("backoff = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("backoff did not return promptly on cancellation")
	}
}
