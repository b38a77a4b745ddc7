package idler

import (
	"time"

	"github.com/Philipp15b/go-steam/v3/protocol/steamlang"
)

// ///////////////////////////////////////////////
// Retry Policy
// ///////////////////////////////////////////////

// Policy fixes the retry schedule for failed login attempts.
type Policy struct {
	// MaxAttempts is the retry ceiling. Once the failure count exceeds it the
	// process terminates instead of scheduling another attempt.
	MaxAttempts int
	// BaseDelay is the first-attempt backoff for ordinary transient failures.
	BaseDelay time.Duration
	// RateLimitDelay is the first-attempt backoff when Steam reports rate
	// limiting; deliberately longer so repeated logins do not dig the hole
	// deeper.
	RateLimitDelay time.Duration
}

// DefaultPolicy returns the production retry schedule.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    6,
		BaseDelay:      30 * time.Second,
		RateLimitDelay: 60 * time.Second,
	}
}

// Delay returns the backoff before retrying after the attempt-th consecutive
// failure (1-based): base(code) doubled for every prior failure.
func (p Policy) Delay(code steamlang.EResult, attempt int) time.Duration {
	base := p.BaseDelay
	if IsRateLimited(code) {
		base = p.RateLimitDelay
	}
	return base << (attempt - 1)
}

// ///////////////////////////////////////////////
// Failure Classification
// ///////////////////////////////////////////////

// IsRateLimited reports whether the result code indicates Steam is throttling
// login attempts from this account or address.
func IsRateLimited(code steamlang.EResult) bool {
	return code == steamlang.EResult_RateLimitExceeded
}

// IsChallenge reports whether the result code means Steam demands an
// interactive verification code delivered out-of-band (email Steam Guard, or
// mobile two-factor with no shared secret configured). These are never
// retried: without an input channel a retry would repeat the same prompt and
// risks rate limiting on top.
//
// Every other non-success code — including ones that likely indicate a
// permanently bad password — is treated as transient and retried up to the
// ceiling, matching the observed behavior this daemon replaces.
func IsChallenge(code steamlang.EResult) bool {
	switch code {
	case steamlang.EResult_AccountLogonDenied,
		steamlang.EResult_AccountLoginDeniedNeedTwoFactor:
		return true
	}
	return false
}
