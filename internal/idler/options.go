package idler

import (
	"log/slog"
	"time"

	steam "github.com/Philipp15b/go-steam/v3"
	"github.com/Philipp15b/go-steam/v3/totp"

	"github.com/iiTzT/simple-steam-idler-replit/internal/creds"
)

// ///////////////////////////////////////////////
// Login Option Builder
// ///////////////////////////////////////////////

// BuildLogOnDetails assembles the credential bundle for a single login
// attempt. It must be called fresh before every attempt: one-time codes are
// valid for a single 30-second window and can never be reused.
//
// Composition order: account name and password always; the sentry hash when
// one is saved (lets Steam skip challenge verification); a one-time code when
// a shared secret is configured. A code generation failure is logged and the
// code omitted — login then rides on the sentry or triggers a challenge.
func BuildLogOnDetails(c *creds.Credentials, now time.Time) *steam.LogOnDetails {
	details := &steam.LogOnDetails{
		Username: c.Username,
		Password: c.Password,
	}

	if len(c.Sentry) > 0 {
		details.SentryFileHash = c.Sentry
	}

	if c.SharedSecret != "" {
		code, err := totp.GenerateTotpCode(c.SharedSecret, now)
		if err != nil {
			slog.Warn("one-time code generation failed, logging on without a code", "error", err)
		} else {
			details.TwoFactorCode = code
		}
	}

	return details
}
