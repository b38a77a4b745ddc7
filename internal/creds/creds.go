// Package creds resolves the Steam account credentials at startup.
//
// Credentials come from the environment — never from the config file — plus
// the durable sentry slot maintained by the sentry package. The account name
// and password are mandatory; the shared secret and sentry blob are optional
// but without at least one of them the first login on a new machine will hit
// a Steam Guard challenge the daemon cannot answer.
package creds

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/iiTzT/simple-steam-idler-replit/internal/sentry"
)

// Environment variable names read by [Load].
const (
	EnvUsername     = "STEAM_USERNAME"
	EnvPassword     = "STEAM_PASSWORD"
	EnvSharedSecret = "STEAM_SHARED_SECRET"
	EnvSentry       = "STEAM_SENTRY"
)

// ErrMissingCredentials indicates the mandatory account name or password is
// absent from the environment.
var ErrMissingCredentials = errors.New("missing credentials")

// ///////////////////////////////////////////////
// Credentials
// ///////////////////////////////////////////////

// Credentials holds everything needed to build a login attempt.
type Credentials struct {
	// Username is the Steam account name.
	Username string
	// Password is the account password.
	Password string
	// SharedSecret is the base64 shared_secret from a mobile authenticator,
	// used to generate one-time codes. Empty when not configured.
	SharedSecret string
	// Sentry is the machine-auth hash from a previous verified login.
	// Nil when no sentry is available yet. Replaced in place when Steam
	// issues a new one.
	Sentry []byte
}

// Load reads credentials from the environment and the sentry store.
//
// The on-disk sentry slot takes precedence over STEAM_SENTRY: the slot is
// written by the daemon itself after a verified login and is always at least
// as fresh as whatever the operator pasted into the environment.
func Load(store *sentry.Store) (*Credentials, error) {
	c := &Credentials{
		Username:     strings.TrimSpace(os.Getenv(EnvUsername)),
		Password:     os.Getenv(EnvPassword),
		SharedSecret: strings.TrimSpace(os.Getenv(EnvSharedSecret)),
	}

	if c.Username == "" || c.Password == "" {
		return nil, fmt.Errorf("%w: set %s and %s", ErrMissingCredentials, EnvUsername, EnvPassword)
	}

	c.Sentry = loadSentry(store)

	switch {
	case c.SharedSecret != "":
		slog.Info("shared secret configured, one-time codes will be generated per attempt")
	case len(c.Sentry) > 0:
		slog.Info("no shared secret, relying on saved sentry to skip challenges")
	default:
		slog.Warn("no shared secret and no sentry: the first login will abort if Steam requests a challenge",
			"hint", "set "+EnvSharedSecret+" or "+EnvSentry)
	}

	return c, nil
}

// loadSentry resolves the sentry blob, preferring the durable slot over the
// environment. A malformed STEAM_SENTRY value is logged and ignored rather
// than failing startup — login can still succeed via the one-time code path.
func loadSentry(store *sentry.Store) []byte {
	if store != nil && store.Exists() {
		blob, err := store.Read()
		if err == nil && len(blob) > 0 {
			slog.Info("loaded sentry from durable slot", "bytes", len(blob))
			return blob
		}
		slog.Warn("sentry slot unreadable, falling back to environment", "error", err)
	}

	encoded := strings.TrimSpace(os.Getenv(EnvSentry))
	if encoded == "" {
		return nil
	}
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		slog.Warn("ignoring malformed "+EnvSentry+" value", "error", err)
		return nil
	}
	slog.Info("loaded sentry from environment", "bytes", len(blob))
	return blob
}
