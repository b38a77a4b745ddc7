// Package idler implements the connection/retry state machine that keeps a
// single Steam account logged on, invisible, and idling a fixed set of games.
//
// The [Controller] owns the steam.Client exclusively and drives one login
// attempt at a time: build fresh logon details, connect, react to the
// session events Steam pushes back, and either settle into a connected
// steady state or hand the failure code to the retry schedule. Challenge
// prompts are a deliberate hard stop — an unattended process has no way to
// answer them, and looping on them risks rate limiting.
package idler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	steam "github.com/Philipp15b/go-steam/v3"
	"github.com/Philipp15b/go-steam/v3/protocol/steamlang"

	"github.com/iiTzT/simple-steam-idler-replit/internal/creds"
	"github.com/iiTzT/simple-steam-idler-replit/internal/logger"
	"github.com/iiTzT/simple-steam-idler-replit/internal/sentry"
)

// ///////////////////////////////////////////////
// States
// ///////////////////////////////////////////////

// Controller states, exposed through [Controller.State] for the health
// endpoint.
const (
	StateIdle       = "idle"
	StateConnecting = "connecting"
	StateConnected  = "connected"
	StateChallenge  = "challenge_requested"
	StateFailed     = "failed"
)

// IdleAppIDs is the fixed set of app IDs declared as "currently playing"
// once a session is established.
var IdleAppIDs = []uint64{730, 440, 570}

// Terminal errors returned by [Controller.Run]. main maps both to a non-zero
// exit status.
var (
	ErrChallengeRequired = errors.New("steam guard challenge cannot be answered unattended")
	ErrRetriesExhausted  = errors.New("login retries exhausted")
)

// ///////////////////////////////////////////////
// Controller
// ///////////////////////////////////////////////

// Controller owns the Steam connection and the retry state. All login flow
// runs on the goroutine that calls [Controller.Run]; only the state string
// is read concurrently (by the health endpoint), guarded by mu.
type Controller struct {
	creds   *creds.Credentials
	store   *sentry.Store
	watcher *sentry.Watcher
	policy  Policy

	// mu guards state and client against the health endpoint's reads.
	mu     sync.Mutex
	state  string
	client *steam.Client

	// attempts counts consecutive login failures. It is only touched from
	// the Run goroutine.
	attempts int
}

// New creates a Controller. watcher may be nil when sentry slot watching is
// unavailable; the controller then only sees sentry updates it wrote itself.
func New(c *creds.Credentials, store *sentry.Store, watcher *sentry.Watcher, policy Policy) *Controller {
	return &Controller{
		creds:   c,
		store:   store,
		watcher: watcher,
		policy:  policy,
		state:   StateIdle,
	}
}

// State returns the controller's current state string.
func (c *Controller) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s string) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	if prev != s {
		slog.Debug("state transition", "from", prev, "to", s)
	}
}

// ///////////////////////////////////////////////
// Run Loop
// ///////////////////////////////////////////////

// Run drives login attempts until one of the terminal conditions: context
// cancellation (clean shutdown, returns the context error), a Steam Guard
// challenge ([ErrChallengeRequired]), or the retry ceiling
// ([ErrRetriesExhausted]). A successful login is not terminal — Run keeps
// consuming session events and feeds any later disconnect back into the
// retry schedule.
func (c *Controller) Run(ctx context.Context) error {
	for {
		c.refreshSentry()

		details := BuildLogOnDetails(c.creds, time.Now())
		out := c.attempt(ctx, details)
		c.teardown()

		switch {
		case out.canceled:
			slog.Info("shutting down")
			return ctx.Err()

		case out.challenge:
			c.setState(StateChallenge)
			slog.Error("steam requested an interactive verification code; cannot continue unattended",
				"result", out.code,
				"fix_option_1", "set "+creds.EnvSharedSecret+" so one-time codes are generated automatically",
				"fix_option_2", "set "+creds.EnvSentry+" from a machine that already completed verification",
			)
			return ErrChallengeRequired

		default:
			c.setState(StateFailed)
			if err := c.backoff(ctx, out.code); err != nil {
				return err
			}
		}
	}
}

// outcome is the terminal result of a single connection attempt.
type outcome struct {
	// canceled is set when the context ended the attempt.
	canceled bool
	// challenge is set when Steam demanded interactive verification.
	challenge bool
	// code is the failure result; meaningful when neither flag is set.
	code steamlang.EResult
}

// attempt opens a fresh connection, submits the logon, and consumes session
// events until the attempt resolves. A successful logon keeps the event loop
// running; the attempt only resolves once the session is gone again.
func (c *Controller) attempt(ctx context.Context, details *steam.LogOnDetails) outcome {
	c.setState(StateConnecting)

	client := steam.NewClient()
	c.mu.Lock()
	c.client = client
	c.mu.Unlock()

	slog.Info("connecting to steam", "account", details.Username, "attempt", c.attempts+1)
	client.Connect()

	for {
		select {
		case <-ctx.Done():
			return outcome{canceled: true}
		case event, ok := <-client.Events():
			if !ok {
				return outcome{code: steamlang.EResult_NoConnection}
			}
			if out, done := c.handleEvent(client, details, event); done {
				return out
			}
		}
	}
}

// handleEvent reacts to a single session event. It returns done=true when the
// attempt has resolved.
func (c *Controller) handleEvent(client *steam.Client, details *steam.LogOnDetails, event any) (outcome, bool) {
	switch e := event.(type) {
	case *steam.ConnectedEvent:
		slog.Info("connected, submitting logon")
		client.Auth.LogOn(details)

	case *steam.LoggedOnEvent:
		c.setState(StateConnected)
		client.Social.SetPersonaState(steamlang.EPersonaState_Invisible)
		client.GC.SetGamesPlayed(IdleAppIDs...)
		slog.Info("logged on, presence set to invisible", "idling_app_ids", fmt.Sprint(IdleAppIDs))

	case *steam.MachineAuthUpdateEvent:
		c.persistSentry(e.Hash)

	case *steam.LogOnFailedEvent:
		if IsChallenge(e.Result) {
			return outcome{challenge: true, code: e.Result}, true
		}
		slog.Warn("logon failed", "result", e.Result)
		return outcome{code: e.Result}, true

	case *steam.DisconnectedEvent:
		slog.Warn("disconnected from steam")
		return outcome{code: steamlang.EResult_NoConnection}, true

	case error:
		// Covers FatalErrorEvent too: it is a named error interface, so every
		// error on the channel lands here. The session is not trustworthy
		// after one; resolve the attempt and let the retry schedule decide.
		slog.Warn("steam client error", "error", e)
		return outcome{code: steamlang.EResult_NoConnection}, true

	default:
		logger.Trace(slog.Default(), "steam event", "type", fmt.Sprintf("%T", event))
	}
	return outcome{}, false
}

// ///////////////////////////////////////////////
// Sentry Handling
// ///////////////////////////////////////////////

// persistSentry writes the new machine-auth hash to the durable slot —
// exactly one write per event, overwriting any prior value — and logs its
// base64 form so an operator can copy it into STEAM_SENTRY for other hosts.
func (c *Controller) persistSentry(hash []byte) {
	if err := c.store.Write(hash); err != nil {
		slog.Error("failed to persist sentry", "error", err)
		return
	}
	c.creds.Sentry = hash
	slog.Info("new sentry persisted; future logins skip challenge verification",
		"sentry_base64", base64.StdEncoding.EncodeToString(hash))
}

// refreshSentry re-reads the slot before an attempt if the watcher saw an
// external change, picking up a sentry file the operator dropped in place.
func (c *Controller) refreshSentry() {
	if c.watcher == nil {
		return
	}
	select {
	case <-c.watcher.Events():
		blob, err := c.store.Read()
		if err != nil || len(blob) == 0 {
			slog.Warn("sentry slot changed but is unreadable", "error", err)
			return
		}
		c.creds.Sentry = blob
		slog.Info("reloaded sentry from slot", "bytes", len(blob))
	default:
	}
}

// ///////////////////////////////////////////////
// Retry Scheduling
// ///////////////////////////////////////////////

// backoff records one failure and waits out the computed delay. It returns
// ErrRetriesExhausted once the ceiling is exceeded, or the context error if
// shutdown interrupts the wait.
func (c *Controller) backoff(ctx context.Context, code steamlang.EResult) error {
	c.attempts++
	if c.attempts > c.policy.MaxAttempts {
		logger.Fail(slog.Default(), "retry ceiling reached, giving up",
			"failures", c.attempts, "max_attempts", c.policy.MaxAttempts)
		return ErrRetriesExhausted
	}

	delay := c.policy.Delay(code, c.attempts)
	slog.Warn("scheduling retry",
		"result", code,
		"attempt", c.attempts,
		"max_attempts", c.policy.MaxAttempts,
		"delay", delay,
		"rate_limited", IsRateLimited(code),
	)

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// teardown disconnects and discards the current client. Best-effort: a
// failing disconnect is swallowed, the client is dropped either way.
func (c *Controller) teardown() {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client != nil {
		client.Disconnect()
	}
}
