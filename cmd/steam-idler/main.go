// Package main implements the steam-idler daemon, which keeps a Steam
// account logged on, invisible, and idling a fixed set of games.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	steam "github.com/Philipp15b/go-steam/v3"

	rootpkg "github.com/iiTzT/simple-steam-idler-replit"
	"github.com/iiTzT/simple-steam-idler-replit/internal/config"
	"github.com/iiTzT/simple-steam-idler-replit/internal/creds"
	"github.com/iiTzT/simple-steam-idler-replit/internal/health"
	"github.com/iiTzT/simple-steam-idler-replit/internal/idler"
	"github.com/iiTzT/simple-steam-idler-replit/internal/logger"
	"github.com/iiTzT/simple-steam-idler-replit/internal/paths"
	"github.com/iiTzT/simple-steam-idler-replit/internal/sentry"
	"github.com/iiTzT/simple-steam-idler-replit/internal/update"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via ldflags:
//   - release builds: -X main.version={{.Version}} -> "0.1.0"
//
// When ldflags are not set (bare go build), resolveVersion reads the VCS info
// that Go embeds automatically, so dev builds get a useful version string
// without needing git at runtime.
var version = "dev"

// resolveVersion returns the build version string. If [version] was set via
// ldflags at build time it is returned as-is; otherwise VCS revision and dirty
// state embedded by the Go toolchain are used to construct a "dev+<hash>" tag.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// PID Management
// ///////////////////////////////////////////////

// pidToken generates a random 16-character hex token used to prove ownership
// of the PID file, so [removePID] only deletes the file if this instance wrote it.
func pidToken() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// writePID creates or opens the PID file at [DataPaths.PID], acquires an
// advisory file lock, and writes "PID:TOKEN" content. The returned file handle
// must be kept open for the lifetime of the daemon to hold the lock; pass it to
// [removePID] on shutdown.
func writePID(paths DataPaths, token string) (*os.File, error) {
	f, err := os.OpenFile(paths.PID(), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open PID file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock PID file: %w", err)
	}
	if err := f.Truncate(0); err != nil {
		_ = unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("truncate PID file: %w", err)
	}
	content := fmt.Sprintf("%d:%s", os.Getpid(), token)
	if _, err := f.WriteString(content); err != nil {
		_ = unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("write PID file: %w", err)
	}
	return f, nil
}

// removePID releases the advisory lock, closes the file handle, and removes the
// PID file only if the stored token matches, preventing accidental removal of a
// file owned by a different daemon instance.
func removePID(paths DataPaths, token string, f *os.File) {
	if f != nil {
		_ = unlockFile(f)
		f.Close()
	}
	data, err := os.ReadFile(paths.PID())
	if err != nil {
		return
	}
	parts := strings.SplitN(string(data), ":", 2)
	if len(parts) == 2 && parts[1] == token {
		os.Remove(paths.PID())
	}
}

// checkStalePID checks whether another daemon instance is running. It attempts
// to acquire the advisory lock on the PID file; if the lock fails, another
// instance holds it. If the lock succeeds, any previous instance is dead and
// the stale file is cleaned up.
func checkStalePID(paths DataPaths) (alive bool, pid int) {
	f, err := os.OpenFile(paths.PID(), os.O_RDWR, 0o600)
	if err != nil {
		return false, 0
	}

	if lockErr := lockFile(f); lockErr != nil {
		data, _ := os.ReadFile(paths.PID())
		f.Close()
		parts := strings.SplitN(string(data), ":", 2)
		if len(parts) >= 1 {
			if p, convErr := strconv.Atoi(parts[0]); convErr == nil {
				return true, p
			}
		}
		return true, 0
	}

	// Lock acquired -- previous instance is dead. Clean up stale file.
	_ = unlockFile(f)
	f.Close()
	os.Remove(paths.PID())
	return false, 0
}

// ///////////////////////////////////////////////
// Default Data Directory
// ///////////////////////////////////////////////

// defaultDataDir returns the platform default directory for idler data,
// typically ~/.steam-idler. Falls back to ./.steam-idler if the home
// directory cannot be determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", paths.DataDirRel)
	}
	return filepath.Join(home, paths.DataDirRel)
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

func main() {
	os.Exit(run())
}

// run holds the daemon body so deferred cleanup executes before the process
// exits with a status code.
func run() int {
	dataDir := flag.String("data-dir", defaultDataDir(), "Data directory for config, sentry, and logs")
	flag.Parse()

	paths := DataPaths{Root: *dataDir}

	if err := os.MkdirAll(paths.Root, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: create data dir: %v\n", err)
		return 1
	}

	if alive, pid := checkStalePID(paths); alive {
		fmt.Fprintf(os.Stderr, "daemon already running (pid %d)\n", pid)
		return 1
	}

	if _, err := os.Stat(paths.Config()); os.IsNotExist(err) {
		if writeErr := os.WriteFile(paths.Config(), rootpkg.DefaultConfigTOML, 0o644); writeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to write default config: %v\n", writeErr)
		}
	}

	cfg, err := config.Load(paths.Root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: load config: %v\n", err)
		return 1
	}

	logLevel := logger.ParseLevel(cfg.Log.Level)
	log, logCloser, err := logger.NewLogger(paths.Log(), logLevel, cfg.Log.MaxSizeMB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: init logger: %v\n", err)
		return 1
	}
	defer logCloser.Close()
	slog.SetDefault(log)

	ver := resolveVersion()
	slog.Info("steam-idler starting", "version", ver, "data_dir", paths.Root)

	if cfg.Update.Check {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("update check panic", "error", r)
				}
			}()
			update.Check(ver)
		}()
	}

	token := pidToken()
	pidFile, err := writePID(paths, token)
	if err != nil {
		slog.Error("failed to write PID file", "error", err)
		return 1
	}
	defer removePID(paths, token, pidFile)

	// Refresh the CM server list before the first connect. A stale built-in
	// list still works, so a fetch failure is not fatal.
	if err := steam.InitializeSteamDirectory(); err != nil {
		slog.Warn("failed to refresh steam server directory", "error", err)
	}

	store := sentry.NewStore(paths.Sentry())
	watcher, err := store.Watch()
	if err != nil {
		slog.Warn("sentry slot watching unavailable", "error", err)
		watcher = nil
	} else {
		defer watcher.Close()
	}

	account, err := creds.Load(store)
	if err != nil {
		slog.Error("cannot start", "error", err)
		return 1
	}

	controller := idler.New(account, store, watcher, idler.DefaultPolicy())

	if cfg.Health.Enabled {
		hs := health.New(cfg.Health.Addr, ver, controller.State)
		hs.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = hs.Shutdown(ctx)
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := <-signalChannel()
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if runErr := controller.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("exiting", "error", runErr)
		return 1
	}
	return 0
}
