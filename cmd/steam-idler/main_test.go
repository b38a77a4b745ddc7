package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ///////////////////////////////////////////////
// resolveVersion Tests
// ///////////////////////////////////////////////

func TestResolveVersionWithLdflags(t *testing.T) {
	// When version is set to something other than "dev", it should be returned as-is.
	original := version
	defer func() { version = original }()

	version = "1.2.3"
	got := resolveVersion()
	if got != "1.2.3" {
		t.Errorf("resolveVersion() = %q, want %q", got, "1.2.3")
	}
}

func TestResolveVersionDev(t *testing.T) {
	// When version is "dev", resolveVersion falls through to debug.ReadBuildInfo.
	// In test binaries, ReadBuildInfo may or may not return VCS info.
	// We just verify it returns a non-empty string.
	original := version
	defer func() { version = original }()

	version = "dev"
	got := resolveVersion()
	if got == "" {
		t.Error("resolveVersion() returned empty string")
	}
	// It should either be "dev" (no VCS info) or "dev+<hash>" or "dev+<hash>.dirty".
	if !strings.HasPrefix(got, "dev") {
		t.Errorf("resolveVersion() = %q, expected to start with 'dev'", got)
	}
}

// ///////////////////////////////////////////////
// pidToken Tests
// ///////////////////////////////////////////////

func TestPidTokenFormat(t *testing.T) {
	token := pidToken()
	if len(token) != 16 {
		t.Errorf("pidToken() length = %d, want 16", len(token))
	}
	for _, c := range token {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("pidToken() contains non-hex character %q", c)
		}
	}
}

func TestPidTokenUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token := pidToken()
		if seen[token] {
			t.Fatalf("pidToken() produced duplicate %q", token)
		}
		seen[token] = true
	}
}

// ///////////////////////////////////////////////
// PID File Tests
// ///////////////////////////////////////////////

func TestWriteAndRemovePID(t *testing.T) {
	paths := DataPaths{Root: t.TempDir()}
	token := pidToken()

	f, err := writePID(paths, token)
	if err != nil {
		t.Fatalf("writePID: %v", err)
	}

	data, err := os.ReadFile(paths.PID())
	if err != nil {
		t.Fatalf("read PID file: %v", err)
	}
	want := fmt.Sprintf("%d:%s", os.Getpid(), token)
	if string(data) != want {
		t.Errorf("PID file content = %q, want %q", data, want)
	}

	removePID(paths, token, f)
	if _, err := os.Stat(paths.PID()); !os.IsNotExist(err) {
		t.Error("PID file still exists after removePID")
	}
}

func TestRemovePIDWrongToken(t *testing.T) {
	paths := DataPaths{Root: t.TempDir()}
	token := pidToken()

	f, err := writePID(paths, token)
	if err != nil {
		t.Fatalf("writePID: %v", err)
	}

	// A mismatched token must leave the file in place.
	removePID(paths, "0000000000000000", f)
	if _, err := os.Stat(paths.PID()); err != nil {
		t.Errorf("PID file removed despite token mismatch: %v", err)
	}
}

func TestCheckStalePIDNoFile(t *testing.T) {
	paths := DataPaths{Root: t.TempDir()}

	alive, pid := checkStalePID(paths)
	if alive || pid != 0 {
		t.Errorf("checkStalePID with no file = (%v, %d), want (false, 0)", alive, pid)
	}
}

func TestCheckStalePIDCleansStaleFile(t *testing.T) {
	paths := DataPaths{Root: t.TempDir()}

	// A PID file with no live lock holder is stale.
	if err := os.WriteFile(paths.PID(), []byte("12345:deadbeefdeadbeef"), 0o600); err != nil {
		t.Fatalf("write stale PID file: %v", err)
	}

	alive, _ := checkStalePID(paths)
	if alive {
		t.Error("stale PID file reported as alive")
	}
	if _, err := os.Stat(paths.PID()); !os.IsNotExist(err) {
		t.Error("stale PID file was not cleaned up")
	}
}

// ///////////////////////////////////////////////
// defaultDataDir Tests
// ///////////////////////////////////////////////

func TestDefaultDataDir(t *testing.T) {
	got := defaultDataDir()
	if got == "" {
		t.Fatal("defaultDataDir() returned empty string")
	}
	if filepath.Base(got) != ".steam-idler" {
		t.Errorf("defaultDataDir() = %q, want a .steam-idler directory", got)
	}
}
