package paths

import (
	"path/filepath"
	"testing"
)

func TestDataDirPaths(t *testing.T) {
	d := DataDir{Root: "/data"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"pid", d.PID(), filepath.Join("/data", PIDFile)},
		{"config", d.Config(), filepath.Join("/data", ConfigFile)},
		{"log", d.Log(), filepath.Join("/data", LogFile)},
		{"sentry", d.Sentry(), filepath.Join("/data", SentryFile)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestDataDirRelativeRoot(t *testing.T) {
	d := DataDir{Root: "."}
	if got := d.Sentry(); got != SentryFile {
		t.Errorf("Sentry() = %q, want %q", got, SentryFile)
	}
}
