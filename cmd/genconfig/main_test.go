package main

import (
	"strings"
	"testing"
)

// ///////////////////////////////////////////////
// sectionName Tests
// ///////////////////////////////////////////////

func TestSectionName(t *testing.T) {
	tests := []struct {
		name    string
		section string
		want    string
	}{
		{"lowercase", "health", "Health"},
		{"already capitalized", "Health", "Health"},
		{"single char", "a", "A"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sectionName(tt.section)
			if got != tt.want {
				t.Errorf("sectionName(%q) = %q, want %q", tt.section, got, tt.want)
			}
		})
	}
}

// ///////////////////////////////////////////////
// render Tests
// ///////////////////////////////////////////////

func TestRenderInjectsComments(t *testing.T) {
	encoded := "version = 1\n\n[log]\n  level = \"info\"\n  max_size_mb = 10\n"

	got := render(encoded)

	wantFragments := []string{
		"# steam-idler Configuration",
		"version = 1",
		"# ///// Log /////",
		"# Minimum log level: trace, debug, info, warn, error.",
		"level = \"info\"",
		"# Maximum log file size in megabytes before rotation.",
		"max_size_mb = 10",
	}
	for _, frag := range wantFragments {
		if !strings.Contains(got, frag) {
			t.Errorf("render output missing %q\nfull output:\n%s", frag, got)
		}
	}
}

func TestRenderStripsIndentation(t *testing.T) {
	got := render("[log]\n  level = \"info\"\n")

	for _, line := range strings.Split(got, "\n") {
		if strings.HasPrefix(line, " ") {
			t.Errorf("rendered line retains indentation: %q", line)
		}
	}
}

func TestRenderEndsWithSingleNewline(t *testing.T) {
	got := render("version = 1\n")

	if !strings.HasSuffix(got, "\n") || strings.HasSuffix(got, "\n\n") {
		t.Errorf("render output should end with exactly one newline, got %q", got[len(got)-3:])
	}
}
