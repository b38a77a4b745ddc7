// Package main implements the genconfig tool that writes config.default.toml
// from config.ExampleConfig().
//
// It is invoked by go generate via the directive in internal/config/config.go.
package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/iiTzT/simple-steam-idler-replit/internal/config"
)

func main() {
	cfg := config.ExampleConfig()

	var raw bytes.Buffer
	enc := toml.NewEncoder(&raw)
	if err := enc.Encode(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "marshal: %v\n", err)
		os.Exit(1)
	}

	result := render(raw.String())

	// go generate runs from the package directory (internal/config/).
	// With go.mod at root, ../../ reaches the repo root where configdata.go
	// embeds config.default.toml — single source of truth.
	outPath := "../../config.default.toml"
	if err := os.WriteFile(outPath, []byte(result), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", outPath, err)
		os.Exit(1)
	}
	fmt.Printf("wrote config.default.toml\n")
}

// render post-processes the encoder output: a file header, per-section
// banners, and comments injected from [config.ConfigDocs].
func render(encoded string) string {
	var out []string
	out = append(out,
		"# ///////////////////////////////////////////////",
		"# steam-idler Configuration",
		"# ///////////////////////////////////////////////",
		"#",
		"# Credentials are NOT stored here. The daemon reads them from the",
		"# environment: STEAM_USERNAME, STEAM_PASSWORD, STEAM_SHARED_SECRET",
		"# (optional, base64 shared_secret from a mobile authenticator) and",
		"# STEAM_SENTRY (optional, base64 sentry blob from a previous login).",
		"",
	)

	var section string
	for _, line := range strings.Split(encoded, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "[") {
			section = strings.Trim(trimmed, "[] ")
			out = append(out, "", fmt.Sprintf("# ///// %s /////", sectionName(section)), "")
			if doc, ok := config.ConfigDocs[section]; ok && doc.Comment != "" {
				for _, cl := range strings.Split(doc.Comment, "\n") {
					out = append(out, "# "+cl)
				}
			}
			out = append(out, trimmed)
			continue
		}

		if !strings.Contains(trimmed, "=") || strings.HasPrefix(trimmed, "#") {
			out = append(out, trimmed)
			continue
		}

		key := strings.TrimSpace(strings.SplitN(trimmed, "=", 2)[0])
		path := key
		if section != "" {
			path = section + "." + key
		}
		if doc, ok := config.ConfigDocs[path]; ok && doc.Comment != "" {
			for _, cl := range strings.Split(doc.Comment, "\n") {
				out = append(out, "# "+cl)
			}
		}
		out = append(out, trimmed)
	}

	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n"
}

// sectionName returns a display name for a TOML section header by
// capitalizing its first letter.
func sectionName(section string) string {
	if len(section) == 0 {
		return ""
	}
	return strings.ToUpper(section[:1]) + section[1:]
}
