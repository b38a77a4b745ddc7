// Package steamidler provides embedded assets for the steam-idler daemon.
//
// The root package exists solely to embed [config.default.toml] via
// [DefaultConfigTOML]. The daemon copies it to the data directory on
// first run so operators always have a documented config to edit.
package steamidler

import _ "embed"

// DefaultConfigTOML holds the raw bytes of config.default.toml, embedded at
// build time. Regenerate with go generate (see internal/config).
//
//go:embed config.default.toml
var DefaultConfigTOML []byte
