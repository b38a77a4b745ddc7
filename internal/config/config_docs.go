package config

// FieldDoc describes a config field for the generated config.default.toml.
type FieldDoc struct {
	// Comment is the explanatory text emitted above the field.
	Comment string
}

// ConfigDocs maps dotted TOML paths to their documentation, consumed by
// cmd/genconfig when regenerating config.default.toml.
var ConfigDocs = map[string]FieldDoc{
	"log.level": {
		Comment: "Minimum log level: trace, debug, info, warn, error.",
	},
	"log.max_size_mb": {
		Comment: "Maximum log file size in megabytes before rotation.",
	},
	"health": {
		Comment: "Keep-alive HTTP endpoint. Hosted environments (Replit and\nfriends) need an address an uptime pinger can reach to keep the\nprocess from being put to sleep.",
	},
	"health.enabled": {
		Comment: "Serve the keep-alive HTTP endpoint.",
	},
	"health.addr": {
		Comment: "Listen address for GET / and GET /healthz.",
	},
	"update.check": {
		Comment: "Check GitHub for a newer release at startup. Never blocks login.",
	},
}
