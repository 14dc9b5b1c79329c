// Package config defines client configuration structures and loading hooks.
//
// Conventions:
// - Keep defaults in New and layer file/env on top in Load.
// - External errors must be wrapped via this package's error kinds.
package config

// Config contains process configuration.
type Config struct {
	// BaseURL points at the measurement backend, e.g. "http://127.0.0.1:8000".
	BaseURL string `koanf:"base_url"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile receives structured logs; empty means stderr.
	LogFile string `koanf:"log_file"`

	// Username for login. Empty runs the dashboard read-only.
	Username string `koanf:"username"`

	// Password for login, usually supplied via MEASUREBOARD_PASSWORD.
	Password string `koanf:"password"`

	// FetchLimit caps measurements fetched per series per batch.
	FetchLimit int `koanf:"fetch_limit"`

	// SeriesPageLimit caps the series list fetch.
	SeriesPageLimit int `koanf:"series_page_limit"`

	// RequestTimeoutSeconds bounds each API call.
	RequestTimeoutSeconds int `koanf:"request_timeout_seconds"`

	// MetricsAddr serves Prometheus metrics when non-empty, e.g. ":9190".
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config with defaults. FetchLimit mirrors the backend's
// per-request page cap.
func New() *Config {
	return &Config{
		BaseURL:               "http://127.0.0.1:8000",
		LogLevel:              "info",
		FetchLimit:            500,
		SeriesPageLimit:       200,
		RequestTimeoutSeconds: 10,
	}
}
