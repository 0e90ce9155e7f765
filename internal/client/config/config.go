// Package config loads runtime settings for the CiviLog CLI.
package config

import "time"

// Config holds runtime settings for the CiviLog CLI.
//
// Fields:
//   - APIBaseURL: base URL of the CiviLog REST service.
//   - DatabasePath: path of the local sqlite storage file.
//   - HTTPTimeout: per-request timeout for API calls.
type Config struct {
	APIBaseURL   string
	DatabasePath string
	HTTPTimeout  time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.DatabasePath = "civilog.db"
	c.HTTPTimeout = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
