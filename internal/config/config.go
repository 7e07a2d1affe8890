package config

import "time"

// Config holds runtime settings for the weavesync client.
//
// Fields:
//   - ServerURL: base URL of the storage server (no trailing slash).
//   - Collection: the collection to synchronize.
//   - AuthToken: bearer token for storage requests.
//   - DatabasePath: path of the local SQLite database.
//   - SyncInterval: how often a sync pass is attempted when running as a
//     daemon.
type Config struct {
	ServerURL    string
	Collection   string
	AuthToken    string
	DatabasePath string
	SyncInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:5000"
	c.Collection = "history"
	c.DatabasePath = "weavesync.db"
	c.SyncInterval = 5 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
