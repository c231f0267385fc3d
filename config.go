package registrar

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds configuration for the registrar engine.
type Config struct {
	// DataDir is where the file store keeps its documents.
	// Defaults to "data".
	DataDir string `json:"data_dir,omitempty" env:"REGISTRAR_DATA_DIR"`

	// CacheTTL is how long single-entity lookups stay cached.
	// Defaults to 5 minutes.
	CacheTTL time.Duration `json:"cache_ttl,omitempty" env:"REGISTRAR_CACHE_TTL"`

	// CacheMaxEntries bounds each cache namespace. Defaults to 100.
	CacheMaxEntries int `json:"cache_max_entries,omitempty" env:"REGISTRAR_CACHE_MAX_ENTRIES"`

	// NotificationRetention is the age past which notifications are pruned
	// on cleanup and housekeeping. Defaults to 30 days.
	NotificationRetention time.Duration `json:"notification_retention,omitempty" env:"REGISTRAR_NOTIFICATION_RETENTION"`

	// RecentWindow is how old a notification may be and still count as
	// recent. Defaults to 24 hours.
	RecentWindow time.Duration `json:"recent_window,omitempty" env:"REGISTRAR_RECENT_WINDOW"`

	// HousekeepInterval is the period of the optional cache sweep and
	// notification prune. Zero disables it.
	HousekeepInterval time.Duration `json:"housekeep_interval,omitempty" env:"REGISTRAR_HOUSEKEEP_INTERVAL"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:               "data",
		CacheTTL:              5 * time.Minute,
		CacheMaxEntries:       100,
		NotificationRetention: 30 * 24 * time.Hour,
		RecentWindow:          24 * time.Hour,
		HousekeepInterval:     10 * time.Minute,
	}
}

// LoadConfig returns DefaultConfig overlaid with any REGISTRAR_*
// environment variables that are set.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.CacheMaxEntries <= 0 {
		c.CacheMaxEntries = d.CacheMaxEntries
	}
	if c.NotificationRetention <= 0 {
		c.NotificationRetention = d.NotificationRetention
	}
	if c.RecentWindow <= 0 {
		c.RecentWindow = d.RecentWindow
	}
	return c
}
