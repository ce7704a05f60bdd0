// Package config loads the dashboard configuration from a TOML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type SourceConfig struct {
	// Kind selects the data source: "api" (JSON endpoints) or "site"
	// (direct headless-browser scrape).
	Kind        string `toml:"kind"`
	APIBaseURL  string `toml:"api_base_url"`
	SiteBaseURL string `toml:"site_base_url"`
	YearsBack   int    `toml:"years_back"`
	TimeoutSec  int    `toml:"timeout_seconds"`
}

type Config struct {
	ListenAddr      string       `toml:"listen_addr"`
	LogLevel        string       `toml:"log_level"`
	SQLitePath      string       `toml:"sqlite_path"`
	PrefetchWorkers int          `toml:"prefetch_workers"`
	PrefetchOnBoot  bool         `toml:"prefetch_on_boot"`
	Source          SourceConfig `toml:"source"`
}

func Default() Config {
	return Config{
		ListenAddr:      ":9980",
		LogLevel:        "info",
		SQLitePath:      "data/history.db",
		PrefetchWorkers: 10,
		Source: SourceConfig{
			Kind:       "api",
			APIBaseURL: "http://localhost:8080",
			TimeoutSec: 15,
			YearsBack:  10,
		},
	}
}

// Load reads the TOML file at path, applying defaults for missing keys.
// A missing file is not an error: the defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Source.Kind {
	case "api", "site":
	default:
		return fmt.Errorf("source.kind must be \"api\" or \"site\", got %q", c.Source.Kind)
	}
	if c.PrefetchWorkers < 0 {
		return fmt.Errorf("prefetch_workers must not be negative")
	}
	return nil
}

func (c SourceConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}
