package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/natefinch/atomic"
	"github.com/spf13/viper"
	"github.com/tailscale/hujson"
)

// Config is the root configuration for pioneer, stored in
// ~/.pioneer/config.json. The file is JSON with comments.
type Config struct {
	// DataDir holds the store, the offline cache and the logs.
	DataDir string `mapstructure:"data_dir"`
	// Language is a supported language code. Empty means detect from the
	// environment locale.
	Language string `mapstructure:"language"`
	// Backend selects the key-value store: "disk" or "sqlite".
	Backend string `mapstructure:"backend"`
	// Translations optionally overrides the built-in translations with a
	// file path or http(s) URL.
	Translations string `mapstructure:"translations"`
	Debug        bool   `mapstructure:"debug"`

	Tracker TrackerConfig `mapstructure:"tracker"`
	Outlook OutlookConfig `mapstructure:"outlook"`
	Server  ServerConfig  `mapstructure:"server"`
}

// TrackerConfig tunes the forecast and list views.
type TrackerConfig struct {
	// MinHoursPerDay is the smallest daily average a forecast suggests.
	MinHoursPerDay float64 `mapstructure:"min_hours_per_day"`
	// OverdueHour is the local hour from which today's plans are overdue.
	OverdueHour int `mapstructure:"overdue_hour"`
	// HistoryMonths bounds the unfiltered history list.
	HistoryMonths int `mapstructure:"history_months"`
	// DefaultGoal is offered by the goal prompt.
	DefaultGoal int `mapstructure:"default_goal"`
}

// OutlookConfig holds Microsoft Graph / Outlook calendar import settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `mapstructure:"tenant_id"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `mapstructure:"client_id"`
	// Tag is the category assigned to imported events. Empty uses the
	// default category of the current language.
	Tag string `mapstructure:"tag"`
	// Timezone is the IANA timezone for event times (e.g. "America/Sao_Paulo"). Empty = UTC.
	Timezone string `mapstructure:"timezone"`
}

// ServerConfig configures `pioneer serve`.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// Origin is the upstream the offline mirror fetches from.
	Origin    string `mapstructure:"origin"`
	CacheName string `mapstructure:"cache_name"`
}

const (
	// DefaultTenantID is the Microsoft "common" tenant.
	DefaultTenantID = "common"
	// DefaultClientID is the well-known public Azure CLI app ID, which
	// supports the device code flow without a client secret.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
	// DefaultCacheName is the versioned offline cache name.
	DefaultCacheName = "pioneer-tracker-cache-v1.2"

	EnvPrefix = "PIONEER"
)

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "~/.pioneer")
	v.SetDefault("language", "")
	v.SetDefault("backend", "disk")
	v.SetDefault("translations", "")
	v.SetDefault("debug", false)
	v.SetDefault("tracker.min_hours_per_day", 1.0)
	v.SetDefault("tracker.overdue_hour", 18)
	v.SetDefault("tracker.history_months", 3)
	v.SetDefault("tracker.default_goal", 70)
	v.SetDefault("outlook.tenant_id", DefaultTenantID)
	v.SetDefault("outlook.client_id", DefaultClientID)
	v.SetDefault("outlook.tag", "")
	v.SetDefault("outlook.timezone", "")
	v.SetDefault("server.addr", "127.0.0.1:8787")
	v.SetDefault("server.origin", "")
	v.SetDefault("server.cache_name", DefaultCacheName)
}

// configTemplate is the annotated config written on first run.
const configTemplate = `// pioneer configuration, ~/.pioneer/config.json
//
// All settings are optional. Every key can also be set through an
// environment variable, e.g. PIONEER_LANGUAGE or PIONEER_TRACKER_OVERDUE_HOUR.
{
  // Where records, plans, settings, the offline cache and logs are kept.
  "data_dir": "~/.pioneer",

  // "pt-BR", "en" or "es". Leave empty to follow $LANG.
  "language": "",

  // Storage backend: "disk" (one file per key) or "sqlite" (single database).
  "backend": "disk",

  // Optional translations file or URL replacing the built-in strings.
  "translations": "",

  "tracker": {
    // Forecasts never ask for less than this many hours per day.
    "min_hours_per_day": 1.0,
    // Plans for today count as overdue from this hour on.
    "overdue_hour": 18,
    // Months shown by "pioneer history" without a search term.
    "history_months": 3,
    // Goal suggested by the first-run prompt.
    "default_goal": 70,
  },

  // ── Microsoft Graph / Outlook calendar import ──────────────────────────
  "outlook": {
    // "common" works for personal accounts and most organisations.
    "tenant_id": "common",
    // Public Azure CLI app, no registration needed.
    "client_id": "04b07795-8542-4c4a-95af-30b2c573d5ab",
    // Category for imported events. Empty uses the default category.
    "tag": "",
    // IANA timezone for event times. Empty = UTC.
    "timezone": "",
  },

  // ── pioneer serve ──────────────────────────────────────────────────────
  "server": {
    "addr": "127.0.0.1:8787",
    // Upstream the offline mirror fetches from, e.g. "https://example.org/pioneer/".
    "origin": "",
    "cache_name": "pioneer-tracker-cache-v1.2",
  },
}
`

// FilePath returns the path to ~/.pioneer/config.json.
func FilePath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".pioneer", "config.json"), nil
}

// Load reads the config file at path into v and decodes the result. On first
// run the annotated template is written there. Environment variables with
// the PIONEER_ prefix and any flags already bound to v take precedence over
// the file.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			if writeErr := writeDefault(path); writeErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
			}
		case err != nil:
			cfg, _ := decode(v)
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := readJSONC(v, data); err != nil {
				cfg, _ := decode(v)
				return cfg, fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
			}
		}
	}
	return decode(v)
}

func readJSONC(v *viper.Viper, data []byte) error {
	std, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC: %w", err)
	}
	v.SetConfigType("json")
	return v.ReadConfig(bytes.NewReader(std))
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	dir, err := homedir.Expand(cfg.DataDir)
	if err != nil {
		return cfg, fmt.Errorf("expanding data_dir %q: %w", cfg.DataDir, err)
	}
	cfg.DataDir = dir
	if cfg.Outlook.TenantID == "" {
		cfg.Outlook.TenantID = DefaultTenantID
	}
	if cfg.Outlook.ClientID == "" {
		cfg.Outlook.ClientID = DefaultClientID
	}
	if cfg.Server.CacheName == "" {
		cfg.Server.CacheName = DefaultCacheName
	}
	return cfg, cfg.Validate()
}

// Validate checks values that cannot be repaired silently.
func (c Config) Validate() error {
	switch c.Backend {
	case "disk", "sqlite":
	default:
		return fmt.Errorf("unknown backend %q: want disk or sqlite", c.Backend)
	}
	if c.Tracker.OverdueHour < 0 || c.Tracker.OverdueHour > 23 {
		return fmt.Errorf("tracker.overdue_hour must be between 0 and 23, got %d", c.Tracker.OverdueHour)
	}
	if c.Tracker.MinHoursPerDay <= 0 {
		return fmt.Errorf("tracker.min_hours_per_day must be positive, got %v", c.Tracker.MinHoursPerDay)
	}
	return nil
}

// writeDefault creates the config directory and atomically writes the
// annotated default config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := atomic.WriteFile(path, strings.NewReader(configTemplate)); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
