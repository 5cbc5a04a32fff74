// Package config loads skydeck settings from skydeck.yaml, SKYDECK_*
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the working directory and the data dir.
const FileName = "skydeck.yaml"

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the application configuration.
type Config struct {
	DataDir      string
	LogLevel     string
	FetchTimeout time.Duration

	Location  LocationConfig
	Feeds     FeedsConfig
	Intervals map[string]time.Duration

	Models ModelConfig
	Store  StoreConfig
	API    APIConfig
	UI     UIConfig

	// NASAKey is sent to NeoWs. Empty means DEMO_KEY.
	NASAKey string
}

// LocationConfig is the observer's position used by the weather feed.
type LocationConfig struct {
	Latitude  float64
	Longitude float64
	PlaceName string
}

// FeedsConfig overrides provider endpoints. Empty fields use each
// adapter's public default.
type FeedsConfig struct {
	OpenNotifyURL string
	NeoWsURL      string
	SpaceXURL     string
	ForecastURL   string
	GeocodeURL    string
	EventsURL     string
	KpURL         string
	PlasmaURL     string
	Craft         string
}

// ModelConfig holds AI model settings
type ModelConfig struct {
	Preferred string
	Gemini    ModelSettings
	OpenAI    ModelSettings
	// RequestsPerMinute caps tutor calls to each provider.
	RequestsPerMinute int
}

// ModelSettings for a single AI provider
type ModelSettings struct {
	Enabled  bool
	APIKey   string
	Endpoint string // custom base URL
	Model    string
	Priority int // lower = tried first
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend  string
	Path     string // sqlite file; empty = DataDir/skydeck.db
	RedisURL string
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Addr string
}

// UIConfig holds UI preferences
type UIConfig struct {
	Theme string // "dark" or "light"
}

// DefaultIntervals mirror the per-feed cadences the dashboard ships with.
func DefaultIntervals() map[string]time.Duration {
	return map[string]time.Duration{
		"station":           5 * time.Second,
		"crew":              5 * time.Minute,
		"neo":               time.Hour,
		"launches-upcoming": 5 * time.Minute,
		"launches-recent":   5 * time.Minute,
		"weather":           10 * time.Minute,
		"events":            30 * time.Minute,
		"space-weather":     15 * time.Minute,
	}
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DataDir:      DefaultDataDir(),
		LogLevel:     "info",
		FetchTimeout: 15 * time.Second,
		Location: LocationConfig{
			Latitude:  25.7617,
			Longitude: -80.1918,
		},
		Intervals: DefaultIntervals(),
		Models: ModelConfig{
			Preferred: "gemini",
			Gemini: ModelSettings{
				Enabled:  true,
				Priority: 1,
				Model:    "gemini-2.5-flash",
			},
			OpenAI: ModelSettings{
				Enabled:  false,
				Priority: 2,
				Model:    "gpt-4o-mini",
			},
			RequestsPerMinute: 30,
		},
		Store: StoreConfig{
			Backend: BackendSQLite,
		},
		API: APIConfig{
			Addr: ":8080",
		},
		UI: UIConfig{
			Theme: "dark",
		},
	}
}

// DefaultDataDir returns ~/.skydeck.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".skydeck"
	}
	return filepath.Join(home, ".skydeck")
}

// Load reads configuration. An explicit path must exist; otherwise
// skydeck.yaml is looked up in the working directory and the default data
// dir, and a missing file means defaults. A .env file in the working
// directory is loaded first so its values behave like real environment
// variables.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := newViper(DefaultConfig())
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDataDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := fromViper(v)
	cfg.AutoPopulateFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newViper returns a viper instance with cfg as defaults and SKYDECK_*
// environment overrides bound. Nested keys map to env names by replacing
// dots and dashes with underscores: SKYDECK_LOCATION_LATITUDE,
// SKYDECK_INTERVALS_LAUNCHES_UPCOMING.
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	for key, val := range settings(cfg) {
		v.SetDefault(key, val)
	}
	v.SetEnvPrefix("SKYDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// settings flattens cfg into viper keys.
func settings(cfg *Config) map[string]any {
	m := map[string]any{
		"data_dir":                   cfg.DataDir,
		"log_level":                  cfg.LogLevel,
		"fetch_timeout":              cfg.FetchTimeout.String(),
		"nasa_api_key":               cfg.NASAKey,
		"location.latitude":          cfg.Location.Latitude,
		"location.longitude":         cfg.Location.Longitude,
		"location.place":             cfg.Location.PlaceName,
		"feeds.open_notify_url":      cfg.Feeds.OpenNotifyURL,
		"feeds.neows_url":            cfg.Feeds.NeoWsURL,
		"feeds.spacex_url":           cfg.Feeds.SpaceXURL,
		"feeds.forecast_url":         cfg.Feeds.ForecastURL,
		"feeds.geocode_url":          cfg.Feeds.GeocodeURL,
		"feeds.events_url":           cfg.Feeds.EventsURL,
		"feeds.kp_url":               cfg.Feeds.KpURL,
		"feeds.plasma_url":           cfg.Feeds.PlasmaURL,
		"feeds.craft":                cfg.Feeds.Craft,
		"models.preferred":           cfg.Models.Preferred,
		"models.requests_per_minute": cfg.Models.RequestsPerMinute,
		"store.backend":              cfg.Store.Backend,
		"store.path":                 cfg.Store.Path,
		"store.redis_url":            cfg.Store.RedisURL,
		"api.addr":                   cfg.API.Addr,
		"ui.theme":                   cfg.UI.Theme,
	}
	for name, ms := range map[string]ModelSettings{"gemini": cfg.Models.Gemini, "openai": cfg.Models.OpenAI} {
		prefix := "models." + name + "."
		m[prefix+"enabled"] = ms.Enabled
		m[prefix+"api_key"] = ms.APIKey
		m[prefix+"endpoint"] = ms.Endpoint
		m[prefix+"model"] = ms.Model
		m[prefix+"priority"] = ms.Priority
	}
	for feed, d := range cfg.Intervals {
		m["intervals."+feed] = d.String()
	}
	return m
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		DataDir:      v.GetString("data_dir"),
		LogLevel:     v.GetString("log_level"),
		FetchTimeout: v.GetDuration("fetch_timeout"),
		NASAKey:      v.GetString("nasa_api_key"),
		Location: LocationConfig{
			Latitude:  v.GetFloat64("location.latitude"),
			Longitude: v.GetFloat64("location.longitude"),
			PlaceName: v.GetString("location.place"),
		},
		Feeds: FeedsConfig{
			OpenNotifyURL: v.GetString("feeds.open_notify_url"),
			NeoWsURL:      v.GetString("feeds.neows_url"),
			SpaceXURL:     v.GetString("feeds.spacex_url"),
			ForecastURL:   v.GetString("feeds.forecast_url"),
			GeocodeURL:    v.GetString("feeds.geocode_url"),
			EventsURL:     v.GetString("feeds.events_url"),
			KpURL:         v.GetString("feeds.kp_url"),
			PlasmaURL:     v.GetString("feeds.plasma_url"),
			Craft:         v.GetString("feeds.craft"),
		},
		Models: ModelConfig{
			Preferred:         v.GetString("models.preferred"),
			Gemini:            modelSettings(v, "gemini"),
			OpenAI:            modelSettings(v, "openai"),
			RequestsPerMinute: v.GetInt("models.requests_per_minute"),
		},
		Store: StoreConfig{
			Backend:  strings.ToLower(v.GetString("store.backend")),
			Path:     v.GetString("store.path"),
			RedisURL: v.GetString("store.redis_url"),
		},
		API: APIConfig{Addr: v.GetString("api.addr")},
		UI:  UIConfig{Theme: v.GetString("ui.theme")},
	}

	cfg.Intervals = make(map[string]time.Duration)
	for feed := range DefaultIntervals() {
		cfg.Intervals[feed] = v.GetDuration("intervals." + feed)
	}
	return cfg
}

func modelSettings(v *viper.Viper, name string) ModelSettings {
	prefix := "models." + name + "."
	return ModelSettings{
		Enabled:  v.GetBool(prefix + "enabled"),
		APIKey:   v.GetString(prefix + "api_key"),
		Endpoint: v.GetString(prefix + "endpoint"),
		Model:    v.GetString(prefix + "model"),
		Priority: v.GetInt(prefix + "priority"),
	}
}

// Save writes the config as YAML to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	v := viper.New()
	for key, val := range settings(c) {
		v.Set(key, val)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	// Restrictive permissions for API keys
	return os.Chmod(path, 0600)
}

// AutoPopulateFromEnv fills in API keys from the providers' conventional
// environment variables when the config does not already carry them.
func (c *Config) AutoPopulateFromEnv() {
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" && c.Models.Gemini.APIKey == "" {
		c.Models.Gemini.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.Models.OpenAI.APIKey == "" {
		c.Models.OpenAI.APIKey = key
		c.Models.OpenAI.Enabled = true
	}
	if key := os.Getenv("NASA_API_KEY"); key != "" && c.NASAKey == "" {
		c.NASAKey = key
	}
}

// GetEnabledModels returns models that are enabled and have API keys,
// ordered by priority.
func (c *Config) GetEnabledModels() []string {
	type entry struct {
		name string
		ms   ModelSettings
	}
	entries := []entry{{"gemini", c.Models.Gemini}, {"openai", c.Models.OpenAI}}
	if entries[1].ms.Priority < entries[0].ms.Priority {
		entries[0], entries[1] = entries[1], entries[0]
	}
	var models []string
	for _, e := range entries {
		if e.ms.Enabled && e.ms.APIKey != "" {
			models = append(models, e.name)
		}
	}
	return models
}

// StorePath returns the SQLite file path.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(c.DataDir, "skydeck.db")
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return fmt.Errorf("location.latitude %v out of range", c.Location.Latitude)
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return fmt.Errorf("location.longitude %v out of range", c.Location.Longitude)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive")
	}
	for feed, d := range c.Intervals {
		if d <= 0 {
			return fmt.Errorf("intervals.%s must be positive", feed)
		}
	}
	switch c.Store.Backend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	return nil
}
