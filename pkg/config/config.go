// Package config loads wikiviewer settings.
//
// Settings are layered: embedded defaults, then the TOML file at
// [DefaultPath] (or an explicit path), then WIKIVIEWER_* environment
// variables. Command-line flags are applied last by the caller.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"github.com/matzehuels/wikiviewer/pkg/errors"
)

//go:embed default_config.toml
var defaultConfigFS embed.FS

const appName = "wikiviewer"

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// MaxExtractChars is the largest extract the API returns in plain-text mode.
const MaxExtractChars = 1200

// Environment variables that override file settings.
const (
	EnvEndpoint  = "WIKIVIEWER_ENDPOINT"
	EnvUserAgent = "WIKIVIEWER_USER_AGENT"
	EnvTimeout   = "WIKIVIEWER_TIMEOUT"
	EnvRetries   = "WIKIVIEWER_RETRIES"
	EnvCache     = "WIKIVIEWER_CACHE"
	EnvRedisAddr = "WIKIVIEWER_REDIS_ADDR"
	EnvAddr      = "WIKIVIEWER_ADDR"
)

// Duration is a time.Duration written as a string ("10s", "1h") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds every setting of the CLI and the HTTP API.
type Config struct {
	Endpoint     string       `toml:"endpoint"`
	UserAgent    string       `toml:"user_agent,omitempty"`
	Timeout      Duration     `toml:"timeout"`
	Retries      int          `toml:"retries"`
	ExtractChars int          `toml:"extract_chars"`
	Strict       bool         `toml:"strict"`
	Cache        CacheConfig  `toml:"cache"`
	Server       ServerConfig `toml:"server"`
}

// CacheConfig selects and configures the response cache.
type CacheConfig struct {
	Backend string      `toml:"backend"`
	TTL     Duration    `toml:"ttl"`
	Dir     string      `toml:"dir,omitempty"` // file backend; default [CacheDir]
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig addresses the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password,omitempty"`
	DB       int    `toml:"db"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// DefaultPath returns $XDG_CONFIG_HOME/wikiviewer/config.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// CacheDir returns $XDG_CACHE_HOME/wikiviewer.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, appName)
}

// Default returns the embedded defaults.
func Default() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.toml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config file at path (or [DefaultPath] when empty) on top of
// the defaults, applies environment overrides and validates the result.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultPath()
	}
	md, err := toml.DecodeFile(path, cfg)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parsing config %s", path)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables read through
// lookup (usually os.LookupEnv).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvEndpoint); ok && v != "" {
		c.Endpoint = v
	}
	if v, ok := lookup(EnvUserAgent); ok && v != "" {
		c.UserAgent = v
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", EnvTimeout)
		}
		c.Timeout.Duration = d
	}
	if v, ok := lookup(EnvRetries); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", EnvRetries)
		}
		c.Retries = n
	}
	if v, ok := lookup(EnvCache); ok && v != "" {
		c.Cache.Backend = strings.ToLower(v)
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Cache.Redis.Addr = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	return nil
}

// Validate reports the first invalid setting as an INVALID_CONFIG error.
func (c *Config) Validate() error {
	if err := errors.ValidateURL(c.Endpoint); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "endpoint")
	}
	if c.Timeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "timeout must not be negative, got %s", c.Timeout)
	}
	if c.Retries < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "retries must not be negative, got %d", c.Retries)
	}
	if c.ExtractChars < 1 || c.ExtractChars > MaxExtractChars {
		return errors.New(errors.ErrCodeInvalidConfig, "extract_chars must be between 1 and %d, got %d", MaxExtractChars, c.ExtractChars)
	}
	backends := []string{CacheNone, CacheFile, CacheRedis}
	if !slices.Contains(backends, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (valid: %s)", c.Cache.Backend, strings.Join(backends, ", "))
	}
	if c.Cache.Backend == CacheRedis && c.Cache.Redis.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.redis.addr is required for the redis backend")
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr is required")
	}
	return nil
}

// CachePath returns the file cache directory.
func (c *Config) CachePath() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return CacheDir()
}
