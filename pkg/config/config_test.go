package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/wikiviewer/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if cfg.Endpoint != "https://en.wikipedia.org/w/api.php" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.Timeout.Duration != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.Retries != 0 {
		t.Errorf("Retries = %d, want 0", cfg.Retries)
	}
	if cfg.ExtractChars != 300 {
		t.Errorf("ExtractChars = %d, want 300", cfg.ExtractChars)
	}
	if cfg.Cache.Backend != CacheNone || cfg.Cache.TTL.Duration != time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Server.Addr != ":8080" || len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ExtractChars != 300 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
endpoint = "https://de.wikipedia.org/w/api.php"
extract_chars = 500

[cache]
backend = "file"
ttl = "30m"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "https://de.wikipedia.org/w/api.php" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.ExtractChars != 500 {
		t.Errorf("ExtractChars = %d", cfg.ExtractChars)
	}
	if cfg.Cache.Backend != CacheFile || cfg.Cache.TTL.Duration != 30*time.Minute {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Timeout.Duration != 10*time.Second {
		t.Errorf("unset keys should keep defaults, Timeout = %v", cfg.Timeout)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", `endpoint = `},
		{"unknown key", `colour = "blue"`},
		{"bad duration", `timeout = "soon"`},
		{"invalid value", `extract_chars = 0`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("expected INVALID_CONFIG, got %v", err)
			}
		})
	}
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvEndpoint, "https://fr.wikipedia.org/w/api.php")
	t.Setenv(EnvCache, "REDIS")
	t.Setenv(EnvRedisAddr, "cache:6379")
	t.Setenv(EnvTimeout, "3s")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "https://fr.wikipedia.org/w/api.php" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.Redis.Addr != "cache:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Timeout.Duration != 3*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	cfg, _ := Default()
	lookup := func(k string) (string, bool) {
		if k == EnvRetries {
			return "many", true
		}
		return "", false
	}
	if err := cfg.ApplyEnv(lookup); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"ftp endpoint", func(c *Config) { c.Endpoint = "ftp://example.org" }, true},
		{"negative retries", func(c *Config) { c.Retries = -1 }, true},
		{"negative timeout", func(c *Config) { c.Timeout.Duration = -time.Second }, true},
		{"extract too large", func(c *Config) { c.ExtractChars = MaxExtractChars + 1 }, true},
		{"extract max", func(c *Config) { c.ExtractChars = MaxExtractChars }, false},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }, true},
		{"redis without addr", func(c *Config) { c.Cache.Backend = CacheRedis; c.Cache.Redis.Addr = "" }, true},
		{"empty server addr", func(c *Config) { c.Server.Addr = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCachePath(t *testing.T) {
	cfg := &Config{}
	if cfg.CachePath() != CacheDir() {
		t.Errorf("CachePath = %q, want %q", cfg.CachePath(), CacheDir())
	}
	cfg.Cache.Dir = "/tmp/wv"
	if cfg.CachePath() != "/tmp/wv" {
		t.Errorf("CachePath = %q", cfg.CachePath())
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvEndpoint, EnvUserAgent, EnvTimeout, EnvRetries, EnvCache, EnvRedisAddr, EnvAddr} {
		t.Setenv(k, "")
	}
}
