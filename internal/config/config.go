package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment overrides applied by Load after the file is parsed.
const (
	EnvDBPath   = "VERDICT_DB"
	EnvLogLevel = "VERDICT_LOG_LEVEL"
)

// Config holds all verdict configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Engine   EngineConfig   `toml:"engine"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type EngineConfig struct {
	CacheSize       int           `toml:"cache_size"` // 0 disables the search cache
	CacheTTL        time.Duration `toml:"cache_ttl"`
	ConflictWorkers int           `toml:"conflict_workers"`
	DefaultLimit    int           `toml:"default_limit"`
}

type LogConfig struct {
	Level       string `toml:"level"` // debug, info, warn, error
	Development bool   `toml:"development"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37778,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Engine: EngineConfig{
			CacheSize:       256,
			CacheTTL:        30 * time.Second,
			ConflictWorkers: 4,
			DefaultLimit:    10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.verdict/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, ".verdict", "config.toml"), nil
}

// Load reads the TOML file at path over the defaults. A missing file is not
// an error. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
			}
		}
	}

	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Engine.CacheSize < 0 {
		return fmt.Errorf("engine.cache_size must not be negative")
	}
	if c.Engine.CacheSize > 0 && c.Engine.CacheTTL <= 0 {
		return fmt.Errorf("engine.cache_ttl must be positive when the cache is enabled")
	}
	if c.Engine.ConflictWorkers < 1 {
		return fmt.Errorf("engine.conflict_workers must be at least 1")
	}
	if c.Engine.DefaultLimit < 1 {
		return fmt.Errorf("engine.default_limit must be at least 1")
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
