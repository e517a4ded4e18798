package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultListenAddr      = ":8080"
	DefaultServerURL       = "http://localhost:8080"
	DefaultDraftsPath      = "typewriter-drafts.db"
	DefaultAllowedOrigins  = "*"
	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheMaxSize    = 1000
	DefaultRateLimit       = 100
	DefaultRateWindow      = time.Minute
	DefaultRequestTimeout  = 30 * time.Second
	DefaultPoolMaxConns    = 10
	DefaultLogLevel        = "info"
	DefaultPostgresVersion = "16"
)

type Config struct {
	DatabaseURL     string `yaml:"database_url" toml:"database_url"`
	ListenAddr      string `yaml:"listen_addr" toml:"listen_addr"`
	ServerURL       string `yaml:"server_url" toml:"server_url"`
	DraftsPath      string `yaml:"drafts_path" toml:"drafts_path"`
	AllowedOrigins  string `yaml:"allowed_origins" toml:"allowed_origins"`
	CacheTTL        string `yaml:"cache_ttl" toml:"cache_ttl"`
	CacheMaxSize    *int   `yaml:"cache_max_size" toml:"cache_max_size"`
	RateLimit       *int   `yaml:"rate_limit" toml:"rate_limit"`
	RateWindow      string `yaml:"rate_window" toml:"rate_window"`
	RequestTimeout  string `yaml:"request_timeout" toml:"request_timeout"`
	PoolMaxConns    int    `yaml:"pool_max_conns" toml:"pool_max_conns"`
	LogLevel        string `yaml:"log_level" toml:"log_level"`
	PostgresVersion string `yaml:"postgres_version" toml:"postgres_version"`
	TrustProxy      bool   `yaml:"trust_proxy" toml:"trust_proxy"`
}

type Flags struct {
	URL             string
	ListenAddr      string
	ServerURL       string
	DraftsPath      string
	LogLevel        string
	PostgresVersion string
}

// Load reads a YAML config, or TOML when the file ends in .toml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.DatabaseURL = expandEnv(cfg.DatabaseURL)
	cfg.ListenAddr = expandEnv(cfg.ListenAddr)
	cfg.ServerURL = expandEnv(cfg.ServerURL)
	cfg.DraftsPath = expandEnv(cfg.DraftsPath)
	cfg.AllowedOrigins = expandEnv(cfg.AllowedOrigins)
	cfg.LogLevel = expandEnv(cfg.LogLevel)
	cfg.PostgresVersion = expandEnv(cfg.PostgresVersion)

	for name, value := range map[string]string{
		"cache_ttl":       cfg.CacheTTL,
		"rate_window":     cfg.RateWindow,
		"request_timeout": cfg.RequestTimeout,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
	}

	return &cfg, nil
}

// LoadOrEmpty is Load, except that a missing file yields an empty config.
func LoadOrEmpty(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	return Load(path)
}

func (c *Config) GetDatabaseURL(flags *Flags) (string, error) {
	if flags != nil && flags.URL != "" {
		return flags.URL, nil
	}
	if c.DatabaseURL != "" {
		return c.DatabaseURL, nil
	}
	return "", fmt.Errorf("database_url is required (set in config or pass --url flag)")
}

func (c *Config) GetListenAddr(flags *Flags) string {
	if flags != nil && flags.ListenAddr != "" {
		return flags.ListenAddr
	}
	if c.ListenAddr != "" {
		return c.ListenAddr
	}
	return DefaultListenAddr
}

func (c *Config) GetServerURL(flags *Flags) string {
	if flags != nil && flags.ServerURL != "" {
		return flags.ServerURL
	}
	if c.ServerURL != "" {
		return c.ServerURL
	}
	return DefaultServerURL
}

func (c *Config) GetDraftsPath(flags *Flags) string {
	if flags != nil && flags.DraftsPath != "" {
		return flags.DraftsPath
	}
	if c.DraftsPath != "" {
		return c.DraftsPath
	}
	return DefaultDraftsPath
}

func (c *Config) GetLogLevel(flags *Flags) string {
	if flags != nil && flags.LogLevel != "" {
		return flags.LogLevel
	}
	if c.LogLevel != "" {
		return c.LogLevel
	}
	return DefaultLogLevel
}

func (c *Config) GetPostgresVersion(flags *Flags) string {
	if flags != nil && flags.PostgresVersion != "" {
		return flags.PostgresVersion
	}
	if c.PostgresVersion != "" {
		return c.PostgresVersion
	}
	return DefaultPostgresVersion
}

func (c *Config) GetAllowedOrigins() string {
	if c.AllowedOrigins != "" {
		return c.AllowedOrigins
	}
	return DefaultAllowedOrigins
}

// GetCacheTTL returns the query cache lifetime. Zero disables the cache.
func (c *Config) GetCacheTTL() time.Duration {
	return durationOr(c.CacheTTL, DefaultCacheTTL)
}

func (c *Config) GetCacheMaxSize() int {
	if c.CacheMaxSize != nil {
		return *c.CacheMaxSize
	}
	return DefaultCacheMaxSize
}

// GetRateLimit returns requests allowed per client per window. Zero disables
// limiting.
func (c *Config) GetRateLimit() int {
	if c.RateLimit != nil {
		return *c.RateLimit
	}
	return DefaultRateLimit
}

func (c *Config) GetRateWindow() time.Duration {
	return durationOr(c.RateWindow, DefaultRateWindow)
}

func (c *Config) GetRequestTimeout() time.Duration {
	return durationOr(c.RequestTimeout, DefaultRequestTimeout)
}

func (c *Config) GetPoolMaxConns() int32 {
	if c.PoolMaxConns > 0 {
		return int32(c.PoolMaxConns)
	}
	return DefaultPoolMaxConns
}

func durationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		envVar := s[2 : len(s)-1]
		return os.Getenv(envVar)
	}
	return os.ExpandEnv(s)
}
