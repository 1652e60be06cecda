// Package config holds the immutable process configuration, read once at
// startup and passed explicitly into the components that need it.
package config

import "time"

// Config is the complete gateway configuration.
type Config struct {
	Listen    string         `yaml:"listen"`     // e.g., ":10000"
	SecretKey string         `yaml:"secret_key"` // session/signing key for the hosting framework
	Backend   BackendConfig  `yaml:"backend"`
	Redis     RedisConfig    `yaml:"redis"`
	Cache     CacheConfig    `yaml:"cache"`
	Logging   LoggingConfig  `yaml:"logging"`
	Shutdown  ShutdownConfig `yaml:"shutdown"`
}

// BackendConfig describes the upstream SDS Manager API.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	// AuthHeader is the header the access token is sent in. When it is
	// "Authorization" the value is prefixed with the "JWT " scheme,
	// otherwise the bare token is sent.
	AuthHeader string        `yaml:"auth_header"`
	Timeout    time.Duration `yaml:"timeout"`
}

// RedisConfig describes the optional Redis cache store.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"password"`
}

// Addr returns the host:port address for the Redis client.
func (r RedisConfig) Addr() string {
	return joinHostPort(r.Host, r.Port)
}

// CacheConfig controls response caching.
type CacheConfig struct {
	TTL       time.Duration `yaml:"ttl"`
	KeyPrefix string        `yaml:"key_prefix"`
	// MaxEntries bounds the in-memory store used when Redis is disabled.
	MaxEntries int `yaml:"max_entries"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"` // empty = stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// ShutdownConfig controls graceful shutdown.
type ShutdownConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Listen: ":10000",
		Backend: BackendConfig{
			BaseURL:    "http://localhost:8000/api",
			AuthHeader: "Authorization",
			Timeout:    30 * time.Second,
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Cache: CacheConfig{
			TTL:        time.Hour,
			KeyPrefix:  "sdsgate:cache:",
			MaxEntries: 1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Shutdown: ShutdownConfig{
			Timeout: 30 * time.Second,
		},
	}
}
