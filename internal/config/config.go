// Package config loads gateway configuration. Precedence is env var
// over YAML file over built-in default; the file is optional.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config is the full gateway configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Auth    AuthConfig    `yaml:"auth"`
	Limits  LimitsConfig  `yaml:"limits"`
	Streaks StreaksConfig `yaml:"streaks"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"HUSTLEBOARD_ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HUSTLEBOARD_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HUSTLEBOARD_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HUSTLEBOARD_SHUTDOWN_TIMEOUT"`
	CORSOrigin      string        `yaml:"cors_origin" env:"HUSTLEBOARD_CORS_ORIGIN"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"HUSTLEBOARD_LOG_LEVEL"`
	Format string `yaml:"format" env:"HUSTLEBOARD_LOG_FORMAT"`
}

// StorageConfig selects the persistence backend: memory, supabase, or
// postgres.
type StorageConfig struct {
	Backend  string         `yaml:"backend" env:"HUSTLEBOARD_STORAGE_BACKEND"`
	Postgres PostgresConfig `yaml:"postgres"`
	Supabase SupabaseConfig `yaml:"supabase"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn" env:"HUSTLEBOARD_POSTGRES_DSN"`
}

type SupabaseConfig struct {
	URL      string `yaml:"url" env:"HUSTLEBOARD_SUPABASE_URL"`
	APIKey   string `yaml:"api_key" env:"HUSTLEBOARD_SUPABASE_API_KEY"`
	Realtime bool   `yaml:"realtime" env:"HUSTLEBOARD_SUPABASE_REALTIME"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"HUSTLEBOARD_REDIS_ENABLED"`
	Addr     string `yaml:"addr" env:"HUSTLEBOARD_REDIS_ADDR"`
	Password string `yaml:"password" env:"HUSTLEBOARD_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"HUSTLEBOARD_REDIS_DB"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"HUSTLEBOARD_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"HUSTLEBOARD_TOKEN_TTL"`
}

type LimitsConfig struct {
	RPS   float64 `yaml:"rps" env:"HUSTLEBOARD_RATE_RPS"`
	Burst int     `yaml:"burst" env:"HUSTLEBOARD_RATE_BURST"`
}

type StreaksConfig struct {
	Schedule string `yaml:"schedule" env:"HUSTLEBOARD_STREAK_SCHEDULE"`
}

// Load reads the optional YAML file at path, applies env overrides,
// fills defaults, and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("decode env: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Limits.RPS == 0 {
		c.Limits.RPS = 10
	}
	if c.Limits.Burst == 0 {
		c.Limits.Burst = 30
	}
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("postgres backend requires HUSTLEBOARD_POSTGRES_DSN")
		}
	case "supabase":
		if c.Storage.Supabase.URL == "" || c.Storage.Supabase.APIKey == "" {
			return fmt.Errorf("supabase backend requires HUSTLEBOARD_SUPABASE_URL and HUSTLEBOARD_SUPABASE_API_KEY")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("HUSTLEBOARD_JWT_SECRET is required")
	}
	return nil
}
