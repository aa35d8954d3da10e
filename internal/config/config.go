package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/knitworks/floortrack-backend/internal/pkg/env"
	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
)

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

type HTTPConfig struct {
	Port string `yaml:"port"`
}

type AuthConfig struct {
	JWTSecretKey string `yaml:"jwt_secret_key"`
}

type Config struct {
	Env      string         `yaml:"env"`
	HTTP     HTTPConfig     `yaml:"http"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`

	// StatsCacheTTLSeconds bounds staleness of cached floor statistics.
	StatsCacheTTLSeconds int `yaml:"stats_cache_ttl_seconds"`
}

func defaultConfig() *Config {
	return &Config{
		Env:  "development",
		HTTP: HTTPConfig{Port: "8080"},
		Postgres: PostgresConfig{
			Host: "localhost",
			Port: "5432",
			User: "postgres",
			Name: "floortrack",
		},
		Redis:                RedisConfig{Channel: "floor-events"},
		Auth:                 AuthConfig{JWTSecretKey: "defaultsecret"},
		StatsCacheTTLSeconds: 30,
	}
}

// Load reads config.yaml when present, then applies env overrides on top.
func Load(log *logger.Logger) (*Config, error) {
	cfg := defaultConfig()

	cfgPath := strings.TrimSpace(os.Getenv("FT_CONFIG_PATH"))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "config.yaml")
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
			}
		}
	}
	if cfgPath != "" {
		raw, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		if log != nil {
			log.Info("loaded config file", "path", cfgPath)
		}
	}

	cfg.Env = env.Get("APP_ENV", cfg.Env, log)
	cfg.HTTP.Port = env.Get("PORT", cfg.HTTP.Port, log)
	cfg.Postgres.Host = env.Get("POSTGRES_HOST", cfg.Postgres.Host, log)
	cfg.Postgres.Port = env.Get("POSTGRES_PORT", cfg.Postgres.Port, log)
	cfg.Postgres.User = env.Get("POSTGRES_USER", cfg.Postgres.User, log)
	cfg.Postgres.Password = env.Get("POSTGRES_PASSWORD", cfg.Postgres.Password, log)
	cfg.Postgres.Name = env.Get("POSTGRES_NAME", cfg.Postgres.Name, log)
	cfg.Redis.Addr = env.Get("REDIS_ADDR", cfg.Redis.Addr, log)
	cfg.Redis.Channel = env.Get("REDIS_CHANNEL", cfg.Redis.Channel, log)
	cfg.Auth.JWTSecretKey = env.Get("JWT_SECRET_KEY", cfg.Auth.JWTSecretKey, log)
	cfg.StatsCacheTTLSeconds = env.GetInt("STATS_CACHE_TTL", cfg.StatsCacheTTLSeconds, log)

	return cfg, nil
}
