package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "smartpark/libs/config"
)

// Config defines parking service configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Redis   RedisConfig   `yaml:"redis"`
	Archive ArchiveConfig `yaml:"archive"`
	Tariff  TariffConfig  `yaml:"tariff"`
	Auth    AuthConfig    `yaml:"auth"`
}

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Port string `yaml:"port" env:"PARKING_HTTP_PORT"`
}

// RedisConfig points at the document store.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"PARKING_REDIS_ADDR"`
	Password string `yaml:"password" env:"PARKING_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"PARKING_REDIS_DB"`
}

// ArchiveConfig points at the optional Postgres session archive. Empty DSN
// disables archiving.
type ArchiveConfig struct {
	DSN string `yaml:"dsn" env:"PARKING_ARCHIVE_DSN"`
}

// TariffConfig holds pricing. RatePerHour applies to app exits pro rata;
// the gate fields price camera exits in whole started hours after a free
// grace period, capped per visit.
type TariffConfig struct {
	RatePerHour      float64 `yaml:"ratePerHour" env:"PARKING_RATE_PER_HOUR"`
	GateGraceMinutes int     `yaml:"gateGraceMinutes" env:"PARKING_GATE_GRACE_MINUTES"`
	GateRatePerHour  float64 `yaml:"gateRatePerHour" env:"PARKING_GATE_RATE_PER_HOUR"`
	GateDailyCap     float64 `yaml:"gateDailyCap" env:"PARKING_GATE_DAILY_CAP"`
}

// AuthConfig holds token and gate credentials. Empty GateKeyHash disables
// the detector endpoints.
type AuthConfig struct {
	JWTSecret       string `yaml:"jwtSecret" env:"PARKING_JWT_SECRET"`
	TokenTTLMinutes int    `yaml:"tokenTtlMinutes" env:"PARKING_TOKEN_TTL_MINUTES"`
	GateKeyHash     string `yaml:"gateKeyHash" env:"PARKING_GATE_KEY_HASH"`
}

// Load reads configuration via the shared helper and applies defaults.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{Port: "8080"},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Tariff: TariffConfig{
			RatePerHour:      1.5,
			GateGraceMinutes: 10,
			GateRatePerHour:  2.0,
			GateDailyCap:     10.0,
		},
		Auth: AuthConfig{TokenTTLMinutes: 60},
	}

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return nil, errors.New("config: redis addr required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	if cfg.Tariff.RatePerHour <= 0 {
		return nil, errors.New("config: rate per hour must be positive")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// TokenTTL returns the token lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	if c.Auth.TokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}
