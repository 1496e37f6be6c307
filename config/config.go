// Package config loads runtime settings from the environment (and a .env
// file when present).
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/yeremiapane/siparist/utils"
)

type Config struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"debug"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN" envDefault:"siparist.db"`

	JWTSecret     string        `env:"JWT_SECRET"`
	JWTTTL        time.Duration `env:"JWT_TTL" envDefault:"24h"`
	SessionSecret string        `env:"SESSION_SECRET" envDefault:"siparist-dev-session-secret"`
	CORSOrigin    string        `env:"CORS_ORIGIN" envDefault:"*"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CredentialTTL time.Duration `env:"CREDENTIAL_TTL" envDefault:"24h"`

	RabbitMQURL string `env:"RABBITMQ_URL"`

	ResetHour   int    `env:"RESET_HOUR" envDefault:"5"`
	ResetMinute int    `env:"RESET_MINUTE" envDefault:"0"`
	Timezone    string `env:"TIMEZONE" envDefault:"Local"`
	OperatorID  string `env:"OPERATOR_ID" envDefault:"default"`

	DefaultAdminUsername string `env:"DEFAULT_ADMIN_USERNAME" envDefault:"admin"`
	DefaultAdminPassword string `env:"DEFAULT_ADMIN_PASSWORD" envDefault:"siparist2025"`
	BcryptCost           int    `env:"BCRYPT_COST" envDefault:"10"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
	LoginRPS       float64 `env:"LOGIN_RATE_LIMIT_RPS" envDefault:"0.2"`
	LoginBurst     int     `env:"LOGIN_RATE_LIMIT_BURST" envDefault:"5"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env (if any) and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ResetHour < 0 || c.ResetHour > 23 {
		return fmt.Errorf("RESET_HOUR must be between 0 and 23, got %d", c.ResetHour)
	}
	if c.ResetMinute < 0 || c.ResetMinute > 59 {
		return fmt.Errorf("RESET_MINUTE must be between 0 and 59, got %d", c.ResetMinute)
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when APP_ENV=production")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Location resolves TIMEZONE. The daily reset and archive dates use it.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
