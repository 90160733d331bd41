// Package config loads service settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the service reads at startup.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogFormat   string `mapstructure:"LOG_FORMAT"`

	JWTSecret          string `mapstructure:"JWT_SECRET"`
	JWTAlgorithm       string `mapstructure:"JWT_ALGORITHM"`
	JWTIssuer          string `mapstructure:"JWT_ISSUER"`
	AccessTokenMinutes int    `mapstructure:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	BcryptCost         int    `mapstructure:"BCRYPT_COST"`

	Currency string `mapstructure:"CURRENCY"`

	RabbitMQURL           string `mapstructure:"RABBITMQ_URL"`
	AccountEventsExchange string `mapstructure:"ACCOUNT_EVENTS_EXCHANGE"`

	RedisURL        string        `mapstructure:"REDIS_URL"`
	LoginRateLimit  int           `mapstructure:"LOGIN_RATE_LIMIT"`
	LoginRateWindow time.Duration `mapstructure:"LOGIN_RATE_WINDOW"`

	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	DevSeed            bool   `mapstructure:"DEV_SEED"`
}

var keys = []string{
	"SERVER_PORT", "DATABASE_URL", "DB_MAX_CONNS", "LOG_LEVEL", "LOG_FORMAT",
	"JWT_SECRET", "JWT_ALGORITHM", "JWT_ISSUER", "ACCESS_TOKEN_EXPIRE_MINUTES", "BCRYPT_COST",
	"CURRENCY", "RABBITMQ_URL", "ACCOUNT_EVENTS_EXCHANGE",
	"REDIS_URL", "LOGIN_RATE_LIMIT", "LOGIN_RATE_WINDOW",
	"CORS_ALLOWED_ORIGINS", "DEV_SEED",
}

// LoadDotEnv loads path into the process environment if it exists.
// Variables already set are never overridden.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// LoadConfig reads configuration from the environment, falling back to a .env file in path.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("JWT_ISSUER", "accounts")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("CURRENCY", "BRL")
	v.SetDefault("ACCOUNT_EVENTS_EXCHANGE", "accounts.events")
	v.SetDefault("LOGIN_RATE_LIMIT", 10)
	v.SetDefault("LOGIN_RATE_WINDOW", time.Minute)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("DEV_SEED", false)

	// Bind explicitly so keys without defaults still reach Unmarshal.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Currency = strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.AccessTokenMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", c.AccessTokenMinutes)
	}
	if c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0 {
		return errors.New("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive")
	}
	return nil
}

// AccessTokenTTL is the lifetime of issued access tokens.
func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + strings.TrimPrefix(c.ServerPort, ":") }
