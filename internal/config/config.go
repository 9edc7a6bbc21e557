// Package config loads application configuration from environment
// variables.  A .env file is read first when present.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store drivers.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values.
type Config struct {
	Env         string `envconfig:"APP_ENV" default:"dev"`
	Port        string `envconfig:"APP_PORT" default:"8080"`
	StoreDriver string `envconfig:"STORE_DRIVER" default:"mysql"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Currency    string `envconfig:"CURRENCY" default:"usd"`

	JWTSecret      string `envconfig:"JWT_SECRET" required:"true"`
	AccessTTLMin   int    `envconfig:"ACCESS_TOKEN_TTL_MIN" default:"15"`
	RefreshTTLDays int    `envconfig:"REFRESH_TOKEN_TTL_DAYS" default:"7"`
	BcryptCost     int    `envconfig:"BCRYPT_COST" default:"10"`
	CookieSecure   bool   `envconfig:"COOKIE_SECURE" default:"false"`

	DB     DBConfig     `envconfig:"DB"`
	Seats  SeatConfig   `envconfig:"SEAT"`
	Redis  RedisConfig  `envconfig:"REDIS"`
	Rabbit RabbitConfig `envconfig:"RABBITMQ"`
	Admin  AdminConfig  `envconfig:"ADMIN"`

	Cache     CacheConfig     `envconfig:"CACHE"`
	RateLimit RateLimitConfig `envconfig:"RATE_LIMIT"`
}

// DBConfig holds MySQL connection settings (DB_*).
type DBConfig struct {
	User    string `envconfig:"USER" default:"root"`
	Pass    string `envconfig:"PASS"`
	Host    string `envconfig:"HOST" default:"127.0.0.1"`
	Port    string `envconfig:"PORT" default:"3306"`
	Name    string `envconfig:"NAME" default:"cinema"`
	Migrate bool   `envconfig:"MIGRATE" default:"true"`
}

// SeatConfig controls seat locking (SEAT_*).
type SeatConfig struct {
	LockTTL       time.Duration `envconfig:"LOCK_TTL" default:"5m"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"30s"`
}

// RedisConfig holds Redis settings (REDIS_*).  An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `envconfig:"ADDR"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
	TLS      bool   `envconfig:"TLS" default:"false"`
}

// RabbitConfig holds RabbitMQ settings (RABBITMQ_*).  An empty URL disables
// publishing and the notification consumer.
type RabbitConfig struct {
	URL             string `envconfig:"URL"`
	Exchange        string `envconfig:"EXCHANGE" default:"cinema.events"`
	Queue           string `envconfig:"QUEUE" default:"order.notifications"`
	NotificationLog string `envconfig:"NOTIFICATION_LOG" default:"notifications.log"`
}

// AdminConfig bootstraps an admin account on start when Email is set
// (ADMIN_*).
type AdminConfig struct {
	Email    string `envconfig:"EMAIL"`
	Password string `envconfig:"PASSWORD"`
	Name     string `envconfig:"NAME" default:"Administrator"`
}

// AccessTTL is the lifetime of access tokens.
func (c Config) AccessTTL() time.Duration { return time.Duration(c.AccessTTLMin) * time.Minute }

// RefreshTTL is the lifetime of refresh tokens.
func (c Config) RefreshTTL() time.Duration { return time.Duration(c.RefreshTTLDays) * 24 * time.Hour }

// IsProduction reports whether the service runs with APP_ENV=prod.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

// Load reads .env (if any) and the environment into a Config.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.Cache.normalize()
	cfg.RateLimit.normalize()
	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	switch c.StoreDriver {
	case StoreMySQL, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.AccessTTLMin <= 0 || c.RefreshTTLDays <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Seats.LockTTL <= 0 || c.Seats.SweepInterval <= 0 {
		return errors.New("SEAT_LOCK_TTL and SEAT_SWEEP_INTERVAL must be positive")
	}
	if c.Admin.Email != "" && c.Admin.Password == "" {
		return errors.New("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}
	return nil
}
