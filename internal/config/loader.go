package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Store drivers understood by the persistence layer.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config captures the runtime configuration of the room booking service.
type Config struct {
	HTTPPort        int           `yaml:"http_port" env:"ROOMBOOKING_HTTP_PORT"`
	StoreDriver     string        `yaml:"store_driver" env:"ROOMBOOKING_STORE_DRIVER"`
	SQLiteDSN       string        `yaml:"sqlite_dsn" env:"ROOMBOOKING_SQLITE_DSN"`
	PostgresURL     string        `yaml:"postgres_url" env:"ROOMBOOKING_POSTGRES_URL"`
	SessionSecret   string        `yaml:"session_secret" env:"ROOMBOOKING_SESSION_SECRET"`
	SessionTTL      time.Duration `yaml:"session_ttl" env:"ROOMBOOKING_SESSION_TTL"`
	RedisAddr       string        `yaml:"redis_addr" env:"ROOMBOOKING_REDIS_ADDR"`
	RedisPassword   string        `yaml:"redis_password" env:"ROOMBOOKING_REDIS_PASSWORD"`
	RedisDB         int           `yaml:"redis_db" env:"ROOMBOOKING_REDIS_DB"`
	ProfileCacheTTL time.Duration `yaml:"profile_cache_ttl" env:"ROOMBOOKING_PROFILE_CACHE_TTL"`
	TimeZone        string        `yaml:"time_zone" env:"ROOMBOOKING_TIME_ZONE"`
	RedirectDelay   time.Duration `yaml:"redirect_delay" env:"ROOMBOOKING_REDIRECT_DELAY"`
	LogLevel        string        `yaml:"log_level" env:"ROOMBOOKING_LOG_LEVEL"`
}

// Default returns the configuration used when neither a file nor the
// environment overrides a value.
func Default() Config {
	return Config{
		HTTPPort:        8080,
		StoreDriver:     DriverSQLite,
		SQLiteDSN:       "roombooking.db",
		SessionTTL:      24 * time.Hour,
		ProfileCacheTTL: 5 * time.Minute,
		TimeZone:        "UTC",
		RedirectDelay:   1500 * time.Millisecond,
		LogLevel:        "info",
	}
}

// Load resolves configuration from defaults, an optional YAML file and the
// process environment, in that order of precedence.
//
// Missing required values and invalid values are aggregated and reported with
// localized messages naming the offending environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("не вдалося прочитати файл конфігурації %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("файл конфігурації %s містить помилки: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("некоректні значення змінних оточення: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.SessionSecret = strings.TrimSpace(cfg.SessionSecret)

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if cfg.SessionSecret == "" {
		missing = append(missing, "ROOMBOOKING_SESSION_SECRET")
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, "ROOMBOOKING_HTTP_PORT")
	}
	switch cfg.StoreDriver {
	case DriverSQLite:
		if strings.TrimSpace(cfg.SQLiteDSN) == "" {
			missing = append(missing, "ROOMBOOKING_SQLITE_DSN")
		}
	case DriverPostgres:
		if strings.TrimSpace(cfg.PostgresURL) == "" {
			missing = append(missing, "ROOMBOOKING_POSTGRES_URL")
		}
	default:
		invalid = append(invalid, "ROOMBOOKING_STORE_DRIVER")
	}
	if cfg.SessionTTL <= 0 {
		invalid = append(invalid, "ROOMBOOKING_SESSION_TTL")
	}
	if cfg.ProfileCacheTTL < 0 {
		invalid = append(invalid, "ROOMBOOKING_PROFILE_CACHE_TTL")
	}
	if cfg.RedirectDelay < 0 {
		invalid = append(invalid, "ROOMBOOKING_REDIRECT_DELAY")
	}
	if cfg.RedisDB < 0 {
		invalid = append(invalid, "ROOMBOOKING_REDIS_DB")
	}
	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		invalid = append(invalid, "ROOMBOOKING_TIME_ZONE")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("не задано обов'язкові змінні оточення: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("некоректні значення змінних оточення: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Location returns the time zone used to interpret form input.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StoreDSN returns the data source name for the configured driver.
func (c Config) StoreDSN() string {
	if c.StoreDriver == DriverPostgres {
		return c.PostgresURL
	}
	return c.SQLiteDSN
}
