package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides. Nested keys use "__",
// e.g. TIENDA_DATABASE__DSN.
const EnvPrefix = "TIENDA_"

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
	} `koanf:"app"`

	Database struct {
		Driver          string        `koanf:"driver"`
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
		AutoMigrate     bool          `koanf:"auto_migrate"`
	} `koanf:"database"`

	Orders struct {
		RequestTimeout        time.Duration `koanf:"request_timeout"`
		LineInsertConcurrency int           `koanf:"line_insert_concurrency"`
	} `koanf:"orders"`

	Auth struct {
		Enabled  bool   `koanf:"enabled"`
		Issuer   string `koanf:"issuer"`
		ClientID string `koanf:"client_id"`
	} `koanf:"auth"`

	Log struct {
		Level      string `koanf:"level"`
		File       string `koanf:"file"`
		MaxSizeMB  int    `koanf:"max_size_mb"`
		MaxBackups int    `koanf:"max_backups"`
		MaxAgeDays int    `koanf:"max_age_days"`
	} `koanf:"log"`
}

func defaults() map[string]any {
	return map[string]any{
		"app.name":                       "tienda-backend",
		"app.http_addr":                  ":5000",
		"database.driver":                "postgres",
		"database.dsn":                   "host=localhost user=postgres password=postgres dbname=tienda port=5432 sslmode=disable",
		"database.max_open_conns":        10,
		"database.max_idle_conns":        10,
		"database.conn_max_lifetime":     "30m",
		"database.auto_migrate":          true,
		"orders.request_timeout":         "5s",
		"orders.line_insert_concurrency": 4,
		"auth.enabled":                   false,
		"log.level":                      "info",
		"log.file":                       "",
		"log.max_size_mb":                50,
		"log.max_backups":                3,
		"log.max_age_days":               7,
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in that order. A .env file in the working
// directory is loaded into the environment first when present.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn required")
	}
	if c.Orders.LineInsertConcurrency < 1 {
		return fmt.Errorf("orders.line_insert_concurrency must be at least 1")
	}
	if c.Orders.RequestTimeout <= 0 {
		return fmt.Errorf("orders.request_timeout must be positive")
	}
	if c.Auth.Enabled && (c.Auth.Issuer == "" || c.Auth.ClientID == "") {
		return fmt.Errorf("auth.issuer and auth.client_id required when auth is enabled")
	}
	return nil
}
