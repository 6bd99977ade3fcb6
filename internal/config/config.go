// Package config loads service configuration from defaults, an optional
// config file and MEMORIAL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"memorial/internal/domain/billing"
)

// EnvPrefix prefixes every environment override (MEMORIAL_APP_PORT, ...).
const EnvPrefix = "MEMORIAL"

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the full service configuration.
type Config struct {
	App      AppConfig
	Log      LogConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Billing  billing.Config
	Audit    AuditConfig
}

// AppConfig holds HTTP server settings.
type AppConfig struct {
	Env             string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// IsDevelopment reports whether the service runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// StorageConfig selects the document store backend.
type StorageConfig struct {
	Driver string
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL              string
	MaxConns         int32
	MinConns         int32
	StatementTimeout time.Duration
	AutoMigrate      bool
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	CompressThreshold int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.read_timeout", 15*time.Second)
	v.SetDefault("app.write_timeout", 30*time.Second)
	v.SetDefault("app.shutdown_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")

	v.SetDefault("storage.driver", DriverPostgres)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.statement_timeout", 30*time.Second)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("billing.catalog_rate", "0.05")
	v.SetDefault("billing.manual_rate", "0.15")
	v.SetDefault("billing.legacy_rate", "0.15")
	v.SetDefault("billing.default_commission_percent", "15")

	v.SetDefault("audit.compress_threshold", 2048)
}

// New returns a viper instance with defaults and env bindings applied.
// configFile may be empty.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load reads the configuration and validates it.
func Load(configFile string) (*Config, error) {
	v, err := New(configFile)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper builds a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:             v.GetString("app.env"),
			Port:            v.GetString("app.port"),
			ReadTimeout:     v.GetDuration("app.read_timeout"),
			WriteTimeout:    v.GetDuration("app.write_timeout"),
			ShutdownTimeout: v.GetDuration("app.shutdown_timeout"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(v.GetString("storage.driver")),
		},
		Database: DatabaseConfig{
			URL:              v.GetString("database.url"),
			MaxConns:         v.GetInt32("database.max_conns"),
			MinConns:         v.GetInt32("database.min_conns"),
			StatementTimeout: v.GetDuration("database.statement_timeout"),
			AutoMigrate:      v.GetBool("database.auto_migrate"),
		},
		Audit: AuditConfig{
			CompressThreshold: v.GetInt("audit.compress_threshold"),
		},
	}

	var err error
	if cfg.Billing.CatalogRate, err = decimalKey(v, "billing.catalog_rate"); err != nil {
		return nil, err
	}
	if cfg.Billing.ManualRate, err = decimalKey(v, "billing.manual_rate"); err != nil {
		return nil, err
	}
	if cfg.Billing.LegacyRate, err = decimalKey(v, "billing.legacy_rate"); err != nil {
		return nil, err
	}
	if cfg.Billing.DefaultCommissionPercent, err = decimalKey(v, "billing.default_commission_percent"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decimalKey(v *viper.Viper, key string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.GetString(key))
	if err != nil {
		return decimal.Zero, fmt.Errorf("config %s: %w", key, err)
	}
	return d, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q: must be %s or %s", c.Storage.Driver, DriverPostgres, DriverMemory))
	}

	one := decimal.NewFromInt(1)
	for name, rate := range map[string]decimal.Decimal{
		"billing.catalog_rate": c.Billing.CatalogRate,
		"billing.manual_rate":  c.Billing.ManualRate,
		"billing.legacy_rate":  c.Billing.LegacyRate,
	} {
		if !rate.IsPositive() || rate.GreaterThan(one) {
			errs = append(errs, fmt.Errorf("%s must be in (0, 1], got %s", name, rate))
		}
	}

	pct := c.Billing.DefaultCommissionPercent
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		errs = append(errs, fmt.Errorf("billing.default_commission_percent must be in [0, 100], got %s", pct))
	}

	return errors.Join(errs...)
}
