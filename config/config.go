// Package config loads the depot configuration and opens the configured
// database.
package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/syssam/depot/catalog"
	"github.com/syssam/depot/dialect"
	"github.com/syssam/depot/dialect/sql"
)

// Environment variables overriding the file configuration.
const (
	EnvDriver   = "DEPOT_DRIVER"
	EnvDSN      = "DEPOT_DSN"
	EnvSchema   = "DEPOT_SCHEMA"
	EnvLogLevel = "DEPOT_LOG_LEVEL"
)

// Config is the depot configuration.
type Config struct {
	// Driver is the database/sql driver name: postgres, pgx, mysql or sqlite.
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// Schema is the default schema of entities that do not set one.
	Schema string `yaml:"schema,omitempty"`

	MaxOpenConns    int           `yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int           `yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime,omitempty"`

	// Debug logs every statement at debug level.
	Debug         bool          `yaml:"debug,omitempty"`
	SlowThreshold time.Duration `yaml:"slow_threshold,omitempty"`

	Log LogConfig `yaml:"log,omitempty"`

	// Entities is the inline entity catalog.
	Entities []*catalog.Entity `yaml:"catalog,omitempty"`
	// CatalogFile is a catalog file, relative to the configuration file.
	CatalogFile string `yaml:"catalog_file,omitempty"`

	dir string
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Driver:        dialect.SQLite,
		MaxOpenConns:  10,
		MaxIdleConns:  5,
		SlowThreshold: 100 * time.Millisecond,
		Log:           LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the configuration file at path over the defaults, applies the
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes the YAML configuration over the defaults, applies the
// environment overrides and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides the configuration with the environment variables
// found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDriver); ok && v != "" {
		c.Driver = v
	}
	if v, ok := lookup(EnvDSN); ok && v != "" {
		c.DSN = v
	}
	if v, ok := lookup(EnvSchema); ok && v != "" {
		c.Schema = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch sql.DialectOf(c.Driver) {
	case dialect.Postgres, dialect.MySQL, dialect.SQLite:
	default:
		return fmt.Errorf("config: unsupported driver %q", c.Driver)
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return fmt.Errorf("config: connection pool sizes must not be negative")
	}
	if c.ConnMaxLifetime < 0 || c.SlowThreshold < 0 {
		return fmt.Errorf("config: durations must not be negative")
	}
	if _, err := c.level(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}

func (c *Config) level() (slog.Level, error) {
	var l slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("config: log level: %w", err)
	}
	return l, nil
}

// Logger returns a logger writing to w with the configured level and format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Catalog returns the configured entity catalog: the catalog file if set,
// the inline entities otherwise. Entities without a schema get the
// configured one.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	entities := c.Entities
	if c.CatalogFile != "" {
		path := c.CatalogFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.dir, path)
		}
		cat, err := catalog.Load(path)
		if err != nil {
			return nil, err
		}
		entities = cat.Entities()
	}
	for _, e := range entities {
		if e.Schema == "" {
			e.Schema = c.Schema
		}
	}
	return catalog.New(entities...)
}

// Open opens the database, applies the pool settings and checks the
// connection. The driver records statement statistics, and logs every
// statement when Debug is set.
func (c *Config) Open(ctx context.Context, logger *slog.Logger) (*sql.StatsDriver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	drv, err := sql.Open(c.Driver, c.DSN)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", c.Driver, err)
	}
	db := drv.DB()
	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)
	db.SetConnMaxLifetime(c.ConnMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("config: ping %s: %w", c.Driver, err)
	}
	var d dialect.Driver = drv
	if c.Debug {
		d = sql.NewDebugDriver(d, logger)
	}
	return sql.NewStatsDriver(d, sql.WithSlowThreshold(c.SlowThreshold), sql.WithStatsLogger(logger)), nil
}
