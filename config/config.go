package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"book-manager/library"
)

// EnvPrefix namespaces every environment variable read by the config,
// e.g. BOOKMANAGER_DATABASE_DRIVER.
const EnvPrefix = "BOOKMANAGER"

// Viper keys.
const (
	KeyDatabaseDriver = "database_driver"
	KeyDatabaseSource = "database_source"
	KeyLogLevel       = "log_level"
)

type (
	Config struct {
		Database
		Log
	}

	Database struct {
		Driver string // one of library.SupportedDrivers()
		Source string // SQLite file path or PostgreSQL DSN
	}
	Log struct {
		Level string // debug, info, warn, error
	}
)

// LoadEnvFiles loads .env and .env.local into the process environment. Variables
// already set by the runtime are not overridden.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// NewViper returns a viper instance reading BOOKMANAGER_* variables, with
// defaults applied. Callers may bind flags to it before calling FromViper.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault(KeyDatabaseDriver, library.DriverSQLite3)
	v.SetDefault(KeyDatabaseSource, DefaultDatabasePath)
	v.SetDefault(KeyLogLevel, "info")
	return v
}

func FromViper(v *viper.Viper) *Config {
	return &Config{
		Database: Database{
			Driver: strings.ToLower(v.GetString(KeyDatabaseDriver)),
			Source: v.GetString(KeyDatabaseSource),
		},
		Log: Log{
			Level: strings.ToLower(v.GetString(KeyLogLevel)),
		},
	}
}

// NewConfig loads env files and reads the environment.
func NewConfig() *Config {
	LoadEnvFiles()
	return FromViper(NewViper())
}

// Validate checks the driver name, the source and the log level.
func (c *Config) Validate() error {
	if !slices.Contains(library.SupportedDrivers(), c.Database.Driver) {
		return fmt.Errorf("%w: %q (want one of %v)", library.ErrUnsupportedDriver, c.Database.Driver, library.SupportedDrivers())
	}
	if strings.TrimSpace(c.Database.Source) == "" {
		return fmt.Errorf("database source cannot be empty")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses the configured log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return level, nil
}
