// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New returns a Config populated with defaults.
//   - Load layers defaults, an optional YAML file and HACKREG_* environment variables.
//   - Errors are wrapped with ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Supported storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoder: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// EventName is shown as the site title on every page.
	EventName string `koanf:"event_name"`

	// Timezone is the IANA zone used to display branch open/close times.
	Timezone string `koanf:"timezone"`

	// DBDriver is one of memory, sqlite, postgres.
	DBDriver string `koanf:"db_driver"`

	// DBDSN is the driver-specific data source name.
	DBDSN string `koanf:"db_dsn"`

	// CatalogPath points at the YAML question catalog.
	CatalogPath string `koanf:"catalog_path"`

	// AdminKey grants admin API access via "Authorization: Bearer <key>". Empty disables it.
	AdminKey string `koanf:"admin_key"`

	// Admins lists emails promoted to admin when they sign in with AdminKey.
	Admins []string `koanf:"admins"`

	// SessionSecret signs session cookies.
	SessionSecret string `koanf:"session_secret"`

	// CSRFKey is the 32-byte key protecting HTML form posts.
	CSRFKey string `koanf:"csrf_key"`

	// SecureCookies marks session and CSRF cookies Secure.
	SecureCookies bool `koanf:"secure_cookies"`

	// MaxTeamSize bounds team membership.
	MaxTeamSize int `koanf:"max_team_size"`

	// TeamsEnabled and QREnabled seed the initial settings.
	TeamsEnabled bool `koanf:"teams_enabled"`
	QREnabled    bool `koanf:"qr_enabled"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		Addr:          ":9080",
		EventName:     "HackGT",
		Timezone:      "America/New_York",
		DBDriver:      DriverMemory,
		CatalogPath:   "questions.yaml",
		SessionSecret: "change-me-session-secret",
		CSRFKey:       "change-me-csrf-key-32-bytes-long",
		MaxTeamSize:   4,
		TeamsEnabled:  true,
		QREnabled:     true,
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the settings that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.DBDriver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(c.DBDSN) == "" {
			return fmt.Errorf("%w: db_dsn is required for driver %s", ErrInvalidConfig, c.DBDriver)
		}
	default:
		return fmt.Errorf("%w: unknown db_driver %q", ErrInvalidConfig, c.DBDriver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if len(c.CSRFKey) != 32 {
		return fmt.Errorf("%w: csrf_key must be 32 bytes", ErrInvalidConfig)
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("%w: session_secret must not be empty", ErrInvalidConfig)
	}
	if c.MaxTeamSize < 1 {
		return fmt.Errorf("%w: max_team_size must be positive", ErrInvalidConfig)
	}
	return nil
}
