// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/ashgrove/hauntmap/internal/models"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Store drivers.
const (
	StoreDriverREST   = "rest"
	StoreDriverSQLite = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Store StoreConfig       `yaml:"store"`
	View  ViewConfig        `yaml:"view"`
	Auth  AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.View.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects and configures the backing-store driver.
type StoreConfig struct {
	Driver string            `yaml:"driver"`
	REST   RESTStoreConfig   `yaml:"rest"`
	SQLite SQLiteStoreConfig `yaml:"sqlite"`
}

// Validate validates the store configuration. A rest driver without both an
// endpoint URL and an access key is a fatal startup condition.
func (c *StoreConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = StoreDriverSQLite
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(StoreDriverREST, StoreDriverSQLite)),
	); err != nil {
		return err
	}
	switch c.Driver {
	case StoreDriverREST:
		return c.REST.Validate()
	default:
		return c.SQLite.Validate()
	}
}

// RESTStoreConfig holds the hosted store endpoint and access key. Both are
// usually supplied through the environment (see config/config.yaml).
type RESTStoreConfig struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

// Validate validates the REST store configuration.
func (c *RESTStoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.Key, validation.Required),
	)
}

// SQLiteStoreConfig holds the local database path.
type SQLiteStoreConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite store configuration.
func (c *SQLiteStoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ViewConfig holds working-set and refresh configuration.
type ViewConfig struct {
	LocationPolicy models.LocationPolicy `yaml:"location_policy"`
	StatsRefresh   Duration              `yaml:"stats_refresh"`
}

// Validate validates the view configuration.
func (c *ViewConfig) Validate() error {
	if c.StatsRefresh == 0 {
		c.StatsRefresh = Duration(time.Hour)
	}
	if c.StatsRefresh.Std() < time.Minute {
		return fmt.Errorf("view: stats_refresh %s is below the 1m minimum", c.StatsRefresh)
	}
	return c.LocationPolicy.Validate()
}

// AuthConfig holds authentication configuration for the submission route.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): submissions are open, suitable for a public viewer.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Driver: StoreDriverSQLite,
			SQLite: SQLiteStoreConfig{
				Path: "./hauntmap.db",
			},
		},
		View: ViewConfig{
			LocationPolicy: models.LocationDrop,
			StatsRefresh:   Duration(time.Hour),
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
