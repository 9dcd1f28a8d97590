package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Search     SearchConfig      `yaml:"search"`
	Automation AutomationConfig  `yaml:"automation"`
	Cache      CacheConfig       `yaml:"cache"`
	Auth       AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	if err := c.Automation.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
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

// HTTPConfig holds HTTP server configuration (serve mode only).
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SearchConfig holds the part-file lookup settings.
type SearchConfig struct {
	// Root is the directory searched for part files.
	Root string `yaml:"root"`
	// Extensions are tried in order when resolving an identifier.
	Extensions []string `yaml:"extensions"`
	// Prefix selects which custom properties count as matches.
	Prefix string `yaml:"prefix"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Prefix, validation.Required),
	)
}

// AutomationConfig holds the settings of the automation fallback.
type AutomationConfig struct {
	// ProgID is the well-known application identifier used to discover or
	// launch the automation server.
	ProgID string `yaml:"prog_id"`
	// RetryBackoffMS is the fixed delay, in milliseconds, before retrying
	// a call the server asked to retry later.
	RetryBackoffMS int `yaml:"retry_backoff_ms"`
	// MaxRetries bounds the retry loop for one call.
	MaxRetries int `yaml:"max_retries"`
	// Headless forces a discovered (pre-existing) instance non-visible
	// too. Launched instances are always non-visible.
	Headless bool `yaml:"headless"`
}

// Backoff returns the retry backoff as a duration.
func (c *AutomationConfig) Backoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

// Validate validates the automation configuration.
func (c *AutomationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ProgID, validation.Required),
		validation.Field(&c.RetryBackoffMS, validation.Min(1)),
		validation.Field(&c.MaxRetries, validation.Min(0)),
	)
}

// CacheConfig holds the property-cache configuration.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	if c.Enabled && c.Path == "" {
		return fmt.Errorf("cache: enabled but path is empty")
	}
	return nil
}

// AuthConfig holds authentication configuration for serve mode.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
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
		Search: SearchConfig{
			Root:       ".",
			Extensions: []string{".psm"},
			Prefix:     "NOMEX_LAYERS",
		},
		Automation: AutomationConfig{
			ProgID:         "SolidEdge.Application",
			RetryBackoffMS: 100,
			MaxRetries:     50,
		},
		Cache: CacheConfig{
			Enabled: false,
			Path:    "./senomex-cache.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
