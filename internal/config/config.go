package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("config: invalid generator configuration")

// GeneratorConfig holds every setting the roomforge host needs.
type GeneratorConfig struct {
	Rooms    RoomsConfig    `yaml:"rooms"`
	Layout   LayoutConfig   `yaml:"layout"`
	Attempts int            `yaml:"attempts"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Database DatabaseConfig `yaml:"database"`
	Preview  PreviewConfig  `yaml:"preview"`
}

// RoomsConfig controls the room graph expander.
type RoomsConfig struct {
	// Width and Height are the world-space size of one room. Neighbors along
	// the horizontal axis are Width apart, vertical neighbors Height apart.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// StrictPlacement turns a room placed on an occupied position into an error.
	StrictPlacement bool `yaml:"strict_placement"`

	// LegacySelection never picks the last compatible template.
	LegacySelection bool `yaml:"legacy_selection"`
}

// LayoutConfig controls the grid layout generator.
type LayoutConfig struct {
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	MaxRooms int `yaml:"max_rooms"`
}

// Catalog sources
const (
	SourceYAML     = "yaml"
	SourceDatabase = "database"
)

// CatalogConfig selects where room templates come from.
type CatalogConfig struct {
	// Source is "yaml" or "database"
	Source string `yaml:"source"`

	// Path is the catalog file used when Source is "yaml".
	Path string `yaml:"path"`
}

// DatabaseConfig holds the catalog store connection settings.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres"
	Driver     string         `yaml:"driver"`
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// PreviewConfig holds the WebSocket preview feed settings.
type PreviewConfig struct {
	// Address is the listen address, e.g. ":4443"
	Address string `yaml:"address"`

	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`

	// MaxConnections is the maximum total concurrent connections.
	// 0 means unlimited.
	MaxConnections int `yaml:"max_connections"`

	// MaxPerIP is the maximum concurrent connections from a single IP address.
	// 0 means unlimited.
	MaxPerIP int `yaml:"max_per_ip"`

	BadRequests BadRequestConfig `yaml:"bad_requests"`
}

// BadRequestConfig controls the lockout of clients that keep sending
// requests that cannot be parsed.
type BadRequestConfig struct {
	// MaxStrikes is the number of bad requests before a lockout.
	MaxStrikes int `yaml:"max_strikes"`

	// LockoutSeconds is the initial lockout duration in seconds.
	LockoutSeconds int `yaml:"lockout_seconds"`

	// MaxLockoutSeconds caps the doubling lockout duration.
	MaxLockoutSeconds int `yaml:"max_lockout_seconds"`
}

// DefaultConfig returns a GeneratorConfig with the stock generation parameters.
func DefaultConfig() *GeneratorConfig {
	return &GeneratorConfig{
		Rooms: RoomsConfig{
			Width:  15,
			Height: 10,
		},
		Layout: LayoutConfig{
			Width:    5,
			Height:   5,
			MaxRooms: 5,
		},
		Attempts: 10,
		Catalog: CatalogConfig{
			Source: SourceYAML,
			Path:   "data/catalog.yaml",
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "data/roomforge.db",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
		Preview: PreviewConfig{
			Address:        ":4443",
			AllowedOrigins: []string{}, // Same-origin only by default
			MaxMessageSize: 4096,
			MaxConnections: 32,
			MaxPerIP:       4,
			BadRequests: BadRequestConfig{
				MaxStrikes:        5,
				LockoutSeconds:    30,
				MaxLockoutSeconds: 300,
			},
		},
	}
}

// LoadConfig loads generator configuration from a YAML file.
// If the file doesn't exist, returns default config. Keys missing from the
// file keep their defaults.
func LoadConfig(path string) (*GeneratorConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil // Use defaults if file doesn't exist
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), err
	}

	return config, nil
}

// Validate rejects settings the generators cannot run with.
func (c *GeneratorConfig) Validate() error {
	if c.Rooms.Width <= 0 || c.Rooms.Height <= 0 {
		return fmt.Errorf("%w: room size %dx%d", ErrInvalidConfig, c.Rooms.Width, c.Rooms.Height)
	}
	if c.Layout.Width <= 0 || c.Layout.Height <= 0 {
		return fmt.Errorf("%w: layout size %dx%d", ErrInvalidConfig, c.Layout.Width, c.Layout.Height)
	}
	if c.Layout.MaxRooms < 1 || c.Layout.MaxRooms > c.Layout.Width*c.Layout.Height {
		return fmt.Errorf("%w: max_rooms %d on a %dx%d layout",
			ErrInvalidConfig, c.Layout.MaxRooms, c.Layout.Width, c.Layout.Height)
	}
	if c.Attempts < 1 {
		return fmt.Errorf("%w: attempts must be at least 1, got %d", ErrInvalidConfig, c.Attempts)
	}

	switch c.Catalog.Source {
	case SourceYAML:
		if c.Catalog.Path == "" {
			return fmt.Errorf("%w: catalog path is empty", ErrInvalidConfig)
		}
	case SourceDatabase:
		switch c.Database.Driver {
		case "sqlite", "postgres":
		default:
			return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.Database.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown catalog source %q", ErrInvalidConfig, c.Catalog.Source)
	}

	return nil
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *PreviewConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means a non-browser client
	}

	// "http://localhost:3000" -> "localhost:3000"
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
