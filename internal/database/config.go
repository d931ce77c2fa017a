package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/lawnchairsociety/roomforge/internal/config"
)

// Config holds database connection configuration.
type Config struct {
	// Driver specifies which database to use: "sqlite" or "postgres"
	Driver string

	// SQLite configuration
	SQLitePath string

	// PostgreSQL configuration
	Postgres PostgresConfig
}

// PostgresConfig holds PostgreSQL-specific configuration.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns a Config with sensible defaults for SQLite.
func DefaultConfig(sqlitePath string) Config {
	return Config{
		Driver:     "sqlite",
		SQLitePath: sqlitePath,
	}
}

// DefaultPostgresConfig returns PostgresConfig with recommended pool settings.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:            "localhost",
		Port:            5432,
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// ConfigFrom converts the database block of the generator configuration.
// Pool settings come from DefaultPostgresConfig.
func ConfigFrom(c config.DatabaseConfig) Config {
	pg := DefaultPostgresConfig()
	if c.Postgres.Host != "" {
		pg.Host = c.Postgres.Host
	}
	if c.Postgres.Port != 0 {
		pg.Port = c.Postgres.Port
	}
	if c.Postgres.SSLMode != "" {
		pg.SSLMode = c.Postgres.SSLMode
	}
	pg.User = c.Postgres.User
	pg.Password = c.Postgres.Password
	pg.Database = c.Postgres.Database

	return Config{
		Driver:     c.Driver,
		SQLitePath: c.SQLitePath,
		Postgres:   pg,
	}
}

// DSN returns the lib/pq connection string. The session time zone is UTC.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s timezone=UTC",
		quoteDSN(c.Host), c.Port, quoteDSN(c.User), quoteDSN(c.Password), quoteDSN(c.Database), quoteDSN(c.SSLMode))
}

// quoteDSN quotes a connection string value when it is empty or contains
// spaces, quotes or backslashes.
func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
