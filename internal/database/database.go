// Package database stores room templates in SQLite or PostgreSQL.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/lawnchairsociety/roomforge/internal/logger"
)

// Database wraps the SQL connection and provides catalog persistence.
type Database struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*Database, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig connects to the database named by cfg and runs migrations.
func OpenWithConfig(cfg Config) (*Database, error) {
	var (
		dialect Dialect
		dsn     string
	)

	switch cfg.Driver {
	case "", string(DialectSQLite):
		dialect = NewDialect(DialectSQLite)
		dsn = cfg.SQLitePath

		// Ensure directory exists
		dir := filepath.Dir(cfg.SQLitePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	case string(DialectPostgres):
		dialect = NewDialect(DialectPostgres)
		dsn = cfg.Postgres.DSN()
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Driver == string(DialectPostgres) {
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	d := &Database{db: db, dialect: dialect, qb: NewQueryBuilder(dialect)}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("Database opened", "driver", dialect.DriverName())
	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Dialect returns the SQL dialect of the connection.
func (d *Database) Dialect() Dialect {
	return d.dialect
}

// migrate creates the database schema if it doesn't exist.
func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS room_templates (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			top BOOLEAN NOT NULL DEFAULT FALSE,
			bottom BOOLEAN NOT NULL DEFAULT FALSE,
			left_door BOOLEAN NOT NULL DEFAULT FALSE,
			right_door BOOLEAN NOT NULL DEFAULT FALSE,
			doorway_count INTEGER NOT NULL,
			imported_at ` + d.dialect.TimestampType() + ` DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_room_templates_doorway_count ON room_templates(doorway_count)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}
