package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresDialect implements Dialect for the lib/pq driver.
type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

// Placeholder returns "$N" for the given position.
func (d *PostgresDialect) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}

// InitStatements returns nothing. Session settings go in the DSN so that
// every pooled connection gets them.
func (d *PostgresDialect) InitStatements() []string {
	return nil
}

func (d *PostgresDialect) TimestampType() string {
	return "TIMESTAMPTZ"
}

// IsDuplicateKeyError returns true for unique_violation (SQLSTATE 23505).
func (d *PostgresDialect) IsDuplicateKeyError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
