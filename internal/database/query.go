package database

import (
	"strings"
)

// QueryBuilder converts SQL queries with ? placeholders to dialect-specific format.
type QueryBuilder struct {
	dialect Dialect
}

// NewQueryBuilder creates a new QueryBuilder for the given dialect.
func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build converts a query with ? placeholders to dialect-specific placeholders.
//
// Example:
//
//	input:    "SELECT name FROM room_templates WHERE id = ? AND top = ?"
//	SQLite:   "SELECT name FROM room_templates WHERE id = ? AND top = ?"
//	Postgres: "SELECT name FROM room_templates WHERE id = $1 AND top = $2"
func (qb *QueryBuilder) Build(query string) string {
	if _, ok := qb.dialect.(*SQLiteDialect); ok {
		return query
	}

	var result strings.Builder
	position := 1
	inString := false

	for i := 0; i < len(query); i++ {
		switch {
		case query[i] == '\'':
			inString = !inString
			result.WriteByte(query[i])
		case query[i] == '?' && !inString:
			result.WriteString(qb.dialect.Placeholder(position))
			position++
		default:
			result.WriteByte(query[i])
		}
	}

	return result.String()
}
