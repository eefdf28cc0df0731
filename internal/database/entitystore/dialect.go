package entitystore

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect hides the parts of SQL that differ between storage engines:
// placeholder syntax and how a generated identity is returned from an insert.
type Dialect interface {
	Name() string
	// Rebind rewrites a query written with '?' placeholders into the
	// dialect's native placeholder syntax.
	Rebind(query string) string
	// InsertReturningID builds an INSERT for the given columns that yields
	// the generated id as a single-column result row in the same round trip.
	InsertReturningID(table string, columns []string) string
}

var (
	SQLite    Dialect = sqliteDialect{}
	Postgres  Dialect = postgresDialect{}
	SQLServer Dialect = sqlServerDialect{}
)

// DialectFor returns the dialect matching a configured driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlserver", "mssql":
		return SQLServer, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) Rebind(query string) string { return query }

func (d sqliteDialect) InsertReturningID(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table, strings.Join(columns, ", "), d.Rebind(placeholders(len(columns))))
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Rebind(query string) string {
	return rebind(query, func(n int) string { return "$" + strconv.Itoa(n) })
}

func (d postgresDialect) InsertReturningID(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table, strings.Join(columns, ", "), d.Rebind(placeholders(len(columns))))
}

type sqlServerDialect struct{}

func (sqlServerDialect) Name() string { return "sqlserver" }

func (sqlServerDialect) Rebind(query string) string {
	return rebind(query, func(n int) string { return "@p" + strconv.Itoa(n) })
}

// OUTPUT INSERTED.id is evaluated as part of the insert itself, so unlike a
// follow-up SCOPE_IDENTITY() it cannot observe another statement's identity.
func (d sqlServerDialect) InsertReturningID(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) OUTPUT INSERTED.id VALUES (%s)",
		table, strings.Join(columns, ", "), d.Rebind(placeholders(len(columns))))
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// rebind replaces every '?' outside single-quoted literals with mark(n).
func rebind(query string, mark func(n int) string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inLiteral := false
	for _, r := range query {
		switch {
		case r == '\'':
			inLiteral = !inLiteral
			b.WriteRune(r)
		case r == '?' && !inLiteral:
			n++
			b.WriteString(mark(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
