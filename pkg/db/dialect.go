package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Dialect hides the differences between the primary and the embedded backend.
// All SQL fragments it returns use gorm's "?" placeholders.
type Dialect interface {
	Name() string
	// Contains returns a case-insensitive substring predicate for column; bind it with LikePattern(term).
	Contains(column string) string
	// OrderText orders a text column by byte value, the same order Go's string comparison gives.
	OrderText(column string, desc bool) string
	// Upsert inserts or, on a conflict over columns, applies set to the existing row.
	Upsert(columns []string, set clause.Set) clause.Expression
	// Accumulate is the "existing + incoming" expression usable inside Upsert.
	Accumulate(table, column string) clause.Expr
	// ResetIdentity moves an auto-increment counter past rows inserted with explicit ids.
	ResetIdentity(tx *gorm.DB, table, column string) error
}

func DialectFor(db *gorm.DB) (Dialect, error) {
	switch name := db.Dialector.Name(); name {
	case BackendPostgres:
		return postgresDialect{}, nil
	case BackendSQLite:
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported backend %q", name)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern wraps term for a substring match, escaping LIKE metacharacters with a backslash.
func LikePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func upsert(columns []string, set clause.Set) clause.Expression {
	cols := make([]clause.Column, len(columns))
	for i, c := range columns {
		cols[i] = clause.Column{Name: c}
	}
	if len(set) == 0 {
		return clause.OnConflict{Columns: cols, DoNothing: true}
	}
	return clause.OnConflict{Columns: cols, DoUpdates: set}
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return BackendPostgres }

func (postgresDialect) Contains(column string) string {
	return column + ` ILIKE ? ESCAPE '\'`
}

func (postgresDialect) OrderText(column string, desc bool) string {
	return column + ` COLLATE "C" ` + direction(desc)
}

func (postgresDialect) Upsert(columns []string, set clause.Set) clause.Expression {
	return upsert(columns, set)
}

func (postgresDialect) Accumulate(table, column string) clause.Expr {
	return gorm.Expr(fmt.Sprintf(`%q.%q + EXCLUDED.%q`, table, column, column))
}

func (postgresDialect) ResetIdentity(tx *gorm.DB, table, column string) error {
	q := fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence(?, ?), COALESCE((SELECT MAX(%q) FROM %q), 0) + 1, false)`,
		column, table,
	)
	return tx.Exec(q, table, column).Error
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return BackendSQLite }

func (sqliteDialect) Contains(column string) string {
	// LIKE is ASCII case-insensitive by default in SQLite.
	return column + ` LIKE ? ESCAPE '\'`
}

func (sqliteDialect) OrderText(column string, desc bool) string {
	return column + " " + direction(desc)
}

func (sqliteDialect) Upsert(columns []string, set clause.Set) clause.Expression {
	return upsert(columns, set)
}

func (sqliteDialect) Accumulate(table, column string) clause.Expr {
	return gorm.Expr(fmt.Sprintf(`%q.%q + excluded.%q`, table, column, column))
}

// ResetIdentity is a no-op: an INTEGER PRIMARY KEY follows MAX(rowid) on its own.
func (sqliteDialect) ResetIdentity(*gorm.DB, string, string) error { return nil }

func direction(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}
