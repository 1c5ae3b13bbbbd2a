package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// SupportsLastInsertId returns true if the driver supports LastInsertId()
	SupportsLastInsertId() bool

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// AutoIncrementPK returns the column definition for an auto-incrementing primary key
	AutoIncrementPK() string

	// StringKeyType returns the column type for indexable string keys
	// (MySQL cannot put a unique index on an unbounded TEXT column)
	StringKeyType() string

	// LeastFunc returns the SQL function returning the smaller of two values
	LeastFunc() string

	// GreatestFunc returns the SQL function returning the larger of two values
	GreatestFunc() string

	// InsertIgnore rewrites an INSERT statement so that a unique-constraint
	// conflict is silently ignored instead of raising an error
	InsertIgnore(insertQuery string) string

	// ColumnExists reports whether a column is present on a table
	ColumnExists(db *sql.DB, table, column string) (bool, error)
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders not inside quotes
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}
