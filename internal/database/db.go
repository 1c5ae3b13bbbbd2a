package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lingotrack/internal/logging"
)

// DB wraps the database connection with dialect support
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Options selects the backend and its connection parameters.
// The shared content schema and the per-user schema are two logical
// stores: on SQLite they live in separate files, on a server backend
// they share one connection.
type Options struct {
	Type          string
	URL           string
	ContentDBPath string
	UserDBPath    string
}

// Stores holds the handles for the two logical schemas
type Stores struct {
	Content *DB
	User    *DB
}

// Close closes both handles (once, when they share a connection)
func (s *Stores) Close() error {
	if s.User != nil && s.User != s.Content {
		if err := s.User.Close(); err != nil {
			return err
		}
	}
	if s.Content != nil {
		return s.Content.Close()
	}
	return nil
}

// Open creates and configures a single database connection
func Open(dialect Dialect, dialectConfig DialectConfig) (*DB, error) {
	db, err := sql.Open(dialect.DriverName(), dialect.DSN(dialectConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Apply dialect-specific configuration
	if err := dialect.ConfigureConnection(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

// OpenStores opens the content and user stores per the configured backend.
// A configured server backend that fails its connectivity probe falls back
// to SQLite; the probe gates the choice once at startup, there is no
// runtime retry.
func OpenStores(opts Options, log *logging.Logger) (*Stores, error) {
	switch strings.ToLower(opts.Type) {
	case "postgres", "postgresql":
		db, err := Open(NewPostgresDialect(), DialectConfig{URL: opts.URL})
		if err == nil {
			return &Stores{Content: db, User: db}, nil
		}
		log.Warn("postgres unreachable, falling back to sqlite", "error", err)
	case "mysql":
		db, err := Open(NewMySQLDialect(), DialectConfig{URL: opts.URL})
		if err == nil {
			return &Stores{Content: db, User: db}, nil
		}
		log.Warn("mysql unreachable, falling back to sqlite", "error", err)
	case "sqlite", "sqlite3", "":
		// fall through to the sqlite path below
	default:
		return nil, fmt.Errorf("unsupported database type: %s", opts.Type)
	}

	content, err := openSQLiteFile(opts.ContentDBPath)
	if err != nil {
		return nil, err
	}
	user, err := openSQLiteFile(opts.UserDBPath)
	if err != nil {
		content.Close()
		return nil, err
	}
	return &Stores{Content: content, User: user}, nil
}

func openSQLiteFile(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return Open(NewSQLiteDialect(), DialectConfig{Path: path})
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Query executes a query with automatic placeholder rewriting
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.DB.Query(db.Dialect.RewriteQuery(query), args...)
}

// QueryRow executes a query that returns a single row with automatic placeholder rewriting
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRow(db.Dialect.RewriteQuery(query), args...)
}

// Exec executes a query that doesn't return rows with automatic placeholder rewriting
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.DB.Exec(db.Dialect.RewriteQuery(query), args...)
}

// ExecReturningID executes an INSERT query and returns the new row's ID
// This handles the dialect difference between databases that support LastInsertId()
// and PostgreSQL which requires RETURNING clause
func (db *DB) ExecReturningID(query string, args ...interface{}) (int64, error) {
	rewrittenQuery := db.Dialect.RewriteQuery(query)

	if db.Dialect.SupportsLastInsertId() {
		result, err := db.DB.Exec(rewrittenQuery, args...)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	// PostgreSQL: append RETURNING id and use QueryRow
	rewrittenQuery = strings.TrimSuffix(strings.TrimSpace(rewrittenQuery), ";")
	rewrittenQuery += " RETURNING id"

	var id int64
	err := db.DB.QueryRow(rewrittenQuery, args...).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}
