package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SchemaVersion is stamped into PRAGMA user_version of every world database.
// Bump it whenever schema.sql changes incompatibly.
const SchemaVersion = 1

// connParams are go-sqlite3 DSN options applied to every connection the
// pool opens. foreign_keys is per connection in SQLite, so it cannot be a
// one-off PRAGMA.
var connParams = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"on"},
}

// SchemaVersionError is returned when a database was written by a newer
// schema than this build understands.
type SchemaVersionError struct {
	Path  string
	Found int
}

func (e *SchemaVersionError) Error() string {
	return fmt.Sprintf("%s: world schema version %d is newer than supported version %d",
		e.Path, e.Found, SchemaVersion)
}

// Store holds the entity world and the visits log.
type Store struct {
	db *sql.DB
}

// Open creates or opens the world database at path.
//
// A fresh file gets the schema and the current SchemaVersion. An existing
// file stamped with a newer version is refused with *SchemaVersionError
// rather than written to.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?"+connParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := initSchema(db, path); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenMemory opens a private in-memory world. Used by the test harness.
func OpenMemory() (*Store, error) {
	return Open(":memory:")
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB, path string) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > SchemaVersion {
		return &SchemaVersionError{Path: path, Found: version}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if version < SchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}
	}
	return nil
}
