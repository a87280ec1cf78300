package sqlstore

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds connection settings for the SQL backed store.
type Config struct {
	// Driver selects the database engine: "sqlite" or "postgres".
	Driver string

	// DSN is a SQLite file path (or file: URI) or a Postgres connection URL.
	DSN string

	// BusyTimeout sets how long SQLite waits for database locks.
	BusyTimeout time.Duration

	// JournalMode sets the SQLite journal mode (WAL, DELETE, ...).
	JournalMode string

	// Synchronous sets the SQLite synchronous mode (FULL, NORMAL, OFF).
	Synchronous string

	// EnableForeignKeys enables SQLite foreign key checking.
	EnableForeignKeys bool

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns production settings for the given driver.
func DefaultConfig(driver, dsn string) Config {
	cfg := Config{
		Driver:          strings.ToLower(strings.TrimSpace(driver)),
		DSN:             dsn,
		ConnMaxLifetime: time.Hour,
	}
	switch cfg.Driver {
	case DriverSQLite:
		cfg.BusyTimeout = 5 * time.Second
		cfg.JournalMode = "WAL"
		cfg.Synchronous = "NORMAL"
		cfg.EnableForeignKeys = true
		// A single connection serialises writers and avoids SQLITE_BUSY on
		// read to write lock upgrades inside transactions.
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
	case DriverPostgres:
		cfg.MaxOpenConns = 10
		cfg.MaxIdleConns = 5
	}
	return cfg
}

// TempFileTestConfig returns SQLite settings for a throwaway database file.
func TempFileTestConfig(path string) Config {
	cfg := DefaultConfig(DriverSQLite, path)
	cfg.JournalMode = "DELETE"
	cfg.Synchronous = "OFF"
	return cfg
}

// Validate checks the configuration for obvious mistakes.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("sqlstore: DSN cannot be empty")
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("sqlstore: BusyTimeout cannot be negative")
	}
	switch c.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("sqlstore: unsupported driver %q", c.Driver)
	}

	validJournalModes := map[string]bool{"": true, "DELETE": true, "TRUNCATE": true, "PERSIST": true, "MEMORY": true, "WAL": true, "OFF": true}
	if !validJournalModes[strings.ToUpper(c.JournalMode)] {
		return fmt.Errorf("sqlstore: invalid journal mode: %s", c.JournalMode)
	}
	validSyncModes := map[string]bool{"": true, "OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true}
	if !validSyncModes[strings.ToUpper(c.Synchronous)] {
		return fmt.Errorf("sqlstore: invalid synchronous mode: %s", c.Synchronous)
	}
	return nil
}

// sqliteDSN renders the DSN with pragmas attached so that every pooled
// connection is configured identically.
func (c Config) sqliteDSN() string {
	pragmas := make([]string, 0, 4)
	if c.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	}
	if c.JournalMode != "" {
		pragmas = append(pragmas, fmt.Sprintf("journal_mode(%s)", strings.ToUpper(c.JournalMode)))
	}
	if c.Synchronous != "" {
		pragmas = append(pragmas, fmt.Sprintf("synchronous(%s)", strings.ToUpper(c.Synchronous)))
	}
	if c.EnableForeignKeys {
		pragmas = append(pragmas, "foreign_keys(1)")
	}
	if len(pragmas) == 0 {
		return c.DSN
	}

	values := url.Values{}
	for _, p := range pragmas {
		values.Add("_pragma", p)
	}

	dsn := c.DSN
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + values.Encode()
}

// ensureDatabaseDir creates the parent directory of a SQLite file.
func (c Config) ensureDatabaseDir() error {
	path := strings.TrimPrefix(c.DSN, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("sqlstore: create database directory %s: %w", dir, err)
	}
	return nil
}
