package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/example/roombooking/internal/persistence"
)

// dialect captures the few statements that differ between engines.
type dialect struct {
	driverName string
	// fieldEquals compares a top level JSON string field; it takes the
	// field path and the expected value as bind parameters.
	fieldEquals   string
	fieldPath     func(field string) string
	lockForUpdate string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		driverName:  "sqlite",
		fieldEquals: "json_extract(data, ?) = ?",
		fieldPath:   func(field string) string { return "$." + field },
	},
	DriverPostgres: {
		driverName:    "pgx",
		fieldEquals:   "(data::jsonb ->> CAST(? AS TEXT)) = ?",
		fieldPath:     func(field string) string { return field },
		lockForUpdate: " FOR UPDATE",
	},
}

// DB wraps a sqlx connection pool together with its dialect.
type DB struct {
	db      *sqlx.DB
	driver  string
	dialect dialect
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := dialects[cfg.Driver]

	dsn := cfg.DSN
	if cfg.Driver == DriverSQLite {
		if err := cfg.ensureDatabaseDir(); err != nil {
			return nil, err
		}
		dsn = cfg.sqliteDSN()
	}

	db, err := sqlx.ConnectContext(ctx, d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: connect %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return &DB{db: db, driver: cfg.Driver, dialect: d}, nil
}

// SQL exposes the underlying database handle.
func (d *DB) SQL() *sql.DB {
	return d.db.DB
}

// Driver reports the configured engine.
func (d *DB) Driver() string {
	return d.driver
}

// Close releases the connection pool.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Ping tests the database connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// TransactionFunc represents a function that executes within a transaction.
type TransactionFunc func(tx *sqlx.Tx) error

// WithTransaction runs fn inside a transaction, rolling back when fn returns
// an error or panics and committing otherwise.
func (d *DB) WithTransaction(ctx context.Context, fn TransactionFunc) (err error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("sqlstore: transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit transaction: %w", err)
	}
	return nil
}

// mapError translates driver errors into persistence errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
		case "23502", "23503", "23514":
			return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
		}
		return err
	}

	msg := err.Error()
	switch {
	case containsAny(msg, "UNIQUE constraint failed", "PRIMARY KEY constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case containsAny(msg, "NOT NULL constraint failed", "FOREIGN KEY constraint failed", "CHECK constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return err
}

func containsAny(s string, substrings ...string) bool {
	for _, substr := range substrings {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
