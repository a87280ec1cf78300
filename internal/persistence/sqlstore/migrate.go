package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations returns the embedded migration files rooted at their directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		panic(fmt.Sprintf("sqlstore: embedded migrations: %v", err))
	}
	return sub
}

func (d *DB) gooseDialect() goose.Dialect {
	if d.driver == DriverPostgres {
		return goose.DialectPostgres
	}
	return goose.DialectSQLite3
}

// Migrate applies every pending migration.
func (d *DB) Migrate(ctx context.Context) ([]string, error) {
	provider, err := goose.NewProvider(d.gooseDialect(), d.db.DB, Migrations())
	if err != nil {
		return nil, fmt.Errorf("sqlstore: create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: apply migrations: %w", err)
	}
	applied := make([]string, 0, len(results))
	for _, r := range results {
		if r.Source != nil {
			applied = append(applied, r.Source.Path)
		}
	}
	return applied, nil
}

// RunGoose executes an arbitrary goose command (up, down, status, redo,
// reset, version, ...) against the embedded migrations.
func (d *DB) RunGoose(ctx context.Context, command string, args ...string) error {
	goose.SetBaseFS(Migrations())
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(string(d.gooseDialect())); err != nil {
		return fmt.Errorf("sqlstore: goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, d.db.DB, ".", args...); err != nil {
		return fmt.Errorf("sqlstore: goose %s: %w", command, err)
	}
	return nil
}
