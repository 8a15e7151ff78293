// Package migrations embeds the SQL schema of the metadata and option tables.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// FS contains the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS

// Dialect is the goose dialect matching the modernc SQLite driver.
const Dialect = "sqlite3"

// Setup points goose at the embedded files and the SQLite dialect.
func Setup() error {
	goose.SetBaseFS(FS)
	if err := goose.SetDialect(Dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return nil
}

// Run applies all pending migrations to the given database without
// printing goose progress.
func Run(db *sql.DB) error {
	if err := Setup(); err != nil {
		return err
	}
	goose.SetLogger(goose.NopLogger())

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
