package migrations

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed *.sql
var migrationsFS embed.FS

func migrator(dbx *sqlx.DB) (*migrate.Migrate, error) {
	d, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return nil, fmt.Errorf("error creating migrations source: %s", err)
	}
	i, err := sqlite.WithInstance(dbx.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("error creating sqlite instance for migration: %s", err)
	}
	m, err := migrate.NewWithInstance("iofs", d, "sqlite3", i)
	if err != nil {
		return nil, fmt.Errorf("error creating migrator: %s", err)
	}

	return m, nil
}

// Performs all migrations in the given filesystem.
func Run(dbx *sqlx.DB) error {
	m, err := migrator(dbx)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error migrating: %s", err)
	}
	slog.Info("migrated")

	return nil
}

// Reset rolls every migration back and applies them again, leaving an
// empty schema.
func Reset(dbx *sqlx.DB) error {
	m, err := migrator(dbx)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error rolling back: %s", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error migrating: %s", err)
	}
	slog.Info("database reset")

	return nil
}
