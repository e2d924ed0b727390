package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgx5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/yourusername/btcindexer/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationError is the fatal MigrationError kind: the schema could
// not be brought up to date, so startup must abort.
type MigrationError struct {
	Cause error
}

func (e *MigrationError) Error() string { return fmt.Sprintf("migrate: %s", e.Cause) }
func (e *MigrationError) Unwrap() error { return e.Cause }

// Migrate applies every pending migration embedded in the binary,
// equivalent to the original's refinery::embed_migrations! call at
// startup (original_source/indexer/src/database.rs).
func Migrate(cfg config.DatabaseConfig) error {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return &MigrationError{Cause: err}
	}
	defer db.Close()

	driver, err := pgx5.WithInstance(db, &pgx5.Config{})
	if err != nil {
		return &MigrationError{Cause: err}
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return &MigrationError{Cause: err}
	}

	m, err := migrate.NewWithInstance("iofs", source, cfg.Database, driver)
	if err != nil {
		return &MigrationError{Cause: err}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return &MigrationError{Cause: err}
	}
	return nil
}
