package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SchemaState is the migration version recorded in the ledger database.
// Version 0 means no migration has run yet.
type SchemaState struct {
	Version uint
	Dirty   bool
}

func (s SchemaState) String() string {
	if s.Dirty {
		return fmt.Sprintf("%d (dirty)", s.Version)
	}
	return fmt.Sprintf("%d", s.Version)
}

// Migrate applies every pending migration to the database at dbPath and
// returns the resulting state. Running it on an up-to-date schema is a no-op.
func Migrate(dbPath string) (SchemaState, error) {
	m, err := newMigrator(dbPath)
	if err != nil {
		return SchemaState{}, err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return SchemaState{}, fmt.Errorf("apply migrations: %w", err)
	}
	return schemaState(m)
}

// Status reports the schema state without changing it.
func Status(dbPath string) (SchemaState, error) {
	m, err := newMigrator(dbPath)
	if err != nil {
		return SchemaState{}, err
	}
	defer m.Close()
	return schemaState(m)
}

// newMigrator gets its own handle: closing the migrator closes the database
// it was built on.
func newMigrator(dbPath string) (*migrate.Migrate, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger database for migration: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("embedded ledger migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger migrator: %w", err)
	}
	return m, nil
}

func schemaState(m *migrate.Migrate) (SchemaState, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaState{}, nil
	}
	if err != nil {
		return SchemaState{}, fmt.Errorf("read schema version: %w", err)
	}
	return SchemaState{Version: version, Dirty: dirty}, nil
}
