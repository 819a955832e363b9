package storage

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Schema and the global category seeds live in embedded migrations so
// both SQL backends start from the same state, the unique name index
// included.
func runMigrations(db *sql.DB, driver string) error {
	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return errors.Wrap(err, "open migration source")
	}

	var m *migrate.Migrate
	switch driver {
	case DriverPostgres:
		d, derr := migratepg.WithInstance(db, &migratepg.Config{})
		if derr != nil {
			return errors.Wrap(derr, "create postgres migration driver")
		}
		m, err = migrate.NewWithInstance("iofs", src, DriverPostgres, d)
	case DriverSQLite:
		d, derr := migratesqlite.WithInstance(db, &migratesqlite.Config{})
		if derr != nil {
			return errors.Wrap(derr, "create sqlite migration driver")
		}
		m, err = migrate.NewWithInstance("iofs", src, DriverSQLite, d)
	default:
		return errors.Errorf("no migrations for driver %q", driver)
	}
	if err != nil {
		return errors.Wrap(err, "create migrate instance")
	}

	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, "apply migrations")
	}
	return nil
}
