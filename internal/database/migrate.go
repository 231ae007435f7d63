package database

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/iliyamo/movie-catalog/migrations"
)

// MigrateURL builds the golang-migrate database URL for o.  MySQL needs
// multiStatements because each migration file holds several statements.
func (o Options) MigrateURL() (string, error) {
	switch o.Driver {
	case DriverMySQL, "":
		auth := url.QueryEscape(o.User)
		if o.Pass != "" {
			auth += ":" + url.QueryEscape(o.Pass)
		}
		return fmt.Sprintf("mysql://%s@tcp(%s:%s)/%s?multiStatements=true", auth, o.Host, o.Port, o.Name), nil
	case DriverSQLite:
		path := o.Path
		if path == "" {
			path = "catalog.db"
		}
		return "sqlite3://" + path + "?_foreign_keys=on", nil
	default:
		return "", fmt.Errorf("unsupported db driver %q", o.Driver)
	}
}

// NewMigrator returns a migrator reading the embedded schema for o.Driver.
// The caller must Close it.
func NewMigrator(o Options) (*migrate.Migrate, error) {
	driver := o.Driver
	if driver == "" {
		driver = DriverMySQL
	}
	files, err := migrations.FS(driver)
	if err != nil {
		return nil, err
	}
	src, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	dbURL, err := o.MigrateURL()
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return nil, fmt.Errorf("migration init: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration.  An up-to-date schema is not an
// error.
func MigrateUp(o Options) error {
	m, err := NewMigrator(o)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
