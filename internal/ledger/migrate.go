package ledger

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/blameledger/schema"
	"github.com/sirupsen/logrus"
)

// Migrate runs versioned schema migrations on its own connection.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations (to initial state).
// - If targetVersion > 0, it migrates to the specified version.
func Migrate(backend schema.DatabaseBackend, connStr string, targetVersion int, logger *logrus.Logger) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	db, err := openDB(backend, connStr, true)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	var driver database.Driver
	switch backend {
	case schema.MySQLBackend:
		driver, err = migratemysql.WithInstance(db.DB, &migratemysql.Config{})
		if err != nil {
			return fmt.Errorf("failed to create MySQL migrate driver: %w", err)
		}
	case schema.PostgreSQLBackend:
		driver, err = migratepostgres.WithInstance(db.DB, &migratepostgres.Config{})
		if err != nil {
			return fmt.Errorf("failed to create PostgreSQL migrate driver: %w", err)
		}
	default: // SQLite
		driver, err = migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
		if err != nil {
			return fmt.Errorf("failed to create SQLite migrate driver: %w", err)
		}
	}

	sourceDriver, err := iofs.New(migrationsFS, migrationDir(backend))
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "blameledger", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", currentVersion)
	}

	log := logger.WithFields(logrus.Fields{"backend": backend, "from": currentVersion})
	switch {
	case targetVersion < 0:
		err = m.Up()
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to migrate to latest version: %w", err)
		}
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migration needed, database is already at the latest version")
		} else {
			newVersion, _, _ := m.Version()
			log.WithField("to", newVersion).Info("migrated to latest version")
		}

	case targetVersion == 0:
		err = m.Down()
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to roll back to version 0: %w", err)
		}
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migration needed, database is already at version 0")
		} else {
			log.WithField("to", 0).Info("rolled back all migrations")
		}

	default:
		err = m.Migrate(uint(targetVersion))
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to migrate to version %d: %w", targetVersion, err)
		}
		if errors.Is(err, migrate.ErrNoChange) {
			log.WithField("to", targetVersion).Info("no migration needed")
		} else {
			log.WithField("to", targetVersion).Info("migrated")
		}
	}
	return nil
}

// LatestSchemaVersion returns the newest migration embedded for backend.
func LatestSchemaVersion(backend schema.DatabaseBackend) (uint, error) {
	src, err := iofs.New(migrationsFS, migrationDir(backend))
	if err != nil {
		return 0, fmt.Errorf("failed to create migration source: %w", err)
	}
	defer func() { _ = src.Close() }()

	version, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("no migrations for %s: %w", backend, err)
	}
	for {
		next, err := src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			return version, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read migrations for %s: %w", backend, err)
		}
		version = next
	}
}
