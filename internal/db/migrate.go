package db

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/aryanprajapat98/REMS/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// NewMigrator builds a migrator for the configured database and migrations directory.
// Callers must Close it.
func NewMigrator(cfg config.Config) (*migrate.Migrate, error) {
	dir, err := filepath.Abs(cfg.MigrationsPath)
	if err != nil {
		return nil, fmt.Errorf("resolve migrations path: %w", err)
	}
	migrator, err := migrate.New("file://"+filepath.ToSlash(dir), PostgresURL(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("init migrator failed: %w", err)
	}
	return migrator, nil
}

// MigrateUp applies all pending up migrations. It is a no-op when the schema is current.
func MigrateUp(cfg config.Config) error {
	migrator, err := NewMigrator(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up failed: %w", err)
	}
	return nil
}
