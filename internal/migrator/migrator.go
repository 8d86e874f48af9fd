// Package migrator handles database schema migrations using golang-migrate.
package migrator

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrator manages database migrations sourced from an fs.FS of .sql files.
type Migrator struct {
	migrationsFS fs.FS
}

// NewWithFS creates a new Migrator reading migrations from the given filesystem.
func NewWithFS(migrationsFS fs.FS) (*Migrator, error) {
	if migrationsFS == nil {
		return nil, errors.New("migrationsFS cannot be nil")
	}
	return &Migrator{migrationsFS: migrationsFS}, nil
}

// Up runs all pending migrations against the database at databaseURL.
func (m *Migrator) Up(databaseURL string) error {
	if databaseURL == "" {
		return errors.New("database URL cannot be empty")
	}

	sourceDriver, err := iofs.New(m.migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	// the pgx/v5 driver registers under its own scheme
	url := databaseURL
	if rest, ok := strings.CutPrefix(url, "postgres://"); ok {
		url = "pgx5://" + rest
	} else if rest, ok := strings.CutPrefix(url, "postgresql://"); ok {
		url = "pgx5://" + rest
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", sourceDriver, url)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
