package store

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

func setupGoose(driver string) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	dialect := "sqlite"
	if driver == DriverPostgres {
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

// Migrate runs all pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setupGoose(s.driver); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the current schema version.
func (s *Store) MigrationVersion(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setupGoose(s.driver); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, s.db)
}
