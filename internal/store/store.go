// Package store keeps templates in a SQL table so they can be served
// without a templates directory. It works with SQLite (modernc.org/sqlite)
// and PostgreSQL (pgx) and implements template.Source and template.Lister.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"              // registers the "sqlite" driver

	"github.com/leapstack-labs/leaptmpl/pkg/template"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const upsertSQL = `INSERT INTO templates (id, name, body, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`

// Record is a stored template.
type Record struct {
	ID        string
	Name      string
	Body      string
	UpdatedAt time.Time
}

// Store is a SQL-backed template source.
type Store struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
	now    func() time.Time
}

var (
	_ template.Source = (*Store)(nil)
	_ template.Lister = (*Store)(nil)
)

// New wraps an open database. It does not run migrations.
func New(db *sql.DB, driver string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		db:     db,
		driver: driver,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Open connects to the database named by driver and dsn and migrates it.
// For SQLite a file DSN has its parent directory created.
// Use ":memory:" for an in-memory database.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Store, error) {
	var (
		sqlDriver string
		conn      = dsn
	)
	switch driver {
	case DriverSQLite:
		sqlDriver = "sqlite"
		if dsn == "" {
			return nil, fmt.Errorf("sqlite store requires a dsn")
		}
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if dir := filepath.Dir(dsn); dir != "." {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return nil, fmt.Errorf("failed to create store directory: %w", err)
				}
			}
			conn = dsn + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		sqlDriver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sql.Open(sqlDriver, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if dsn == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	s := New(db, driver, logger)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying connection.
func (s *Store) DB() *sql.DB { return s.db }

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Put creates or replaces the template stored under name.
func (s *Store) Put(ctx context.Context, name, body string) error {
	if name == "" {
		return fmt.Errorf("template name is required")
	}
	_, err := s.db.ExecContext(ctx, s.rebind(upsertSQL),
		uuid.New().String(), name, body, s.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to put template %s: %w", name, err)
	}
	s.logger.Debug("template stored", "name", name, "bytes", len(body))
	return nil
}

// Get returns the stored record for name. A missing name yields a
// *template.NotFoundError.
func (s *Store) Get(ctx context.Context, name string) (*Record, error) {
	rec := &Record{}
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, name, body, updated_at FROM templates WHERE name = ?`), name,
	).Scan(&rec.ID, &rec.Name, &rec.Body, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &template.NotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template %s: %w", name, err)
	}
	return rec, nil
}

// Load implements template.Source.
func (s *Store) Load(ctx context.Context, name string) (string, error) {
	rec, err := s.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return rec.Body, nil
}

// List implements template.Lister. Names are sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan template name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return names, nil
}

// Delete removes name. Deleting a missing name yields a *template.NotFoundError.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM templates WHERE name = ?`), name)
	if err != nil {
		return fmt.Errorf("failed to delete template %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete template %s: %w", name, err)
	}
	if n == 0 {
		return &template.NotFoundError{Name: name}
	}
	s.logger.Debug("template deleted", "name", name)
	return nil
}

// ImportFS stores every template of src, a file system source, in one
// transaction and returns the imported names.
func (s *Store) ImportFS(ctx context.Context, src *template.FSSource) ([]string, error) {
	names, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates to import: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(upsertSQL))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare import: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := s.now()
	for _, name := range names {
		body, err := src.Load(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if _, err := stmt.ExecContext(ctx, uuid.New().String(), name, body, now); err != nil {
			return nil, fmt.Errorf("failed to import %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}
	s.logger.Info("templates imported", "count", len(names))
	return names, nil
}
