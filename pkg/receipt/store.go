// Package receipt keeps a local record of every verified install so
// installed binaries can be listed and re-verified later.
package receipt

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Receipt is one recorded install.
type Receipt struct {
	Name        string
	SourceURL   string
	Digest      string
	InstallPath string
	Mode        fs.FileMode
	InstalledAt time.Time
}

// Store is an append-only receipt log backed by sqlite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the receipt database at path and
// brings its schema up to date.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open receipt database: %w", err)
	}
	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate receipt database: %w", err)
	}
	return &Store{db: db}, nil
}

func applyMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Record appends a receipt. InstalledAt defaults to now.
func (s *Store) Record(r Receipt) error {
	if r.InstalledAt.IsZero() {
		r.InstalledAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO receipts (name, source_url, digest, install_path, mode, installed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.Name, r.SourceURL, r.Digest, r.InstallPath, uint32(r.Mode),
		r.InstalledAt.UTC().Format(time.RFC3339),
	)
	return err
}

// List returns all receipts, newest first.
func (s *Store) List() ([]Receipt, error) {
	rows, err := s.db.Query(
		`SELECT name, source_url, digest, install_path, mode, installed_at
		 FROM receipts ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReceipts(rows)
}

// Latest returns the most recent receipt per artifact name, ordered by
// name.
func (s *Store) Latest() ([]Receipt, error) {
	rows, err := s.db.Query(
		`SELECT r.name, r.source_url, r.digest, r.install_path, r.mode, r.installed_at
		 FROM receipts r
		 JOIN (SELECT name, MAX(id) AS max_id FROM receipts GROUP BY name) latest
		   ON r.id = latest.max_id
		 ORDER BY r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReceipts(rows)
}

func scanReceipts(rows *sql.Rows) ([]Receipt, error) {
	var receipts []Receipt
	for rows.Next() {
		var r Receipt
		var mode uint32
		var installedAt string
		if err := rows.Scan(&r.Name, &r.SourceURL, &r.Digest, &r.InstallPath, &mode, &installedAt); err != nil {
			return nil, err
		}
		r.Mode = fs.FileMode(mode)
		ts, err := time.Parse(time.RFC3339, installedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid installed_at %q: %w", installedAt, err)
		}
		r.InstalledAt = ts
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
