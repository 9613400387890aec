// Package sqlite provides the SQLite-backed ingestion catalog.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/quarrydocs/quarry/internal/adapters/driven/catalog/sqlite/migrations"
	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
)

// Ensure Catalog implements the interface.
var _ driven.Catalog = (*Catalog)(nil)

// Catalog records ingested files in a SQLite database so re-ingestion
// can skip unchanged content.
type Catalog struct {
	db   *sql.DB
	path string
}

// New creates a catalog at the specified data directory. An empty
// dataDir defaults to ~/.quarry/data.
func New(dataDir string) (*Catalog, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".quarry", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "catalog.db")

	// WAL mode for better concurrency between ingest runs and status.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	c := &Catalog{db: db, path: dbPath}
	if err := c.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return c, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Path returns the database file path.
func (c *Catalog) Path() string {
	return c.path
}

// Lookup returns the entry for a source path.
func (c *Catalog) Lookup(ctx context.Context, sourcePath string) (*domain.CatalogEntry, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT document_id, source_path, source_kind, checksum, chunk_count, ingested_at
		FROM ingested_files
		WHERE source_path = ?
	`, sourcePath)

	var entry domain.CatalogEntry
	var checksum int64
	err := row.Scan(&entry.DocumentID, &entry.SourcePath, &entry.SourceKind,
		&checksum, &entry.ChunkCount, &entry.IngestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, sourcePath)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", sourcePath, err)
	}
	entry.Checksum = uint32(checksum)
	return &entry, nil
}

// Record stores or replaces the entry for a source path.
func (c *Catalog) Record(ctx context.Context, entry domain.CatalogEntry) error {
	if entry.IngestedAt.IsZero() {
		entry.IngestedAt = time.Now().UTC()
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO ingested_files (source_path, document_id, source_kind, checksum, chunk_count, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_path) DO UPDATE SET
			document_id = excluded.document_id,
			source_kind = excluded.source_kind,
			checksum = excluded.checksum,
			chunk_count = excluded.chunk_count,
			ingested_at = excluded.ingested_at
	`, entry.SourcePath, entry.DocumentID, entry.SourceKind,
		int64(entry.Checksum), entry.ChunkCount, entry.IngestedAt.UTC())

	if err != nil {
		return fmt.Errorf("recording %s: %w", entry.SourcePath, err)
	}
	return nil
}

// List returns all entries ordered by ingestion time.
func (c *Catalog) List(ctx context.Context) ([]domain.CatalogEntry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT document_id, source_path, source_kind, checksum, chunk_count, ingested_at
		FROM ingested_files
		ORDER BY ingested_at
	`)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.CatalogEntry
	for rows.Next() {
		var entry domain.CatalogEntry
		var checksum int64
		if err := rows.Scan(&entry.DocumentID, &entry.SourcePath, &entry.SourceKind,
			&checksum, &entry.ChunkCount, &entry.IngestedAt); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entry.Checksum = uint32(checksum)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return entries, nil
}

// migrate runs all pending migrations.
func (c *Catalog) migrate(fsys embed.FS) error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := c.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := c.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := c.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}
