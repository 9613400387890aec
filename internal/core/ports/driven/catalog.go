package driven

import (
	"context"

	"github.com/quarrydocs/quarry/internal/core/domain"
)

// Catalog is the ingestion ledger. It records which files have been
// ingested so unchanged files can be skipped on re-ingestion, and
// backs the status report.
type Catalog interface {
	// Lookup returns the entry for a source path.
	// Returns domain.ErrNotFound when the path was never ingested.
	Lookup(ctx context.Context, sourcePath string) (*domain.CatalogEntry, error)

	// Record stores or replaces the entry for a source path.
	Record(ctx context.Context, entry domain.CatalogEntry) error

	// List returns all entries ordered by ingestion time.
	List(ctx context.Context) ([]domain.CatalogEntry, error)

	// Close releases resources.
	Close() error
}
