package driving

import (
	"context"

	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
)

// Ingestor runs the ingestion pipeline for one source. Failures local
// to a single file or record are isolated and reported in the summary;
// only errors that invalidate the whole run (connector failure, batch
// embedding failure) are returned.
type Ingestor interface {
	// Ingest pulls all files from the connector, normalises, chunks,
	// enriches and stores them. The tags map is merged into every
	// chunk's metadata with caller precedence.
	Ingest(ctx context.Context, connector driven.Connector, tags map[string]any) (*domain.IngestSummary, error)
}
