package services

import (
	"context"
	"fmt"
	"hash/crc32"
	"sync"
	"time"

	"github.com/quarrydocs/quarry/internal/chunker"
	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
	"github.com/quarrydocs/quarry/internal/core/ports/driving"
	"github.com/quarrydocs/quarry/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// DefaultWorkers bounds concurrent per-file processing. Extraction and
// normalisation of different files are independent; the bound keeps
// extraction and provider rate limits manageable.
const DefaultWorkers = 4

// IngestService coordinates one ingestion run: files stream from the
// connector into a bounded worker pool (extract, normalise, chunk,
// enrich per file), and all resulting chunks are persisted in a single
// batched insert at the end to amortise the embedding call.
type IngestService struct {
	normalizer *Normalizer
	splitter   *chunker.Splitter
	enricher   *Enricher
	gateway    *VectorGateway
	catalog    driven.Catalog
	workers    int
}

// NewIngestService creates an ingest service. The catalog is optional;
// without it every file is re-ingested regardless of changes.
func NewIngestService(
	normalizer *Normalizer,
	splitter *chunker.Splitter,
	enricher *Enricher,
	gateway *VectorGateway,
	catalog driven.Catalog,
	workers int,
) *IngestService {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &IngestService{
		normalizer: normalizer,
		splitter:   splitter,
		enricher:   enricher,
		gateway:    gateway,
		catalog:    catalog,
		workers:    workers,
	}
}

// fileResult collects what one file contributed to the run.
type fileResult struct {
	path       string
	sourceKind string
	documentID string
	checksum   uint32
	chunkIDs   []string
}

// Ingest pulls all files from the connector and runs them through the
// pipeline. Per-file failures are isolated and counted; a connector
// failure or a failed batch embedding aborts the run.
func (s *IngestService) Ingest(ctx context.Context, connector driven.Connector, tags map[string]any) (*domain.IngestSummary, error) {
	logger.Section("Ingestion")
	logger.Info("Source: %s", connector.Type())

	filesCh, errsCh := connector.FullSync(ctx)

	var (
		mu      sync.Mutex
		chunks  []domain.Chunk
		files   []fileResult
		skipped int
	)

	var wg sync.WaitGroup
	for range s.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range filesCh {
				select {
				case <-ctx.Done():
					return
				default:
				}

				fileChunks, result, ok := s.processFile(ctx, file, tags)

				mu.Lock()
				if !ok {
					skipped++
				} else {
					chunks = append(chunks, fileChunks...)
					files = append(files, result)
				}
				mu.Unlock()
			}
		}()
	}

	// Drain the error channel alongside the workers; the first
	// connector error fails the run once processing has stopped.
	var connErr error
	errDone := make(chan struct{})
	go func() {
		defer close(errDone)
		for err := range errsCh {
			if connErr == nil {
				connErr = err
			}
		}
	}()

	wg.Wait()
	<-errDone

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if connErr != nil {
		return nil, fmt.Errorf("connector error: %w", connErr)
	}

	report, err := s.gateway.InsertBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("insert batch: %w", err)
	}

	s.recordCatalog(ctx, files, report)

	summary := &domain.IngestSummary{
		ChunksFound:    len(chunks),
		ChunksStored:   report.Succeeded,
		ChunksFailed:   len(report.FailedChunkIDs),
		FilesProcessed: len(files),
		FilesSkipped:   skipped,
	}
	logger.Info("Ingestion complete: %d chunks stored, %d failed, %d files skipped",
		summary.ChunksStored, summary.ChunksFailed, summary.FilesSkipped)
	return summary, nil
}

// processFile runs one file through normalise, chunk and enrich.
// Returns ok=false when the file was skipped (unchanged, extraction
// failure, or no usable text).
func (s *IngestService) processFile(ctx context.Context, file domain.RawFile, tags map[string]any) ([]domain.Chunk, fileResult, bool) {
	checksum := crc32.Checksum(file.Content, crc32.IEEETable)

	if s.catalog != nil {
		entry, err := s.catalog.Lookup(ctx, file.Path)
		if err == nil && entry.Checksum == checksum {
			logger.Debug("Unchanged, skipping: %s", file.Path)
			return nil, fileResult{}, false
		}
	}

	docs, err := s.normalizer.NormalizeFile(ctx, file)
	if err != nil {
		logger.Warn("Skipping %s: %v", file.Path, err)
		return nil, fileResult{}, false
	}
	if len(docs) == 0 {
		logger.Debug("No text in %s, skipping", file.Path)
		return nil, fileResult{}, false
	}

	result := fileResult{
		path:       file.Path,
		sourceKind: file.SourceKind,
		documentID: docs[0].ID,
		checksum:   checksum,
	}

	var fileChunks []domain.Chunk
	for _, doc := range docs {
		for _, chunk := range s.splitter.Chunk(doc) {
			if doc.Part != "" {
				chunk.Metadata[domain.MetaSegment] = doc.Part
			}
			chunk = s.enricher.Enrich(chunk, doc.Provenance, tags)
			fileChunks = append(fileChunks, chunk)
			result.chunkIDs = append(result.chunkIDs, chunk.ID)
		}
	}
	logger.Debug("Processed %s: %d chunks", file.Path, len(fileChunks))
	return fileChunks, result, true
}

// recordCatalog updates the ingestion ledger with per-file stored
// chunk counts. Catalog failures are logged, never fatal.
func (s *IngestService) recordCatalog(ctx context.Context, files []fileResult, report domain.InsertReport) {
	if s.catalog == nil {
		return
	}

	failed := make(map[string]struct{}, len(report.FailedChunkIDs))
	for _, id := range report.FailedChunkIDs {
		failed[id] = struct{}{}
	}

	for _, file := range files {
		stored := 0
		for _, id := range file.chunkIDs {
			if _, bad := failed[id]; !bad {
				stored++
			}
		}
		entry := domain.CatalogEntry{
			DocumentID: file.documentID,
			SourcePath: file.path,
			SourceKind: file.sourceKind,
			Checksum:   file.checksum,
			ChunkCount: stored,
			IngestedAt: time.Now(),
		}
		if err := s.catalog.Record(ctx, entry); err != nil {
			logger.Warn("Catalog update failed for %s: %v", file.path, err)
		}
	}
}
