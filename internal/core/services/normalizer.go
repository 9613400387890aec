package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
	"github.com/quarrydocs/quarry/internal/logger"
)

// Normalizer turns raw files into canonical Documents. Every segment
// extracted from one physical file shares a single freshly assigned
// document ID; a multi-sheet or multi-slide file yields one Document
// per segment under that shared ID.
//
// Normalisation fails softly per file: a file whose extraction fails
// is skipped and logged, and the rest of the batch continues. This is
// the only place unsupported file types are dropped.
type Normalizer struct {
	extractors driven.ExtractorRegistry
}

// NewNormalizer creates a normalizer over the given extractor registry.
func NewNormalizer(extractors driven.ExtractorRegistry) *Normalizer {
	return &Normalizer{extractors: extractors}
}

// NormalizeFile extracts and normalises one file. Returns the file's
// documents, all sharing one document ID. Whitespace-only segments are
// dropped; a file with no usable text yields zero documents and no
// error.
func (n *Normalizer) NormalizeFile(ctx context.Context, file domain.RawFile) ([]domain.Document, error) {
	segments, err := n.extractors.Extract(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", file.Path, err)
	}

	prov := domain.Provenance{
		SourcePath:  file.Path,
		DisplayName: file.Name,
		SourceKind:  file.SourceKind,
		Extension:   strings.TrimPrefix(file.Extension, "."),
	}

	docID := uuid.New().String()
	docs := make([]domain.Document, 0, len(segments))
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		docs = append(docs, domain.Document{
			ID:         docID,
			Text:       seg.Text,
			Part:       seg.Part,
			Provenance: prov,
		})
	}
	return docs, nil
}

// Normalize processes a batch of files, skipping the ones that fail.
// Returns the normalised documents and the number of skipped files.
func (n *Normalizer) Normalize(ctx context.Context, files []domain.RawFile) ([]domain.Document, int) {
	var docs []domain.Document
	skipped := 0

	for _, file := range files {
		fileDocs, err := n.NormalizeFile(ctx, file)
		if err != nil {
			logger.Warn("Skipping %s: %v", file.Path, err)
			skipped++
			continue
		}
		docs = append(docs, fileDocs...)
	}
	return docs, skipped
}
