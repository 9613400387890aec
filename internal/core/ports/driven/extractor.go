package driven

import (
	"context"

	"github.com/quarrydocs/quarry/internal/core/domain"
)

// Extractor converts raw file bytes into extracted text segments.
// Each extractor handles specific file extensions; multi-part formats
// return one segment per page, sheet or slide.
type Extractor interface {
	// Extensions returns the lower-cased extensions this extractor
	// handles, including the dot (e.g. ".pdf").
	Extensions() []string

	// Extract converts the file content into text segments.
	Extract(ctx context.Context, content []byte) ([]domain.Segment, error)
}

// ExtractorRegistry dispatches extraction by file extension.
type ExtractorRegistry interface {
	// Extract selects the extractor for the file's extension and runs it.
	// Returns domain.ErrUnsupportedFormat for unknown extensions.
	Extract(ctx context.Context, file domain.RawFile) ([]domain.Segment, error)

	// Register adds an extractor to the registry.
	Register(extractor Extractor)

	// SupportedExtensions returns all extensions that can be extracted.
	SupportedExtensions() []string
}
