package extractors

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches extraction by lower-cased file extension.
type Registry struct {
	byExtension map[string]driven.Extractor
}

// NewRegistry creates a registry with all built-in extractors.
func NewRegistry() *Registry {
	r := &Registry{byExtension: make(map[string]driven.Extractor)}
	r.Register(NewPlainText())
	r.Register(NewPDF())
	r.Register(NewDocx())
	r.Register(NewXlsx())
	r.Register(NewPptx())
	return r
}

// NewEmptyRegistry creates a registry without extractors.
func NewEmptyRegistry() *Registry {
	return &Registry{byExtension: make(map[string]driven.Extractor)}
}

// Register adds an extractor. A later registration for the same
// extension replaces the earlier one.
func (r *Registry) Register(extractor driven.Extractor) {
	for _, ext := range extractor.Extensions() {
		r.byExtension[strings.ToLower(ext)] = extractor
	}
}

// Extract selects the extractor for the file's extension and runs it.
func (r *Registry) Extract(ctx context.Context, file domain.RawFile) ([]domain.Segment, error) {
	extractor, ok := r.byExtension[strings.ToLower(file.Extension)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, file.Extension)
	}
	return extractor.Extract(ctx, file.Content)
}

// SupportedExtensions returns all registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
