package extractors

import (
	"bytes"
	"context"
	"fmt"

	"code.sajari.com/docconv/v2"

	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
)

// Ensure PDF implements the interface.
var _ driven.Extractor = (*PDF)(nil)

// PDF extracts text from PDF documents via docconv.
type PDF struct{}

// NewPDF creates a PDF extractor.
func NewPDF() *PDF {
	return &PDF{}
}

// Extensions returns the extensions this extractor handles.
func (e *PDF) Extensions() []string {
	return []string{".pdf"}
}

// Extract converts the PDF into a single text segment.
func (e *PDF) Extract(_ context.Context, content []byte) ([]domain.Segment, error) {
	res, err := docconv.Convert(bytes.NewReader(content), "application/pdf", true)
	if err != nil {
		return nil, fmt.Errorf("convert pdf: %w", err)
	}
	return []domain.Segment{{Text: res.Body}}, nil
}
