package extractors

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
)

// Ensure PlainText implements the interface.
var _ driven.Extractor = (*PlainText)(nil)

// PlainText handles formats whose bytes already are the text.
type PlainText struct{}

// NewPlainText creates a plain text extractor.
func NewPlainText() *PlainText {
	return &PlainText{}
}

// Extensions returns the extensions this extractor handles.
func (e *PlainText) Extensions() []string {
	return []string{".txt", ".md", ".csv", ".log"}
}

// Extract returns the content as a single segment. Content that is not
// valid UTF-8 is rejected rather than stored corrupted.
func (e *PlainText) Extract(_ context.Context, content []byte) ([]domain.Segment, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: not valid UTF-8", domain.ErrInvalidInput)
	}
	return []domain.Segment{{Text: string(content)}}, nil
}
