package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
)

// Ensure Pptx implements the interface.
var _ driven.Extractor = (*Pptx)(nil)

// Pptx extracts text from PowerPoint presentations. Each slide becomes
// its own segment labelled "slide:<n>".
type Pptx struct{}

// NewPptx creates a PPTX extractor.
func NewPptx() *Pptx {
	return &Pptx{}
}

// Extensions returns the extensions this extractor handles.
func (e *Pptx) Extensions() []string {
	return []string{".pptx"}
}

// Extract returns one segment per slide in slide number order.
func (e *Pptx) Extract(_ context.Context, content []byte) ([]domain.Segment, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive", domain.ErrInvalidInput)
	}

	var segments []domain.Segment
	for i := 1; ; i++ {
		raw, err := readArchiveFile(reader, fmt.Sprintf("ppt/slides/slide%d.xml", i))
		if err != nil {
			break
		}
		segments = append(segments, domain.Segment{
			Text: parseSlideXML(raw),
			Part: fmt.Sprintf("slide:%d", i),
		})
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no slides", domain.ErrInvalidInput)
	}
	return segments, nil
}

// parseSlideXML walks the slide markup collecting the text runs.
// Text runs within one paragraph join with spaces, paragraphs with
// newlines.
func parseSlideXML(content []byte) string {
	decoder := xml.NewDecoder(bytes.NewReader(content))

	var (
		result    strings.Builder
		paragraph []string
		inText    bool
	)

	flush := func() {
		if len(paragraph) == 0 {
			return
		}
		if result.Len() > 0 {
			result.WriteString("\n")
		}
		result.WriteString(strings.Join(paragraph, " "))
		paragraph = paragraph[:0]
	}

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				if text := string(t); text != "" {
					paragraph = append(paragraph, text)
				}
			}
		}
	}
	flush()
	return result.String()
}
