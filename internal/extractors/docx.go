package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
)

// Ensure Docx implements the interface.
var _ driven.Extractor = (*Docx)(nil)

// Docx extracts text from Word documents by reading the main document
// part of the OOXML archive directly.
type Docx struct{}

// NewDocx creates a DOCX extractor.
func NewDocx() *Docx {
	return &Docx{}
}

// Extensions returns the extensions this extractor handles.
func (e *Docx) Extensions() []string {
	return []string{".docx"}
}

// Extract returns the document body as a single segment, paragraphs
// separated by newlines.
func (e *Docx) Extract(_ context.Context, content []byte) ([]domain.Segment, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive", domain.ErrInvalidInput)
	}

	raw, err := readArchiveFile(reader, "word/document.xml")
	if err != nil {
		return nil, err
	}

	return []domain.Segment{{Text: parseDocumentXML(raw)}}, nil
}

// documentXML mirrors the parts of word/document.xml we read.
type documentXML struct {
	Body struct {
		Paragraphs []docParagraph `xml:"p"`
	} `xml:"body"`
}

type docParagraph struct {
	Runs []docRun `xml:"r"`
}

type docRun struct {
	Text []docText `xml:"t"`
}

type docText struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML joins all paragraph runs, one line per paragraph.
func parseDocumentXML(content []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, text := range run.Text {
				result.WriteString(text.Content)
			}
		}
	}
	return result.String()
}

// readArchiveFile returns the content of one file inside the archive.
func readArchiveFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return content, nil
	}
	return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, name)
}
