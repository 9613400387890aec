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

// Ensure Xlsx implements the interface.
var _ driven.Extractor = (*Xlsx)(nil)

// Xlsx extracts text from Excel workbooks. Each sheet becomes its own
// segment labelled "sheet:<name>" so provenance survives chunking.
type Xlsx struct{}

// NewXlsx creates an XLSX extractor.
func NewXlsx() *Xlsx {
	return &Xlsx{}
}

// Extensions returns the extensions this extractor handles.
func (e *Xlsx) Extensions() []string {
	return []string{".xlsx"}
}

// Extract returns one segment per sheet, cells joined by spaces and
// rows by newlines. Sheet names come from the workbook manifest; the
// n-th manifest entry labels the n-th worksheet part.
func (e *Xlsx) Extract(_ context.Context, content []byte) ([]domain.Segment, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive", domain.ErrInvalidInput)
	}

	shared := readSharedStrings(reader)
	names := readSheetNames(reader)

	var segments []domain.Segment
	for i := 1; ; i++ {
		raw, err := readArchiveFile(reader, fmt.Sprintf("xl/worksheets/sheet%d.xml", i))
		if err != nil {
			break
		}

		name := fmt.Sprintf("Sheet%d", i)
		if i-1 < len(names) {
			name = names[i-1]
		}
		segments = append(segments, domain.Segment{
			Text: parseWorksheetXML(raw, shared),
			Part: "sheet:" + name,
		})
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no worksheets", domain.ErrInvalidInput)
	}
	return segments, nil
}

// sharedStringsXML mirrors xl/sharedStrings.xml.
type sharedStringsXML struct {
	Items []struct {
		Text string `xml:"t"`
		Runs []struct {
			Text string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

// readSharedStrings loads the shared string table. A workbook without
// one yields an empty table.
func readSharedStrings(reader *zip.Reader) []string {
	raw, err := readArchiveFile(reader, "xl/sharedStrings.xml")
	if err != nil {
		return nil
	}

	var table sharedStringsXML
	if err := xml.Unmarshal(raw, &table); err != nil {
		return nil
	}

	out := make([]string, len(table.Items))
	for i, item := range table.Items {
		if len(item.Runs) == 0 {
			out[i] = item.Text
			continue
		}
		var b strings.Builder
		for _, run := range item.Runs {
			b.WriteString(run.Text)
		}
		out[i] = b.String()
	}
	return out
}

// workbookXML mirrors the sheet manifest in xl/workbook.xml.
type workbookXML struct {
	Sheets struct {
		Sheets []struct {
			Name string `xml:"name,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

func readSheetNames(reader *zip.Reader) []string {
	raw, err := readArchiveFile(reader, "xl/workbook.xml")
	if err != nil {
		return nil
	}

	var workbook workbookXML
	if err := xml.Unmarshal(raw, &workbook); err != nil {
		return nil
	}

	names := make([]string, len(workbook.Sheets.Sheets))
	for i, sheet := range workbook.Sheets.Sheets {
		names[i] = sheet.Name
	}
	return names
}

// worksheetXML mirrors the cell data of one worksheet part.
type worksheetXML struct {
	SheetData struct {
		Rows []struct {
			Cells []struct {
				Type   string `xml:"t,attr"`
				Value  string `xml:"v"`
				Inline struct {
					Text string `xml:"t"`
				} `xml:"is"`
			} `xml:"c"`
		} `xml:"row"`
	} `xml:"sheetData"`
}

// parseWorksheetXML renders cell values, resolving shared string
// references, one line per row.
func parseWorksheetXML(content []byte, shared []string) string {
	var sheet worksheetXML
	if err := xml.Unmarshal(content, &sheet); err != nil {
		return ""
	}

	var rows []string
	for _, row := range sheet.SheetData.Rows {
		var cells []string
		for _, cell := range row.Cells {
			value := cell.Value
			switch cell.Type {
			case "s":
				if idx, ok := sharedIndex(value, len(shared)); ok {
					value = shared[idx]
				}
			case "inlineStr":
				value = cell.Inline.Text
			}
			if value != "" {
				cells = append(cells, value)
			}
		}
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " "))
		}
	}
	return strings.Join(rows, "\n")
}

// sharedIndex parses a shared string reference and bounds-checks it.
func sharedIndex(value string, size int) (int, bool) {
	idx := 0
	if value == "" {
		return 0, false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, false
		}
		idx = idx*10 + int(r-'0')
	}
	return idx, idx < size
}
