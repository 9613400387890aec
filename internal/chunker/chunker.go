// Package chunker splits document text into overlapping chunks at
// separator boundaries.
package chunker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/quarrydocs/quarry/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of characters shared
// between adjacent chunks.
const DefaultChunkOverlap = 200

// separators in decreasing boundary priority: paragraph break, line
// break, word break. When none fits, the chunk is cut at the raw
// size offset.
var separators = [][]rune{{'\n', '\n'}, {'\n'}, {' '}}

// Splitter produces overlapping chunks from document text. Chunk
// boundaries prefer the highest-priority separator that keeps the
// chunk within the configured size; adjacent chunks share the
// configured overlap of source text so retrieval keeps context across
// boundaries. Size and overlap count characters, not bytes, so a cut
// never lands inside a multibyte rune.
//
// A Splitter is stateless and safe for concurrent use.
type Splitter struct {
	chunkSize int
	overlap   int
}

// New creates a splitter. The overlap must be smaller than the chunk
// size, otherwise splitting could never advance.
func New(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", domain.ErrInvalidChunking, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", domain.ErrInvalidChunking, overlap, chunkSize)
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// ChunkSize returns the configured chunk size.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// Chunk splits the document's text into chunks. All chunks of the
// document are produced together: Index is a dense 0-based sequence
// and TotalChunks is the final count, identical on every chunk.
// Empty or whitespace-only text yields no chunks.
func (s *Splitter) Chunk(doc domain.Document) []domain.Chunk {
	text := doc.Text
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pieces := s.split(text)

	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{
			ID:          uuid.New().String(),
			DocumentID:  doc.ID,
			Text:        piece,
			Index:       i,
			TotalChunks: len(pieces),
			Metadata:    make(map[string]any),
		}
	}
	return chunks
}

// split walks the text producing contiguous windows of at most
// chunkSize runes. Each window after the first starts overlap runes
// before the previous window's end, so dropping the first overlap
// runes of every subsequent piece reconstructs the original text.
func (s *Splitter) split(text string) []string {
	runes := []rune(text)
	var pieces []string

	pos := 0
	for {
		end := pos + s.chunkSize
		if end >= len(runes) {
			pieces = append(pieces, string(runes[pos:]))
			return pieces
		}

		end = s.cutPoint(runes, pos, end)
		pieces = append(pieces, string(runes[pos:end]))
		pos = end - s.overlap
	}
}

// cutPoint picks the boundary for a chunk starting at pos with hard
// limit end. It scans for the last occurrence of the highest-priority
// separator, cutting just after it so the separator stays with the
// leading chunk. The cut must land past pos+overlap, or the next chunk
// could not advance; when no separator qualifies, the hard limit wins.
func (s *Splitter) cutPoint(runes []rune, pos, end int) int {
	floor := pos + s.overlap + 1
	for _, sep := range separators {
		if idx := lastIndex(runes[floor:end], sep); idx >= 0 {
			return floor + idx + len(sep)
		}
	}
	return end
}

// lastIndex returns the index of the last occurrence of sep in window,
// or -1 when absent.
func lastIndex(window, sep []rune) int {
	for i := len(window) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if window[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
