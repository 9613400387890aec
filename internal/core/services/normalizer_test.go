package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
)

// segmentRegistry returns canned segments for every file.
type segmentRegistry struct {
	segments []domain.Segment
	err      error
}

func (r segmentRegistry) Extract(context.Context, domain.RawFile) ([]domain.Segment, error) {
	return r.segments, r.err
}
func (segmentRegistry) Register(driven.Extractor)     {}
func (segmentRegistry) SupportedExtensions() []string { return nil }

func TestNormalizerNormalizeFile(t *testing.T) {
	ctx := context.Background()

	t.Run("single segment becomes one document", func(t *testing.T) {
		n := NewNormalizer(fakeRegistry{})
		docs, err := n.NormalizeFile(ctx, textFile("/data/notes.txt", "some notes"))
		require.NoError(t, err)
		require.Len(t, docs, 1)

		assert.NotEmpty(t, docs[0].ID)
		assert.Equal(t, "some notes", docs[0].Text)
		assert.Empty(t, docs[0].Part)
		assert.Equal(t, "/data/notes.txt", docs[0].Provenance.SourcePath)
		assert.Equal(t, "notes.txt", docs[0].Provenance.DisplayName)
		assert.Equal(t, "local", docs[0].Provenance.SourceKind)
		assert.Equal(t, "txt", docs[0].Provenance.Extension)
	})

	t.Run("segments of one file share a document ID", func(t *testing.T) {
		n := NewNormalizer(segmentRegistry{segments: []domain.Segment{
			{Text: "first sheet", Part: "sheet:One"},
			{Text: "second sheet", Part: "sheet:Two"},
		}})
		docs, err := n.NormalizeFile(ctx, textFile("/data/book.xlsx", ""))
		require.NoError(t, err)
		require.Len(t, docs, 2)

		assert.Equal(t, docs[0].ID, docs[1].ID)
		assert.Equal(t, "sheet:One", docs[0].Part)
		assert.Equal(t, "sheet:Two", docs[1].Part)
	})

	t.Run("whitespace-only segments are dropped", func(t *testing.T) {
		n := NewNormalizer(segmentRegistry{segments: []domain.Segment{
			{Text: "   \n\t  ", Part: "slide:1"},
			{Text: "real content", Part: "slide:2"},
		}})
		docs, err := n.NormalizeFile(ctx, textFile("/data/deck.pptx", ""))
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "slide:2", docs[0].Part)
	})

	t.Run("extraction failure is an error", func(t *testing.T) {
		n := NewNormalizer(fakeRegistry{})
		file := textFile("/data/image.png", "")
		file.Extension = ".png"

		_, err := n.NormalizeFile(ctx, file)
		require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	})

	t.Run("distinct files get distinct IDs", func(t *testing.T) {
		n := NewNormalizer(fakeRegistry{})
		a, err := n.NormalizeFile(ctx, textFile("/a.txt", "a"))
		require.NoError(t, err)
		b, err := n.NormalizeFile(ctx, textFile("/b.txt", "b"))
		require.NoError(t, err)
		assert.NotEqual(t, a[0].ID, b[0].ID)
	})
}

func TestNormalizerNormalize(t *testing.T) {
	n := NewNormalizer(fakeRegistry{})

	unsupported := textFile("/data/image.png", "")
	unsupported.Extension = ".png"

	docs, skipped := n.Normalize(context.Background(), []domain.RawFile{
		textFile("/a.txt", "alpha"),
		unsupported,
		textFile("/b.txt", "beta"),
	})

	assert.Len(t, docs, 2)
	assert.Equal(t, 1, skipped)
}
