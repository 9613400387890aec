package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydocs/quarry/internal/core/domain"
)

func TestEnricherEnrich(t *testing.T) {
	prov := domain.Provenance{
		SourcePath:  "/data/report.pdf",
		DisplayName: "report.pdf",
		SourceKind:  "local",
		Extension:   "pdf",
	}
	chunk := domain.Chunk{
		ID:          "chunk-1",
		DocumentID:  "doc-1",
		Text:        "hello",
		Index:       2,
		TotalChunks: 5,
	}

	t.Run("applies all layers", func(t *testing.T) {
		enricher := NewEnricher("")
		out := enricher.Enrich(chunk, prov, nil)

		assert.Equal(t, domain.DefaultRecordType, out.Metadata[domain.MetaType])
		assert.Equal(t, domain.DefaultTenantID, out.Metadata[domain.MetaTenantID])
		assert.Equal(t, "/data/report.pdf", out.Metadata[domain.MetaSource])
		assert.Equal(t, "report.pdf", out.Metadata[domain.MetaFileName])
		assert.Equal(t, "pdf", out.Metadata[domain.MetaFileType])
		assert.Equal(t, "local", out.Metadata[domain.MetaStorageType])
		assert.Equal(t, "doc-1", out.Metadata[domain.MetaDocumentID])
		assert.Equal(t, "chunk-1", out.Metadata[domain.MetaChunkID])
		assert.Equal(t, 2, out.Metadata[domain.MetaChunkIndex])
		assert.Equal(t, 5, out.Metadata[domain.MetaTotalChunks])
	})

	t.Run("caller tags win over defaults and provenance", func(t *testing.T) {
		enricher := NewEnricher("")
		out := enricher.Enrich(chunk, prov, map[string]any{
			domain.MetaType:   "knowledge_base",
			domain.MetaSource: "override",
			"team":            "platform",
		})

		assert.Equal(t, "knowledge_base", out.Metadata[domain.MetaType])
		assert.Equal(t, "override", out.Metadata[domain.MetaSource])
		assert.Equal(t, "platform", out.Metadata["team"])
	})

	t.Run("identity keys are immutable", func(t *testing.T) {
		enricher := NewEnricher("")
		out := enricher.Enrich(chunk, prov, map[string]any{
			domain.MetaDocumentID: "spoofed-doc",
			domain.MetaChunkID:    "spoofed-chunk",
		})

		assert.Equal(t, "doc-1", out.Metadata[domain.MetaDocumentID])
		assert.Equal(t, "chunk-1", out.Metadata[domain.MetaChunkID])
	})

	t.Run("keeps upstream metadata such as segment labels", func(t *testing.T) {
		enricher := NewEnricher("")
		segmented := chunk
		segmented.Metadata = map[string]any{domain.MetaSegment: "sheet:Expenses"}

		out := enricher.Enrich(segmented, prov, nil)
		assert.Equal(t, "sheet:Expenses", out.Metadata[domain.MetaSegment])
	})

	t.Run("custom tenant", func(t *testing.T) {
		enricher := NewEnricher("acme")
		out := enricher.Enrich(chunk, prov, nil)
		assert.Equal(t, "acme", out.Metadata[domain.MetaTenantID])
	})

	t.Run("does not mutate the input chunk", func(t *testing.T) {
		enricher := NewEnricher("")
		in := chunk
		in.Metadata = map[string]any{"existing": "value"}

		_ = enricher.Enrich(in, prov, map[string]any{"extra": "tag"})
		assert.Equal(t, map[string]any{"existing": "value"}, in.Metadata)
	})
}

func TestEnricherResolveFilter(t *testing.T) {
	enricher := NewEnricher("")

	t.Run("nil filter scopes to uploads", func(t *testing.T) {
		resolved := enricher.ResolveFilter(nil)
		require.Len(t, resolved, 1)
		assert.Equal(t, domain.DefaultRecordType, resolved[domain.MetaType])
	})

	t.Run("missing type is injected into a copy", func(t *testing.T) {
		original := domain.Filter{"team": "platform"}
		resolved := enricher.ResolveFilter(original)

		assert.Equal(t, domain.DefaultRecordType, resolved[domain.MetaType])
		assert.Equal(t, "platform", resolved["team"])
		assert.NotContains(t, original, domain.MetaType)
	})

	t.Run("explicit type passes through unchanged", func(t *testing.T) {
		original := domain.Filter{domain.MetaType: "knowledge_base"}
		resolved := enricher.ResolveFilter(original)
		assert.Equal(t, original, resolved)
	})
}
