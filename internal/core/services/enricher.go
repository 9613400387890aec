package services

import (
	"github.com/quarrydocs/quarry/internal/core/domain"
)

// identityKeys are never overwritten once set, regardless of layer.
var identityKeys = map[string]struct{}{
	domain.MetaDocumentID: {},
	domain.MetaChunkID:    {},
}

// Enricher merges metadata layers into chunks on the write path and
// resolves query filters on the read path.
//
// Layers accumulate in precedence order, lowest first: system defaults,
// provenance-derived fields, chunk-positional fields, caller tags.
// Later layers overwrite earlier keys on collision, except the
// document and chunk identity fields which are immutable once set.
type Enricher struct {
	tenantID string
}

// NewEnricher creates an enricher. An empty tenantID falls back to the
// system default.
func NewEnricher(tenantID string) *Enricher {
	if tenantID == "" {
		tenantID = domain.DefaultTenantID
	}
	return &Enricher{tenantID: tenantID}
}

// Enrich returns the chunk with its metadata rebuilt from the layered
// sources. The input chunk is not mutated.
func (e *Enricher) Enrich(chunk domain.Chunk, prov domain.Provenance, tags map[string]any) domain.Chunk {
	meta := make(map[string]any, len(chunk.Metadata)+len(tags)+10)

	// System defaults.
	applyLayer(meta, map[string]any{
		domain.MetaType:     domain.DefaultRecordType,
		domain.MetaTenantID: e.tenantID,
	})

	// Fields already attached upstream (e.g. the segment label).
	applyLayer(meta, chunk.Metadata)

	// Provenance-derived fields.
	applyLayer(meta, map[string]any{
		domain.MetaSource:      prov.SourcePath,
		domain.MetaFileName:    prov.DisplayName,
		domain.MetaFileType:    prov.Extension,
		domain.MetaStorageType: prov.SourceKind,
		domain.MetaDocumentID:  chunk.DocumentID,
	})

	// Chunk-positional fields.
	applyLayer(meta, map[string]any{
		domain.MetaChunkID:     chunk.ID,
		domain.MetaChunkIndex:  chunk.Index,
		domain.MetaTotalChunks: chunk.TotalChunks,
	})

	// Caller-supplied tags win over everything except identity.
	applyLayer(meta, tags)

	chunk.Metadata = meta
	return chunk
}

// ResolveFilter returns the effective query filter. A nil filter scopes
// retrieval to uploaded content; a filter without a "type" key gets the
// default injected into a copy, leaving the caller's map untouched.
// Filters that name their own type pass through unchanged.
func (e *Enricher) ResolveFilter(filter domain.Filter) domain.Filter {
	if filter == nil {
		return domain.Filter{domain.MetaType: domain.DefaultRecordType}
	}
	if _, ok := filter[domain.MetaType]; ok {
		return filter
	}
	out := filter.Clone()
	out[domain.MetaType] = domain.DefaultRecordType
	return out
}

// applyLayer merges src into dst, honouring identity immutability.
func applyLayer(dst, src map[string]any) {
	for k, v := range src {
		if _, immutable := identityKeys[k]; immutable {
			if _, exists := dst[k]; exists {
				continue
			}
		}
		dst[k] = v
	}
}
