package domain

// Well-known metadata attribute keys. These names are part of the
// persisted record schema and must stay stable across releases.
const (
	MetaType        = "type"
	MetaTenantID    = "tenant_id"
	MetaSource      = "source"
	MetaFileName    = "file_name"
	MetaFileType    = "file_type"
	MetaDocumentID  = "document_id"
	MetaChunkID     = "chunk_id"
	MetaChunkIndex  = "chunk_index"
	MetaTotalChunks = "total_chunks"
	MetaSegment     = "segment"
	MetaStorageType = "storage_type"
)

// DefaultRecordType is the record category assigned to ingested chunks
// and injected into query filters that do not name one. Retrieval is
// scoped to user-uploaded content unless the caller asks otherwise.
const DefaultRecordType = "upload_file"

// DefaultTenantID is the tenant assigned when no tenant is configured.
const DefaultTenantID = "localhost"

// Filter constrains a similarity search to records whose metadata
// matches every key/value exactly (AND semantics).
type Filter map[string]any

// Clone returns a shallow copy of the filter. A nil filter clones to
// an empty, non-nil filter.
func (f Filter) Clone() Filter {
	out := make(Filter, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	return out
}
