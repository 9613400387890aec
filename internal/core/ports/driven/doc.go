// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): source connectors, content extractors,
// the embedding and generation services, the vector store backend,
// and the ingestion catalog.
package driven
