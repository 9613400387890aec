// Package services implements the core pipeline: normalisation,
// metadata enrichment, the vector store gateway and the two public
// operations, ingest and ask.
package services
