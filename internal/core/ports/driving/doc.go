// Package driving provides interfaces consumed by user-facing adapters
// (primary/inbound ports): the two public pipeline operations, ingest
// and ask.
package driving
