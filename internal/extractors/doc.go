// Package extractors converts raw file bytes into plain text segments.
// Each extractor handles a set of file extensions; the registry
// dispatches by extension. Multi-part formats (spreadsheets,
// presentations) yield one segment per sheet or slide.
package extractors
