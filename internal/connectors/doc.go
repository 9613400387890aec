// Package connectors contains the source connector implementations.
// Each subpackage implements the driven.Connector interface for one
// source kind: local filesystem, Google Drive, Dropbox.
package connectors
