package driven

import (
	"context"

	"github.com/quarrydocs/quarry/internal/core/domain"
)

// Connector fetches raw files from a data source. Each source kind
// (filesystem, Google Drive, Dropbox) implements this interface so the
// pipeline never branches on where a file came from.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Validate checks the connector is properly configured and ready
	// to sync. For API connectors this makes a lightweight test call;
	// for filesystem it checks the root exists and is readable.
	Validate(ctx context.Context) error

	// FullSync fetches all files from the source. Files and errors are
	// delivered on channels; both are closed when the sync finishes.
	// A cancelled context stops the sync before the next file.
	FullSync(ctx context.Context) (<-chan domain.RawFile, <-chan error)

	// Close releases resources.
	Close() error
}

// Watcher is implemented by connectors that can push file changes as
// they happen. Only the filesystem connector supports this.
type Watcher interface {
	// Watch emits files as they are created or modified under the
	// source root until the context is cancelled.
	Watch(ctx context.Context) (<-chan domain.RawFile, error)
}
