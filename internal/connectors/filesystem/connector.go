package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
	"github.com/quarrydocs/quarry/internal/logger"
)

// Ensure Connector implements the interfaces.
var (
	_ driven.Connector = (*Connector)(nil)
	_ driven.Watcher   = (*Connector)(nil)
)

// maxFileSize caps how large a file the connector will read. Larger
// files are skipped with a log line.
const maxFileSize = 20 << 20

// Connector reads files from a local directory tree. It is the only
// connector that also supports watching for changes.
type Connector struct {
	rootPath string
	mu       sync.Mutex
	closed   bool
}

// New creates a filesystem connector rooted at rootPath.
func New(rootPath string) *Connector {
	return &Connector{rootPath: rootPath}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "local"
}

// Validate checks that the root exists and is a readable directory.
func (c *Connector) Validate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrConnectorClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	info, err := os.Stat(c.rootPath)
	if err != nil {
		return fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, c.rootPath)
	}
	if _, err := os.ReadDir(c.rootPath); err != nil {
		return fmt.Errorf("read root: %w", err)
	}
	return nil
}

// FullSync walks the tree and emits every regular file. Hidden
// directories are skipped; unreadable files are logged and skipped.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawFile, <-chan error) {
	filesCh := make(chan domain.RawFile)
	errsCh := make(chan error, 1)

	go func() {
		defer close(filesCh)
		defer close(errsCh)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			errsCh <- domain.ErrConnectorClosed
			return
		}
		c.mu.Unlock()

		err := filepath.WalkDir(c.rootPath, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if entry.IsDir() {
				if isHidden(entry.Name()) && path != c.rootPath {
					return filepath.SkipDir
				}
				return nil
			}
			if isHidden(entry.Name()) {
				return nil
			}

			file, ok := c.readFile(path)
			if !ok {
				return nil
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case filesCh <- file:
				return nil
			}
		})
		if err != nil && ctx.Err() == nil {
			errsCh <- fmt.Errorf("walk %s: %w", c.rootPath, err)
		}
	}()

	return filesCh, errsCh
}

// Watch emits files as they are created or modified under the root
// until the context is cancelled. New subdirectories are picked up as
// they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawFile, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domain.ErrConnectorClosed
	}
	c.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the root and every existing subdirectory.
	err = filepath.WalkDir(c.rootPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if isHidden(entry.Name()) && path != c.rootPath {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", c.rootPath, err)
	}

	filesCh := make(chan domain.RawFile)

	go func() {
		defer close(filesCh)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}

				info, err := os.Stat(event.Name)
				if err != nil {
					continue
				}
				if info.IsDir() {
					if event.Has(fsnotify.Create) && !isHidden(filepath.Base(event.Name)) {
						if err := watcher.Add(event.Name); err != nil {
							logger.Warn("Watch new directory %s: %v", event.Name, err)
						}
					}
					continue
				}
				if isHidden(filepath.Base(event.Name)) {
					continue
				}

				file, ok := c.readFile(event.Name)
				if !ok {
					continue
				}
				select {
				case <-ctx.Done():
					return
				case filesCh <- file:
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()

	return filesCh, nil
}

// Close marks the connector closed.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// readFile loads one file into a RawFile. Oversized and unreadable
// files return ok=false.
func (c *Connector) readFile(path string) (domain.RawFile, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return domain.RawFile{}, false
	}
	if info.Size() > maxFileSize {
		logger.Warn("Skipping %s: exceeds %d bytes", path, int64(maxFileSize))
		return domain.RawFile{}, false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Skipping %s: %v", path, err)
		return domain.RawFile{}, false
	}

	return domain.RawFile{
		Path:       path,
		Name:       filepath.Base(path),
		Extension:  strings.ToLower(filepath.Ext(path)),
		SourceKind: "local",
		Content:    content,
	}, true
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
