package dropbox

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"
	"golang.org/x/time/rate"

	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
	"github.com/quarrydocs/quarry/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// maxDownloadSize caps how large a file the connector will fetch (20MB).
const maxDownloadSize = 20 << 20

// requestsPerSecond throttles Dropbox API calls.
const requestsPerSecond = 5

// Config holds Dropbox connector configuration.
type Config struct {
	// AccessToken is the Dropbox API access token.
	AccessToken string

	// FolderPath limits syncing to one folder subtree. Empty syncs
	// from the root.
	FolderPath string
}

// Connector fetches files from a Dropbox account using a recursive
// folder listing.
type Connector struct {
	config  Config
	limiter *rate.Limiter

	mu     sync.Mutex
	client files.Client
	closed bool
}

// New creates a Dropbox connector.
func New(cfg Config) *Connector {
	return &Connector{
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "dropbox"
}

// Validate checks the access token by fetching the current account.
func (c *Connector) Validate(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrConnectorClosed
	}
	token := c.config.AccessToken
	c.mu.Unlock()

	if token == "" {
		return fmt.Errorf("%w: no access token configured", domain.ErrAuthRequired)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	accounts := users.New(dropbox.Config{Token: token})
	if _, err := accounts.GetCurrentAccount(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
	}
	return nil
}

// FullSync lists the folder tree recursively and emits each file.
// Oversized files and failed downloads are skipped with a log line.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawFile, <-chan error) {
	filesCh := make(chan domain.RawFile)
	errsCh := make(chan error, 1)

	go func() {
		defer close(filesCh)
		defer close(errsCh)

		client, err := c.filesClient()
		if err != nil {
			errsCh <- err
			return
		}

		arg := files.NewListFolderArg(c.config.FolderPath)
		arg.Recursive = true

		if err := c.limiter.Wait(ctx); err != nil {
			return
		}
		page, err := client.ListFolder(arg)
		if err != nil {
			errsCh <- fmt.Errorf("list folder: %w", err)
			return
		}

		for {
			for _, entry := range page.Entries {
				meta, ok := entry.(*files.FileMetadata)
				if !ok {
					continue
				}

				raw, ok := c.fetchFile(ctx, client, meta)
				if !ok {
					continue
				}

				select {
				case <-ctx.Done():
					return
				case filesCh <- raw:
				}
			}

			if !page.HasMore {
				return
			}
			if err := c.limiter.Wait(ctx); err != nil {
				return
			}
			page, err = client.ListFolderContinue(files.NewListFolderContinueArg(page.Cursor))
			if err != nil {
				errsCh <- fmt.Errorf("continue folder listing: %w", err)
				return
			}
		}
	}()

	return filesCh, errsCh
}

// Close marks the connector closed.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// filesClient builds the files API client on first use.
func (c *Connector) filesClient() (files.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, domain.ErrConnectorClosed
	}
	if c.client != nil {
		return c.client, nil
	}
	if c.config.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token configured", domain.ErrAuthRequired)
	}

	c.client = files.New(dropbox.Config{Token: c.config.AccessToken})
	return c.client, nil
}

// fetchFile downloads one file. Failures skip the file with a log line.
func (c *Connector) fetchFile(ctx context.Context, client files.Client, meta *files.FileMetadata) (domain.RawFile, bool) {
	if meta.Size > maxDownloadSize {
		logger.Warn("Skipping %s: exceeds %d bytes", meta.PathDisplay, int64(maxDownloadSize))
		return domain.RawFile{}, false
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.RawFile{}, false
	}

	_, body, err := client.Download(files.NewDownloadArg(meta.PathLower))
	if err != nil {
		logger.Warn("Skipping %s: %v", meta.PathDisplay, err)
		return domain.RawFile{}, false
	}
	defer body.Close()

	content, err := io.ReadAll(io.LimitReader(body, maxDownloadSize))
	if err != nil {
		logger.Warn("Skipping %s: %v", meta.PathDisplay, err)
		return domain.RawFile{}, false
	}

	return domain.RawFile{
		Path:       meta.PathDisplay,
		Name:       meta.Name,
		Extension:  strings.ToLower(filepath.Ext(meta.Name)),
		SourceKind: "dropbox",
		Content:    content,
	}, true
}
