package googledrive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
	"github.com/quarrydocs/quarry/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Google Workspace MIME types that need an export conversion.
const (
	mimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	mimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	mimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	mimeTypeFolder       = "application/vnd.google-apps.folder"
)

// Export formats for Google Workspace files.
const (
	exportMimeText = "text/plain"
	exportMimeCSV  = "text/csv"
)

// maxDownloadSize caps how much of a single file is fetched (20MB).
const maxDownloadSize = 20 << 20

// requestsPerSecond throttles Drive API calls below the per-user quota.
const requestsPerSecond = 10

// Config holds Google Drive connector configuration.
type Config struct {
	// CredentialsFile is the path to a Google service account or
	// authorized user JSON credentials file.
	CredentialsFile string

	// FolderID limits syncing to one folder tree. Empty syncs the
	// whole accessible Drive.
	FolderID string

	// PageSize is the page size for list requests.
	PageSize int64
}

// DefaultPageSize is used when the config does not set one.
const DefaultPageSize = 100

// Connector fetches files from Google Drive. Google Docs, Sheets and
// Slides are exported to text; regular files are downloaded as-is.
type Connector struct {
	config  Config
	limiter *rate.Limiter

	mu     sync.Mutex
	svc    *drive.Service
	closed bool
}

// New creates a Google Drive connector. The Drive service is built
// lazily on first use so construction never touches the network.
func New(cfg Config) *Connector {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return &Connector{
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "google_drive"
}

// Validate checks credentials by requesting the Drive about resource.
func (c *Connector) Validate(ctx context.Context) error {
	svc, err := c.service(ctx)
	if err != nil {
		return err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := svc.About.Get().Fields("user").Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
	}
	return nil
}

// FullSync lists all files, recursing through the configured folder
// tree, and emits each as a RawFile. Folders and oversized files are
// skipped; a failed download skips that file only.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawFile, <-chan error) {
	filesCh := make(chan domain.RawFile)
	errsCh := make(chan error, 1)

	go func() {
		defer close(filesCh)
		defer close(errsCh)

		svc, err := c.service(ctx)
		if err != nil {
			errsCh <- err
			return
		}

		// Folders to visit; an empty ID means "everything accessible".
		queue := []string{c.config.FolderID}
		for len(queue) > 0 {
			folderID := queue[0]
			queue = queue[1:]

			subfolders, err := c.syncFolder(ctx, svc, folderID, filesCh)
			if err != nil {
				if ctx.Err() == nil {
					errsCh <- err
				}
				return
			}
			queue = append(queue, subfolders...)
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

// service builds the Drive client on first use.
func (c *Connector) service(ctx context.Context) (*drive.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, domain.ErrConnectorClosed
	}
	if c.svc != nil {
		return c.svc, nil
	}

	if c.config.CredentialsFile == "" {
		return nil, fmt.Errorf("%w: no credentials file configured", domain.ErrAuthRequired)
	}
	raw, err := os.ReadFile(c.config.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read credentials: %w", domain.ErrAuthRequired, err)
	}

	creds, err := google.CredentialsFromJSON(ctx, raw, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parse credentials: %w", domain.ErrAuthRequired, err)
	}

	svc, err := drive.NewService(ctx, option.WithTokenSource(creds.TokenSource))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	c.svc = svc
	return svc, nil
}

// syncFolder pages through one folder (or the whole Drive) and emits
// its files. Returns the IDs of subfolders found.
func (c *Connector) syncFolder(ctx context.Context, svc *drive.Service, folderID string, filesCh chan<- domain.RawFile) ([]string, error) {
	query := "trashed = false"
	if folderID != "" {
		query = fmt.Sprintf("'%s' in parents and trashed = false", folderID)
	}

	var subfolders []string
	pageToken := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := svc.Files.List().
			Q(query).
			PageSize(c.config.PageSize).
			Fields("nextPageToken, files(id, name, mimeType, size)").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list files: %w", err)
		}

		for _, file := range page.Files {
			if file.MimeType == mimeTypeFolder {
				if folderID != "" {
					subfolders = append(subfolders, file.Id)
				}
				continue
			}

			raw, ok := c.fetchFile(ctx, svc, file)
			if !ok {
				continue
			}

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case filesCh <- raw:
			}
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			return subfolders, nil
		}
	}
}

// fetchFile downloads or exports one Drive file. Failures skip the
// file with a log line.
func (c *Connector) fetchFile(ctx context.Context, svc *drive.Service, file *drive.File) (domain.RawFile, bool) {
	if file.Size > maxDownloadSize {
		logger.Warn("Skipping %s: exceeds %d bytes", file.Name, int64(maxDownloadSize))
		return domain.RawFile{}, false
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.RawFile{}, false
	}

	name := file.Name
	extension := strings.ToLower(filepath.Ext(file.Name))
	var content []byte
	var err error

	// Workspace files have no bytes of their own and must be exported.
	switch file.MimeType {
	case mimeTypeGoogleDoc, mimeTypeGoogleSlides:
		content, err = download(svc.Files.Export(file.Id, exportMimeText).Context(ctx).Download)
		name += ".txt"
		extension = ".txt"
	case mimeTypeGoogleSheet:
		content, err = download(svc.Files.Export(file.Id, exportMimeCSV).Context(ctx).Download)
		name += ".csv"
		extension = ".csv"
	default:
		if strings.HasPrefix(file.MimeType, "application/vnd.google-apps.") {
			logger.Debug("Skipping %s: no export for %s", file.Name, file.MimeType)
			return domain.RawFile{}, false
		}
		content, err = download(svc.Files.Get(file.Id).Context(ctx).Download)
	}
	if err != nil {
		logger.Warn("Skipping %s: %v", file.Name, err)
		return domain.RawFile{}, false
	}

	return domain.RawFile{
		Path:       fmt.Sprintf("gdrive://files/%s", file.Id),
		Name:       name,
		Extension:  extension,
		SourceKind: "google_drive",
		Content:    content,
	}, true
}

// download runs one media request and reads the body with a size cap.
func download(do func(...googleapi.CallOption) (*http.Response, error)) ([]byte, error) {
	resp, err := do()
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	return data, nil
}
