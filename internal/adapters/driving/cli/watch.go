package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quarrydocs/quarry/internal/connectors/filesystem"
	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
)

var (
	watchPath string
	watchTags []string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a local directory and ingest changes as they happen",
	Long: `Performs an initial ingestion of the directory, then keeps running
and re-ingests files as they are created or modified. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchPath, "path", "p", "", "directory to watch (required)")
	watchCmd.Flags().StringArrayVarP(&watchTags, "tag", "t", nil, "metadata tag as key=value (repeatable)")
	_ = watchCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	tags, err := parseKeyValues(watchTags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, false)
	if err != nil {
		return err
	}
	defer app.Close()

	connector := filesystem.New(watchPath)
	defer connector.Close()

	if err := connector.Validate(ctx); err != nil {
		return fmt.Errorf("source validation failed: %w", err)
	}

	summary, err := app.ingestor.Ingest(ctx, connector, tags)
	if err != nil {
		return fmt.Errorf("initial ingestion failed: %w", err)
	}
	cmd.Printf("Initial ingestion: %d chunks stored from %d files.\n",
		summary.ChunksStored, summary.FilesProcessed)

	filesCh, err := connector.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	cmd.Printf("Watching %s for changes...\n", watchPath)

	for file := range filesCh {
		summary, err := app.ingestor.Ingest(ctx, &singleFileConnector{file: file}, tags)
		if err != nil {
			cmd.Printf("Failed to ingest %s: %v\n", file.Path, err)
			continue
		}
		if summary.FilesProcessed > 0 {
			cmd.Printf("Ingested %s: %d chunks.\n", file.Path, summary.ChunksStored)
		}
	}

	cmd.Println("Watch stopped.")
	return nil
}

// singleFileConnector adapts one watched file to the connector
// interface so changes flow through the normal ingestion path.
type singleFileConnector struct {
	file domain.RawFile
}

var _ driven.Connector = (*singleFileConnector)(nil)

func (c *singleFileConnector) Type() string                   { return c.file.SourceKind }
func (c *singleFileConnector) Validate(context.Context) error { return nil }
func (c *singleFileConnector) Close() error                   { return nil }

func (c *singleFileConnector) FullSync(ctx context.Context) (<-chan domain.RawFile, <-chan error) {
	filesCh := make(chan domain.RawFile, 1)
	errsCh := make(chan error)
	go func() {
		defer close(filesCh)
		defer close(errsCh)
		select {
		case filesCh <- c.file:
		case <-ctx.Done():
		}
	}()
	return filesCh, errsCh
}
