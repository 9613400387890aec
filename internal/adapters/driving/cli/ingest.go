package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarrydocs/quarry/internal/connectors/dropbox"
	"github.com/quarrydocs/quarry/internal/connectors/filesystem"
	"github.com/quarrydocs/quarry/internal/connectors/googledrive"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
)

var (
	ingestSource string
	ingestPath   string
	ingestTags   []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest documents from a source into the vector store",
	Long: `Pulls files from a source, extracts and chunks their text, and
stores embedded chunks in the vector store.

Sources:
  local         a local directory (--path required)
  google_drive  a Google Drive account or folder
  dropbox       a Dropbox account or folder`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestSource, "source", "s", "local", "source kind: local, google_drive, dropbox")
	ingestCmd.Flags().StringVarP(&ingestPath, "path", "p", "", "source root: directory, Drive folder ID, or Dropbox path")
	ingestCmd.Flags().StringArrayVarP(&ingestTags, "tag", "t", nil, "metadata tag as key=value (repeatable)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	tags, err := parseKeyValues(ingestTags)
	if err != nil {
		return err
	}

	ctx := context.Background()
	app, err := buildApp(ctx, false)
	if err != nil {
		return err
	}
	defer app.Close()

	connector, err := newConnector(app, ingestSource, ingestPath)
	if err != nil {
		return err
	}
	defer connector.Close()

	if err := connector.Validate(ctx); err != nil {
		return fmt.Errorf("source validation failed: %w", err)
	}

	summary, err := app.ingestor.Ingest(ctx, connector, tags)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Printf("Ingestion complete.\n")
	cmd.Printf("  Files processed: %d\n", summary.FilesProcessed)
	cmd.Printf("  Files skipped:   %d\n", summary.FilesSkipped)
	cmd.Printf("  Chunks stored:   %d of %d\n", summary.ChunksStored, summary.ChunksFound)
	if summary.ChunksFailed > 0 {
		cmd.Printf("  Chunks failed:   %d\n", summary.ChunksFailed)
	}
	return nil
}

// newConnector builds the connector for a source kind, overlaying the
// --path flag on the configured defaults.
func newConnector(app *app, source, path string) (driven.Connector, error) {
	switch source {
	case "local":
		if path == "" {
			return nil, fmt.Errorf("--path is required for the local source")
		}
		return filesystem.New(path), nil

	case "google_drive":
		cfg := googledrive.Config{
			CredentialsFile: app.cfg.Sources.GoogleDrive.CredentialsFile,
			FolderID:        app.cfg.Sources.GoogleDrive.FolderID,
		}
		if path != "" {
			cfg.FolderID = path
		}
		return googledrive.New(cfg), nil

	case "dropbox":
		cfg := dropbox.Config{
			AccessToken: app.cfg.Sources.Dropbox.AccessToken,
			FolderPath:  app.cfg.Sources.Dropbox.FolderPath,
		}
		if path != "" {
			cfg.FolderPath = path
		}
		return dropbox.New(cfg), nil

	default:
		return nil, fmt.Errorf("unknown source %q (expected local, google_drive or dropbox)", source)
	}
}
