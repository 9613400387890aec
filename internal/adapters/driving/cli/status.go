package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarrydocs/quarry/internal/adapters/driven/catalog/sqlite"
	configfile "github.com/quarrydocs/quarry/internal/adapters/driven/config/file"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List ingested files from the catalog",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	path := flagConfig
	if path == "" {
		var err error
		path, err = configfile.DefaultPath()
		if err != nil {
			return err
		}
	}
	cfg, err := configfile.Load(path)
	if err != nil {
		return err
	}
	if !cfg.Catalog.Enabled {
		return fmt.Errorf("the ingestion catalog is disabled in the config")
	}

	catalog, err := sqlite.New(cfg.Catalog.DataDir)
	if err != nil {
		return err
	}
	defer catalog.Close()

	entries, err := catalog.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing catalog: %w", err)
	}

	if len(entries) == 0 {
		cmd.Println("No files ingested yet.")
		return nil
	}

	cmd.Printf("%-12s %-8s %-20s %s\n", "SOURCE", "CHUNKS", "INGESTED", "PATH")
	for _, entry := range entries {
		cmd.Printf("%-12s %-8d %-20s %s\n",
			entry.SourceKind,
			entry.ChunkCount,
			entry.IngestedAt.Local().Format("2006-01-02 15:04:05"),
			entry.SourcePath,
		)
	}
	cmd.Printf("\n%d files total.\n", len(entries))
	return nil
}
