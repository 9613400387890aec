// Package file provides TOML-backed configuration for the pipeline.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/quarrydocs/quarry/internal/chunker"
)

// DefaultConfigName is the config file name inside the config directory.
const DefaultConfigName = "config.toml"

// Config is the full pipeline configuration.
type Config struct {
	// TenantID scopes stored chunks. Empty uses the built-in default.
	TenantID string `toml:"tenant_id"`

	// Workers bounds concurrent per-file processing during ingestion.
	Workers int `toml:"workers"`

	// TopK is the default similarity search depth.
	TopK int `toml:"top_k"`

	Chunking  ChunkingConfig  `toml:"chunking"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Store     StoreConfig     `toml:"store"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Sources   SourcesConfig   `toml:"sources"`
}

// ChunkingConfig controls document splitting.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
}

// LLMConfig configures the generation provider.
type LLMConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// StoreConfig configures the vector backend.
type StoreConfig struct {
	// Backend selects the vector store: "chroma" or "memory".
	Backend string `toml:"backend"`

	// URL is the Chroma server address.
	URL string `toml:"url"`

	// Collection is the Chroma collection name.
	Collection string `toml:"collection"`
}

// CatalogConfig configures the ingestion catalog.
type CatalogConfig struct {
	// Enabled toggles unchanged-file skipping.
	Enabled bool `toml:"enabled"`

	// DataDir holds the catalog database. Empty uses ~/.quarry/data.
	DataDir string `toml:"data_dir"`
}

// SourcesConfig holds per-connector settings.
type SourcesConfig struct {
	GoogleDrive GoogleDriveConfig `toml:"google_drive"`
	Dropbox     DropboxConfig     `toml:"dropbox"`
}

// GoogleDriveConfig configures the Google Drive connector.
type GoogleDriveConfig struct {
	CredentialsFile string `toml:"credentials_file"`
	FolderID        string `toml:"folder_id"`
}

// DropboxConfig configures the Dropbox connector.
type DropboxConfig struct {
	AccessToken string `toml:"access_token"`
	FolderPath  string `toml:"folder_path"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Workers: 4,
		TopK:    5,
		Chunking: ChunkingConfig{
			Size:    chunker.DefaultChunkSize,
			Overlap: chunker.DefaultChunkOverlap,
		},
		Store: StoreConfig{
			Backend: "chroma",
			URL:     "http://localhost:8000",
		},
		Catalog: CatalogConfig{
			Enabled: true,
		},
	}
}

// DefaultPath returns the default config file location,
// ~/.quarry/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".quarry", DefaultConfigName), nil
}

// Load reads the config file at path, layering it over the defaults.
// A missing file yields the defaults without error.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	raw, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
