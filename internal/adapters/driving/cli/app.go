package cli

import (
	"context"
	"fmt"

	"github.com/quarrydocs/quarry/internal/adapters/driven/catalog/sqlite"
	configfile "github.com/quarrydocs/quarry/internal/adapters/driven/config/file"
	embeddingopenai "github.com/quarrydocs/quarry/internal/adapters/driven/embedding/openai"
	llmopenai "github.com/quarrydocs/quarry/internal/adapters/driven/llm/openai"
	chromastore "github.com/quarrydocs/quarry/internal/adapters/driven/store/chroma"
	memorystore "github.com/quarrydocs/quarry/internal/adapters/driven/store/memory"
	"github.com/quarrydocs/quarry/internal/chunker"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
	"github.com/quarrydocs/quarry/internal/core/services"
	"github.com/quarrydocs/quarry/internal/extractors"
	"github.com/quarrydocs/quarry/internal/logger"
)

// app holds the wired pipeline for one command invocation.
type app struct {
	cfg       configfile.Config
	embedder  driven.EmbeddingService
	llm       driven.LLMService
	backend   driven.VectorBackend
	catalog   driven.Catalog
	ingestor  *services.IngestService
	answerer  *services.AnswerService
	splitter  *chunker.Splitter
	enricher  *services.Enricher
	normalize *services.Normalizer
}

// buildApp loads configuration and wires the pipeline. needLLM skips
// the generation provider for commands that never answer.
func buildApp(ctx context.Context, needLLM bool) (*app, error) {
	path := flagConfig
	if path == "" {
		var err error
		path, err = configfile.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := configfile.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded config from %s", path)

	splitter, err := chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddingopenai.New(embeddingopenai.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding service: %w", err)
	}

	var backend driven.VectorBackend
	switch cfg.Store.Backend {
	case "", "chroma":
		backend, err = chromastore.New(ctx, chromastore.Config{
			BaseURL:    cfg.Store.URL,
			Collection: cfg.Store.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("vector store: %w", err)
		}
	case "memory":
		backend = memorystore.New()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	var catalog driven.Catalog
	if cfg.Catalog.Enabled {
		catalog, err = sqlite.New(cfg.Catalog.DataDir)
		if err != nil {
			return nil, fmt.Errorf("ingestion catalog: %w", err)
		}
	}

	var llm driven.LLMService
	if needLLM {
		llm, err = llmopenai.New(llmopenai.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("generation service: %w", err)
		}
	}

	normalizer := services.NewNormalizer(extractors.NewRegistry())
	enricher := services.NewEnricher(cfg.TenantID)
	gateway := services.NewVectorGateway(embedder, backend)

	a := &app{
		cfg:       cfg,
		embedder:  embedder,
		llm:       llm,
		backend:   backend,
		catalog:   catalog,
		splitter:  splitter,
		enricher:  enricher,
		normalize: normalizer,
		ingestor:  services.NewIngestService(normalizer, splitter, enricher, gateway, catalog, cfg.Workers),
	}
	if needLLM {
		a.answerer = services.NewAnswerService(gateway, enricher, llm, cfg.TopK)
	}
	return a, nil
}

// Close releases all held resources.
func (a *app) Close() {
	if a.catalog != nil {
		_ = a.catalog.Close()
	}
	if a.backend != nil {
		_ = a.backend.Close()
	}
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
}
