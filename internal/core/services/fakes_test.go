package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
)

// fakeEmbedder returns a deterministic vector per text and counts
// provider round-trips.
type fakeEmbedder struct {
	mu         sync.Mutex
	embedCalls int
	batchCalls int
	failBatch  error
	failEmbed  error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.embedCalls++
	f.mu.Unlock()
	if f.failEmbed != nil {
		return nil, f.failEmbed
	}
	return vectorFor(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batchCalls++
	f.mu.Unlock()
	if f.failBatch != nil {
		return nil, f.failBatch
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = vectorFor(t)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int   { return 3 }
func (f *fakeEmbedder) ModelName() string { return "fake-embedder" }
func (f *fakeEmbedder) Close() error      { return nil }

// vectorFor derives a tiny stable vector from the text so equal texts
// embed identically.
func vectorFor(text string) []float32 {
	var sum float32
	for _, r := range text {
		sum += float32(r)
	}
	n := float32(len(text) + 1)
	return []float32{sum / n, n, 1}
}

// fakeBackend stores records in memory. Insert can be failed for
// selected record IDs; QueryNearest matches the filter exactly and
// scores hits by insertion order.
type fakeBackend struct {
	mu       sync.Mutex
	records  []domain.StoredRecord
	failIDs  map[string]struct{}
	queryErr error
}

func (f *fakeBackend) Insert(_ context.Context, record domain.StoredRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, bad := f.failIDs[record.ID]; bad {
		return errors.New("backend rejected record")
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeBackend) QueryNearest(_ context.Context, _ []float32, filter domain.Filter, k int) ([]driven.ScoredRecord, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var hits []driven.ScoredRecord
	for i, rec := range f.records {
		if !matchesFilter(rec.Metadata, filter) {
			continue
		}
		hits = append(hits, driven.ScoredRecord{
			Content:  rec.Content,
			Metadata: rec.Metadata,
			Score:    1 - float64(i)*0.01,
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *fakeBackend) Close() error { return nil }

func matchesFilter(meta map[string]any, filter domain.Filter) bool {
	for k, v := range filter {
		if meta[k] != v {
			return false
		}
	}
	return true
}

// fakeLLM records prompts and returns a canned completion.
type fakeLLM struct {
	mu       sync.Mutex
	prompts  []string
	response string
	err      error
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) ModelName() string { return "fake-llm" }
func (f *fakeLLM) Close() error      { return nil }

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// fakeConnector streams a fixed set of files, then optionally an error.
type fakeConnector struct {
	files   []domain.RawFile
	syncErr error
}

func (f *fakeConnector) Type() string                   { return "fake" }
func (f *fakeConnector) Validate(context.Context) error { return nil }
func (f *fakeConnector) Close() error                   { return nil }

func (f *fakeConnector) FullSync(ctx context.Context) (<-chan domain.RawFile, <-chan error) {
	filesCh := make(chan domain.RawFile)
	errsCh := make(chan error, 1)
	go func() {
		defer close(filesCh)
		defer close(errsCh)
		for _, file := range f.files {
			select {
			case filesCh <- file:
			case <-ctx.Done():
				return
			}
		}
		if f.syncErr != nil {
			errsCh <- f.syncErr
		}
	}()
	return filesCh, errsCh
}

// fakeRegistry extracts plain text files as a single segment and
// rejects everything else.
type fakeRegistry struct{}

func (fakeRegistry) Extract(_ context.Context, file domain.RawFile) ([]domain.Segment, error) {
	if file.Extension != ".txt" {
		return nil, domain.ErrUnsupportedFormat
	}
	return []domain.Segment{{Text: string(file.Content)}}, nil
}

func (fakeRegistry) Register(driven.Extractor)     {}
func (fakeRegistry) SupportedExtensions() []string { return []string{".txt"} }

// fakeCatalog is an in-memory ingestion ledger.
type fakeCatalog struct {
	mu      sync.Mutex
	entries map[string]domain.CatalogEntry
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{entries: map[string]domain.CatalogEntry{}}
}

func (f *fakeCatalog) Lookup(_ context.Context, sourcePath string) (*domain.CatalogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[sourcePath]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

func (f *fakeCatalog) Record(_ context.Context, entry domain.CatalogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[entry.SourcePath] = entry
	return nil
}

func (f *fakeCatalog) List(_ context.Context) ([]domain.CatalogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.CatalogEntry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IngestedAt.Before(out[j].IngestedAt) })
	return out, nil
}

func (f *fakeCatalog) Close() error { return nil }

// textFile builds a RawFile for test fixtures.
func textFile(path, content string) domain.RawFile {
	name := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		name = path[i+1:]
	}
	return domain.RawFile{
		Path:       path,
		Name:       name,
		Extension:  ".txt",
		SourceKind: "local",
		Content:    []byte(content),
	}
}
