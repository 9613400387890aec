package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
	"github.com/quarrydocs/quarry/internal/core/ports/driving"
	"github.com/quarrydocs/quarry/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.Answerer = (*AnswerService)(nil)

// answerPrompt instructs the model to stay inside the retrieved
// context instead of fabricating an answer.
const answerPrompt = `Use the following pieces of context to answer the question at the end.
If you don't know the answer, just say that you don't know. Don't try to make up an answer.

Context: %s

Question: %s

Answer:`

// previewLength is the number of chunk text characters included in a
// source descriptor.
const previewLength = 200

// AnswerService is the retrieval-answer orchestrator. One request
// moves through: resolve filter, similarity search, then either the
// fixed fallback (no results, no generation call) or answer synthesis
// over the retrieved context.
type AnswerService struct {
	gateway  *VectorGateway
	enricher *Enricher
	llm      driven.LLMService
	topK     int
}

// NewAnswerService creates an answer service. topK <= 0 falls back to
// the gateway default.
func NewAnswerService(gateway *VectorGateway, enricher *Enricher, llm driven.LLMService, topK int) *AnswerService {
	return &AnswerService{gateway: gateway, enricher: enricher, llm: llm, topK: topK}
}

// WithTopK returns a copy of the service with a different retrieval
// depth.
func (s *AnswerService) WithTopK(topK int) *AnswerService {
	clone := *s
	clone.topK = topK
	return &clone
}

// Ask answers a question from stored chunks. Every failure inside the
// request degrades to the fallback answer shape with the error flag
// set; the caller never sees a raw error.
func (s *AnswerService) Ask(ctx context.Context, question string, filter domain.Filter) domain.Answer {
	logger.Section("Question")
	logger.Debug("Question: %q", question)

	resolved := s.enricher.ResolveFilter(filter)
	logger.Debug("Resolved filter: %v", resolved)

	results, err := s.gateway.SimilaritySearch(ctx, question, resolved, s.topK)
	if err != nil {
		logger.Warn("Retrieval failed: %v", err)
		return errorAnswer()
	}

	if len(results) == 0 {
		logger.Info("No matching chunks, returning fallback without generation")
		return fallbackAnswer()
	}

	contextText := joinChunkTexts(results)
	prompt := fmt.Sprintf(answerPrompt, contextText, question)

	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0})
	if err != nil {
		logger.Warn("Generation failed: %v", err)
		return errorAnswer()
	}

	answer := domain.Answer{
		Text:    strings.TrimSpace(text),
		Sources: make([]domain.SourceRef, 0, len(results)),
	}
	for _, result := range results {
		answer.Sources = append(answer.Sources, sourceRef(result.Chunk))
	}
	logger.Info("Answered from %d chunks", len(results))
	return answer
}

// joinChunkTexts concatenates retrieved chunk texts into the prompt
// context block.
func joinChunkTexts(results []domain.SearchResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	return strings.Join(texts, "\n\n")
}

// sourceRef builds the citeable descriptor for one retrieved chunk.
func sourceRef(chunk domain.Chunk) domain.SourceRef {
	source := "unknown"
	if s, ok := chunk.Metadata[domain.MetaSource].(string); ok && s != "" {
		source = s
	}

	preview := chunk.Text
	if runes := []rune(preview); len(runes) > previewLength {
		preview = string(runes[:previewLength])
	}
	return domain.SourceRef{
		Source:         source,
		ContentPreview: preview + "...",
	}
}

func fallbackAnswer() domain.Answer {
	return domain.Answer{Text: domain.FallbackAnswer, Sources: []domain.SourceRef{}}
}

func errorAnswer() domain.Answer {
	answer := fallbackAnswer()
	answer.Errored = true
	return answer
}
