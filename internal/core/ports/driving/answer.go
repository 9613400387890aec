package driving

import (
	"context"

	"github.com/quarrydocs/quarry/internal/core/domain"
)

// Answerer answers natural-language questions from stored chunks.
// The result is always a structured Answer, never a raw error:
// retrieval and generation failures degrade to the fallback shape.
type Answerer interface {
	// Ask retrieves chunks relevant to the question, constrained by
	// the optional filter, and synthesises an answer from them.
	Ask(ctx context.Context, question string, filter domain.Filter) domain.Answer
}
