// Package answer turns retrieved chunks and a question into a generated
// answer through a swappable generator.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/bull/docqa/internal/config"
	"github.com/bull/docqa/internal/retrieval"
)

// Generator produces an answer to a question grounded in retrieved chunks.
type Generator interface {
	Generate(ctx context.Context, results []retrieval.Result, query string) (string, error)
}

// New constructs the generator selected by the configuration.
func New(cfg config.AnswerConfig) (Generator, error) {
	switch cfg.Type {
	case "openai":
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unknown answer generator type %q", cfg.Type)
	}
}

// buildPrompt assembles the retrieved chunks and question into the prompt
// sent to the model.
func buildPrompt(results []retrieval.Result, query string) string {
	chunks := make([]string, len(results))
	for i, r := range results {
		chunks[i] = r.Chunk
	}
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer:", strings.Join(chunks, "\n"), query)
}
