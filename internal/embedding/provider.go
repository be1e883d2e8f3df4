// Package embedding maps chunk and query text to fixed-dimension float
// vectors through a swappable provider.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/bull/docqa/internal/config"
)

// ErrProvider reports a transport or model failure in the embedding backend.
var ErrProvider = errors.New("embedding provider failure")

// Provider converts text into fixed-dimension vectors. All vectors produced
// by one provider share the same dimension for its lifetime.
type Provider interface {
	// Embed returns one vector per input text, in input order. Empty input
	// yields empty output without calling the backend.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedOne embeds a single text, typically a query.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the vector width this provider produces.
	Dimension() int
}

// New constructs the provider selected by the configuration.
func New(cfg config.EmbedderConfig) (Provider, error) {
	switch cfg.Type {
	case "openai":
		return NewOpenAI(cfg.OpenAI)
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Type)
	}
}
