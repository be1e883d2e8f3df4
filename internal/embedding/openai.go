package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"

	"github.com/bull/docqa/internal/config"
)

// OpenAI generates embeddings with the OpenAI embeddings API. Requests are
// batched and retried with exponential backoff on rate limit errors; every
// call is bounded by the configured timeout, since the provider is the only
// component crossing a network boundary.
type OpenAI struct {
	client    openai.Client
	model     string
	dim       int
	batchSize int
	timeout   time.Duration
}

// NewOpenAI creates a provider from config. The API key is read from the
// configured environment variable and must be set.
func NewOpenAI(cfg *config.OpenAIEmbedderConfig) (*OpenAI, error) {
	if cfg == nil {
		return nil, fmt.Errorf("openai embedder config missing")
	}
	if os.Getenv(cfg.APIKeyEnv) == "" {
		return nil, fmt.Errorf("%s environment variable not set", cfg.APIKeyEnv)
	}
	return &OpenAI{
		client:    openai.NewClient(),
		model:     cfg.Model,
		dim:       cfg.Dimension,
		batchSize: cfg.BatchSize,
		timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
	}, nil
}

// Dimension returns the configured vector width.
func (o *OpenAI) Dimension() int { return o.dim }

// Embed returns one vector per text, batching requests to balance
// requests-per-minute against tokens-per-minute limits.
func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var all [][]float32
	for i := 0; i < len(texts); i += o.batchSize {
		end := min(i+o.batchSize, len(texts))
		vectors, err := o.embedBatchWithRetry(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w: %v", i, end, ErrProvider, err)
		}
		all = append(all, vectors...)
	}
	return all, nil
}

// EmbedOne embeds a single text.
func (o *OpenAI) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := o.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding response contained no vectors: %w", ErrProvider)
	}
	return vectors[0], nil
}

// embedBatchWithRetry embeds one batch, retrying with exponential backoff on
// rate limit errors (HTTP 429). Other errors fail immediately.
func (o *OpenAI) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var vectors [][]float32
	operation := func() error {
		resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: o.model,
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		vectors = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			vectors[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return vectors, err
}

func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 narrows the API's float64 vectors; the index stores float32.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
