package answer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go"

	"github.com/bull/docqa/internal/config"
	"github.com/bull/docqa/internal/retrieval"
)

const systemPrompt = "You are a helpful assistant who answers strictly based on context."

// OpenAI generates answers with the OpenAI chat completions API.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// NewOpenAI creates a generator from config. OPENAI_API_KEY must be set.
func NewOpenAI(cfg config.AnswerConfig) (*OpenAI, error) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return &OpenAI{
		client:      openai.NewClient(),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
	}, nil
}

// Generate answers the question using only the retrieved chunks as context.
func (o *OpenAI) Generate(ctx context.Context, results []retrieval.Result, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(results, query)),
		},
		Model:               o.model,
		Temperature:         openai.Float(o.temperature),
		MaxCompletionTokens: openai.Int(int64(o.maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
