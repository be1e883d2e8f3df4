package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubbedOpenAI(t *testing.T, body string) (*OpenAI, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return &OpenAI{
		client:    openai.NewClient(option.WithBaseURL(srv.URL), option.WithAPIKey("test")),
		model:     "test-model",
		dim:       2,
		batchSize: 10,
		timeout:   time.Second,
	}, &requests
}

func TestEmbedOne_EmptyResponse(t *testing.T) {
	o, _ := newStubbedOpenAI(t,
		`{"object":"list","data":[],"model":"test-model","usage":{"prompt_tokens":0,"total_tokens":0}}`)

	_, err := o.EmbedOne(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)
}

func TestEmbed_EmptyInputSkipsBackend(t *testing.T) {
	o, requests := newStubbedOpenAI(t, `{}`)

	vectors, err := o.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Equal(t, int32(0), requests.Load())
}
