package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountTokensEstimatesWithoutGenerationID(t *testing.T) {
	p, err := New(WithEnvVar("OPENROUTER_VAR_NOT_SET_IN_TESTS"))
	require.NoError(t, err)

	count, err := p.CountTokens(context.Background(), CompletionRequest{
		Model: "openai/gpt-4o-mini",
		Messages: []Message{
			{Role: RoleSystem, Content: "You are a helpful assistant"}, // 27 bytes -> 6+3
			{Role: RoleUser, Content: "Hello"},                        // 5 bytes  -> 1+3
		},
	})
	require.NoError(t, err)
	assert.False(t, count.Exact)
	assert.Equal(t, uint64(13), count.Prompt)
	assert.Equal(t, uint64(13), count.Total())
}

func TestCountTokensFetchesExactCounts(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/generation", r.URL.Path)
		assert.Equal(t, "gen-123", r.URL.Query().Get("id"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"data":{"native_tokens_prompt":42,"native_tokens_completion":7}}`)
	})
	p := newTestProvider(t, handler)

	count, err := p.CountTokens(context.Background(), CompletionRequest{GenerationID: "gen-123"})
	require.NoError(t, err)
	assert.True(t, count.Exact)
	assert.Equal(t, uint64(42), count.Prompt)
	assert.Equal(t, uint64(7), count.Completion)
	assert.Equal(t, uint64(49), count.Total())
}

func TestCountTokensExactRequiresAuthentication(t *testing.T) {
	p, err := New(WithEnvVar("OPENROUTER_VAR_NOT_SET_IN_TESTS"))
	require.NoError(t, err)

	_, err = p.CountTokens(context.Background(), CompletionRequest{GenerationID: "gen-123"})
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestCountTokensSurfacesTransportFailures(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"message":"no such generation"}}`)
	})
	p := newTestProvider(t, handler)

	_, err := p.CountTokens(context.Background(), CompletionRequest{GenerationID: "gen-missing"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestModelTokenLimits(t *testing.T) {
	p, err := New(WithEnvVar("OPENROUTER_VAR_NOT_SET_IN_TESTS"))
	require.NoError(t, err)

	catalog := p.Models()
	require.NotEmpty(t, catalog)

	for _, m := range catalog {
		assert.Positive(t, m.MaxTokenCount(), "model %s", m.ID)
	}

	sonnet := catalog[0]
	assert.Equal(t, uint64(200_000), sonnet.MaxTokenCount())
	maxOut, ok := sonnet.MaxOutputTokens()
	require.True(t, ok)
	assert.Equal(t, uint64(8_192), maxOut)
}

func TestUsageTracker(t *testing.T) {
	var tracker UsageTracker
	tracker.Add(Usage{PromptTokens: 10, CompletionTokens: 4})
	tracker.Add(Usage{PromptTokens: 2, CompletionTokens: 1})

	prompt, completion, streams := tracker.Total()
	assert.Equal(t, uint64(12), prompt)
	assert.Equal(t, uint64(5), completion)
	assert.Equal(t, uint64(2), streams)

	tracker.Reset()
	prompt, completion, streams = tracker.Total()
	assert.Zero(t, prompt)
	assert.Zero(t, completion)
	assert.Zero(t, streams)
}
