package openrouter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteDrainsStream(t *testing.T) {
	p := newTestProvider(t, sseHandler(t, textChunk("Hel"), textChunk("lo"), usageChunk, stopChunk, "[DONE]"))

	result, err := p.Complete(context.Background(), helloRequest())
	require.NoError(t, err)

	assert.Equal(t, "Hello", result.Text)
	assert.Equal(t, "stop", result.StopReason)
	require.NotNil(t, result.Usage)
	assert.Equal(t, uint64(12), result.Usage.PromptTokens)
	assert.Empty(t, result.ToolCalls)
}

func TestCompleteReturnsStreamError(t *testing.T) {
	p := newTestProvider(t, sseHandler(t, textChunk("partial"), `{"broken`))

	_, err := p.Complete(context.Background(), helloRequest())

	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}
