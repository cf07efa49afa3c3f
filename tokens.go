package openrouter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// TokenCount is the result of CountTokens. Exact counts come from the
// upstream generation endpoint; estimates are computed locally.
type TokenCount struct {
	Prompt     uint64
	Completion uint64
	Exact      bool
}

// Total returns prompt plus completion tokens.
func (c TokenCount) Total() uint64 { return c.Prompt + c.Completion }

// CountTokens reports token usage for a request so callers can pre-flight
// against a model's context window.
//
// OpenRouter exposes exact, natively tokenized counts only for completed
// generations, so when req.GenerationID is set the count is fetched from the
// generation stats endpoint. Otherwise a local estimate over the serialized
// messages is returned, marked Exact=false. Safe to call concurrently; no
// shared state is touched.
func (p *Provider) CountTokens(ctx context.Context, req CompletionRequest) (TokenCount, error) {
	if req.GenerationID == "" {
		return estimateTokens(req), nil
	}

	cred, ok := p.creds.Credential()
	if !ok {
		return TokenCount{}, ErrNotAuthenticated
	}

	endpoint := p.apiURL + "/generation?id=" + url.QueryEscape(req.GenerationID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return TokenCount{}, fmt.Errorf("openrouter: building generation request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+cred.Secret)

	res, err := p.client.Do(httpReq)
	if err != nil {
		return TokenCount{}, fmt.Errorf("openrouter: fetching generation stats: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return TokenCount{}, readAPIError(res)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return TokenCount{}, fmt.Errorf("openrouter: reading generation stats: %w", err)
	}
	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		return TokenCount{}, &ProtocolError{Data: body, Cause: fmt.Errorf("generation response has no data field")}
	}

	return TokenCount{
		Prompt:     data.Get("native_tokens_prompt").Uint(),
		Completion: data.Get("native_tokens_completion").Uint(),
		Exact:      true,
	}, nil
}

// estimateTokens approximates the prompt size as one token per four bytes of
// message content, plus a small per-message framing overhead. Good enough for
// context-window pre-flight checks; exact counts need a generation id.
func estimateTokens(req CompletionRequest) TokenCount {
	const bytesPerToken = 4
	const perMessageOverhead = 3

	var total uint64
	for _, msg := range req.Messages {
		total += uint64(len(msg.Content))/bytesPerToken + perMessageOverhead
	}
	return TokenCount{Prompt: total}
}
