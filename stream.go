package openrouter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/casualjim/openrouter/pkg/slogx"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/tidwall/gjson"
)

var doneSentinel = []byte("[DONE]")

// StreamCompletion opens a completion request and returns the stream of
// events it produces. The channel closes after a Stopped event, after a
// terminal Error event, or once ctx is cancelled; it is never restartable.
//
// A dispatcher permit is held from before the HTTP request until the stream
// is fully drained or abandoned, so at most the configured number of
// completions is in flight at any time. Cancelling ctx aborts the transport
// and releases the permit; no further events are produced.
func (p *Provider) StreamCompletion(ctx context.Context, req CompletionRequest) (<-chan CompletionEvent, error) {
	cred, ok := p.creds.Credential()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	payload, err := buildWireRequest(req, true)
	if err != nil {
		return nil, err
	}

	permit, err := p.limiter.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		permit.Release()
		return nil, fmt.Errorf("openrouter: building completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+cred.Secret)

	res, err := p.client.Do(httpReq)
	if err != nil {
		permit.Release()
		return nil, fmt.Errorf("openrouter: opening completion stream: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		defer res.Body.Close()
		permit.Release()
		return nil, readAPIError(res)
	}

	streamID := uuid.New()
	p.log.DebugContext(ctx, "completion stream opened",
		slogx.Stringer("stream_id", streamID), slog.String("model", req.Model))

	events := make(chan CompletionEvent, 10)
	go func() {
		defer close(events)
		defer permit.Release()
		defer res.Body.Close()
		p.demux(ctx, streamID, ssestream.NewDecoder(res), events)
	}()
	return events, nil
}

// demux turns the SSE chunk sequence into typed events. Partial tool-call
// fragments are buffered and flushed as single complete ToolCall events when
// the upstream reports the choice finished.
func (p *Provider) demux(ctx context.Context, streamID uuid.UUID, dec ssestream.Decoder, events chan<- CompletionEvent) {
	emit := func(ev CompletionEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(err error) {
		if ctx.Err() != nil {
			return
		}
		emit(Error{StreamID: streamID, Err: err, Timestamp: now()})
	}

	calls := newToolCallBuffer()
	var stopped bool

	for dec.Next() {
		if ctx.Err() != nil {
			return
		}

		data := bytes.TrimSpace(dec.Event().Data)
		if len(data) == 0 {
			continue
		}
		if bytes.Equal(data, doneSentinel) {
			break
		}
		if !gjson.ValidBytes(data) {
			fail(&ProtocolError{Data: data, Cause: fmt.Errorf("chunk is not valid json")})
			return
		}

		chunk := gjson.ParseBytes(data)
		if upErr := chunk.Get("error"); upErr.Exists() {
			fail(&APIError{StatusCode: int(upErr.Get("code").Int()), Message: upErr.Get("message").String()})
			return
		}

		if usage := chunk.Get("usage"); usage.IsObject() {
			if !emit(Usage{
				StreamID:         streamID,
				PromptTokens:     usage.Get("prompt_tokens").Uint(),
				CompletionTokens: usage.Get("completion_tokens").Uint(),
				Timestamp:        now(),
			}) {
				return
			}
		}

		for _, choice := range chunk.Get("choices").Array() {
			delta := choice.Get("delta")
			if content := delta.Get("content"); content.Type == gjson.String && content.String() != "" {
				if !emit(TextDelta{StreamID: streamID, Text: content.String(), Timestamp: now()}) {
					return
				}
			}
			for _, frag := range delta.Get("tool_calls").Array() {
				calls.add(frag)
			}
			if reason := choice.Get("finish_reason"); reason.Type == gjson.String && reason.String() != "" {
				flushed, err := calls.flush(streamID)
				if err != nil {
					fail(err)
					return
				}
				for _, call := range flushed {
					if !emit(call) {
						return
					}
				}
				stopped = true
				if !emit(Stopped{StreamID: streamID, Reason: reason.String(), Timestamp: now()}) {
					return
				}
			}
		}
	}

	if err := dec.Err(); err != nil {
		fail(fmt.Errorf("openrouter: reading completion stream: %w", err))
		return
	}
	if ctx.Err() != nil {
		return
	}

	// Some upstreams close the connection without a finish_reason chunk.
	if !stopped {
		emit(Stopped{StreamID: streamID, Reason: "stop", Timestamp: now()})
	}
}

// toolCallBuffer accumulates streamed tool-call fragments keyed by choice
// index. Upstream splits a call across chunks: the first fragment carries id
// and name, later ones append argument text.
type toolCallBuffer struct {
	order []int64
	calls map[int64]*pendingToolCall
}

type pendingToolCall struct {
	id   string
	name string
	args bytes.Buffer
}

func newToolCallBuffer() *toolCallBuffer {
	return &toolCallBuffer{calls: make(map[int64]*pendingToolCall)}
}

func (b *toolCallBuffer) add(frag gjson.Result) {
	idx := frag.Get("index").Int()
	call, ok := b.calls[idx]
	if !ok {
		call = &pendingToolCall{}
		b.calls[idx] = call
		b.order = append(b.order, idx)
	}
	if id := frag.Get("id").String(); id != "" {
		call.id = id
	}
	if name := frag.Get("function.name").String(); name != "" {
		call.name = name
	}
	call.args.WriteString(frag.Get("function.arguments").String())
}

// flush returns the buffered calls as complete events, in first-fragment
// order. Accumulated argument text that does not parse as JSON is a protocol
// error: a half-specified call must never reach a consumer.
func (b *toolCallBuffer) flush(streamID uuid.UUID) ([]CompletionEvent, error) {
	events := make([]CompletionEvent, 0, len(b.order))
	for _, idx := range b.order {
		call := b.calls[idx]
		raw := call.args.String()
		if raw == "" {
			raw = "{}"
		}
		if !gjson.Valid(raw) {
			return nil, &ProtocolError{Data: []byte(raw), Cause: fmt.Errorf("tool call %s has unparseable arguments", call.name)}
		}
		events = append(events, ToolCall{
			StreamID:  streamID,
			ID:        call.id,
			Name:      call.name,
			Arguments: gjson.Parse(raw),
			Timestamp: now(),
		})
	}
	b.order = b.order[:0]
	clear(b.calls)
	return events, nil
}

func readAPIError(res *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	apiErr := &APIError{StatusCode: res.StatusCode}
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		apiErr.Message = msg.String()
	}
	return apiErr
}

func now() strfmt.DateTime {
	return strfmt.DateTime(time.Now())
}
