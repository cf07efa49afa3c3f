package openrouter

import (
	"context"

	"github.com/tidwall/gjson"
)

// ToolCallChunk is one element of a UseAnyTool stream. Exactly one of
// Arguments and Err is set; an element with Err is terminal.
type ToolCallChunk struct {
	Arguments gjson.Result
	Err       error
}

// UseAnyTool constrains the request so the model must answer with exactly one
// call to the given tool, and projects the stream down to the call's argument
// payload. Text deltas and usage reports are discarded. When the upstream
// finishes without producing the call, the terminal element carries
// ErrNoToolCall. Cancellation and error semantics match StreamCompletion.
func (p *Provider) UseAnyTool(ctx context.Context, req CompletionRequest, tool ToolDefinition) (<-chan ToolCallChunk, error) {
	req.ForceTool = &tool

	events, err := p.StreamCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make(chan ToolCallChunk, 1)
	go func() {
		defer close(out)

		send := func(chunk ToolCallChunk) bool {
			select {
			case out <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var produced bool
		for ev := range events {
			switch e := ev.(type) {
			case ToolCall:
				if e.Name != tool.Name {
					continue
				}
				produced = true
				if !send(ToolCallChunk{Arguments: e.Arguments}) {
					return
				}
			case Error:
				send(ToolCallChunk{Err: e.Err})
				return
			}
		}
		if !produced && ctx.Err() == nil {
			send(ToolCallChunk{Err: ErrNoToolCall})
		}
	}()
	return out, nil
}
