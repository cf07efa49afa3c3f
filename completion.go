package openrouter

import (
	"context"
	"strings"
)

// Completion is the accumulated result of a fully drained stream.
type Completion struct {
	Text       string
	ToolCalls  []ToolCall
	Usage      *Usage
	StopReason string
}

// Complete issues a completion and drains the stream into a single result.
// It shares StreamCompletion's dispatch, cancellation and error semantics.
func (p *Provider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	events, err := p.StreamCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	result := &Completion{}
	for ev := range events {
		switch e := ev.(type) {
		case TextDelta:
			text.WriteString(e.Text)
		case ToolCall:
			result.ToolCalls = append(result.ToolCalls, e)
		case Usage:
			usage := e
			result.Usage = &usage
		case Stopped:
			result.StopReason = e.Reason
		case Error:
			return nil, e.Err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Text = text.String()
	return result, nil
}
