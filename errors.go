package openrouter

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when a completion is attempted before a
// credential was resolved. Call Authenticate (or SetCredential) first.
var ErrNotAuthenticated = errors.New("openrouter: not authenticated")

// ErrNoToolCall is returned by UseAnyTool when the upstream finished the
// stream without producing the forced tool call.
var ErrNoToolCall = errors.New("openrouter: model did not call the requested tool")

// APIError is a non-success HTTP response from the upstream.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("openrouter: upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("openrouter: upstream returned status %d: %s", e.StatusCode, e.Message)
}

// ProtocolError is a malformed or unparseable chunk on an otherwise healthy
// transport. It is terminal for the stream that produced it: partial data is
// never silently dropped.
type ProtocolError struct {
	Data  []byte
	Cause error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("openrouter: malformed stream chunk %q: %v", e.Data, e.Cause)
}

func (e *ProtocolError) Unwrap() error { return e.Cause }
