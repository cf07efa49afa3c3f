package openrouter

import (
	"errors"
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	textDeltaJSON = []byte(`{"type":"text_delta"}`)
	toolCallJSON  = []byte(`{"type":"tool_call"}`)
	usageJSON     = []byte(`{"type":"usage"}`)
	stoppedJSON   = []byte(`{"type":"stopped"}`)
	errorJSON     = []byte(`{"type":"error"}`)
)

// CompletionEvent is one incremental unit of a streamed model response. The
// concrete variants are TextDelta, ToolCall, Usage, Stopped and Error. Events
// belong to a single stream and carry no cross-stream identity beyond the
// StreamID they were stamped with.
type CompletionEvent interface {
	completionEvent()
}

// TextDelta is an incremental text fragment. Deltas are emitted in
// concatenation order: appending them in arrival order reconstructs the full
// response text.
type TextDelta struct {
	StreamID  uuid.UUID       `json:"stream_id"`
	Text      string          `json:"text"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (TextDelta) completionEvent() {}

// ToolCall is a fully specified tool invocation requested by the model.
// Partial fragments are buffered inside the engine; consumers only ever see
// complete calls.
type ToolCall struct {
	StreamID  uuid.UUID       `json:"stream_id"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments gjson.Result    `json:"arguments"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (ToolCall) completionEvent() {}

// Usage reports token accounting for the stream. Upstream sends it at most
// once, near the end of the stream.
type Usage struct {
	StreamID         uuid.UUID       `json:"stream_id"`
	PromptTokens     uint64          `json:"prompt_tokens"`
	CompletionTokens uint64          `json:"completion_tokens"`
	Timestamp        strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Usage) completionEvent() {}

// Stopped marks the regular end of a stream with the upstream finish reason
// ("stop", "length", "tool_calls", ...).
type Stopped struct {
	StreamID  uuid.UUID       `json:"stream_id"`
	Reason    string          `json:"reason"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Stopped) completionEvent() {}

// Error is the terminal event of a failed stream. No further events follow it.
type Error struct {
	StreamID  uuid.UUID       `json:"stream_id"`
	Err       error           `json:"error"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Error) completionEvent() {}

func (e Error) Error() string {
	return fmt.Sprintf("stream_id: %s, timestamp: %s, error: %v", e.StreamID, e.Timestamp, e.Err)
}

func (e Error) Unwrap() error { return e.Err }

// MarshalJSON implements custom JSON marshaling for TextDelta
func (t TextDelta) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes(textDeltaJSON, "stream_id", t.StreamID.String())
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "text", t.Text)
	if err != nil {
		return nil, err
	}
	return setTimestamp(result, t.Timestamp)
}

// UnmarshalJSON implements custom JSON unmarshaling for TextDelta
func (t *TextDelta) UnmarshalJSON(data []byte) error {
	if err := checkEventType(data, "text_delta"); err != nil {
		return err
	}
	if err := readStreamID(data, &t.StreamID); err != nil {
		return err
	}
	text := gjson.GetBytes(data, "text")
	if !text.Exists() {
		return fmt.Errorf("missing required field 'text'")
	}
	t.Text = text.String()
	return readTimestamp(data, &t.Timestamp)
}

// MarshalJSON implements custom JSON marshaling for ToolCall
func (t ToolCall) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes(toolCallJSON, "stream_id", t.StreamID.String())
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "id", t.ID)
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "name", t.Name)
	if err != nil {
		return nil, err
	}
	if t.Arguments.Exists() {
		result, err = sjson.SetRawBytes(result, "arguments", []byte(t.Arguments.Raw))
		if err != nil {
			return nil, err
		}
	}
	return setTimestamp(result, t.Timestamp)
}

// UnmarshalJSON implements custom JSON unmarshaling for ToolCall
func (t *ToolCall) UnmarshalJSON(data []byte) error {
	if err := checkEventType(data, "tool_call"); err != nil {
		return err
	}
	if err := readStreamID(data, &t.StreamID); err != nil {
		return err
	}
	name := gjson.GetBytes(data, "name")
	if !name.Exists() {
		return fmt.Errorf("missing required field 'name'")
	}
	t.Name = name.String()
	t.ID = gjson.GetBytes(data, "id").String()
	if args := gjson.GetBytes(data, "arguments"); args.Exists() {
		t.Arguments = args
	}
	return readTimestamp(data, &t.Timestamp)
}

// MarshalJSON implements custom JSON marshaling for Usage
func (u Usage) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes(usageJSON, "stream_id", u.StreamID.String())
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "prompt_tokens", u.PromptTokens)
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "completion_tokens", u.CompletionTokens)
	if err != nil {
		return nil, err
	}
	return setTimestamp(result, u.Timestamp)
}

// UnmarshalJSON implements custom JSON unmarshaling for Usage
func (u *Usage) UnmarshalJSON(data []byte) error {
	if err := checkEventType(data, "usage"); err != nil {
		return err
	}
	if err := readStreamID(data, &u.StreamID); err != nil {
		return err
	}
	u.PromptTokens = gjson.GetBytes(data, "prompt_tokens").Uint()
	u.CompletionTokens = gjson.GetBytes(data, "completion_tokens").Uint()
	return readTimestamp(data, &u.Timestamp)
}

// MarshalJSON implements custom JSON marshaling for Stopped
func (s Stopped) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes(stoppedJSON, "stream_id", s.StreamID.String())
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "reason", s.Reason)
	if err != nil {
		return nil, err
	}
	return setTimestamp(result, s.Timestamp)
}

// UnmarshalJSON implements custom JSON unmarshaling for Stopped
func (s *Stopped) UnmarshalJSON(data []byte) error {
	if err := checkEventType(data, "stopped"); err != nil {
		return err
	}
	if err := readStreamID(data, &s.StreamID); err != nil {
		return err
	}
	reason := gjson.GetBytes(data, "reason")
	if !reason.Exists() {
		return fmt.Errorf("missing required field 'reason'")
	}
	s.Reason = reason.String()
	return readTimestamp(data, &s.Timestamp)
}

// MarshalJSON implements custom JSON marshaling for Error
func (e Error) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes(errorJSON, "stream_id", e.StreamID.String())
	if err != nil {
		return nil, err
	}
	if e.Err != nil {
		result, err = sjson.SetBytes(result, "error", e.Err.Error())
		if err != nil {
			return nil, err
		}
	}
	return setTimestamp(result, e.Timestamp)
}

// UnmarshalJSON implements custom JSON unmarshaling for Error
func (e *Error) UnmarshalJSON(data []byte) error {
	if err := checkEventType(data, "error"); err != nil {
		return err
	}
	if err := readStreamID(data, &e.StreamID); err != nil {
		return err
	}
	errMsg := gjson.GetBytes(data, "error")
	if !errMsg.Exists() {
		return errors.New("missing required field 'error'")
	}
	e.Err = errors.New(errMsg.String())
	return readTimestamp(data, &e.Timestamp)
}

func checkEventType(data []byte, want string) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}
	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != want {
		return fmt.Errorf("missing or invalid type, expected %q", want)
	}
	return nil
}

func readStreamID(data []byte, id *uuid.UUID) error {
	streamID := gjson.GetBytes(data, "stream_id")
	if !streamID.Exists() {
		return fmt.Errorf("missing required field 'stream_id'")
	}
	if err := id.UnmarshalText([]byte(streamID.String())); err != nil {
		return fmt.Errorf("invalid stream_id: %w", err)
	}
	return nil
}

func readTimestamp(data []byte, ts *strfmt.DateTime) error {
	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := ts.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}
	return nil
}

func setTimestamp(result []byte, ts strfmt.DateTime) ([]byte, error) {
	if ts.IsZero() {
		return result, nil
	}
	return sjson.SetBytes(result, "timestamp", ts.String())
}
