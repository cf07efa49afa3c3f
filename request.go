package openrouter

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Role identifies the author of a message in a completion request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of the conversation sent upstream.
type Message struct {
	Role    Role
	Content string

	// ToolCallID links a RoleTool message back to the tool call it answers.
	ToolCallID string
}

// ToolDefinition describes a capability the model may invoke. Parameters can
// be a *jsonschema.Schema, a Go value to reflect a schema from, or nil for a
// tool without arguments.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  any
}

// CompletionRequest is the provider-neutral request handed to the streaming
// engine. Zero-value optional fields are omitted from the wire payload.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature *float64
	MaxTokens   *int64
	Tools       []ToolDefinition

	// ForceTool constrains the request so the model must answer with exactly
	// one call to this tool instead of free text. UseAnyTool sets it.
	ForceTool *ToolDefinition

	// GenerationID references a previously completed generation. It is never
	// serialized; CountTokens uses it to fetch exact native token counts.
	GenerationID string
}

var toolReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// Schema resolves the tool's parameter schema.
func (td ToolDefinition) Schema() (*jsonschema.Schema, error) {
	switch params := td.Parameters.(type) {
	case nil:
		return &jsonschema.Schema{
			Type:       "object",
			Properties: orderedmap.New[string, *jsonschema.Schema](),
		}, nil
	case *jsonschema.Schema:
		return params, nil
	default:
		schema := toolReflector.Reflect(params)
		if schema == nil {
			return nil, fmt.Errorf("tool %s: cannot reflect schema from %T", td.Name, td.Parameters)
		}
		return schema, nil
	}
}

type wireMessage struct {
	Role       Role   `json:"role"`
	Content    string `json:"content"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

type wireFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireToolChoice struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

type wireStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type wireRequest struct {
	Model         string             `json:"model"`
	Messages      []wireMessage      `json:"messages"`
	Stream        bool               `json:"stream"`
	StreamOptions *wireStreamOptions `json:"stream_options,omitempty"`
	Temperature   *float64           `json:"temperature,omitempty"`
	MaxTokens     *int64             `json:"max_tokens,omitempty"`
	Tools         []wireTool         `json:"tools,omitempty"`
	ToolChoice    *wireToolChoice    `json:"tool_choice,omitempty"`
}

func buildWireRequest(req CompletionRequest, stream bool) ([]byte, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("completion request needs a model")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("completion request needs at least one message")
	}

	wire := wireRequest{
		Model:       req.Model,
		Stream:      stream,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    make([]wireMessage, len(req.Messages)),
	}
	if stream {
		wire.StreamOptions = &wireStreamOptions{IncludeUsage: true}
	}
	for i, msg := range req.Messages {
		wire.Messages[i] = wireMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
	}

	tools := req.Tools
	if req.ForceTool != nil {
		tools = append(tools[:len(tools):len(tools)], *req.ForceTool)
	}
	for _, td := range tools {
		if td.Name == "" {
			return nil, fmt.Errorf("tool definition needs a name")
		}
		schema, err := td.Schema()
		if err != nil {
			return nil, err
		}
		wire.Tools = append(wire.Tools, wireTool{
			Type: "function",
			Function: wireFunction{
				Name:        td.Name,
				Description: td.Description,
				Parameters:  schema,
			},
		})
	}
	if req.ForceTool != nil {
		choice := &wireToolChoice{Type: "function"}
		choice.Function.Name = req.ForceTool.Name
		wire.ToolChoice = choice
	}

	return json.Marshal(wire)
}
