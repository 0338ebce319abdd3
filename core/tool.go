package core

import (
	"context"
	"encoding/json"
)

// ToolDefinition describes a tool the model can call.
type ToolDefinition struct {
	ToolName        string         `json:"name"`
	ToolDescription string         `json:"description"`
	InputSchema     map[string]any `json:"input_schema"`

	// Writes marks tools that add or remove memories. Their input must
	// carry a thought.
	Writes bool `json:"writes,omitempty"`
}

// Tool is an executable tool.
type Tool interface {
	Definition() ToolDefinition
	Execute(ctx context.Context, input json.RawMessage) (any, error)
}

// ToolFunc binds a definition to a handler.
type ToolFunc struct {
	Def     ToolDefinition
	Handler func(ctx context.Context, input json.RawMessage) (any, error)
}

func (t ToolFunc) Definition() ToolDefinition { return t.Def }

func (t ToolFunc) Execute(ctx context.Context, input json.RawMessage) (any, error) {
	return t.Handler(ctx, input)
}
