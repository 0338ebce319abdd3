package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/becomeliminal/nim-memory/core"
)

var (
	ErrUnknownTool     = goerr.New("unknown tool")
	ErrInvalidInput    = goerr.New("invalid tool input")
	ErrThoughtRequired = goerr.New("thought is required for tools that write memories")
)

// Registry holds tools by name and executes them.
type Registry struct {
	tools map[string]core.Tool
	order []string
}

// NewRegistry creates a registry holding tools.
func NewRegistry(tools ...core.Tool) *Registry {
	r := &Registry{tools: make(map[string]core.Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds t, replacing any tool with the same name.
func (r *Registry) Register(t core.Tool) {
	name := t.Definition().ToolName
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Definitions returns the registered definitions in registration order.
func (r *Registry) Definitions() []core.ToolDefinition {
	defs := make([]core.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Call validates input and executes the named tool.
func (r *Registry) Call(ctx context.Context, name string, input json.RawMessage) (any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, goerr.Wrap(ErrUnknownTool, "call tool", goerr.V("tool", name))
	}

	if t.Definition().Writes {
		var base core.BaseInput
		if len(input) > 0 {
			if err := json.Unmarshal(input, &base); err != nil {
				return nil, goerr.Wrap(ErrInvalidInput, "decode tool input", goerr.V("tool", name), goerr.V("error", err.Error()))
			}
		}
		if strings.TrimSpace(base.Thought) == "" {
			return nil, goerr.Wrap(ErrThoughtRequired, "call tool", goerr.V("tool", name))
		}
	}

	return t.Execute(ctx, input)
}
