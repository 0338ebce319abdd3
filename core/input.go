package core

// BaseInput provides common fields for all tool inputs.
// Tools embed this struct so the model can explain why it reaches for
// memory.
type BaseInput struct {
	// Thought contains the model's reasoning about why it's using this tool.
	// Required for tools that write memories, optional for reads.
	Thought string `json:"thought,omitempty"`
}
