package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/becomeliminal/nim-memory/core"
	"github.com/becomeliminal/nim-memory/logging"
	"github.com/becomeliminal/nim-memory/memory"
)

// Memory is what the engine needs from the memory store.
type Memory interface {
	RelevantContext(ctx context.Context, input string, max int) string
	EmotionalContext(ctx context.Context, n int) []memory.Match
	StoreConversation(ctx context.Context, c memory.Conversation)
}

// Engine runs one companion turn: retrieve memories, generate a reply,
// record the exchange.
type Engine struct {
	gen         core.Generator
	memory      Memory // Optional: nil runs without memory
	log         *slog.Logger
	maxMemories int
	emotions    int
}

// Option configures the engine.
type Option func(*Engine)

// WithMemory configures the engine with a memory store.
func WithMemory(m Memory) Option {
	return func(e *Engine) {
		e.memory = m
	}
}

// WithLogger sets the logger. Defaults to the context logger at Run time.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithMaxMemories sets how many memories are recalled per collection.
func WithMaxMemories(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxMemories = n
		}
	}
}

// WithEmotionalContext adds the n most relevant emotion events to the
// system prompt. Zero disables it.
func WithEmotionalContext(n int) Option {
	return func(e *Engine) {
		e.emotions = n
	}
}

// New creates an engine over gen.
func New(gen core.Generator, opts ...Option) *Engine {
	e := &Engine{
		gen:         gen,
		maxMemories: 3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Input represents the input to one turn.
type Input struct {
	// UserMessage is the user's message to process.
	UserMessage string

	// SystemPrompt defaults to DefaultSystemPrompt.
	SystemPrompt string

	// SessionID groups turns. A new one is generated when empty.
	SessionID string

	// Emotion, Topics and RelationshipStage are recorded with the exchange.
	Emotion           string
	Topics            []string
	RelationshipStage string
}

// Output represents the result of one turn.
type Output struct {
	// Text is the companion's reply.
	Text string

	SessionID string

	// MemoryContext is the memory block injected into the system prompt.
	MemoryContext string
}

// ErrEmptyMessage is returned for a turn without a user message.
var ErrEmptyMessage = goerr.New("user message is empty")

// Run executes one turn.
func (e *Engine) Run(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || strings.TrimSpace(input.UserMessage) == "" {
		return nil, ErrEmptyMessage
	}
	logger := e.log
	if logger == nil {
		logger = logging.From(ctx)
	}
	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	logger = logger.With("session", sessionID)

	// === PHASE 0: RETRIEVE MEMORIES ===
	var enrichment string
	if e.memory != nil {
		enrichment = e.memory.RelevantContext(ctx, input.UserMessage, e.maxMemories)
		if e.emotions > 0 {
			if block := formatEmotions(e.memory.EmotionalContext(ctx, e.emotions)); block != "" {
				enrichment += "\n\n" + block
			}
		}
		logger.Debug("memories retrieved", "chars", len(enrichment))
	}

	// === PHASE 1: ENRICH SYSTEM PROMPT ===
	systemPrompt := input.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if enrichment != "" {
		systemPrompt += "\n\n" + enrichment
	}

	// === PHASE 2: GENERATE ===
	reply, err := e.gen.Generate(ctx, systemPrompt, input.UserMessage)
	if err != nil {
		return nil, goerr.Wrap(err, "generate reply", goerr.V("session", sessionID))
	}
	reply = strings.TrimSpace(reply)

	// === PHASE 3: RECORD CONVERSATION ===
	if e.memory != nil && reply != "" {
		e.memory.StoreConversation(ctx, memory.Conversation{
			UserInput:         input.UserMessage,
			Response:          reply,
			Emotion:           input.Emotion,
			Topics:            input.Topics,
			RelationshipStage: input.RelationshipStage,
			Extra:             map[string]string{"session_id": sessionID},
		})
	}

	return &Output{
		Text:          reply,
		SessionID:     sessionID,
		MemoryContext: enrichment,
	}, nil
}

func formatEmotions(events []memory.Match) string {
	if len(events) == 0 {
		return ""
	}
	lines := []string{"Recent emotional events:"}
	for _, ev := range events {
		line := "- " + ev.Text
		if emotion := ev.Metadata.Get(memory.KeyEmotion); emotion != "" {
			line += " (" + emotion + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// DefaultSystemPrompt is used when Input.SystemPrompt is empty.
const DefaultSystemPrompt = `You are Seven, a warm and attentive companion.

GUIDELINES:
- Be conversational and genuine
- Use what you remember about the user naturally, without listing it back
- If a memory seems outdated, ask rather than assume
- Keep replies short unless the user wants depth`
