package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/becomeliminal/nim-memory/core"
	"github.com/becomeliminal/nim-memory/engine"
	"github.com/becomeliminal/nim-memory/logging"
	"github.com/becomeliminal/nim-memory/memory"
	"github.com/becomeliminal/nim-memory/memory/embedder/mock"
	"github.com/becomeliminal/nim-memory/memory/store/chromem"
)

type recordingGenerator struct {
	system string
	prompt string
	reply  string
	err    error
}

func (g *recordingGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	g.system, g.prompt = system, prompt
	return g.reply, g.err
}

func newMemory(t *testing.T) *memory.Store {
	t.Helper()
	cfg := memory.DefaultConfig()
	cfg.Logger = logging.Discard()
	return memory.New(context.Background(), cfg, chromem.NewInMemory(mock.New()))
}

func TestRunRecordsAndRecalls(t *testing.T) {
	ctx := context.Background()
	mem := newMemory(t)
	gen := &recordingGenerator{reply: "  Blue is lovely.  "}
	e := engine.New(gen, engine.WithMemory(mem), engine.WithLogger(logging.Discard()))

	out, err := e.Run(ctx, &engine.Input{UserMessage: "My favorite color is blue", Emotion: "HAPPY", Topics: []string{"colors"}})
	gt.NoError(t, err)
	gt.Equal(t, out.Text, "Blue is lovely.")
	gt.NotEqual(t, out.SessionID, "")
	gt.Equal(t, gen.prompt, "My favorite color is blue")
	gt.S(t, gen.system).Contains("No relevant past context found.")
	gt.Equal(t, mem.Stats()["conversations"], 1)

	res := mem.RecallConversations(ctx, "favorite color", 1)
	gt.A(t, res).Length(1)
	gt.Equal(t, res[0].Metadata["session_id"], out.SessionID)
	gt.Equal(t, res[0].Metadata["emotion"], "HAPPY")
	gt.Equal(t, res[0].Metadata["topics"], "colors")

	gen.reply = "You said blue."
	_, err = e.Run(ctx, &engine.Input{UserMessage: "What is my favorite color?", SessionID: out.SessionID})
	gt.NoError(t, err)
	gt.S(t, gen.system).Contains("Relevant memories:")
	gt.S(t, gen.system).Contains("My favorite color is blue")
}

func TestRunWithEmotionalContext(t *testing.T) {
	ctx := context.Background()
	mem := newMemory(t)
	mem.StoreEmotionEvent(ctx, memory.EmotionEvent{Description: "User was anxious about the exam", Emotion: "ANXIOUS", Intensity: 0.8})

	gen := &recordingGenerator{reply: "Good luck!"}
	e := engine.New(gen, engine.WithMemory(mem), engine.WithEmotionalContext(2))

	_, err := e.Run(ctx, &engine.Input{UserMessage: "exam tomorrow"})
	gt.NoError(t, err)
	gt.S(t, gen.system).Contains("Recent emotional events:")
	gt.S(t, gen.system).Contains("User was anxious about the exam (ANXIOUS)")
}

func TestRunWithoutMemory(t *testing.T) {
	gen := &recordingGenerator{reply: "hi"}
	out, err := engine.New(gen).Run(context.Background(), &engine.Input{UserMessage: "hello", SystemPrompt: "custom"})
	gt.NoError(t, err)
	gt.Equal(t, gen.system, "custom")
	gt.Equal(t, out.MemoryContext, "")
}

func TestRunErrors(t *testing.T) {
	mem := newMemory(t)
	boom := errors.New("provider down")
	e := engine.New(&recordingGenerator{err: boom}, engine.WithMemory(mem))

	_, err := e.Run(context.Background(), &engine.Input{UserMessage: "hello"})
	gt.True(t, errors.Is(err, boom))
	gt.Equal(t, mem.Count(), 0)

	_, err = e.Run(context.Background(), &engine.Input{UserMessage: "   "})
	gt.True(t, errors.Is(err, engine.ErrEmptyMessage))
}

func TestRunSkipsEmptyReply(t *testing.T) {
	mem := newMemory(t)
	e := engine.New(core.GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "   ", nil
	}), engine.WithMemory(mem))

	_, err := e.Run(context.Background(), &engine.Input{UserMessage: "hello"})
	gt.NoError(t, err)
	gt.Equal(t, mem.Count(), 0)
}
