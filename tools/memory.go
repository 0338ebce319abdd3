package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/becomeliminal/nim-memory/core"
	"github.com/becomeliminal/nim-memory/memory"
)

// MemoryStore is the part of memory.Store the tools use.
type MemoryStore interface {
	Query(ctx context.Context, query string, kind memory.Kind, n int, opts ...memory.RecallOption) ([]memory.RecallResult, error)
	RecallAboutUser(ctx context.Context, query string, n int) []memory.RecallResult
	Put(ctx context.Context, r memory.Record) (string, error)
	Stats() map[string]int
}

const maxToolResults = 20

// Recalled is the compact form of a recall result returned to the model.
type Recalled struct {
	Text       string  `json:"text"`
	Collection string  `json:"collection"`
	Score      float64 `json:"score"`
	Date       string  `json:"date"`

	// Set for knowledge and observations.
	Confidence float64 `json:"confidence,omitempty"`
	// Set for goals.
	Priority int `json:"priority,omitempty"`
}

// Stored is returned by the tools that write memories.
type Stored struct {
	ID         string `json:"id"`
	Collection string `json:"collection"`
}

type recallInput struct {
	core.BaseInput
	Query      string   `json:"query"`
	MemoryType string   `json:"memory_type"`
	Limit      int      `json:"limit"`
	TimeWeight *float64 `json:"time_weight"`
	Emotion    string   `json:"emotion"`
}

type aboutUserInput struct {
	core.BaseInput
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type factInput struct {
	core.BaseInput
	Fact       string  `json:"fact"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

type observationInput struct {
	core.BaseInput
	Observation string  `json:"observation"`
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
}

type emotionInput struct {
	core.BaseInput
	Description string  `json:"description"`
	Emotion     string  `json:"emotion"`
	Intensity   float64 `json:"intensity"`
	Trigger     string  `json:"trigger"`
}

type goalInput struct {
	core.BaseInput
	Goal     string `json:"goal"`
	Status   string `json:"status"`
	Priority int    `json:"priority"`
	Context  string `json:"context"`
}

func memoryTypes() []string {
	out := []string{string(memory.KindAll)}
	for _, k := range memory.Kinds() {
		out = append(out, string(k))
	}
	return out
}

// MemoryToolDefinitions returns the definitions of the memory tools.
func MemoryToolDefinitions() []core.ToolDefinition {
	return []core.ToolDefinition{
		// Read operations (thought optional)
		{
			ToolName:        "recall_memory",
			ToolDescription: "Search long-term memory. Results blend relevance and recency; strong emotional memories rank higher.",
			InputSchema: BuildSchemaWithThought(map[string]any{
				"query":       StringProperty("What to remember, in plain words"),
				"memory_type": StringEnumProperty("Collection to search (default: all)", memoryTypes()...),
				"limit":       IntegerRangeProperty("Results per collection (default: 5)", 1, maxToolResults),
				"time_weight": NumberRangeProperty("How much recency matters, 0 to 1 (default: 0.3)", 0, 1),
				"emotion":     StringProperty("Optional: only conversations recorded with this emotion"),
			}, false, "query"),
		},
		{
			ToolName:        "recall_about_user",
			ToolDescription: "Recall facts and observations about the user.",
			InputSchema: BuildSchemaWithThought(map[string]any{
				"query": StringProperty("Topic to recall about the user"),
				"limit": IntegerRangeProperty("Maximum results (default: 5)", 1, maxToolResults),
			}, false, "query"),
		},
		{
			ToolName:        "memory_stats",
			ToolDescription: "Count stored memories per collection.",
			InputSchema:     BuildSchemaWithThought(map[string]any{}, false),
		},

		// Write operations (thought required)
		{
			ToolName:        "remember_fact",
			ToolDescription: "Store a durable fact about the user or the world.",
			Writes:          true,
			InputSchema: BuildSchemaWithThought(map[string]any{
				"fact":       StringProperty("The fact, as one sentence"),
				"category":   StringProperty("Optional: category such as family, work, health (default: general)"),
				"confidence": NumberRangeProperty("How sure you are, 0 to 1 (default: 0.8)", 0, 1),
				"source":     StringProperty("Optional: where the fact came from (default: observation)"),
			}, true, "fact"),
		},
		{
			ToolName:        "note_observation",
			ToolDescription: "Store an observation about the user's behavior or habits.",
			Writes:          true,
			InputSchema: BuildSchemaWithThought(map[string]any{
				"observation": StringProperty("What you noticed"),
				"category":    StringProperty("Optional: category (default: behavior)"),
				"confidence":  NumberRangeProperty("How sure you are, 0 to 1 (default: 0.7)", 0, 1),
			}, true, "observation"),
		},
		{
			ToolName:        "record_emotion",
			ToolDescription: "Store a significant emotional moment.",
			Writes:          true,
			InputSchema: BuildSchemaWithThought(map[string]any{
				"description": StringProperty("What happened"),
				"emotion":     StringProperty("The emotion, e.g. JOY, SADNESS, ANXIETY"),
				"intensity":   NumberRangeProperty("Intensity, 0 to 1 (default: 0.5)", 0, 1),
				"trigger":     StringProperty("Optional: what caused it"),
			}, true, "description", "emotion"),
		},
		{
			ToolName:        "set_goal",
			ToolDescription: "Store a goal or plan the user mentioned.",
			Writes:          true,
			InputSchema: BuildSchemaWithThought(map[string]any{
				"goal":     StringProperty("The goal"),
				"status":   StringEnumProperty("Status (default: active)", "active", "paused", "done", "abandoned"),
				"priority": IntegerRangeProperty("Priority, 1 (low) to 10 (high) (default: 5)", 1, 10),
				"context":  StringProperty("Optional: surrounding context"),
			}, true, "goal"),
		},
	}
}

// MemoryTools binds the memory tool definitions to store.
func MemoryTools(store MemoryStore) []core.Tool {
	handlers := map[string]func(context.Context, json.RawMessage) (any, error){
		"recall_memory":     recallHandler(store),
		"recall_about_user": aboutUserHandler(store),
		"memory_stats": func(context.Context, json.RawMessage) (any, error) {
			return store.Stats(), nil
		},
		"remember_fact": putHandler(store, func(in factInput) (memory.Record, error) {
			if strings.TrimSpace(in.Fact) == "" {
				return nil, missing("fact")
			}
			return memory.Knowledge{Fact: in.Fact, Source: in.Source, Confidence: in.Confidence, Category: in.Category}, nil
		}),
		"note_observation": putHandler(store, func(in observationInput) (memory.Record, error) {
			if strings.TrimSpace(in.Observation) == "" {
				return nil, missing("observation")
			}
			return memory.Observation{Observation: in.Observation, Category: in.Category, Confidence: in.Confidence}, nil
		}),
		"record_emotion": putHandler(store, func(in emotionInput) (memory.Record, error) {
			if strings.TrimSpace(in.Description) == "" {
				return nil, missing("description")
			}
			return memory.EmotionEvent{Description: in.Description, Emotion: in.Emotion, Intensity: in.Intensity, Trigger: in.Trigger}, nil
		}),
		"set_goal": putHandler(store, func(in goalInput) (memory.Record, error) {
			if strings.TrimSpace(in.Goal) == "" {
				return nil, missing("goal")
			}
			return memory.Goal{Goal: in.Goal, Status: in.Status, Priority: in.Priority, Context: in.Context}, nil
		}),
	}

	defs := MemoryToolDefinitions()
	out := make([]core.Tool, 0, len(defs))
	for _, def := range defs {
		out = append(out, core.ToolFunc{Def: def, Handler: handlers[def.ToolName]})
	}
	return out
}

func recallHandler(store MemoryStore) func(context.Context, json.RawMessage) (any, error) {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var in recallInput
		if err := decode(raw, &in); err != nil {
			return nil, err
		}
		if strings.TrimSpace(in.Query) == "" {
			return nil, missing("query")
		}
		kind, err := memory.ParseKind(in.MemoryType)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidInput, err.Error())
		}

		var opts []memory.RecallOption
		if in.TimeWeight != nil {
			opts = append(opts, memory.WithTimeWeight(*in.TimeWeight))
		}
		if in.Emotion != "" {
			opts = append(opts, memory.WithWhere(map[string]string{memory.KeyEmotion: in.Emotion}))
		}

		results, err := store.Query(ctx, in.Query, kind, clampLimit(in.Limit), opts...)
		if err != nil && len(results) == 0 && !errors.Is(err, memory.ErrDisabled) {
			return nil, err
		}
		return compact(results), nil
	}
}

func aboutUserHandler(store MemoryStore) func(context.Context, json.RawMessage) (any, error) {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var in aboutUserInput
		if err := decode(raw, &in); err != nil {
			return nil, err
		}
		if strings.TrimSpace(in.Query) == "" {
			return nil, missing("query")
		}
		return compact(store.RecallAboutUser(ctx, in.Query, clampLimit(in.Limit))), nil
	}
}

func putHandler[T any](store MemoryStore, build func(T) (memory.Record, error)) func(context.Context, json.RawMessage) (any, error) {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var in T
		if err := decode(raw, &in); err != nil {
			return nil, err
		}
		rec, err := build(in)
		if err != nil {
			return nil, err
		}
		id, err := store.Put(ctx, rec)
		if err != nil {
			return nil, err
		}
		return Stored{ID: id, Collection: string(rec.Kind())}, nil
	}
}

func compact(results []memory.RecallResult) []Recalled {
	out := make([]Recalled, 0, len(results))
	for _, r := range results {
		rc := Recalled{
			Text:       r.Text,
			Collection: string(r.Collection),
			Score:      r.CombinedScore,
			Date:       r.Metadata.Date(),
		}
		switch r.Collection {
		case memory.KindKnowledge:
			rc.Confidence = r.Metadata.Confidence(memory.DefaultKnowledgeConfidence)
		case memory.KindObservations:
			rc.Confidence = r.Metadata.Confidence(memory.DefaultObservationConfidence)
		case memory.KindGoals:
			rc.Priority = r.Metadata.Priority()
		}
		out = append(out, rc)
	}
	return out
}

func clampLimit(n int) int {
	if n > maxToolResults {
		return maxToolResults
	}
	return n
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return goerr.Wrap(ErrInvalidInput, "decode tool input", goerr.V("error", err.Error()))
	}
	return nil
}

func missing(field string) error {
	return goerr.Wrap(ErrInvalidInput, "missing required field", goerr.V("field", field))
}
