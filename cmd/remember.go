package cmd

import (
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"github.com/becomeliminal/nim-memory/memory"
)

var rememberFlags struct {
	response   string
	emotion    string
	topics     []string
	stage      string
	source     string
	category   string
	confidence float64
	intensity  float64
	trigger    string
	status     string
	priority   int
	context    string
}

var rememberCmd = &cobra.Command{
	Use:   "remember <collection> <text>",
	Short: "Store one memory",
	Long: `Store one memory in a collection:

  conversations    text is the user's input; --response is the reply
  knowledge        text is a fact
  emotion_events   text describes the moment; --emotion names it
  goals_and_plans  text is the goal
  user_observations  text is the observation`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := memory.ParseKind(args[0])
		if err != nil {
			return err
		}
		text := strings.Join(args[1:], " ")

		rec, err := buildRecord(kind, text)
		if err != nil {
			return err
		}

		store, closeEmbedder, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEmbedder()

		id, err := store.Put(cmd.Context(), rec)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

func buildRecord(kind memory.Kind, text string) (memory.Record, error) {
	f := rememberFlags
	switch kind {
	case memory.KindConversations:
		return memory.Conversation{
			UserInput:         text,
			Response:          f.response,
			Emotion:           f.emotion,
			Topics:            f.topics,
			RelationshipStage: f.stage,
		}, nil
	case memory.KindKnowledge:
		return memory.Knowledge{Fact: text, Source: f.source, Confidence: f.confidence, Category: f.category}, nil
	case memory.KindEmotions:
		return memory.EmotionEvent{Description: text, Emotion: f.emotion, Intensity: f.intensity, Trigger: f.trigger}, nil
	case memory.KindGoals:
		return memory.Goal{Goal: text, Status: f.status, Priority: f.priority, Context: f.context}, nil
	case memory.KindObservations:
		return memory.Observation{Observation: text, Category: f.category, Confidence: f.confidence}, nil
	}
	return nil, goerr.Wrap(memory.ErrUnknownKind, "remember needs a single collection", goerr.V("kind", kind))
}

func init() {
	f := rememberCmd.Flags()
	f.StringVar(&rememberFlags.response, "response", "", "companion reply (conversations)")
	f.StringVar(&rememberFlags.emotion, "emotion", "", "emotion label (conversations, emotion_events)")
	f.StringSliceVar(&rememberFlags.topics, "topics", nil, "comma-separated topics (conversations)")
	f.StringVar(&rememberFlags.stage, "stage", "", "relationship stage (conversations)")
	f.StringVar(&rememberFlags.source, "source", "", "where the fact came from (knowledge)")
	f.StringVar(&rememberFlags.category, "category", "", "category (knowledge, user_observations)")
	f.Float64Var(&rememberFlags.confidence, "confidence", 0, "confidence 0-1 (knowledge, user_observations)")
	f.Float64Var(&rememberFlags.intensity, "intensity", 0, "intensity 0-1 (emotion_events)")
	f.StringVar(&rememberFlags.trigger, "trigger", "", "what caused it (emotion_events)")
	f.StringVar(&rememberFlags.status, "status", "", "goal status (goals_and_plans)")
	f.IntVar(&rememberFlags.priority, "priority", 0, "priority 1-10 (goals_and_plans)")
	f.StringVar(&rememberFlags.context, "context", "", "surrounding context (goals_and_plans)")
	rootCmd.AddCommand(rememberCmd)
}
