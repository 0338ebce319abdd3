package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/becomeliminal/nim-memory/engine"
	"github.com/becomeliminal/nim-memory/logging"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the companion with memory enabled",
	Long:  "Reads one message per line from stdin. Each turn recalls memories, asks the generator for a reply and records the exchange. Type /quit to leave.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		gen, err := requireGenerator()
		if err != nil {
			return err
		}
		store, closeEmbedder, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeEmbedder()

		emotion, _ := cmd.Flags().GetString("emotion")
		stage, _ := cmd.Flags().GetString("stage")
		memories, _ := cmd.Flags().GetInt("memories")
		e := engine.New(gen,
			engine.WithMemory(store),
			engine.WithLogger(logging.From(ctx)),
			engine.WithMaxMemories(memories),
			engine.WithEmotionalContext(2),
		)

		out := cmd.OutOrStdout()
		sessionID := uuid.NewString()
		scanner := bufio.NewScanner(cmd.InOrStdin())
		fmt.Fprint(out, "> ")
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			switch line {
			case "":
				fmt.Fprint(out, "> ")
				continue
			case "/quit", "/exit":
				return nil
			}

			res, err := e.Run(ctx, &engine.Input{
				UserMessage:       line,
				SessionID:         sessionID,
				Emotion:           emotion,
				RelationshipStage: stage,
			})
			if err != nil {
				logging.From(ctx).Error("turn failed", "error", err)
			} else {
				fmt.Fprintf(out, "%s\n", res.Text)
			}
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprint(out, "> ")
		}
		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().String("emotion", "", "emotion recorded with each exchange")
	chatCmd.Flags().String("stage", "", "relationship stage recorded with each exchange")
	chatCmd.Flags().Int("memories", 3, "memories recalled per collection each turn")
	rootCmd.AddCommand(chatCmd)
}
