package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/becomeliminal/nim-memory/memory"
)

var recallCmd = &cobra.Command{
	Use:   "recall <query>",
	Short: "Search memories by meaning and recency",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, _ := cmd.Flags().GetString("type")
		kind, err := memory.ParseKind(typ)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		var opts []memory.RecallOption
		if cmd.Flags().Changed("time-weight") {
			tw, _ := cmd.Flags().GetFloat64("time-weight")
			opts = append(opts, memory.WithTimeWeight(tw))
		}
		if emotion, _ := cmd.Flags().GetString("emotion"); emotion != "" {
			opts = append(opts, memory.WithWhere(map[string]string{memory.KeyEmotion: emotion}))
		}

		store, closeEmbedder, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEmbedder()

		results, err := store.Query(cmd.Context(), strings.Join(args, " "), kind, limit, opts...)
		if err != nil && len(results) == 0 {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		if len(results) == 0 {
			fmt.Fprintln(out, "No memories found.")
			return nil
		}
		fmt.Fprintln(out, memory.FormatResults(results))
		return nil
	},
}

var contextCmd = &cobra.Command{
	Use:   "context <input>",
	Short: "Print the memory block a companion turn would receive",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, closeEmbedder, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEmbedder()

		fmt.Fprintln(cmd.OutOrStdout(), store.RelevantContext(cmd.Context(), strings.Join(args, " "), limit))
		return nil
	},
}

func init() {
	recallCmd.Flags().StringP("type", "t", "all", "collection to search, or all")
	recallCmd.Flags().IntP("limit", "n", memory.DefaultResults, "results per collection")
	recallCmd.Flags().Float64("time-weight", memory.DefaultTimeWeight, "share of the score given to recency (0-1)")
	recallCmd.Flags().String("emotion", "", "only memories recorded with this emotion")
	recallCmd.Flags().Bool("json", false, "print results as JSON")
	rootCmd.AddCommand(recallCmd)

	contextCmd.Flags().IntP("limit", "n", 3, "results per collection")
	rootCmd.AddCommand(contextCmd)
}
