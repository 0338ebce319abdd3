package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate <topic>",
	Short: "Summarize conversations about a topic into a knowledge memory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, err := requireGenerator()
		if err != nil {
			return err
		}
		store, closeEmbedder, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEmbedder()

		limit, _ := cmd.Flags().GetInt("limit")
		summary, err := store.Consolidate(cmd.Context(), gen, strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), summary)
		return nil
	},
}

func init() {
	consolidateCmd.Flags().IntP("limit", "n", 10, "conversations to summarize")
	rootCmd.AddCommand(consolidateCmd)
}
