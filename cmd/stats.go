package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/becomeliminal/nim-memory/memory"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count memories per collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeEmbedder, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEmbedder()

		out := cmd.OutOrStdout()
		if !store.Enabled() {
			fmt.Fprintln(out, "memory store is disabled")
			return nil
		}
		stats := store.Stats()
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COLLECTION\tMEMORIES")
		for _, k := range memory.Kinds() {
			fmt.Fprintf(w, "%s\t%d\n", k, stats[string(k)])
		}
		fmt.Fprintf(w, "total\t%d\n", stats["total"])
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
