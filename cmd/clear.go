package cmd

import (
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"github.com/becomeliminal/nim-memory/memory"
)

var clearCmd = &cobra.Command{
	Use:   "clear [collection]",
	Short: "Delete every memory in one collection, or in all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := memory.KindAll
		if len(args) == 1 {
			k, err := memory.ParseKind(args[0])
			if err != nil {
				return err
			}
			kind = k
		}
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return goerr.New("refusing to clear without --yes", goerr.V("collection", kind))
		}

		store, closeEmbedder, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeEmbedder()

		if kind == memory.KindAll {
			err = store.ClearAll(cmd.Context())
		} else {
			err = store.ClearCollection(cmd.Context(), kind)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", kind)
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolP("yes", "y", false, "confirm deletion")
	rootCmd.AddCommand(clearCmd)
}
