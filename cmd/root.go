// Package cmd implements the nim-memory command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/becomeliminal/nim-memory/config"
	"github.com/becomeliminal/nim-memory/logging"
)

var (
	cfg *config.Config

	configPath string
	dataDir    string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "nim-memory",
	Short: "Long-term semantic memory for a companion agent",
	Long: "nim-memory keeps conversations, knowledge, emotional events, goals and " +
		"observations in vector collections and recalls them by meaning, recency and emotional weight.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if dataDir != "" {
			loaded.DataDir = dataDir
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		cfg = loaded

		if cfg.Log.Format == "json" {
			logging.SetDefault(logging.NewJSON(cfg.Log.Level, os.Stderr))
		} else {
			logging.SetDefault(logging.New(cfg.Log.Level, os.Stderr))
		}
		cmd.SetContext(logging.With(cmd.Context(), logging.Default()))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: <data dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
