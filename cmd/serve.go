package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/becomeliminal/nim-memory/logging"
	"github.com/becomeliminal/nim-memory/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the memory HTTP and WebSocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, closeEmbedder, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeEmbedder()

		gen, err := newGenerator(cfg.Generator)
		if err != nil {
			return err
		}

		opts := []server.Option{server.WithLogger(logging.From(ctx))}
		if gen != nil {
			opts = append(opts, server.WithGenerator(gen))
		}
		srv := server.New(server.Config{
			Addr:            cfg.Server.Addr,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		}, store, opts...)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config: 127.0.0.1:8420)")
	rootCmd.AddCommand(serveCmd)
}

