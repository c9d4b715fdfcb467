package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/eversync/eversync/internal/notesrv"
	"github.com/eversync/eversync/internal/utils"
	"github.com/eversync/eversync/internal/version"
)

func main() {
	var addr string
	var token string

	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rootCmd = &cobra.Command{
		Use:     "notesrv",
		Short:   "In-memory note service for local Eversync development",
		Version: version.Detailed(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("EVERSYNC_DEV_TOKEN")
			}
			slog.Info("note service", "version", version.Short(), "token", utils.MaskSecret(token))

			srv := notesrv.New(&notesrv.Config{Addr: addr, Token: token}, logger)
			defer slog.Info("Bye!")
			return srv.Start(cmd.Context())
		},
	}

	rootCmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:8080", "Address to bind the server")
	rootCmd.Flags().StringVarP(&token, "token", "t", "", "Accepted bearer token, empty accepts any (default $EVERSYNC_DEV_TOKEN)")

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
