package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/akavel/dodo/pkg/port"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the message contract over stdin/stdout",
	Long: `Read one JSON request per line from stdin and write one JSON response per line to stdout.

  {"id":"1","type":"saveStorage","document":{"count":3}}
  {"id":"2","type":"loadStorage"}
  {"id":"3","type":"load","version":1}`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b := openBridge()
		defer b.Close(context.Background())

		server := port.NewServer(b.Bridge, slog.Default())
		if err := server.Serve(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			fail(b, "Serve failed", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
