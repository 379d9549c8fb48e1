package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/akavel/dodo/pkg/adapters/lifecycle"
	"github.com/akavel/dodo/pkg/core"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the document whenever it changes",
	Long:  `Watch the document file (fs adapter only) and print the normalized document as a JSON line after every change.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b := openBridge()
		defer b.Close(context.Background())

		events, err := b.Watch(ctx)
		if err != nil {
			fail(b, "Failed to watch", err)
		}

		encoder := json.NewEncoder(os.Stdout)
		printDoc := func() {
			res := <-b.Load(ctx)
			if res.Err != nil {
				slog.Error("load failed", "error", res.Err)
				return
			}
			if err := encoder.Encode(res.Document); err != nil {
				fail(b, "Error encoding JSON", err)
			}
		}

		printDoc()

		src := lifecycle.EventSource(events)
		if err := src.Start(ctx); err != nil {
			fail(b, "Failed to start watcher", err)
		}
		for e := range src.Events() {
			event, ok := e.(core.Event)
			if !ok {
				continue
			}
			slog.Debug("document changed", "event", event.String())
			if event.Type == core.EventDelete {
				continue
			}
			printDoc()
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
