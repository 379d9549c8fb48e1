package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/akavel/dodo/pkg/adapters/fs"
	"github.com/akavel/dodo/pkg/codec"
)

var changeReason string

var saveCmd = &cobra.Command{
	Use:   "save [file|-]",
	Short: "Save a document",
	Long:  `Persist a JSON object read from a file, or from stdin when the argument is "-" or omitted.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var in io.Reader = os.Stdin
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				fatal("Failed to open input", err)
			}
			defer f.Close()
			in = f
		}

		data, err := io.ReadAll(in)
		if err != nil {
			fatal("Failed to read input", err)
		}
		doc, err := codec.NewJSON(true).Decode(data)
		if err != nil {
			fatal("Invalid document", err)
		}

		ctx := context.Background()
		if changeReason != "" {
			ctx = context.WithValue(ctx, fs.ChangeReasonKey, changeReason)
		}

		b := openBridge()
		defer b.Close(context.Background())

		if err := <-b.Save(ctx, doc); err != nil {
			fail(b, "Failed to save document", err)
		}
		fmt.Printf("Document '%s' saved.\n", b.Namespace())
	},
}

func init() {
	rootCmd.AddCommand(saveCmd)
	saveCmd.Flags().StringVarP(&changeReason, "message", "m", "", "Commit message (with --versioning)")
}
