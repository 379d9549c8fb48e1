package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/akavel/dodo/pkg/codec"
)

var loadJSON bool

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the document",
	Long:  `Print the normalized document in the configured format, or as indented JSON with --json.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		b := openBridge()
		defer b.Close(ctx)

		res := <-b.Load(ctx)
		if res.Err != nil {
			fail(b, "Failed to load document", res.Err)
		}

		if loadJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(res.Document); err != nil {
				fail(b, "Error encoding JSON", err)
			}
			return
		}

		out, err := codec.ByName(format, true)
		if err != nil {
			fail(b, "Unknown format", err)
		}
		data, err := out.Encode(res.Document)
		if err != nil {
			fail(b, "Error encoding document", err)
		}
		os.Stdout.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			os.Stdout.Write([]byte("\n"))
		}
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().BoolVar(&loadJSON, "json", false, "Output in indented JSON format")
}
