package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/akavel/dodo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of dodo",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dodo version %s\n", strings.TrimSpace(dodo.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
