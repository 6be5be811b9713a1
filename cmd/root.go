package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "saxstream",
	Short: "A streaming event-driven XML/HTML parser",
	Long: `Saxstream parses XML and HTML-like documents as a stream of semantic
events (tag opens, attributes, text runs, CDATA, comments and more) without
ever building a document tree, and exposes the stream over a set of
inspection commands.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {}
