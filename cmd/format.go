package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clems4ever/saxstream/sax"
)

var formatConfigPath string

// formatCmd builds the minimal tree and pretty-prints it.
var formatCmd = &cobra.Command{
	Use:   "format [file]",
	Short: "Pretty-print a document",
	Long:  `Parse a document into the minimal element tree and print an indented rendering.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := loadOptions(formatConfigPath)
		if err != nil {
			fmt.Printf("Error loading options: %v\n", err)
			os.Exit(1)
		}

		f, err := os.Open(args[0])
		if err != nil {
			fmt.Printf("Error opening file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		root, err := sax.Build(f, opts)
		if err != nil {
			fmt.Printf("Error parsing: %v\n", err)
			os.Exit(1)
		}
		root.PrettyPrint(os.Stdout, 0)
	},
}

func init() {
	rootCmd.AddCommand(formatCmd)

	formatCmd.Flags().StringVarP(&formatConfigPath, "config", "c", "", "Path to a YAML options file")
}
