package cmd

import (
	"fmt"
	"os"
	"sort"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/spf13/cobra"

	"github.com/clems4ever/saxstream/sax"
)

var statsConfigPath string

// statsCmd reports how much text content each element name carries, both in
// characters and in cl100k_base tokens, useful when sizing documents for a
// model context window.
var statsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Report text token counts per element",
	Long: `Parse a document and report the amount of character data under each
element name, in characters and in cl100k_base tokens.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := loadOptions(statsConfigPath)
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

		tke, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			fmt.Printf("Error loading encoding: %v\n", err)
			os.Exit(1)
		}

		type counts struct {
			chars  int
			tokens int
		}
		perElement := map[string]*counts{}
		var stack []string

		addText := func(text string) {
			if len(stack) == 0 {
				return
			}
			name := stack[len(stack)-1]
			c := perElement[name]
			if c == nil {
				c = &counts{}
				perElement[name] = c
			}
			c.chars += utf8.RuneCountInString(text)
			c.tokens += len(tke.Encode(text, nil, nil))
		}

		p := sax.New(opts, sax.Handler{
			OnOpenTag: func(tag *sax.Tag) {
				stack = append(stack, tag.Name)
			},
			OnCloseTag: func(string) {
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			},
			OnText:  addText,
			OnCData: addText,
		})
		w := sax.NewWriter(p)
		if _, err := w.ReadFrom(f); err != nil {
			fmt.Printf("Error parsing: %v\n", err)
			os.Exit(1)
		}
		if err := w.Close(); err != nil {
			fmt.Printf("Error parsing: %v\n", err)
			os.Exit(1)
		}

		names := make([]string, 0, len(perElement))
		for name := range perElement {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			return perElement[names[i]].tokens > perElement[names[j]].tokens
		})
		for _, name := range names {
			c := perElement[name]
			fmt.Printf("%-24s %8d chars %8d tokens\n", name, c.chars, c.tokens)
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVarP(&statsConfigPath, "config", "c", "", "Path to a YAML options file")
}
