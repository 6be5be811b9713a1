package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clems4ever/saxstream/sax"
)

var (
	eventsConfigPath string
	eventsStrict     bool
	eventsNamespaces bool
	eventsTrim       bool
	eventsNormalize  bool
	eventsPositions  bool
	eventsHTML       bool
)

// eventsCmd streams a document and prints one line per parser event.
var eventsCmd = &cobra.Command{
	Use:   "events [file]",
	Short: "Print the event stream of a document",
	Long:  `Parse a document and print one line per semantic event, in delivery order.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := loadOptions(eventsConfigPath)
		if err != nil {
			fmt.Printf("Error loading options: %v\n", err)
			os.Exit(1)
		}
		if eventsStrict {
			opts.Strict = true
		}
		if eventsNamespaces {
			opts.Namespaces = true
		}
		if eventsTrim {
			opts.Trim = true
		}
		if eventsNormalize {
			opts.Normalize = true
		}
		if eventsPositions {
			opts.TrackPosition = true
		}

		f, err := os.Open(args[0])
		if err != nil {
			fmt.Printf("Error opening file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		p := sax.New(opts, printHandler())
		w := sax.NewWriter(p)
		if eventsHTML {
			converted, err := sax.ConvertHTMLToXML(f)
			if err != nil {
				fmt.Printf("Error converting HTML: %v\n", err)
				os.Exit(1)
			}
			if _, err := w.WriteString(converted); err != nil {
				fmt.Printf("Error parsing: %v\n", err)
				os.Exit(1)
			}
		} else if _, err := w.ReadFrom(f); err != nil {
			fmt.Printf("Error parsing: %v\n", err)
			os.Exit(1)
		}
		if err := w.Close(); err != nil {
			fmt.Printf("Error parsing: %v\n", err)
			os.Exit(1)
		}
	},
}

func printHandler() sax.Handler {
	return sax.Handler{
		OnText: func(text string) {
			fmt.Printf("text       %q\n", text)
		},
		OnOpenTagStart: func(tag *sax.Tag) {
			fmt.Printf("opentagstart %s\n", tag.Name)
		},
		OnAttribute: func(attr sax.Attribute) {
			if attr.URI != "" {
				fmt.Printf("attribute  %s=%q uri=%s\n", attr.Name, attr.Value, attr.URI)
				return
			}
			fmt.Printf("attribute  %s=%q\n", attr.Name, attr.Value)
		},
		OnOpenTag: func(tag *sax.Tag) {
			suffix := ""
			if tag.IsSelfClosing {
				suffix = " selfclosing"
			}
			fmt.Printf("opentag    %s%s\n", tag.Name, suffix)
		},
		OnCloseTag: func(name string) {
			fmt.Printf("closetag   %s\n", name)
		},
		OnOpenCData: func() { fmt.Println("opencdata") },
		OnCData: func(text string) {
			fmt.Printf("cdata      %q\n", text)
		},
		OnCloseCData: func() { fmt.Println("closecdata") },
		OnComment: func(text string) {
			fmt.Printf("comment    %q\n", text)
		},
		OnDoctype: func(text string) {
			fmt.Printf("doctype    %q\n", text)
		},
		OnProcessingInstruction: func(pi sax.ProcInst) {
			fmt.Printf("procinst   %s %q\n", pi.Name, pi.Body)
		},
		OnSGMLDeclaration: func(text string) {
			fmt.Printf("sgmldecl   %q\n", text)
		},
		OnOpenNamespace: func(ns sax.Namespace) {
			fmt.Printf("opennamespace  %s=%s\n", ns.Prefix, ns.URI)
		},
		OnCloseNamespace: func(ns sax.Namespace) {
			fmt.Printf("closenamespace %s=%s\n", ns.Prefix, ns.URI)
		},
		OnError: func(err error) {
			fmt.Printf("error      %s\n", strings.ReplaceAll(err.Error(), "\n", " "))
		},
		OnEnd: func() { fmt.Println("end") },
	}
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().StringVarP(&eventsConfigPath, "config", "c", "", "Path to a YAML options file")
	eventsCmd.Flags().BoolVar(&eventsStrict, "strict", false, "Parse in strict XML mode")
	eventsCmd.Flags().BoolVar(&eventsNamespaces, "namespaces", false, "Resolve xmlns namespaces")
	eventsCmd.Flags().BoolVar(&eventsTrim, "trim", false, "Trim whitespace around text events")
	eventsCmd.Flags().BoolVar(&eventsNormalize, "normalize", false, "Collapse whitespace runs in text events")
	eventsCmd.Flags().BoolVar(&eventsPositions, "positions", false, "Track line/column for error messages")
	eventsCmd.Flags().BoolVar(&eventsHTML, "html", false, "Run the HTML-to-XML pre-pass first")
}
