// Command jinjago renders a Jinja-dialect template against an optional JSON
// context file and writes the result to stdout. It is a thin driver over
// the jinjago library - the one place in this module disk I/O is
// legitimate, since the library package itself performs none.
package main

import (
	"fmt"
	"os"

	"github.com/flosch/jinjago"
	"github.com/spf13/cobra"
)

func main() {
	var (
		contextFile  string
		trimBlocks   bool
		lstripBlocks bool
	)

	rootCmd := &cobra.Command{
		Use:           "jinjago <template-file>",
		Short:         "Render a Jinja-dialect template file",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(args[0], contextFile, trimBlocks, lstripBlocks)
		},
	}

	rootCmd.Flags().StringVar(&contextFile, "context", "", "path to a JSON file supplying the render context")
	rootCmd.Flags().BoolVar(&trimBlocks, "trim-blocks", false, "strip the first newline after a statement tag")
	rootCmd.Flags().BoolVar(&lstripBlocks, "lstrip-blocks", false, "strip leading whitespace on a line before a statement tag")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jinjago:", err)
		os.Exit(1)
	}
}

func render(templateFile, contextFile string, trimBlocks, lstripBlocks bool) error {
	src, err := os.ReadFile(templateFile)
	if err != nil {
		return fmt.Errorf("reading template: %w", err)
	}

	tpl, err := jinjago.FromStringOpts(string(src), jinjago.Options{
		TrimBlocks:   trimBlocks,
		LstripBlocks: lstripBlocks,
	})
	if err != nil {
		return fmt.Errorf("parsing template: %w", err)
	}

	context := jinjago.NewValueMap()
	if contextFile != "" {
		data, err := os.ReadFile(contextFile)
		if err != nil {
			return fmt.Errorf("reading context: %w", err)
		}
		v, err := jinjago.FromJSON(data)
		if err != nil {
			return fmt.Errorf("parsing context: %w", err)
		}
		if v.IsMap() {
			context = v.Map()
		}
	}

	return tpl.ExecuteWriter(os.Stdout, context)
}
