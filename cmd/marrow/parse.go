package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"marrow/internal/diagfmt"
	"marrow/internal/driver"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.mw",
	Short: "Parse a marrow source file into declaration trees",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runParse(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	result, err := driver.Parse(args[0], maxDiagnostics(cmd))
	if err != nil {
		return fmt.Errorf("parsing failed: %w", err)
	}

	if result.Bag.Len() > 0 {
		result.Bag.Sort()
		diagfmt.Pretty(os.Stderr, result.Bag, result.FileSet, diagfmt.PrettyOpts{
			Color:     useColor(cmd, os.Stderr),
			ShowNotes: true,
		})
	}

	switch format {
	case "pretty":
		if err := diagfmt.FormatDeclsPretty(os.Stdout, result.Decls); err != nil {
			return err
		}
	case "json":
		if err := diagfmt.FormatDeclsJSON(os.Stdout, result.Decls); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if result.Bag.HasErrors() {
		return fmt.Errorf("parsing completed with errors")
	}
	return nil
}
