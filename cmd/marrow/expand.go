package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"marrow/internal/diag"
	"marrow/internal/diagfmt"
	"marrow/internal/driver"
	"marrow/internal/macros"
	"marrow/internal/project"
	"marrow/internal/source"
	"marrow/internal/ui"
)

var expandCmd = &cobra.Command{
	Use:   "expand [flags] path",
	Short: "Expand annotation macros in a file or directory",
	Long: `Expand resolves every attribute-position and derive-list macro
invocation in the given .mw file, or in every .mw file under the given
directory, and prints the rewritten declarations.`,
	Args: cobra.ExactArgs(1),
	RunE: runExpand,
}

func init() {
	expandCmd.Flags().String("ui", "auto", "interactive progress for directories (auto|on|off)")
	expandCmd.Flags().Int("jobs", 0, "concurrent file expansions (0 = one per CPU)")
	expandCmd.Flags().Int("max-depth", 0, "macro invocation limit per declaration (0 = manifest or default)")
	expandCmd.Flags().StringSlice("feature", nil, "enable a cfg feature (repeatable)")
	expandCmd.Flags().Bool("no-cache", false, "skip the expansion artifact cache")
}

func runExpand(cmd *cobra.Command, args []string) error {
	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	manifest, _, err := project.LoadFromDir(startDirFor(path, info.IsDir()))
	if err != nil {
		return err
	}
	opts, err := expandOptions(cmd, manifest)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return expandDir(cmd, path, opts)
	}
	return expandFile(cmd, path, opts)
}

func startDirFor(path string, isDir bool) string {
	if isDir {
		return path
	}
	return "."
}

// expandOptions merges manifest configuration with command-line overrides.
func expandOptions(cmd *cobra.Command, manifest *project.Manifest) (driver.Options, error) {
	cfg := manifest.Config

	registry := macros.Default()
	registry.Deny(cfg.Macros.Deny...)
	registry.RebindIdentity(cfg.Macros.Identity...)

	maxDepth, err := cmd.Flags().GetInt("max-depth")
	if err != nil {
		return driver.Options{}, err
	}
	if maxDepth == 0 {
		maxDepth = cfg.Expansion.MaxDepth
	}

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return driver.Options{}, err
	}
	if jobs == 0 {
		jobs = cfg.Expansion.Jobs
	}

	extra, err := cmd.Flags().GetStringSlice("feature")
	if err != nil {
		return driver.Options{}, err
	}
	fromManifest := cfg.Expansion.Enabled()
	flagSet := make(map[string]bool, len(extra))
	for _, f := range extra {
		flagSet[f] = true
	}

	opts := driver.Options{
		Invoker:        registry,
		MaxDepth:       maxDepth,
		MaxDiagnostics: maxDiagnosticsWith(cmd, cfg),
		Jobs:           jobs,
		Enabled: func(name string) bool {
			return flagSet[name] || fromManifest(name)
		},
	}

	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return driver.Options{}, err
	}
	if !noCache {
		cache, err := driver.OpenCache("marrow")
		if err == nil {
			opts.Cache = cache
		}
	}
	return opts, nil
}

func expandFile(cmd *cobra.Command, path string, opts driver.Options) error {
	// Single-file runs always re-expand; the cache serves directory sweeps.
	opts.Cache = nil

	result, err := driver.ExpandFile(path, opts)
	if err != nil {
		return fmt.Errorf("expansion failed: %w", err)
	}

	printDiagnostics(cmd, result.Bag, result.FileSet)

	rendered, err := driver.Render(result.Decls)
	if err != nil {
		return err
	}
	for _, line := range rendered {
		fmt.Fprintln(os.Stdout, line)
	}

	if result.Bag.HasErrors() {
		return fmt.Errorf("expansion completed with errors")
	}
	return nil
}

func expandDir(cmd *cobra.Command, dir string, opts driver.Options) error {
	mode, err := readUIMode(cmd.Flags().Lookup("ui").Value.String())
	if err != nil {
		return err
	}

	var (
		fileSet *source.FileSet
		results []driver.ExpandDirResult
	)
	if shouldUseTUI(mode) {
		files, err := driver.ListFiles(dir)
		if err != nil {
			return err
		}
		events := make(chan driver.Event, 16)
		opts.Events = events

		done := make(chan error, 1)
		go func() {
			var runErr error
			fileSet, results, runErr = driver.ExpandDir(cmd.Context(), dir, opts)
			done <- runErr
		}()

		model := ui.NewProgressModel("expanding "+dir, files, events)
		if _, teaErr := tea.NewProgram(model).Run(); teaErr != nil {
			return teaErr
		}
		if err := <-done; err != nil {
			return err
		}
	} else {
		fileSet, results, err = driver.ExpandDir(context.Background(), dir, opts)
		if err != nil {
			return err
		}
	}

	failed := 0
	for _, res := range results {
		if res.Bag.Len() > 0 {
			printDiagnostics(cmd, res.Bag, fileSet)
		}
		if res.Bag.HasErrors() {
			failed++
			continue
		}
		fmt.Fprintf(os.Stdout, "// %s\n", res.Path)
		for _, line := range res.Rendered {
			fmt.Fprintln(os.Stdout, line)
		}
	}

	if failed > 0 {
		return fmt.Errorf("expansion failed for %d of %d files", failed, len(results))
	}
	return nil
}

func printDiagnostics(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet) {
	if bag.Len() == 0 {
		return
	}
	bag.Sort()
	diagfmt.Pretty(os.Stderr, bag, fs, diagfmt.PrettyOpts{
		Color:     useColor(cmd, os.Stderr),
		ShowNotes: true,
	})
}

// maxDiagnostics resolves the persistent flag against built-in defaults,
// used by commands that run without a manifest.
func maxDiagnostics(cmd *cobra.Command) int {
	n, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil || n <= 0 {
		return project.DefaultMaxDiagnostics
	}
	return n
}

func maxDiagnosticsWith(cmd *cobra.Command, cfg project.Config) int {
	n, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err == nil && n > 0 {
		return n
	}
	return cfg.Expansion.MaxDiagnostics
}
