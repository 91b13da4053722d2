package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/preview"
)

var checkCmd = &cobra.Command{
	Use:   "check <pattern>...",
	Short: "Run every program matching the patterns and report which fail",
	Long: `Run every program matching the patterns and report which fail.
Patterns support ** (for example sketches/**/*.js). Exits non-zero when any
program does not come up live.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().IntVar(&framesFlag, "frames", preview.DefaultFrames, "Frames to step per program")
}

type checkRow struct {
	Path    string   `json:"path"`
	Kind    string   `json:"kind,omitempty"`
	Outcome string   `json:"outcome"`
	Errors  []string `json:"errors,omitempty"`
}

// expand resolves glob patterns to a sorted, de-duplicated file list.
func expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	files, err := expand(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no programs match %s", strings.Join(args, " "))
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rows := make([]checkRow, 0, len(files))
	failed := 0
	for _, path := range files {
		row := checkRow{Path: path}
		source, err := readSource(path, nil)
		if err != nil {
			row.Outcome = "unreadable"
			row.Errors = []string{err.Error()}
		} else {
			res, err := a.Preview.Run(cmd.Context(), preview.Request{Source: source, Frames: framesFlag})
			if err != nil {
				return err
			}
			row.Kind, row.Outcome, row.Errors = res.Kind, res.Outcome, res.Errors
		}
		if row.Outcome != sandbox.OutcomeLive {
			failed++
		}
		rows = append(rows, row)
	}

	if jsonFlag {
		if err := printJSON(cmd.OutOrStdout(), rows); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-40s  %-6s  %-10s  %s\n", "PROGRAM", "KIND", "OUTCOME", "FIRST ERROR")
		fmt.Fprintln(w, strings.Repeat("─", 90))
		for _, r := range rows {
			first := ""
			if len(r.Errors) > 0 {
				first = r.Errors[0]
			}
			fmt.Fprintf(w, "%-40s  %-6s  %-10s  %s\n", filepath.ToSlash(r.Path), r.Kind, r.Outcome, first)
		}
		fmt.Fprintf(w, "\n%d program(s), %d failed\n", len(rows), failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d program(s) failed", failed, len(rows))
	}
	return nil
}
