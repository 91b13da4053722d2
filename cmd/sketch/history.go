package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/sketchbox/internal/history"
)

var (
	limitFlag   int
	outcomeFlag string
	keepFlag    int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect local runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its program (accepts an id prefix)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyPruneCmd)

	historyListCmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Max runs to list")
	historyListCmd.Flags().StringVar(&kindFlag, "kind", "", "Filter by kind (sketch, scene)")
	historyListCmd.Flags().StringVar(&outcomeFlag, "outcome", "", "Filter by outcome (live, error, malformed)")
	historyPruneCmd.Flags().IntVar(&keepFlag, "keep", 100, "Runs to keep")
}

func openHistory() (*history.Store, func(), error) {
	a, err := openApp()
	if err != nil {
		return nil, nil, err
	}
	if a.History == nil {
		a.Close()
		return nil, nil, errors.New("run history unavailable")
	}
	return a.History, func() { a.Close() }, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, done, err := openHistory()
	if err != nil {
		return err
	}
	defer done()

	entries, err := store.List(cmd.Context(), history.ListOptions{
		Limit:   limitFlag,
		Kind:    kindFlag,
		Outcome: outcomeFlag,
	})
	if err != nil {
		return err
	}
	if jsonFlag {
		return printJSON(cmd.OutOrStdout(), entries)
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}
	fmt.Fprintf(w, "%-20s  %-6s  %-9s  %-5s  %-16s  %s\n", "ID", "KIND", "OUTCOME", "FIXES", "CREATED", "DESCRIPTION")
	fmt.Fprintln(w, strings.Repeat("─", 90))
	for _, e := range entries {
		desc := e.Description
		if len(desc) > 36 {
			desc = desc[:33] + "..."
		}
		fmt.Fprintf(w, "%-20s  %-6s  %-9s  %-5d  %-16s  %s\n",
			shortID(string(e.ID)), e.Kind, e.Outcome, e.FixAttempts,
			e.CreatedAt.Local().Format("2006-01-02 15:04"), desc)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, done, err := openHistory()
	if err != nil {
		return err
	}
	defer done()

	e, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if jsonFlag {
		return printJSON(cmd.OutOrStdout(), e)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-10s %s\n", "id", e.ID)
	fmt.Fprintf(w, "%-10s %s\n", "kind", e.Kind)
	fmt.Fprintf(w, "%-10s %s\n", "outcome", e.Outcome)
	fmt.Fprintf(w, "%-10s %d\n", "fixes", e.FixAttempts)
	if e.RemoteID != "" {
		fmt.Fprintf(w, "%-10s %s\n", "shared", e.RemoteID)
	}
	fmt.Fprintf(w, "%-10s %s\n", "created", e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if e.Description != "" {
		fmt.Fprintf(w, "%-10s %s\n", "about", e.Description)
	}
	for _, msg := range e.Errors {
		fmt.Fprintf(w, "error: %s\n", msg)
	}
	fmt.Fprintln(w, strings.Repeat("─", 40))
	fmt.Fprintln(w, e.Source)
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	store, done, err := openHistory()
	if err != nil {
		return err
	}
	defer done()

	n, err := store.Prune(cmd.Context(), keepFlag)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d run(s)\n", n)
	return nil
}

// shortID trims the ulid tail so the table stays narrow; show accepts the
// prefix.
func shortID(s string) string {
	if len(s) <= 20 {
		return s
	}
	return s[:20]
}
