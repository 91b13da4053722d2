package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/preview"
	"github.com/GriffinCanCode/sketchbox/internal/shared/id"
	"github.com/GriffinCanCode/sketchbox/internal/shared/types"
	"github.com/GriffinCanCode/sketchbox/internal/studio"
)

var (
	outFlag   string
	shareFlag bool
	descFlag  string
	runFlag   string
)

var generateCmd = &cobra.Command{
	Use:   "generate <description>",
	Short: "Generate a program from a description, fixing it until it runs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

var shareCmd = &cobra.Command{
	Use:   "share <file|->",
	Short: "Save a program to the animation service and print its id",
	Args:  cobra.ExactArgs(1),
	RunE:  runShare,
}

var openCmd = &cobra.Command{
	Use:   "open <animation-id>",
	Short: "Fetch a shared program and run it",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Fetch a random shared program and run it",
	Args:  cobra.NoArgs,
	RunE:  runFeed,
}

var moodCmd = &cobra.Command{
	Use:   "mood <animation-id> <mood>",
	Short: "Record how a shared program made you feel",
	Long:  "Record how a shared program made you feel. Moods: " + moodList() + ".",
	Args:  cobra.ExactArgs(2),
	RunE:  runMood,
}

func init() {
	rootCmd.AddCommand(generateCmd, shareCmd, openCmd, feedCmd, moodCmd)

	generateCmd.Flags().StringVarP(&outFlag, "out", "o", "", "Write the program to a file instead of stdout")
	generateCmd.Flags().BoolVar(&shareFlag, "share", false, "Share the program once it runs")

	shareCmd.Flags().StringVarP(&descFlag, "description", "d", "", "Description to save with the program")
	shareCmd.Flags().StringVar(&runFlag, "run", "", "Local run id to link to the shared program")

	openCmd.Flags().StringVarP(&outFlag, "out", "o", "", "Also write the program to a file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	description := strings.Join(args, " ")
	c, err := a.Studio.Create(cmd.Context(), description)
	var gaveUp *studio.GaveUpError
	if errors.As(err, &gaveUp) {
		fmt.Fprintf(cmd.ErrOrStderr(), "last error after %d fixes: %s\n", gaveUp.Attempts, gaveUp.LastError)
		return err
	}
	if err != nil {
		return err
	}

	if err := emitCode(cmd, c.Code); err != nil {
		return err
	}
	if !jsonFlag {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s, %d fix(es), run %s\n", c.Result.Outcome, c.Fixes, c.HistoryID)
	}

	if shareFlag {
		animationID, err := a.Studio.Share(cmd.Context(), c.Code, c.Description, c.HistoryID)
		if err != nil {
			return fmt.Errorf("sharing: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "shared as %s\n", animationID)
	}
	if jsonFlag {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"description": c.Description,
			"code":        c.Code,
			"fixes":       c.Fixes,
			"run_id":      c.HistoryID,
			"result":      c.Result,
		})
	}
	return nil
}

func runShare(cmd *cobra.Command, args []string) error {
	source, err := readSource(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	animationID, err := a.Studio.Share(cmd.Context(), source, descFlag, id.HistoryID(runFlag))
	if err != nil {
		return err
	}
	if jsonFlag {
		return printJSON(cmd.OutOrStdout(), types.SaveResponse{ID: animationID})
	}
	fmt.Fprintln(cmd.OutOrStdout(), animationID)
	return nil
}

func runOpen(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	anim, res, err := a.Studio.Open(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if outFlag != "" {
		if err := os.WriteFile(outFlag, []byte(anim.Code), 0o644); err != nil {
			return fmt.Errorf("writing program: %w", err)
		}
	}
	return showAnimation(cmd, anim, res)
}

func runFeed(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	anim, res, err := a.Studio.Feed(cmd.Context())
	if errors.Is(err, studio.ErrFeedEmpty) {
		fmt.Fprintln(cmd.OutOrStdout(), "No animations shared yet.")
		return nil
	}
	if err != nil {
		return err
	}
	return showAnimation(cmd, anim, res)
}

func runMood(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Studio.Mood(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	if jsonFlag {
		return printJSON(cmd.OutOrStdout(), types.MoodResponse{Success: true})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for %s\n", args[1], args[0])
	return nil
}

func showAnimation(cmd *cobra.Command, anim *types.Animation, res *preview.Result) error {
	if jsonFlag {
		return printJSON(cmd.OutOrStdout(), map[string]any{"animation": anim, "result": res})
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-10s %s\n", "id", anim.ID)
	if anim.Description != "" {
		fmt.Fprintf(w, "%-10s %s\n", "about", anim.Description)
	}
	fmt.Fprintln(w, strings.Repeat("─", 40))
	printResult(w, res)
	if res.Outcome != sandbox.OutcomeLive {
		return errFailed
	}
	return nil
}

// emitCode writes a generated program to --out or stdout.
func emitCode(cmd *cobra.Command, code string) error {
	if outFlag != "" {
		if err := os.WriteFile(outFlag, []byte(code), 0o644); err != nil {
			return fmt.Errorf("writing program: %w", err)
		}
		return nil
	}
	if jsonFlag {
		return nil
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), code)
	return err
}

func moodList() string {
	names := make([]string, len(types.Moods))
	for i, m := range types.Moods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
