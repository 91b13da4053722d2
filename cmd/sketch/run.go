package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/sketchbox/internal/sandbox"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/preview"
)

var (
	kindFlag   string
	framesFlag int
	widthFlag  int
	heightFlag int
)

var runCmd = &cobra.Command{
	Use:   "run <file|->",
	Short: "Run a program headlessly and report how it went",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&kindFlag, "kind", "", "Program kind: sketch or scene (default: detect)")
	runCmd.Flags().IntVar(&framesFlag, "frames", preview.DefaultFrames, "Frames to step")
	runCmd.Flags().IntVar(&widthFlag, "width", 0, "Mount width")
	runCmd.Flags().IntVar(&heightFlag, "height", 0, "Mount height")
}

func runRun(cmd *cobra.Command, args []string) error {
	source, err := readSource(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var res *preview.Result
	if kindFlag == "" && framesFlag == preview.DefaultFrames && widthFlag == 0 && heightFlag == 0 {
		c, err := a.Studio.Run(cmd.Context(), filepath.Base(args[0]), source)
		if err != nil {
			return err
		}
		res = c.Result
		if c.HistoryID != "" && !jsonFlag {
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", "run", c.HistoryID)
		}
	} else {
		res, err = a.Preview.Run(cmd.Context(), preview.Request{
			Source: source,
			Kind:   kindFlag,
			Frames: framesFlag,
			Width:  widthFlag,
			Height: heightFlag,
		})
		if err != nil {
			return err
		}
	}

	if jsonFlag {
		if err := printJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	} else {
		printResult(cmd.OutOrStdout(), res)
	}
	if res.Outcome != sandbox.OutcomeLive {
		return errFailed
	}
	return nil
}
