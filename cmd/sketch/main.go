package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	apiFlag  string
	devFlag  bool
	jsonFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "sketch",
	Short: "sketch - run and generate browser animations headlessly",
	Long: `sketch runs p5-style and three-style animation programs on a headless
page, generates new ones from a description, and talks to the animation
service to share, open and rate them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiFlag, "api", "", "Animation service base URL (overrides API_BASE_URL)")
	rootCmd.PersistentFlags().BoolVar(&devFlag, "dev", false, "Debug logging to stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Print results as JSON")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
