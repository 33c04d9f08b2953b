package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Cadence runs timed experiment procedures",
	Long: `Cadence runs a procedure file task by task: stimuli are shown until an end
condition fires, driven by keyboard or TCP commands, with a global pause,
per-run logs and optional event recording.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Log debug output to stderr")
}
