package main

import (
	"context"

	"github.com/aretw0/cadence/internal/cli"
	"github.com/aretw0/cadence/internal/config"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [procedure.json]",
	Short: "Run a procedure",
	Long: `Runs a procedure until it completes, is aborted by an overlong pause, or the
quit key is pressed. Without an argument the procedure file comes from the
run settings (conditionFile). Flags override CADENCE_* environment variables.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("tick") {
			cfg.TickInterval, _ = flags.GetDuration("tick")
		}
		if flags.Changed("logs") {
			cfg.LogDir, _ = flags.GetString("logs")
		}
		if flags.Changed("record") {
			cfg.RecordPath, _ = flags.GetString("record")
		}
		if flags.Changed("http") {
			cfg.HTTPAddr, _ = flags.GetString("http")
		}
		if flags.Changed("assets") {
			cfg.AssetDir, _ = flags.GetString("assets")
		}
		if flags.Changed("seed-variables") {
			cfg.SeedVariables, _ = flags.GetBool("seed-variables")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		opts := cli.RunOptions{Config: cfg}
		if len(args) > 0 {
			opts.ProcedurePath = args[0]
		}
		opts.StartIndex, _ = flags.GetInt("start")
		opts.Headless, _ = flags.GetBool("headless")
		opts.Debug, _ = cmd.Flags().GetBool("debug")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.Execute(ctx, opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("start", -1, "Start at this task index (default: stored placeIndex, else 0)")
	runCmd.Flags().Bool("headless", false, "Do not read the keyboard; commands arrive over TCP only")
	runCmd.Flags().Duration("tick", 0, "Tick interval (default 16ms)")
	runCmd.Flags().String("logs", "", "Directory for per-run log streams (default logs)")
	runCmd.Flags().String("record", "", "Record lifecycle events to this SQLite database")
	runCmd.Flags().String("http", "", "Serve run status on this address, e.g. :8080")
	runCmd.Flags().String("assets", "", "Check stimulus files exist under this directory")
	runCmd.Flags().Bool("seed-variables", false, "Copy run settings into the variable store")
}
