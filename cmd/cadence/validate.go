package main

import (
	"log/slog"
	"os"

	"github.com/aretw0/cadence/internal/cli"
	"github.com/aretw0/cadence/internal/logging"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate procedure.json",
	Short: "Check a procedure file",
	Long:  `Compiles a procedure file and reports fatal errors and skipped entries. With --watch it re-checks the file on every save.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		if !watch {
			return cli.Validate(args[0], os.Stdout)
		}

		debug, _ := cmd.Flags().GetBool("debug")
		logger := logging.NewNop()
		if debug {
			logger = logging.New(slog.LevelDebug)
		}
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.Watch(ctx, args[0], os.Stdout, logger)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolP("watch", "w", false, "Re-validate whenever the file changes")
}
