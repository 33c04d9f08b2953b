package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/cadence/internal/cli"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send command...",
	Short: "Send commands to a running procedure over TCP",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		wait, _ := cmd.Flags().GetBool("wait")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		var run context.Context = ctx
		if !wait {
			var cancel context.CancelFunc
			run, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return cli.Send(run, fmt.Sprintf("%s:%d", host, port), args, wait, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().String("host", "127.0.0.1", "Host running the procedure")
	sendCmd.Flags().IntP("port", "p", domain.DefaultTCPPort, "TCP interface port")
	sendCmd.Flags().Bool("wait", false, "Stay connected until the run finishes")
	sendCmd.Flags().Duration("timeout", 5*time.Second, "Give up after this long (ignored with --wait)")
}
