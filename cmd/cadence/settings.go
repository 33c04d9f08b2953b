package main

import (
	"os"

	"github.com/aretw0/cadence/internal/cli"
	"github.com/aretw0/cadence/internal/config"
	"github.com/aretw0/cadence/pkg/ports"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect or change the stored run settings",
	Long: `Run settings hold session metadata (participantID, researchers, date, gender),
the procedure file (conditionFile) and the start task (placeIndex). The backend is
chosen with CADENCE_SETTINGS (file, redis or memory).`,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every stored setting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSettings(cmd, func(s ports.SettingsStore) error {
			return cli.ListSettings(cmd.Context(), s, os.Stdout)
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set key=value...",
	Short: "Store one or more settings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSettings(cmd, func(s ports.SettingsStore) error {
			return cli.SetSettings(cmd.Context(), s, args)
		})
	},
}

var settingsDeleteCmd = &cobra.Command{
	Use:   "delete key...",
	Short: "Remove settings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSettings(cmd, func(s ports.SettingsStore) error {
			for _, k := range args {
				if err := s.Delete(cmd.Context(), k); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func withSettings(cmd *cobra.Command, fn func(ports.SettingsStore) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, closeStore, err := cli.OpenSettings(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(store)
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsListCmd, settingsSetCmd, settingsDeleteCmd)
}
