package main

import (
	"fmt"
	"os"

	"github.com/fentz26/dosewatch/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dosewatch",
	Short: "dosewatch - medication reminders and adherence tracking",
	Long: `dosewatch runs a local daemon that reminds you when a scheduled dose is due,
records whether it was taken, and reports daily and monthly adherence.`,
	SilenceUsage: true,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr    string
	configPath string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://"+config.DefaultListen, "API server address")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $DOSEWATCH_CONFIG_PATH)")

	// Add subcommands
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(contactsCmd)
	rootCmd.AddCommand(reminderCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(adherenceCmd)
	rootCmd.AddCommand(sosCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
