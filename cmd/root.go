package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "realtime",
	Short: "Yellcord realtime core: presence, chat fan-out, call signaling",
	Long:  `WebSocket messaging and presence server. Commands: serve, migrate.`,
	RunE:  runServe, // default: serve
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// Execute runs the root command and returns the error for main to log.
func Execute() error {
	return rootCmd.Execute()
}
