package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yellcord/realtime/internal/config"
	"github.com/yellcord/realtime/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return database.MigrateUp(cfg.DatabaseURL)
	},
}
