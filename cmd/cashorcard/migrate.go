package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/acejarvis/cash-or-card/backend/internal/database"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := mustConfig(cmd)
			logger := commonRun(cfg)

			db, err := database.Open(cfg.Database, logger.With("component", "database"))
			if err != nil {
				logger.Error(err.Error())
				os.Exit(1)
			}
			if err := database.Migrate(db); err != nil {
				logger.Error(err.Error())
				os.Exit(1)
			}
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close() //nolint:errcheck
			}
			logger.Info("migrations completed")
		},
	}
}
