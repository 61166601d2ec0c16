package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tasktrack-dev/tasktrack/db"
	"github.com/tasktrack-dev/tasktrack/internal/logging"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			gdb, err := db.ConnectDatabase(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if sqlDB, err := gdb.DB(); err == nil {
					sqlDB.Close()
				}
			}()

			if err := db.MigrateDatabase(gdb); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			logging.Logger.WithField("driver", cfg.Database.Driver).Info("database migrated")
			return nil
		},
	}
}
