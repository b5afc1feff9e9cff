package main

import (
	"github.com/spf13/cobra"

	"github.com/emilythestrangee/feedback-board/backend/internal/config"
	"github.com/emilythestrangee/feedback-board/backend/internal/database"
	"github.com/emilythestrangee/feedback-board/backend/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and install the change-feed triggers",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dsn := cfg.DB.DSN()
	db, err := database.New(dsn, logging.Gorm(logger, verbose), logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(cmd.Context(), db, dsn); err != nil {
		return err
	}
	logger.Info("database migrated")
	return nil
}
