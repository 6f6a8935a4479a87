package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"top100/internal/config"
	"top100/internal/db"
)

func seedCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample awardees and announcements for development",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := commonRun(cfg)
			if !cfg.IsDev() {
				return fmt.Errorf("refusing to seed in %q environment", cfg.Env)
			}

			database, err := db.New(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.Close()

			if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			if err := database.SeedDevData(cmd.Context()); err != nil {
				return err
			}
			logger.Info("seed data inserted")
			return nil
		},
	}
}
