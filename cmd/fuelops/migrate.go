package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neomorfeo/fuelops/internal/adapter/river"
	"github.com/neomorfeo/fuelops/internal/adapter/sqlite"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database and job queue migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			db, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer db.Close()

			if err := river.Migrate(cmd.Context(), db.SQL()); err != nil {
				return err
			}

			logger.Info("migrations applied", "database", cfg.DatabasePath)
			return nil
		},
	}
}
