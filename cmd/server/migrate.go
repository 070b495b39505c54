package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/storage/sqlstore"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long: `Create or update the database schema. The schema is idempotent, so running
this against an up-to-date database is a no-op.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("purge-tokens", false, "Also delete revoked refresh tokens that have expired")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	purge, _ := cmd.Flags().GetBool("purge-tokens")

	logger.Info("Starting database migration", "driver", cfg.Database.Driver)

	// New applies the schema before returning.
	store, err := sqlstore.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer func() { _ = store.Close() }()

	logger.Info("Database migrations completed")

	if purge {
		n, err := store.PurgeExpiredTokens(cmd.Context(), time.Now())
		if err != nil {
			return fmt.Errorf("failed to purge tokens: %w", err)
		}
		logger.Info("Purged expired revoked tokens", "count", n)
	}
	return nil
}
