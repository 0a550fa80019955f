package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/usagetrack/internal/adapters/turso"
	"github.com/emiliopalmerini/usagetrack/internal/infrastructure/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the usage database schema",
	Long: `Applies all pending schema migrations to the usage database.

The hook command does this on every run, so migrate is only needed to
prepare a database ahead of time or to check its schema version.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadTracker()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := turso.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		return err
	}

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database: %s\n", store.Path())
	fmt.Fprintf(out, "Schema version: %d\n", version)
	return nil
}
