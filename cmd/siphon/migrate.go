package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/siphon/internal/cli"
	"github.com/Veraticus/siphon/internal/config"
	"github.com/Veraticus/siphon/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

An existing database is copied into a backups directory next to it
before pending migrations are applied.`,
		RunE: runMigrate,
	}

	// Flags
	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")
	cmd.Flags().Bool("no-backup", false, "Skip the pre-migration backup")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	noBackup, _ := cmd.Flags().GetBool("no-backup")
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	dbPath := databasePath()
	slog.Debug("Starting database migration",
		"database", dbPath,
		"status_only", status)

	// Create storage instance
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if status {
		fmt.Fprintln(out, cli.FormatTitle("Database Migration Status"))
		fmt.Fprintf(out, "Database:        %s\n", dbPath)
		fmt.Fprintf(out, "Current version: %d\n", current)
		fmt.Fprintf(out, "Latest version:  %d\n", storage.ExpectedSchemaVersion)
		for _, m := range storage.Migrations() {
			if m.Version > current {
				fmt.Fprintf(out, "  pending: %d %s\n", m.Version, m.Description)
			}
		}
		return nil
	}

	if current >= storage.ExpectedSchemaVersion {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Database is already at version %d", current)))
		return nil
	}

	// Run migrations
	if noBackup {
		if current > 0 {
			fmt.Fprintln(out, cli.FormatWarning("Migrating an existing database without a backup"))
		}
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	} else {
		info, err := store.MigrateWithBackup(ctx, config.BackupDir(dbPath))
		if info != nil {
			fmt.Fprintln(out, cli.FormatInfo("Backup written to "+info.Path))
		}
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database migrated from version %d to %d", current, storage.ExpectedSchemaVersion)))
	return nil
}
