package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/siphon/internal/cli"
	"github.com/Veraticus/siphon/internal/config"
)

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup [path]",
		Short: "Write a copy of the database",
		Long: `Write a consistent snapshot of the database. Without a path the
snapshot goes to the backups directory next to the database.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var dest string
			if len(args) == 1 {
				abs, err := config.AbsPath(args[0])
				if err != nil {
					return fmt.Errorf("failed to resolve backup path: %w", err)
				}
				dest = abs
			} else {
				name := fmt.Sprintf("siphon-%s.db", time.Now().UTC().Format("20060102-150405"))
				dest = filepath.Join(config.BackupDir(databasePath()), name)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			info, err := store.Backup(ctx, dest)
			if err != nil {
				return userFacing(err, "backup")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess("Backup written to "+info.Path))

			tables := make([]string, 0, len(info.RowCounts))
			for table := range info.RowCounts {
				tables = append(tables, table)
			}
			sort.Strings(tables)
			for _, table := range tables {
				fmt.Fprintf(out, "  %-14s %d\n", table, info.RowCounts[table])
			}
			fmt.Fprintf(out, "  %-14s %d bytes\n", "size", info.FileSize)
			return nil
		},
	}
}
