package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/siphon/internal/cli"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Restore missing default categories and services",
		Long: `Insert any default category or service that is missing from the
database. Rows that already exist are left untouched, including ones you
have edited.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			result, err := store.Seed(ctx)
			if err != nil {
				return fmt.Errorf("failed to seed defaults: %w", err)
			}

			if result.CategoriesInserted == 0 && result.ServicesInserted == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("All default categories and services are present"))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"Restored %d categories and %d services", result.CategoriesInserted, result.ServicesInserted)))
			return nil
		},
	}
}
