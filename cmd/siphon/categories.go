package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/siphon/internal/cli"
	"github.com/Veraticus/siphon/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "Manage subscription categories",
		Long:    `List, add, update, and delete the categories subscriptions are grouped by.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			// Initialize storage with auto-migration
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.ListCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			if len(categories) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No categories found. Use 'siphon categories add' or 'siphon seed' to create some."))
				return nil
			}

			writeCategoryTable(cmd.OutOrStdout(), categories)
			return nil
		},
	}
}

func writeCategoryTable(out io.Writer, categories []model.Category) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		cli.HeaderStyle.Render("ID"),
		cli.HeaderStyle.Render("Name"),
		cli.HeaderStyle.Render("Color"),
		cli.HeaderStyle.Render("Default"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 36),
		strings.Repeat("-", 20),
		strings.Repeat("-", 9),
		strings.Repeat("-", 7))

	for _, cat := range categories {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cat.ID, cat.Name, cli.Swatch(cat.Color), yesNo(cat.IsDefault))
	}
}

func addCategoryCmd() *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			id, err := store.CreateCategory(ctx, &model.CreateCategoryPayload{
				Name:  strings.TrimSpace(args[0]),
				Color: optionalString(color),
			})
			if err != nil {
				return userFacing(err, fmt.Sprintf("category %q", args[0]))
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created category %q (%s)", args[0], id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "Display color as a hex string, e.g. #E74C3C")

	return cmd
}

func updateCategoryCmd() *cobra.Command {
	var (
		name       string
		color      string
		clearColor bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or recolor a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			if name == "" && color == "" && !clearColor {
				return fmt.Errorf("nothing to update: pass --name, --color or --clear-color")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			existing, err := store.GetCategory(ctx, id)
			if err != nil {
				return userFacing(err, "category "+id)
			}

			payload := &model.CreateCategoryPayload{Name: existing.Name, Color: existing.Color}
			if name != "" {
				payload.Name = name
			}
			switch {
			case clearColor:
				payload.Color = nil
			case color != "":
				payload.Color = &color
			}

			if err := store.UpdateCategory(ctx, id, payload); err != nil {
				return userFacing(err, fmt.Sprintf("category %q", payload.Name))
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated category %q", payload.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New category name")
	cmd.Flags().StringVar(&color, "color", "", "New display color")
	cmd.Flags().BoolVar(&clearColor, "clear-color", false, "Remove the display color")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long: `Delete a category. Subscriptions and services that referenced it keep
existing with no category.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteCategory(ctx, args[0]); err != nil {
				return userFacing(err, "category "+args[0])
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted category "+args[0]))
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return cli.SubtleStyle.Render("no")
}
