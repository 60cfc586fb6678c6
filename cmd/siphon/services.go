package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/siphon/internal/cli"
	"github.com/Veraticus/siphon/internal/model"
)

func servicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "services",
		Aliases: []string{"service"},
		Short:   "Manage known subscription services",
	}

	cmd.AddCommand(listServicesCmd())
	cmd.AddCommand(addServiceCmd())
	cmd.AddCommand(deleteServiceCmd())

	return cmd
}

func listServicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			services, err := store.ListServices(ctx)
			if err != nil {
				return fmt.Errorf("failed to get services: %w", err)
			}

			if len(services) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No services found. Use 'siphon services add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Name"),
				cli.HeaderStyle.Render("Category"),
				cli.HeaderStyle.Render("URL"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 36),
				strings.Repeat("-", 20),
				strings.Repeat("-", 18),
				strings.Repeat("-", 30))

			for _, svc := range services {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", svc.ID, svc.Name, cli.Optional(svc.DefaultCategoryID), cli.Optional(svc.URL))
			}
			return nil
		},
	}
}

func addServiceCmd() *cobra.Command {
	var (
		iconURL    string
		url        string
		categoryID string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			id, err := store.CreateService(ctx, &model.CreateServicePayload{
				Name:              strings.TrimSpace(args[0]),
				IconURL:           optionalString(iconURL),
				URL:               optionalString(url),
				DefaultCategoryID: optionalString(categoryID),
			})
			if err != nil {
				return userFacing(err, fmt.Sprintf("service %q", args[0]))
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created service %q (%s)", args[0], id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&iconURL, "icon-url", "", "Icon URL")
	cmd.Flags().StringVar(&url, "url", "", "Service website")
	cmd.Flags().StringVar(&categoryID, "category", "", "Default category id for new subscriptions")

	return cmd
}

func deleteServiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a service",
		Long:  `Delete a service. Subscriptions that referenced it keep existing with no service.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteService(ctx, args[0]); err != nil {
				return userFacing(err, "service "+args[0])
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted service "+args[0]))
			return nil
		},
	}
}
